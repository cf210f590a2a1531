package database

import (
	"context"
	"fmt"
	"time"

	"github.com/safecoin/interest-api/database/models"
	"github.com/safecoin/interest-api/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SaveUnspents replaces the cached outputs of address with outputs.
func (db *Database) SaveUnspents(ctx context.Context, address string, outputs []types.UnspentOutput) error {
	collection := db.collection(unspentsCollection)

	if _, err := collection.DeleteMany(ctx, bson.D{{Key: "address", Value: address}}); err != nil {
		return fmt.Errorf("failed to clear unspents: %w", err)
	}

	now := time.Now()
	if len(outputs) > 0 {
		_, err := collection.InsertMany(ctx, unspentDocuments(address, outputs, now), options.InsertMany().SetOrdered(false))
		if err != nil && !onlyDuplicates(err) {
			return fmt.Errorf("failed to insert unspents: %w", err)
		}
	}

	if err := db.UpdateLastFetch(ctx, address, len(outputs), now); err != nil {
		return err
	}

	db.logger.Debug("cached unspents", "address", address, "count", len(outputs))

	return nil
}

// GetUnspents returns the cached outputs matching filter, newest first.
func (db *Database) GetUnspents(ctx context.Context, filter models.Filter) ([]types.UnspentOutput, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetBatchSize(1000)

	cursor, err := db.collection(unspentsCollection).Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get unspents: %w", err)
	}
	defer cursor.Close(ctx)

	var documents []models.Unspent
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("failed to decode unspents: %w", err)
	}

	outputs := make([]types.UnspentOutput, len(documents))
	for i, d := range documents {
		outputs[i] = d.UnspentOutput
	}

	return outputs, nil
}

func unspentDocuments(address string, outputs []types.UnspentOutput, at time.Time) []interface{} {
	documents := make([]interface{}, len(outputs))
	for i, output := range outputs {
		documents[i] = models.Unspent{
			Address:       address,
			UnspentOutput: output,
			FetchedAt:     at,
		}
	}
	return documents
}
