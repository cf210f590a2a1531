package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/safecoin/interest-api/database/models"
	"github.com/safecoin/interest-api/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SaveBalance upserts the balance of address. Failed lookups are ignored.
func (db *Database) SaveBalance(ctx context.Context, address string, info types.BalanceInfo) error {
	if info.Failed() {
		return nil
	}

	filter := bson.D{{Key: "address", Value: address}}
	update := bson.D{{
		Key: "$set",
		Value: models.Balance{
			Address:     address,
			BalanceInfo: info,
			FetchedAt:   time.Now(),
		},
	}}

	_, err := db.collection(balancesCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}

	return nil
}

// GetBalance returns the cached balance of address. The boolean is false when
// nothing is cached.
func (db *Database) GetBalance(ctx context.Context, address string) (models.Balance, bool, error) {
	var result models.Balance
	err := db.collection(balancesCollection).FindOne(ctx, bson.D{{Key: "address", Value: address}}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Balance{}, false, nil
		}
		return models.Balance{}, false, fmt.Errorf("failed to get balance: %w", err)
	}

	return result, true, nil
}

func (db *Database) DeleteBalance(ctx context.Context, address string) error {
	_, err := db.collection(balancesCollection).DeleteOne(ctx, bson.D{{Key: "address", Value: address}})
	if err != nil {
		return fmt.Errorf("failed to delete balance: %w", err)
	}

	return nil
}
