package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/safecoin/interest-api/database/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Update or create the fetch record of an address
func (db *Database) UpdateLastFetch(ctx context.Context, address string, count int, at time.Time) error {
	filter := bson.D{{Key: "address", Value: address}}
	update := bson.D{{
		Key: "$set",
		Value: bson.D{
			{Key: "count", Value: count},
			{Key: "fetched_at", Value: at},
		},
	}}

	_, err := db.collection(lastFetchCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to update last fetch: %w", err)
	}

	return nil
}

// GetLastFetch returns the fetch record of an address, or nil when its
// outputs were never fetched.
func (db *Database) GetLastFetch(ctx context.Context, address string) (*models.LastFetch, error) {
	var result models.LastFetch
	err := db.collection(lastFetchCollection).FindOne(ctx, bson.D{{Key: "address", Value: address}}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last fetch: %w", err)
	}

	return &result, nil
}
