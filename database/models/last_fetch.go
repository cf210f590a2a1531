package models

import "time"

// LastFetch records when the outputs of an address were last refreshed from
// the node. It lets the API tell a fresh snapshot from a stale fallback.
type LastFetch struct {
	Address   string    `json:"address" bson:"address"`
	Count     int       `json:"count" bson:"count"`
	FetchedAt time.Time `json:"fetched_at" bson:"fetched_at"`
}
