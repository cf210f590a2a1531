package models

import (
	"time"

	"github.com/safecoin/interest-api/types"
)

// Balance is the last successful balance lookup of an address. Failed
// lookups are never cached.
type Balance struct {
	Address           string `json:"address" bson:"address"`
	types.BalanceInfo `bson:",inline"`
	FetchedAt         time.Time `json:"fetched_at" bson:"fetched_at"`
}
