package models

import (
	"time"

	"github.com/safecoin/interest-api/types"
)

// Unspent is one cached output of an address.
type Unspent struct {
	Address             string `json:"address" bson:"address"`
	types.UnspentOutput `bson:",inline"`
	FetchedAt           time.Time `json:"fetched_at" bson:"fetched_at"`
}
