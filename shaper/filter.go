package shaper

import (
	"strconv"
	"strings"
	"time"

	"github.com/safecoin/interest-api/types"
)

// TimestampLayout is how output timestamps are shown and searched.
const TimestampLayout = "2 Jan 2006 15:04"

// FormatTimestamp renders unix seconds in UTC using TimestampLayout.
func FormatTimestamp(seconds int64) string {
	return time.Unix(seconds, 0).UTC().Format(TimestampLayout)
}

// Filter returns the rows matching term, keeping their order. An empty term
// matches everything.
func Filter(rows []types.UnspentOutput, term string) []types.UnspentOutput {
	if term == "" {
		return rows
	}

	term = strings.ToLower(term)
	filtered := make([]types.UnspentOutput, 0, len(rows))
	for _, row := range rows {
		if Matches(row, term) {
			filtered = append(filtered, row)
		}
	}

	return filtered
}

// Matches reports whether a lower-cased term is contained in one of the
// searchable fields of row.
func Matches(row types.UnspentOutput, term string) bool {
	if term == "" {
		return true
	}

	if coin := row.Coin; coin != nil {
		if contains(strings.ToLower(coin.Name), term) {
			return true
		}
		if coin.BlockIndex != nil && contains(strconv.FormatInt(*coin.BlockIndex, 10), term) {
			return true
		}
		if contains(coin.TxID, term) {
			return true
		}
	}

	return contains(strings.ToLower(FormatTimestamp(row.Timestamp)), term)
}

// missing fields are empty and never match
func contains(value, term string) bool {
	return value != "" && strings.Contains(value, term)
}
