package shaper

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/safecoin/interest-api/types"
)

var ErrUnknownColumn = errors.New("unknown column")

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	TimestampLayout,
}

// Compare orders two cell values: numbers numerically, date-like values
// chronologically and everything else lexicographically.
func Compare(a, b any) int {
	if an, ok := toNumber(a); ok {
		if bn, ok := toNumber(b); ok {
			return cmp.Compare(an, bn)
		}
	}

	if at, ok := toTime(a); ok {
		if bt, ok := toTime(b); ok {
			return at.Compare(bt)
		}
	}

	return strings.Compare(toString(a), toString(b))
}

// Sort returns a copy of rows ordered by the given column id.
func Sort(rows []types.UnspentOutput, columnID string, desc bool) ([]types.UnspentOutput, error) {
	accessor, ok := AccessorFor(columnID)
	if !ok {
		return nil, fmt.Errorf("failed to sort by %q: %w", columnID, ErrUnknownColumn)
	}

	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b types.UnspentOutput) int {
		c := Compare(accessor(a), accessor(b))
		if desc {
			return -c
		}
		return c
	})

	return sorted, nil
}

// SortDefault orders rows by timestamp, newest first.
func SortDefault(rows []types.UnspentOutput) []types.UnspentOutput {
	sorted, _ := Sort(rows, DefaultSortKey, true)
	return sorted
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n)
	case *int64:
		if n == nil {
			return 0, false
		}
		return float64(*n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
