package shaper

import "github.com/safecoin/interest-api/types"

const (
	// FooterThreshold is the row count above which the table footer is shown.
	FooterThreshold = 15

	// DefaultPageSize is the page size a fresh view starts with, and the row
	// count from which pagination controls are shown.
	DefaultPageSize = 20

	// DefaultSortKey is the key rows are ordered by before any user sort.
	DefaultSortKey = "timestamp"
)

// Accessor extracts a sortable value from an output.
type Accessor func(item types.UnspentOutput) any

// Column describes one column of the UTXO table.
type Column struct {
	ID       string   `json:"id"`
	Header   string   `json:"header"`
	Footer   string   `json:"footer,omitempty"`
	MaxWidth int      `json:"max_width,omitempty"`
	Accessor Accessor `json:"-"`
}

var accessors = map[string]Accessor{
	"amount":        func(item types.UnspentOutput) any { return item.Amount },
	"interest":      func(item types.UnspentOutput) any { return item.Interest },
	"locktime":      func(item types.UnspentOutput) any { return item.Locktime },
	"confirmations": func(item types.UnspentOutput) any { return item.Confirmations },
	"txid":          func(item types.UnspentOutput) any { return item.TxID },
	"timestamp":     func(item types.UnspentOutput) any { return item.Timestamp },
}

// AccessorFor returns the accessor for a column id or the hidden timestamp key.
func AccessorFor(id string) (Accessor, bool) {
	a, ok := accessors[id]
	return a, ok
}

// Columns returns the table layout for a table of rowCount rows. Footers are
// only set when the table is long enough for a bottom bar to be useful.
func Columns(rowCount int) []Column {
	columns := []Column{
		{ID: "amount", Header: "Amount", MaxWidth: 150},
		{ID: "interest", Header: "Interest", MaxWidth: 250},
		{ID: "locktime", Header: "Locktime"},
		{ID: "confirmations", Header: "Confirmations"},
		{ID: "txid", Header: "TxID"},
	}

	for i := range columns {
		columns[i].Accessor = accessors[columns[i].ID]
		if rowCount > FooterThreshold {
			columns[i].Footer = columns[i].Header
		}
	}

	return columns
}

// ShowPagination reports whether a table of n rows needs pagination controls.
func ShowPagination(n, defaultPageSize int) bool {
	return n >= defaultPageSize
}
