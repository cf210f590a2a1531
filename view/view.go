// Package view turns interest view state into the documents served to the
// wallet front end.
package view

import (
	"strconv"
	"strings"
	"time"

	"github.com/safecoin/interest-api/binder"
	"github.com/safecoin/interest-api/shaper"
	"github.com/safecoin/interest-api/types"
)

// Requirements is shown above the UTXO table.
const Requirements = "Requirements to accrue interest: spend transaction was made at least 1 hour ago, locktime field is set and UTXO amount is greater than 10 SAFE."

// BalanceView is either a warning or a balance table, never both.
type BalanceView struct {
	Warning string        `json:"warning,omitempty"`
	Table   *BalanceTable `json:"table,omitempty"`
}

type BalanceTable struct {
	Balance  float64 `json:"balance"`
	Interest float64 `json:"interest"`
	Total    float64 `json:"total"`
}

// Cell is one rendered table cell.
type Cell struct {
	Column string `json:"column"`
	Text   string `json:"text"`
	Title  string `json:"title,omitempty"`
	Status string `json:"status,omitempty"`
	Href   string `json:"href,omitempty"`
	Target string `json:"target,omitempty"`
}

type Row struct {
	Cells []Cell `json:"cells"`
}

type SortKey struct {
	ID   string `json:"id"`
	Desc bool   `json:"desc"`
}

// Query holds the table widget state that is not part of the view state.
type Query struct {
	Page   int
	SortID string
	Desc   bool
}

// Table is a rendered, sorted and paginated UTXO table.
type Table struct {
	Columns        []shaper.Column `json:"columns"`
	Rows           []Row           `json:"rows"`
	ShowSearch     bool            `json:"show_search"`
	SearchTerm     string          `json:"search_term"`
	ShowPagination bool            `json:"show_pagination"`
	PageSize       int             `json:"page_size"`
	Page           int             `json:"page"`
	PageCount      int             `json:"page_count"`
	TotalCount     int             `json:"total_count"`
	Sorted         []SortKey       `json:"sorted"`
}

// Interest is the whole interest view.
type Interest struct {
	Address       string          `json:"address"`
	Phase         types.ViewPhase `json:"phase"`
	Balance       *BalanceView    `json:"balance,omitempty"`
	CanCheckUtxos bool            `json:"can_check_utxos"`
	Requirements  string          `json:"requirements,omitempty"`
	Table         *Table          `json:"table,omitempty"`
	UtxoError     string          `json:"utxo_error,omitempty"`
	Stale         bool            `json:"stale"`
	CachedAt      *time.Time      `json:"cached_at,omitempty"`
}

// TableSource is the data a table is rendered from.
type TableSource struct {
	Items          []types.UnspentOutput
	Filtered       []types.UnspentOutput
	SearchTerm     string
	PageSize       int
	ShowPagination bool
}

type Renderer struct {
	ExplorerURL string
}

// Balance renders a balance lookup result. Only the error code decides
// which variant is used.
func Balance(info types.BalanceInfo) BalanceView {
	if info.Failed() {
		return BalanceView{Warning: info.Message}
	}
	return BalanceView{Table: &BalanceTable{
		Balance:  info.Balance,
		Interest: info.Interest,
		Total:    info.Total,
	}}
}

// TxLink returns the explorer page of a transaction.
func (r Renderer) TxLink(txid string) string {
	return strings.TrimSuffix(r.ExplorerURL, "/") + "/tx/" + txid
}

// Render renders a view state.
func (r Renderer) Render(s binder.State, q Query) (Interest, error) {
	out := Interest{
		Address:       s.Address,
		Phase:         s.Phase,
		CanCheckUtxos: s.CanCheckUtxos(),
		UtxoError:     s.UtxoError,
		Stale:         s.Stale,
		CachedAt:      s.CachedAt,
	}

	if s.Balance != nil {
		b := Balance(*s.Balance)
		out.Balance = &b
	}

	if len(s.Unspents) == 0 {
		return out, nil
	}

	table, err := r.Table(TableSource{
		Items:          s.Items,
		Filtered:       s.Filtered,
		SearchTerm:     s.SearchTerm,
		PageSize:       s.PageSize,
		ShowPagination: s.ShowPagination,
	}, q)
	if err != nil {
		return out, err
	}
	out.Requirements = Requirements
	out.Table = table

	return out, nil
}

// Table sorts, paginates and renders the filtered rows of src.
func (r Renderer) Table(src TableSource, q Query) (*Table, error) {
	sortKey := SortKey{ID: shaper.DefaultSortKey, Desc: true}
	if q.SortID != "" {
		sortKey = SortKey{ID: q.SortID, Desc: q.Desc}
	}

	sorted, err := shaper.Sort(src.Filtered, sortKey.ID, sortKey.Desc)
	if err != nil {
		return nil, err
	}

	page := shaper.Paginate(sorted, q.Page, src.PageSize)
	columns := shaper.Columns(len(src.Items))

	rows := make([]Row, len(page.Items))
	for i, item := range page.Items {
		rows[i] = r.row(columns, item)
	}

	return &Table{
		Columns:        columns,
		Rows:           rows,
		ShowSearch:     len(src.Items) > 1,
		SearchTerm:     src.SearchTerm,
		ShowPagination: src.ShowPagination,
		PageSize:       page.PageSize,
		Page:           page.Page,
		PageCount:      page.PageCount,
		TotalCount:     page.TotalCount,
		Sorted:         []SortKey{sortKey},
	}, nil
}

func (r Renderer) row(columns []shaper.Column, item types.UnspentOutput) Row {
	cells := make([]Cell, len(columns))
	for i, c := range columns {
		cells[i] = r.cell(c, item)
	}
	return Row{Cells: cells}
}

func (r Renderer) cell(c shaper.Column, item types.UnspentOutput) Cell {
	switch c.ID {
	case "locktime":
		return Locktime(item.Locktime)
	case "txid":
		return Cell{Column: c.ID, Text: item.TxID, Href: r.TxLink(item.TxID), Target: "_blank"}
	case "amount":
		return Cell{Column: c.ID, Text: formatValue(item.Amount)}
	case "interest":
		return Cell{Column: c.ID, Text: formatValue(item.Interest)}
	case "confirmations":
		return Cell{Column: c.ID, Text: strconv.Itoa(item.Confirmations)}
	}
	return Cell{Column: c.ID}
}

// Locktime renders the locktime indicator.
func Locktime(locktime int64) Cell {
	if locktime > 0 {
		return Cell{
			Column: "locktime",
			Text:   strconv.FormatInt(locktime, 10),
			Title:  "Locktime: " + strconv.FormatInt(locktime, 10),
			Status: "ok",
		}
	}
	return Cell{Column: "locktime", Title: "Locktime field is not set!", Status: "warning"}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
