package binder

import (
	"time"

	"github.com/safecoin/interest-api/shaper"
	"github.com/safecoin/interest-api/types"
)

// State is the complete, immutable state of one interest view. It is only
// ever replaced, never modified in place.
type State struct {
	Address string          `json:"address"`
	Phase   types.ViewPhase `json:"phase"`

	Balance *types.BalanceInfo `json:"balance,omitempty"`

	// Unspents is nil until a UTXO list has been received.
	Unspents []types.UnspentOutput `json:"-"`
	Items    []types.UnspentOutput `json:"-"`
	Filtered []types.UnspentOutput `json:"-"`
	Columns  []shaper.Column       `json:"columns"`

	SearchTerm      string `json:"search_term"`
	PageSize        int    `json:"page_size"`
	DefaultPageSize int    `json:"default_page_size"`
	ShowPagination  bool   `json:"show_pagination"`

	UtxoError string `json:"utxo_error,omitempty"`

	// Stale is set when the rows are a cached snapshot; CachedAt is when it
	// was taken, if known.
	Stale    bool       `json:"stale"`
	CachedAt *time.Time `json:"cached_at,omitempty"`

	// seq is the last sequence number handed out; the pending ones are the
	// only replies that are accepted.
	seq            uint64
	pendingBalance uint64
	pendingUtxos   uint64
}

// NewState returns the state of a view that has not seen an address yet.
func NewState(defaultPageSize int) State {
	if defaultPageSize < 1 {
		defaultPageSize = shaper.DefaultPageSize
	}
	return State{
		Phase:           types.PhaseIdle,
		Columns:         shaper.Columns(0),
		PageSize:        defaultPageSize,
		DefaultPageSize: defaultPageSize,
	}
}

// CanCheckUtxos reports whether the "Check UTXO" action is offered.
func (s State) CanCheckUtxos() bool {
	return s.Balance != nil && !s.Balance.Failed() && s.Balance.Balance > 0
}

// cleared keeps the page size settings and the sequence counter and drops
// everything tied to the current address.
func (s State) cleared() State {
	next := NewState(s.DefaultPageSize)
	next.PageSize = s.PageSize
	next.seq = s.seq
	return next
}

func (s State) withRows(rows []types.UnspentOutput) State {
	s.Unspents = rows
	s.Items = rows
	s.Filtered = shaper.Filter(rows, s.SearchTerm)
	s.Columns = shaper.Columns(len(rows))
	s.ShowPagination = shaper.ShowPagination(len(rows), s.DefaultPageSize)
	return s
}
