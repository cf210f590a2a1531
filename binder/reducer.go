package binder

import (
	"errors"

	"github.com/safecoin/interest-api/shaper"
	"github.com/safecoin/interest-api/types"
)

// Reduce computes the state following e and the side effects it requires.
// It has no side effects of its own.
func Reduce(s State, e Event) (State, []Command) {
	switch e := e.(type) {
	case AddressChanged:
		return addressChanged(s, e)

	case BalanceReceived:
		if s.Phase != types.PhaseLoading || e.Seq == 0 || e.Seq != s.pendingBalance {
			return s, nil
		}
		info := e.Info
		s.Balance = &info
		s.Phase = types.PhaseBalanceShown
		s.pendingBalance = 0
		return s, nil

	case UtxosRequested:
		if s.Phase != types.PhaseBalanceShown && s.Phase != types.PhaseUtxosShown {
			return s, nil
		}
		if !s.CanCheckUtxos() {
			return s, nil
		}
		s.seq++
		s.pendingUtxos = s.seq
		s.Phase = types.PhaseUtxosLoading
		s.UtxoError = ""
		return s, []Command{RequestUtxos{Seq: s.seq, Address: s.Address}}

	case UtxosReceived:
		return utxosReceived(s, e)

	case SearchTermChanged:
		s.SearchTerm = e.Term
		s.Filtered = shaper.Filter(s.Items, e.Term)
		return s, nil

	case PageSizeChanged:
		if e.PageSize < 1 {
			return s, nil
		}
		s.PageSize = e.PageSize
		s.ShowPagination = shaper.ShowPagination(len(s.Items), s.DefaultPageSize)
		return s, nil

	case Reset:
		var cmds []Command
		if s.Address != "" {
			cmds = append(cmds, ResetInterest{Address: s.Address})
		}
		return s.cleared(), cmds
	}

	return s, nil
}

func addressChanged(s State, e AddressChanged) (State, []Command) {
	if e.Address == s.Address {
		return s, nil
	}

	next := s.cleared()
	if e.Address == "" {
		return next, nil
	}

	next.Address = e.Address
	next.Phase = types.PhaseLoading
	next.seq++
	next.pendingBalance = next.seq

	return next, []Command{RequestBalance{Seq: next.seq, Address: e.Address}}
}

func utxosReceived(s State, e UtxosReceived) (State, []Command) {
	if s.Phase != types.PhaseUtxosLoading || e.Seq == 0 || e.Seq != s.pendingUtxos {
		return s, nil
	}
	s.pendingUtxos = 0

	var stale *types.StaleError
	if e.Err != nil && !errors.As(e.Err, &stale) {
		s.UtxoError = e.Err.Error()
		if s.Unspents == nil {
			s.Phase = types.PhaseBalanceShown
		} else {
			s.Phase = types.PhaseUtxosShown
		}
		return s, nil
	}

	rows := e.Unspents
	if rows == nil {
		rows = []types.UnspentOutput{}
	}
	s.Phase = types.PhaseUtxosShown
	s.Stale = false
	s.CachedAt = nil

	if stale != nil {
		s.Stale = true
		s.UtxoError = stale.Error()
		if !stale.FetchedAt.IsZero() {
			at := stale.FetchedAt
			s.CachedAt = &at
		}
	}

	return s.withRows(rows), nil
}
