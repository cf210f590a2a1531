package view

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/safecoin/interest-api/binder"
	"github.com/safecoin/interest-api/types"
	"github.com/stretchr/testify/require"
)

func TestBalanceVariantDependsOnlyOnCode(t *testing.T) {
	infos := []types.BalanceInfo{
		{Code: -5, Message: "Invalid address"},
		{Code: -5, Message: "Invalid address", Balance: 10, Total: 10},
		{Code: types.CodeTransport},
	}
	for _, info := range infos {
		v := Balance(info)
		require.Nil(t, v.Table)
		require.Equal(t, info.Message, v.Warning)
	}

	for _, info := range []types.BalanceInfo{{}, {Balance: 1, Interest: 2, Total: 3}, {Balance: -1, Message: "ignored"}} {
		v := Balance(info)
		require.Empty(t, v.Warning)
		require.Equal(t, info.Total, v.Table.Total)
	}
}

func TestTxLink(t *testing.T) {
	r := Renderer{ExplorerURL: "https://explorer.safecoin.org/"}
	require.Equal(t, "https://explorer.safecoin.org/tx/abc", r.TxLink("abc"))
}

func TestLocktimeCell(t *testing.T) {
	require.Equal(t, "Locktime: 1500000000", Locktime(1500000000).Title)
	require.Equal(t, "ok", Locktime(1).Status)
	require.Equal(t, "Locktime field is not set!", Locktime(0).Title)
	require.Equal(t, "warning", Locktime(0).Status)
}

type replyPort struct {
	unspents []types.UnspentOutput
	err      error
}

func (p replyPort) RequestBalance(address string, reply func(types.BalanceInfo)) {
	reply(types.BalanceInfo{Balance: 50, Interest: 1, Total: 51})
}

func (p replyPort) RequestUtxos(address string, reply func([]types.UnspentOutput, error)) {
	reply(p.unspents, p.err)
}

func outputs(n int) []types.UnspentOutput {
	out := make([]types.UnspentOutput, n)
	for i := range out {
		out[i] = types.UnspentOutput{
			Amount:        float64(i),
			TxID:          fmt.Sprintf("tx%02d", i),
			Confirmations: i,
			Timestamp:     int64(i * 60),
		}
	}
	return out
}

func TestRenderBeforeUtxos(t *testing.T) {
	b := binder.New(binder.BinderOpts{Port: replyPort{}})
	b.SetAddress("RAddr1")

	out, err := Renderer{}.Render(b.State(), Query{})
	require.NoError(t, err)
	require.Equal(t, types.PhaseBalanceShown, out.Phase)
	require.True(t, out.CanCheckUtxos)
	require.NotNil(t, out.Balance.Table)
	require.Nil(t, out.Table)
}

func TestRenderTableDefaultSortAndPaging(t *testing.T) {
	b := binder.New(binder.BinderOpts{Port: replyPort{unspents: outputs(25)}})
	b.SetAddress("RAddr1")
	b.CheckUtxos()

	r := Renderer{ExplorerURL: "https://explorer.safecoin.org"}
	out, err := r.Render(b.State(), Query{})
	require.NoError(t, err)
	require.Equal(t, Requirements, out.Requirements)

	table := out.Table
	require.True(t, table.ShowPagination)
	require.True(t, table.ShowSearch)
	require.Equal(t, []SortKey{{ID: "timestamp", Desc: true}}, table.Sorted)
	require.Len(t, table.Rows, 20)
	require.Equal(t, 2, table.PageCount)

	first := table.Rows[0].Cells
	require.Equal(t, "tx24", first[4].Text)
	require.Equal(t, "https://explorer.safecoin.org/tx/tx24", first[4].Href)
	require.Equal(t, "_blank", first[4].Target)

	out, err = r.Render(b.State(), Query{Page: 2, SortID: "amount"})
	require.NoError(t, err)
	require.Len(t, out.Table.Rows, 5)
	require.Equal(t, "20", out.Table.Rows[0].Cells[0].Text)

	_, err = r.Render(b.State(), Query{SortID: "nope"})
	require.Error(t, err)
}

func TestRenderSingleRowHidesSearch(t *testing.T) {
	b := binder.New(binder.BinderOpts{Port: replyPort{unspents: outputs(1)}})
	b.SetAddress("RAddr1")
	b.CheckUtxos()

	out, err := Renderer{}.Render(b.State(), Query{})
	require.NoError(t, err)
	require.False(t, out.Table.ShowSearch)
	require.False(t, out.Table.ShowPagination)
}

func TestRenderCachedSnapshot(t *testing.T) {
	cachedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b := binder.New(binder.BinderOpts{Port: replyPort{
		unspents: outputs(2),
		err:      &types.StaleError{FetchedAt: cachedAt, Err: errors.New("node down")},
	}})
	b.SetAddress("RAddr1")
	b.CheckUtxos()

	out, err := Renderer{}.Render(b.State(), Query{})
	require.NoError(t, err)
	require.True(t, out.Stale)
	require.Equal(t, cachedAt, *out.CachedAt)
	require.Len(t, out.Table.Rows, 2)
	require.Contains(t, out.UtxoError, "node down")
}
