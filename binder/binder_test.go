package binder

import (
	"sync"
	"testing"

	"github.com/safecoin/interest-api/types"
	"github.com/stretchr/testify/require"
)

type fakePort struct {
	mu             sync.Mutex
	balanceCalls   []string
	utxoCalls      []string
	resets         []string
	balanceReplies []func(types.BalanceInfo)
	utxoReplies    []func([]types.UnspentOutput, error)
}

func (p *fakePort) RequestBalance(address string, reply func(types.BalanceInfo)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balanceCalls = append(p.balanceCalls, address)
	p.balanceReplies = append(p.balanceReplies, reply)
}

func (p *fakePort) RequestUtxos(address string, reply func([]types.UnspentOutput, error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.utxoCalls = append(p.utxoCalls, address)
	p.utxoReplies = append(p.utxoReplies, reply)
}

func (p *fakePort) ResetInterestState(address string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets = append(p.resets, address)
}

// syncPort answers every request before returning.
type syncPort struct {
	balance  types.BalanceInfo
	unspents []types.UnspentOutput
}

func (p syncPort) RequestBalance(address string, reply func(types.BalanceInfo)) {
	reply(p.balance)
}

func (p syncPort) RequestUtxos(address string, reply func([]types.UnspentOutput, error)) {
	reply(p.unspents, nil)
}

func TestBinderIssuesOneRequestPerAddressChange(t *testing.T) {
	port := &fakePort{}
	b := New(BinderOpts{Port: port})

	b.SetAddress("RAddr1")
	b.SetAddress("RAddr1")
	b.SetAddress("RAddr2")
	require.Equal(t, []string{"RAddr1", "RAddr2"}, port.balanceCalls)

	// the superseded reply arrives last and is ignored
	port.balanceReplies[1](types.BalanceInfo{Balance: 2, Total: 2})
	port.balanceReplies[0](types.BalanceInfo{Balance: 1, Total: 1})

	s := b.State()
	require.Equal(t, "RAddr2", s.Address)
	require.Equal(t, 2.0, s.Balance.Balance)
}

func TestBinderFullFlow(t *testing.T) {
	port := &fakePort{}
	b := New(BinderOpts{Port: port})

	b.SetAddress("RAddr1")
	port.balanceReplies[0](types.BalanceInfo{Balance: 12, Interest: 0.5, Total: 12.5})
	require.True(t, b.State().CanCheckUtxos())

	b.CheckUtxos()
	require.Equal(t, []string{"RAddr1"}, port.utxoCalls)
	require.Equal(t, types.PhaseUtxosLoading, b.State().Phase)

	port.utxoReplies[0](rows(21), nil)
	s := b.State()
	require.Equal(t, types.PhaseUtxosShown, s.Phase)
	require.True(t, s.ShowPagination)

	s = b.Search("tx00")
	require.Len(t, s.Filtered, 10)

	b.Reset()
	require.Equal(t, []string{"RAddr1"}, port.resets)
	require.Equal(t, types.PhaseIdle, b.State().Phase)
}

func TestBinderSynchronousPort(t *testing.T) {
	b := New(BinderOpts{Port: syncPort{
		balance:  types.BalanceInfo{Balance: 3, Total: 3},
		unspents: rows(4),
	}})

	s := b.SetAddress("RAddr1")
	require.Equal(t, types.PhaseBalanceShown, s.Phase)
	require.NotNil(t, s.Balance)
	require.Equal(t, 3.0, s.Balance.Total)

	s, ok := b.CheckUtxos()
	require.True(t, ok)
	require.Equal(t, types.PhaseUtxosShown, s.Phase)
	require.Len(t, s.Items, 4)
	require.Equal(t, b.State().Phase, s.Phase)
}

func TestBinderRefusesCheckWhileLoading(t *testing.T) {
	port := &fakePort{}
	b := New(BinderOpts{Port: port})
	b.SetAddress("RAddr1")
	port.balanceReplies[0](types.BalanceInfo{Balance: 5, Total: 5})

	s, ok := b.CheckUtxos()
	require.True(t, ok)
	require.Equal(t, types.PhaseUtxosLoading, s.Phase)

	_, ok = b.CheckUtxos()
	require.False(t, ok)
	require.Len(t, port.utxoCalls, 1)
}

func TestBinderConcurrentReplies(t *testing.T) {
	port := &fakePort{}
	b := New(BinderOpts{Port: port})
	b.SetAddress("RAddr1")
	port.balanceReplies[0](types.BalanceInfo{Balance: 1, Total: 1})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Search("tx")
		}()
	}
	wg.Wait()

	require.Equal(t, "tx", b.State().SearchTerm)
}
