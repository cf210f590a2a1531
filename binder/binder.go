package binder

import (
	"log/slog"
	"sync"

	"github.com/safecoin/interest-api/types"
)

// Port is where a view sends its data requests. Requests are fire-and-forget:
// implementations must return immediately and call reply exactly once, later,
// from any goroutine. A UTXO reply may carry rows together with a
// *types.StaleError when the rows come from a cache.
type Port interface {
	RequestBalance(address string, reply func(types.BalanceInfo))
	RequestUtxos(address string, reply func([]types.UnspentOutput, error))
}

// Resetter is implemented by ports that keep per-address state.
type Resetter interface {
	ResetInterestState(address string)
}

// Binder owns one view state and keeps it in sync with the port.
type Binder struct {
	mu     sync.Mutex
	state  State
	port   Port
	logger *slog.Logger
}

type BinderOpts struct {
	Port            Port
	Logger          *slog.Logger
	DefaultPageSize int
}

func New(opts BinderOpts) *Binder {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Binder{
		state:  NewState(opts.DefaultPageSize),
		port:   opts.Port,
		logger: opts.Logger,
	}
}

// State returns the current state.
func (b *Binder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Dispatch applies e, runs the commands it produced and returns the state
// after they ran. Events are applied one at a time; commands run after the
// lock is released so ports may reply synchronously.
func (b *Binder) Dispatch(e Event) State {
	s, _ := b.dispatch(e)
	return s
}

// dispatch also reports whether e produced any command.
func (b *Binder) dispatch(e Event) (State, bool) {
	b.mu.Lock()
	prev := b.state
	next, cmds := Reduce(prev, e)
	b.state = next
	b.mu.Unlock()

	if next.Phase != prev.Phase {
		b.logger.Debug("view phase changed", "address", next.Address, "from", prev.Phase, "to", next.Phase)
	}

	for _, cmd := range cmds {
		b.execute(cmd)
	}

	// a synchronous port has already moved the state on
	return b.State(), len(cmds) > 0
}

func (b *Binder) SetAddress(address string) State {
	return b.Dispatch(AddressChanged{Address: address})
}

// CheckUtxos asks for the UTXO list. The boolean is false when the view
// refused, because there is no positive balance or a list is already loading.
func (b *Binder) CheckUtxos() (State, bool) {
	return b.dispatch(UtxosRequested{})
}

func (b *Binder) Search(term string) State {
	return b.Dispatch(SearchTermChanged{Term: term})
}

func (b *Binder) SetPageSize(pageSize int) State {
	return b.Dispatch(PageSizeChanged{PageSize: pageSize})
}

func (b *Binder) Reset() State {
	return b.Dispatch(Reset{})
}

func (b *Binder) execute(cmd Command) {
	switch c := cmd.(type) {
	case RequestBalance:
		b.logger.Info("requesting balance", "address", c.Address, "seq", c.Seq)
		b.port.RequestBalance(c.Address, func(info types.BalanceInfo) {
			b.Dispatch(BalanceReceived{Seq: c.Seq, Info: info})
		})

	case RequestUtxos:
		b.logger.Info("requesting unspents", "address", c.Address, "seq", c.Seq)
		b.port.RequestUtxos(c.Address, func(unspents []types.UnspentOutput, err error) {
			b.Dispatch(UtxosReceived{Seq: c.Seq, Unspents: unspents, Err: err})
		})

	case ResetInterest:
		if r, ok := b.port.(Resetter); ok {
			r.ResetInterestState(c.Address)
		}
	}
}
