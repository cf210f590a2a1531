package binder

import "github.com/safecoin/interest-api/types"

// Event is anything that can change a view's state.
type Event interface {
	event()
}

// AddressChanged is emitted when the externally supplied address changes.
type AddressChanged struct {
	Address string
}

// BalanceReceived carries the reply to the balance request tagged Seq.
type BalanceReceived struct {
	Seq  uint64
	Info types.BalanceInfo
}

// UtxosRequested is the user's "Check UTXO" action.
type UtxosRequested struct{}

// UtxosReceived carries the reply to the UTXO request tagged Seq.
type UtxosReceived struct {
	Seq      uint64
	Unspents []types.UnspentOutput
	Err      error
}

type SearchTermChanged struct {
	Term string
}

type PageSizeChanged struct {
	PageSize int
}

// Reset drops everything known about the current address.
type Reset struct{}

func (AddressChanged) event()    {}
func (BalanceReceived) event()   {}
func (UtxosRequested) event()    {}
func (UtxosReceived) event()     {}
func (SearchTermChanged) event() {}
func (PageSizeChanged) event()   {}
func (Reset) event()             {}

// Command is a side effect requested by the reducer.
type Command interface {
	command()
}

type RequestBalance struct {
	Seq     uint64
	Address string
}

type RequestUtxos struct {
	Seq     uint64
	Address string
}

type ResetInterest struct {
	Address string
}

func (RequestBalance) command() {}
func (RequestUtxos) command()   {}
func (ResetInterest) command()  {}
