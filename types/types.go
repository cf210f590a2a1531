package types

import (
	"errors"
	"fmt"
	"time"
)

// Coin describes where an output lives on chain. Any field may be missing
// when the node omits it.
type Coin struct {
	Name       string `json:"name,omitempty" bson:"name,omitempty"`
	BlockIndex *int64 `json:"blockindex,omitempty" bson:"blockindex,omitempty"`
	TxID       string `json:"txid,omitempty" bson:"txid,omitempty"`
}

// UnspentOutput is a spendable output of an address together with the
// interest it has accrued so far.
type UnspentOutput struct {
	Amount        float64 `json:"amount" bson:"amount"`
	Interest      float64 `json:"interest" bson:"interest"`
	Locktime      int64   `json:"locktime" bson:"locktime"` // 0 = unset
	Confirmations int     `json:"confirmations" bson:"confirmations"`
	TxID          string  `json:"txid" bson:"txid"`
	Vout          uint32  `json:"vout" bson:"vout"`
	Coin          *Coin   `json:"coin,omitempty" bson:"coin,omitempty"`
	Timestamp     int64   `json:"timestamp" bson:"timestamp"`
}

// ErrorCode is the code reported by a failed balance lookup. Zero means no error.
type ErrorCode int

const (
	// CodeTransport - the node could not be reached or answered garbage
	CodeTransport ErrorCode = -32000

	// CodeBusy - the lookup was not queued because the fetcher is saturated
	CodeBusy ErrorCode = -32001
)

var ErrBalanceLookupFailed = errors.New("balance lookup failed")

// LookupError is the error form of a failed BalanceInfo.
type LookupError struct {
	Code    ErrorCode
	Message string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: %s (code %d)", ErrBalanceLookupFailed, e.Message, e.Code)
}

func (e *LookupError) Unwrap() error {
	return ErrBalanceLookupFailed
}

// StaleError accompanies outputs served from the cache because the node
// could not be asked. FetchedAt is zero when the snapshot age is unknown.
type StaleError struct {
	FetchedAt time.Time
	Err       error
}

func (e *StaleError) Error() string {
	if e.FetchedAt.IsZero() {
		return fmt.Sprintf("showing cached outputs: %v", e.Err)
	}
	return fmt.Sprintf("showing outputs cached at %s: %v", e.FetchedAt.UTC().Format(time.RFC3339), e.Err)
}

func (e *StaleError) Unwrap() error {
	return e.Err
}

// BalanceInfo is either a balance summary or, when Code is set, a failure.
type BalanceInfo struct {
	Balance  float64   `json:"balance" bson:"balance"`
	Interest float64   `json:"interest" bson:"interest"`
	Total    float64   `json:"total" bson:"total"`
	Code     ErrorCode `json:"code,omitempty" bson:"code,omitempty"`
	Message  string    `json:"message,omitempty" bson:"message,omitempty"`
}

func (b BalanceInfo) Failed() bool {
	return b.Code != 0
}

// Err returns a *LookupError for failed lookups and nil otherwise.
func (b BalanceInfo) Err() error {
	if !b.Failed() {
		return nil
	}
	return &LookupError{Code: b.Code, Message: b.Message}
}

// FailedBalance builds the failure variant of BalanceInfo.
func FailedBalance(code ErrorCode, message string) BalanceInfo {
	if code == 0 {
		code = CodeTransport
	}
	return BalanceInfo{Code: code, Message: message}
}

// ViewPhase represents the stages an interest view goes through
type ViewPhase string

const (
	// PhaseIdle - No address has been supplied yet
	PhaseIdle ViewPhase = "IDLE"

	// PhaseLoading - A balance lookup for the current address is in flight
	PhaseLoading ViewPhase = "LOADING"

	// PhaseBalanceShown - The balance (or its lookup failure) is available
	PhaseBalanceShown ViewPhase = "BALANCE_SHOWN"

	// PhaseUtxosLoading - The user asked for the UTXO list and it is in flight
	PhaseUtxosLoading ViewPhase = "UTXOS_LOADING"

	// PhaseUtxosShown - The UTXO list has arrived and the table is populated
	PhaseUtxosShown ViewPhase = "UTXOS_SHOWN"
)
