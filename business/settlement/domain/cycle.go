// Package domain contains the core domain types for the settlement context.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/flashloan-arbitrage/internal/asset"
)

// CycleState tracks where the engine is within one flash loan cycle.
// The pool invokes the callback synchronously, so transitions happen on a
// single goroutine; the state exists to reject re-entrant calls.
type CycleState int

const (
	// StateIdle means no cycle is running and a new loan may be requested.
	StateIdle CycleState = iota
	// StateAwaitingCallback means the loan was forwarded to the pool and
	// the engine is waiting for the settlement callback.
	StateAwaitingCallback
	// StateExecuting means the callback is running the counter-trade.
	StateExecuting
	// StateSettled means the last cycle completed with repayment secured.
	StateSettled
)

// String returns the state name for logs.
func (s CycleState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingCallback:
		return "awaiting_callback"
	case StateExecuting:
		return "executing"
	case StateSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// FlashLoanRequest describes one borrow request. It exists only for the
// duration of the cycle and is never persisted.
type FlashLoanRequest struct {
	Asset     *asset.Asset
	Principal *big.Int
	// Initiator is the caller that triggered the cycle; the pool echoes it
	// back in the settlement and the callback validates it.
	Initiator common.Address
	// Receiver is the ledger identity the pool disburses to and pulls
	// repayment from.
	Receiver common.Address
}

// Settlement is what the lending pool hands to the engine's callback after
// disbursing funds. Initiator is untrusted input until validated.
type Settlement struct {
	Asset     *asset.Asset
	Principal *big.Int
	Premium   *big.Int
	Initiator common.Address
}

// Obligation returns principal + premium, the amount the pool will pull
// back after the callback returns.
func (s Settlement) Obligation() *big.Int {
	return new(big.Int).Add(s.Principal, s.Premium)
}

// Receipt summarizes a settled cycle. Profit is the change in the engine's
// holding of the borrowed asset across the cycle; the surplus above the
// obligation stays with the engine.
type Receipt struct {
	Asset          *asset.Asset
	Principal      *big.Int
	Premium        *big.Int
	AmountSwapped  *big.Int // counter asset pulled by the venue
	AmountReceived *big.Int // borrowed asset pushed back by the venue
	Profit         *big.Int
}

// ProfitDecimal returns the realized profit scaled for display.
func (r *Receipt) ProfitDecimal() decimal.Decimal {
	return decimal.NewFromBigInt(r.Profit, -int32(r.Asset.Decimals()))
}
