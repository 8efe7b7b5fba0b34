// Package app contains the settlement engine and port definitions for the
// settlement context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashloan-arbitrage/business/settlement/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
)

// TradingVenue is the boundary to an external exchange. Swap requires the
// engine to have approved the venue for at least amountIn of assetIn; the
// venue pulls the input and pushes back an output priced by its own
// internal mechanics, which this core treats as opaque.
type TradingVenue interface {
	// Swap exchanges amountIn of assetIn for the venue's quoted amount of
	// assetOut. Control transfers to untrusted code for the duration of
	// the call.
	Swap(ctx context.Context, assetIn, assetOut *asset.Asset, amountIn *big.Int) (*big.Int, error)

	// GetBalance reports the venue's own holding of the asset. Diagnostic
	// read path, never used by settlement logic.
	GetBalance(ctx context.Context, a *asset.Asset) (*big.Int, error)
}

// FlashLoanReceiver is implemented by the engine; the pool invokes
// OnFlashLoan synchronously after disbursing funds. caller is the identity
// the pool presents, validated against the trusted pool address.
type FlashLoanReceiver interface {
	OnFlashLoan(ctx context.Context, caller common.Address, s domain.Settlement) error
}

// LendingPool is the boundary to the external lender. FlashLoan disburses
// the principal to the receiver, invokes its settlement callback, and then
// pulls principal + premium through the allowance the callback must have
// granted. Any error means the entire cycle must be rolled back by the
// caller.
type LendingPool interface {
	FlashLoan(ctx context.Context, req domain.FlashLoanRequest, receiver FlashLoanReceiver) error
}
