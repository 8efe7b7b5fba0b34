// Package dexsim implements the TradingVenue port as an in-memory exchange
// with fixed integer rates. It pulls its input through the ledger allowance
// the trader granted and pays out of its own inventory, like the toy Dex
// contract it stands in for.
package dexsim

import (
	"context"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashloan-arbitrage/business/settlement/app"
	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
	"github.com/fd1az/flashloan-arbitrage/internal/ledger"
)

// Ensure Venue implements the TradingVenue port.
var _ app.TradingVenue = (*Venue)(nil)

type marketKey struct {
	in  asset.ID
	out asset.ID
}

// rate prices assetOut per assetIn as num/den, before decimal scaling.
type rate struct {
	num int64
	den int64
}

// Venue is a simulated trading venue holding its own inventory on the ledger.
type Venue struct {
	ledger *ledger.Ledger
	addr   common.Address
	trader common.Address
	rates  map[marketKey]rate
	mu     sync.RWMutex
	logger *slog.Logger
}

// New creates a venue that trades against the given counterparty.
func New(l *ledger.Ledger, addr, trader common.Address, logger *slog.Logger) *Venue {
	return &Venue{
		ledger: l,
		addr:   addr,
		trader: trader,
		rates:  make(map[marketKey]rate),
		logger: logger,
	}
}

// Address returns the venue's ledger identity.
func (v *Venue) Address() common.Address {
	return v.addr
}

// SetRate fixes the venue's price for the (assetIn, assetOut) market:
// num units of assetOut per den units of assetIn, decimals handled
// internally.
func (v *Venue) SetRate(assetIn, assetOut *asset.Asset, num, den int64) {
	if num < 0 || den <= 0 {
		panic("dexsim: invalid rate")
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.rates[marketKey{assetIn.ID(), assetOut.ID()}] = rate{num: num, den: den}
}

// Swap pulls amountIn of assetIn from the trader via allowance and pushes
// back the quoted amount of assetOut from the venue's inventory.
func (v *Venue) Swap(ctx context.Context, assetIn, assetOut *asset.Asset, amountIn *big.Int) (*big.Int, error) {
	v.mu.RLock()
	r, ok := v.rates[marketKey{assetIn.ID(), assetOut.ID()}]
	v.mu.RUnlock()
	if !ok {
		return nil, apperror.New(apperror.CodeSwapFailed,
			apperror.WithContext("no market "+assetIn.Symbol()+"/"+assetOut.Symbol()))
	}
	if amountIn == nil || amountIn.Sign() < 0 {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "swap amount")
	}

	amountOut := quote(amountIn, r, assetIn.Decimals(), assetOut.Decimals())

	inventory := v.ledger.Balance(v.addr, assetOut)
	if inventory.Cmp(amountOut) < 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("venue holds "+inventory.String()+" "+assetOut.Symbol()))
	}

	if err := v.ledger.TransferFrom(v.addr, v.trader, v.addr, assetIn, amountIn); err != nil {
		return nil, err
	}
	if err := v.ledger.Transfer(v.addr, v.trader, assetOut, amountOut); err != nil {
		return nil, err
	}

	v.logger.Debug("swap executed",
		"in", assetIn.Symbol(), "amount_in", amountIn.String(),
		"out", assetOut.Symbol(), "amount_out", amountOut.String(),
	)
	return amountOut, nil
}

// GetBalance reports the venue's holding of the asset. Diagnostic read path.
func (v *Venue) GetBalance(ctx context.Context, a *asset.Asset) (*big.Int, error) {
	return v.ledger.Balance(v.addr, a), nil
}

// quote converts amountIn at rate num/den, rescaling between the two
// assets' smallest units.
func quote(amountIn *big.Int, r rate, decIn, decOut uint8) *big.Int {
	out := new(big.Int).Mul(amountIn, big.NewInt(r.num))
	out.Mul(out, pow10(decOut))
	out.Div(out, big.NewInt(r.den))
	out.Div(out, pow10(decIn))
	return out
}

func pow10(d uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d)), nil)
}
