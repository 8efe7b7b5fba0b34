package dexsim_test

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashloan-arbitrage/business/settlement/infra/dexsim"
	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
	"github.com/fd1az/flashloan-arbitrage/internal/ledger"
)

var (
	venueAddr  = common.HexToAddress("0x3000000000000000000000000000000000000001")
	traderAddr = common.HexToAddress("0x1000000000000000000000000000000000000001")
)

func pair(t *testing.T) (dai, usdc *asset.Asset) {
	t.Helper()
	registry := asset.DefaultRegistry()
	dai, _ = registry.GetBySymbol("DAI")
	usdc, _ = registry.GetBySymbol("USDC")
	return dai, usdc
}

func daiRaw(units int64) *big.Int {
	exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return exp.Mul(exp, big.NewInt(units))
}

func TestVenue_SwapRescalesDecimals(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	book := ledger.New()
	dai, usdc := pair(t)

	venue := dexsim.New(book, venueAddr, traderAddr, log)
	venue.SetRate(dai, usdc, 1, 1)

	book.Credit(venueAddr, usdc, big.NewInt(2_000_000_000))
	book.Credit(traderAddr, dai, daiRaw(1200))
	book.Approve(traderAddr, venueAddr, dai, daiRaw(1200))

	// 1200 DAI (18 decimals) at par must come back as 1200 USDC (6 decimals).
	out, err := venue.Swap(context.Background(), dai, usdc, daiRaw(1200))
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if want := big.NewInt(1_200_000_000); out.Cmp(want) != 0 {
		t.Errorf("out = %s, want %s", out, want)
	}

	if got := book.Balance(traderAddr, dai); got.Sign() != 0 {
		t.Errorf("trader DAI = %s, want 0", got)
	}
	if got := book.Balance(traderAddr, usdc); got.Cmp(out) != 0 {
		t.Errorf("trader USDC = %s, want %s", got, out)
	}
	if got := book.Balance(venueAddr, dai); got.Cmp(daiRaw(1200)) != 0 {
		t.Errorf("venue DAI = %s, want %s", got, daiRaw(1200))
	}
}

func TestVenue_SwapAppliesRate(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	book := ledger.New()
	dai, usdc := pair(t)

	venue := dexsim.New(book, venueAddr, traderAddr, log)
	venue.SetRate(usdc, dai, 110, 100)

	book.Credit(venueAddr, dai, daiRaw(1000))
	book.Credit(traderAddr, usdc, big.NewInt(100_000_000))
	book.Approve(traderAddr, venueAddr, usdc, big.NewInt(100_000_000))

	// 100 USDC at 1.10 DAI per USDC.
	out, err := venue.Swap(context.Background(), usdc, dai, big.NewInt(100_000_000))
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if want := daiRaw(110); out.Cmp(want) != 0 {
		t.Errorf("out = %s, want %s", out, want)
	}
}

func TestVenue_SwapRejections(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dai, usdc := pair(t)

	tests := []struct {
		name     string
		setup    func(book *ledger.Ledger, venue *dexsim.Venue)
		amountIn *big.Int
		wantCode apperror.Code
	}{
		{
			name:     "no market",
			setup:    func(book *ledger.Ledger, venue *dexsim.Venue) {},
			amountIn: daiRaw(1),
			wantCode: apperror.CodeSwapFailed,
		},
		{
			name: "venue out of inventory",
			setup: func(book *ledger.Ledger, venue *dexsim.Venue) {
				venue.SetRate(dai, usdc, 1, 1)
				book.Credit(traderAddr, dai, daiRaw(100))
				book.Approve(traderAddr, venueAddr, dai, daiRaw(100))
			},
			amountIn: daiRaw(100),
			wantCode: apperror.CodeInsufficientLiquidity,
		},
		{
			name: "no allowance from trader",
			setup: func(book *ledger.Ledger, venue *dexsim.Venue) {
				venue.SetRate(dai, usdc, 1, 1)
				book.Credit(venueAddr, usdc, big.NewInt(1_000_000_000))
				book.Credit(traderAddr, dai, daiRaw(100))
			},
			amountIn: daiRaw(100),
			wantCode: apperror.CodeInsufficientAllowance,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := ledger.New()
			venue := dexsim.New(book, venueAddr, traderAddr, log)
			tt.setup(book, venue)

			_, err := venue.Swap(context.Background(), dai, usdc, tt.amountIn)
			if code := apperror.GetCode(err); code != tt.wantCode {
				t.Errorf("code = %s, want %s", code, tt.wantCode)
			}
		})
	}
}
