package asset_test

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/flashloan-arbitrage/internal/asset"
)

func TestAmount_Basic(t *testing.T) {
	// 1000 USDC = 1e9 smallest units
	principal := asset.NewAmount(asset.USDC, big.NewInt(1_000_000_000))

	if principal.IsZero() {
		t.Error("expected non-zero amount")
	}

	d := principal.ToDecimal()
	if !d.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected 1000, got %s", d.String())
	}

	if principal.String() != "1000 USDC" {
		t.Errorf("expected '1000 USDC', got '%s'", principal.String())
	}
}

func TestAmount_AddPremium(t *testing.T) {
	principal := asset.NewAmount(asset.USDC, big.NewInt(1_000_000_000))
	premium := asset.NewAmount(asset.USDC, big.NewInt(500_000)) // 5 bps

	obligation, err := principal.Add(premium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := big.NewInt(1_000_500_000)
	if obligation.Raw().Cmp(want) != 0 {
		t.Errorf("expected %s, got %s", want, obligation.Raw())
	}
}

func TestAmount_CannotAddDifferentAssets(t *testing.T) {
	usdc := asset.NewAmount(asset.USDC, big.NewInt(1_000_000))
	dai := asset.NewAmount(asset.DAI, big.NewInt(1e18))

	if _, err := usdc.Add(dai); err == nil {
		t.Error("expected error when adding different assets")
	}
}

func TestAmount_SubNegativeError(t *testing.T) {
	one := asset.NewAmount(asset.DAI, big.NewInt(1e18))
	two := asset.NewAmount(asset.DAI, big.NewInt(2e18))

	if _, err := one.Sub(two); err == nil {
		t.Error("expected error for negative result")
	}
}

func TestParseString(t *testing.T) {
	amount, err := asset.ParseString(asset.DAI, "1200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := new(big.Int)
	want.SetString("1200000000000000000000", 10)
	if amount.Raw().Cmp(want) != 0 {
		t.Errorf("expected %s, got %s", want, amount.Raw())
	}
}

func TestParseString_TooManyDecimals(t *testing.T) {
	// USDC has 6 decimals; 7 fractional digits cannot be represented
	if _, err := asset.ParseString(asset.USDC, "1.1234567"); err == nil {
		t.Error("expected error for too many decimals")
	}
}

func TestRegistry_TrackedAssets(t *testing.T) {
	r := asset.DefaultRegistry()

	if r.Count() != 2 {
		t.Fatalf("expected 2 tracked assets, got %d", r.Count())
	}
	if !r.Has(asset.USDC.ID()) || !r.Has(asset.DAI.ID()) {
		t.Error("expected USDC and DAI to be tracked")
	}

	got, ok := r.GetByAddress(asset.ChainIDMumbai, asset.AddrDAIMumbai)
	if !ok || !got.Equals(asset.DAI) {
		t.Error("expected DAI lookup by address to succeed")
	}

	if _, ok := r.GetBySymbol("WETH"); ok {
		t.Error("expected unknown symbol lookup to fail")
	}
}
