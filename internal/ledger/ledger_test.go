package ledger_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
	"github.com/fd1az/flashloan-arbitrage/internal/ledger"
)

var (
	engine = common.HexToAddress("0x1000000000000000000000000000000000000001")
	venue  = common.HexToAddress("0x2000000000000000000000000000000000000002")
	pool   = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

func usdc(units int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(units), big.NewInt(1_000_000))
}

func TestLedger_TransferMovesBalance(t *testing.T) {
	l := ledger.New()
	l.Credit(engine, asset.USDC, usdc(1200))

	if err := l.Transfer(engine, venue, asset.USDC, usdc(200)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := l.Balance(engine, asset.USDC); got.Cmp(usdc(1000)) != 0 {
		t.Errorf("engine balance = %s, want %s", got, usdc(1000))
	}
	if got := l.Balance(venue, asset.USDC); got.Cmp(usdc(200)) != 0 {
		t.Errorf("venue balance = %s, want %s", got, usdc(200))
	}
}

func TestLedger_TransferInsufficientBalance(t *testing.T) {
	l := ledger.New()
	l.Credit(engine, asset.USDC, usdc(100))

	err := l.Transfer(engine, venue, asset.USDC, usdc(101))
	if !errors.Is(err, apperror.New(apperror.CodeInsufficientBalance)) {
		t.Fatalf("expected INSUFFICIENT_BALANCE, got %v", err)
	}

	// failed transfer must not move anything
	if got := l.Balance(engine, asset.USDC); got.Cmp(usdc(100)) != 0 {
		t.Errorf("engine balance changed on failed transfer: %s", got)
	}
	if got := l.Balance(venue, asset.USDC); got.Sign() != 0 {
		t.Errorf("venue balance changed on failed transfer: %s", got)
	}
}

func TestLedger_ApproveOverwrites(t *testing.T) {
	l := ledger.New()

	l.Approve(engine, venue, asset.DAI, big.NewInt(500))
	l.Approve(engine, venue, asset.DAI, big.NewInt(120))

	if got := l.Allowance(engine, venue, asset.DAI); got.Cmp(big.NewInt(120)) != 0 {
		t.Errorf("allowance = %s, want 120 (overwrite, not accumulate)", got)
	}
}

func TestLedger_AllowanceIsPerSpenderAndAsset(t *testing.T) {
	l := ledger.New()
	l.Approve(engine, venue, asset.DAI, big.NewInt(100))

	if got := l.Allowance(engine, pool, asset.DAI); got.Sign() != 0 {
		t.Errorf("allowance leaked to other spender: %s", got)
	}
	if got := l.Allowance(engine, venue, asset.USDC); got.Sign() != 0 {
		t.Errorf("allowance leaked to other asset: %s", got)
	}
}

func TestLedger_TransferFromConsumesAllowance(t *testing.T) {
	l := ledger.New()
	l.Credit(engine, asset.USDC, usdc(1000))
	l.Approve(engine, venue, asset.USDC, usdc(600))

	if err := l.TransferFrom(venue, engine, venue, asset.USDC, usdc(400)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := l.Allowance(engine, venue, asset.USDC); got.Cmp(usdc(200)) != 0 {
		t.Errorf("allowance = %s, want %s", got, usdc(200))
	}
	if got := l.Balance(venue, asset.USDC); got.Cmp(usdc(400)) != 0 {
		t.Errorf("venue balance = %s, want %s", got, usdc(400))
	}
}

func TestLedger_TransferFromRejections(t *testing.T) {
	tests := []struct {
		name     string
		balance  *big.Int
		cap      *big.Int
		pull     *big.Int
		wantCode apperror.Code
	}{
		{"over allowance", usdc(1000), usdc(100), usdc(101), apperror.CodeInsufficientAllowance},
		{"no allowance", usdc(1000), nil, usdc(1), apperror.CodeInsufficientAllowance},
		{"over balance", usdc(50), usdc(100), usdc(60), apperror.CodeInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ledger.New()
			l.Credit(engine, asset.USDC, tt.balance)
			if tt.cap != nil {
				l.Approve(engine, venue, asset.USDC, tt.cap)
			}

			err := l.TransferFrom(venue, engine, venue, asset.USDC, tt.pull)
			if apperror.GetCode(err) != tt.wantCode {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}

			// rejected pull must leave balance and allowance untouched
			if got := l.Balance(engine, asset.USDC); got.Cmp(tt.balance) != 0 {
				t.Errorf("balance changed on rejected pull: %s", got)
			}
			if tt.cap != nil {
				if got := l.Allowance(engine, venue, asset.USDC); got.Cmp(tt.cap) != 0 {
					t.Errorf("allowance changed on rejected pull: %s", got)
				}
			}
		})
	}
}

func TestLedger_SnapshotRestore(t *testing.T) {
	l := ledger.New()
	l.Credit(engine, asset.USDC, usdc(1200))
	l.Approve(engine, venue, asset.USDC, usdc(300))

	snap := l.Snapshot()

	// mutate everything after the snapshot
	if err := l.Transfer(engine, venue, asset.USDC, usdc(700)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.Approve(engine, venue, asset.USDC, usdc(999))
	l.Approve(engine, pool, asset.DAI, big.NewInt(42))
	l.Credit(pool, asset.DAI, big.NewInt(1))

	l.Restore(snap)

	if got := l.Balance(engine, asset.USDC); got.Cmp(usdc(1200)) != 0 {
		t.Errorf("engine balance = %s, want %s", got, usdc(1200))
	}
	if got := l.Balance(venue, asset.USDC); got.Sign() != 0 {
		t.Errorf("venue balance = %s, want 0", got)
	}
	if got := l.Allowance(engine, venue, asset.USDC); got.Cmp(usdc(300)) != 0 {
		t.Errorf("allowance = %s, want %s", got, usdc(300))
	}
	if got := l.Allowance(engine, pool, asset.DAI); got.Sign() != 0 {
		t.Errorf("post-snapshot allowance survived restore: %s", got)
	}
	if got := l.Balance(pool, asset.DAI); got.Sign() != 0 {
		t.Errorf("post-snapshot credit survived restore: %s", got)
	}
}

func TestLedger_SnapshotIsIsolated(t *testing.T) {
	l := ledger.New()
	l.Credit(engine, asset.DAI, big.NewInt(100))

	snap := l.Snapshot()
	l.Credit(engine, asset.DAI, big.NewInt(50))

	l.Restore(snap)
	if got := l.Balance(engine, asset.DAI); got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("balance = %s, want 100", got)
	}
}
