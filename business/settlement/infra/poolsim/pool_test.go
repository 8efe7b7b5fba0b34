package poolsim_test

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashloan-arbitrage/business/settlement/domain"
	"github.com/fd1az/flashloan-arbitrage/business/settlement/infra/poolsim"
	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
	"github.com/fd1az/flashloan-arbitrage/internal/ledger"
)

var (
	poolAddr     = common.HexToAddress("0x2000000000000000000000000000000000000001")
	borrowerAddr = common.HexToAddress("0x1000000000000000000000000000000000000001")
	operatorAddr = common.HexToAddress("0x1000000000000000000000000000000000000002")
)

// repayingReceiver approves the pool for the obligation, crediting itself
// the shortfall first when told to.
type repayingReceiver struct {
	book    *ledger.Ledger
	topUp   *big.Int
	gotCall bool
}

func (r *repayingReceiver) OnFlashLoan(ctx context.Context, caller common.Address, s domain.Settlement) error {
	r.gotCall = true
	if r.topUp != nil {
		r.book.Credit(borrowerAddr, s.Asset, r.topUp)
	}
	r.book.Approve(borrowerAddr, caller, s.Asset, s.Obligation())
	return nil
}

// stingyReceiver never grants the repayment allowance.
type stingyReceiver struct{}

func (stingyReceiver) OnFlashLoan(context.Context, common.Address, domain.Settlement) error {
	return nil
}

func usdc(t *testing.T) *asset.Asset {
	t.Helper()
	a, ok := asset.DefaultRegistry().GetBySymbol("USDC")
	if !ok {
		t.Fatal("USDC not registered")
	}
	return a
}

func TestPool_Premium(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	pool := poolsim.New(ledger.New(), poolAddr, 5, log)

	tests := []struct {
		principal int64
		want      int64
	}{
		{1_000_000_000, 500_000}, // 1000 USDC -> 0.5 USDC
		{10_000, 5},
		{1_999, 0}, // rounds down
		{0, 0},
	}
	for _, tt := range tests {
		got := pool.Premium(big.NewInt(tt.principal))
		if got.Cmp(big.NewInt(tt.want)) != 0 {
			t.Errorf("Premium(%d) = %s, want %d", tt.principal, got, tt.want)
		}
	}
}

func TestPool_FlashLoanRoundTrip(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	book := ledger.New()
	a := usdc(t)

	book.Credit(poolAddr, a, big.NewInt(10_000_000_000))

	pool := poolsim.New(book, poolAddr, 5, log)
	receiver := &repayingReceiver{book: book, topUp: big.NewInt(500_000)}

	err := pool.FlashLoan(context.Background(), domain.FlashLoanRequest{
		Asset:     a,
		Principal: big.NewInt(1_000_000_000),
		Initiator: operatorAddr,
		Receiver:  borrowerAddr,
	}, receiver)
	if err != nil {
		t.Fatalf("FlashLoan: %v", err)
	}
	if !receiver.gotCall {
		t.Fatal("settlement callback never invoked")
	}

	// Pool ends up ahead by exactly the premium.
	want := big.NewInt(10_000_500_000)
	if got := book.Balance(poolAddr, a); got.Cmp(want) != 0 {
		t.Errorf("pool balance = %s, want %s", got, want)
	}
	if got := book.Balance(borrowerAddr, a); got.Sign() != 0 {
		t.Errorf("borrower balance = %s, want 0", got)
	}
}

func TestPool_RejectsOverLiquidity(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	book := ledger.New()
	a := usdc(t)

	book.Credit(poolAddr, a, big.NewInt(100))

	pool := poolsim.New(book, poolAddr, 5, log)
	receiver := &repayingReceiver{book: book}

	err := pool.FlashLoan(context.Background(), domain.FlashLoanRequest{
		Asset:     a,
		Principal: big.NewInt(101),
		Initiator: operatorAddr,
		Receiver:  borrowerAddr,
	}, receiver)
	if code := apperror.GetCode(err); code != apperror.CodeInsufficientLiquidity {
		t.Fatalf("code = %s, want %s", code, apperror.CodeInsufficientLiquidity)
	}
	if receiver.gotCall {
		t.Error("callback invoked despite liquidity rejection")
	}
}

func TestPool_RepaymentPullFailsWithoutAllowance(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	book := ledger.New()
	a := usdc(t)

	book.Credit(poolAddr, a, big.NewInt(10_000_000_000))

	pool := poolsim.New(book, poolAddr, 5, log)

	err := pool.FlashLoan(context.Background(), domain.FlashLoanRequest{
		Asset:     a,
		Principal: big.NewInt(1_000_000_000),
		Initiator: operatorAddr,
		Receiver:  borrowerAddr,
	}, stingyReceiver{})
	if code := apperror.GetCode(err); code != apperror.CodeRepaymentPull {
		t.Fatalf("code = %s, want %s", code, apperror.CodeRepaymentPull)
	}
}
