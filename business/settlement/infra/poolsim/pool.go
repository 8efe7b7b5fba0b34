// Package poolsim implements the LendingPool port as an in-memory lender
// with Aave-style flash loan mechanics: disburse, invoke the receiver's
// settlement callback synchronously, then pull principal plus premium
// through the allowance the callback granted.
package poolsim

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashloan-arbitrage/business/settlement/app"
	"github.com/fd1az/flashloan-arbitrage/business/settlement/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/ledger"
)

// Ensure Pool implements the LendingPool port.
var _ app.LendingPool = (*Pool)(nil)

// Pool is a simulated lending pool holding its own liquidity on the ledger.
type Pool struct {
	ledger     *ledger.Ledger
	addr       common.Address
	premiumBps int64
	logger     *slog.Logger
}

// New creates a pool. premiumBps is the flash loan fee in basis points of
// the principal (Aave v3 charges 5).
func New(l *ledger.Ledger, addr common.Address, premiumBps int64, logger *slog.Logger) *Pool {
	if premiumBps < 0 {
		panic("poolsim: negative premium")
	}
	return &Pool{
		ledger:     l,
		addr:       addr,
		premiumBps: premiumBps,
		logger:     logger,
	}
}

// Address returns the pool's ledger identity.
func (p *Pool) Address() common.Address {
	return p.addr
}

// Premium returns the fee charged on top of the given principal.
func (p *Pool) Premium(principal *big.Int) *big.Int {
	fee := new(big.Int).Mul(principal, big.NewInt(p.premiumBps))
	return fee.Div(fee, big.NewInt(10_000))
}

// FlashLoan disburses the principal to the receiver, drives its settlement
// callback, and pulls back principal + premium. The caller owns rollback:
// any error returned here means the cycle must be undone in full.
func (p *Pool) FlashLoan(ctx context.Context, req domain.FlashLoanRequest, receiver app.FlashLoanReceiver) error {
	liquidity := p.ledger.Balance(p.addr, req.Asset)
	if liquidity.Cmp(req.Principal) < 0 {
		return apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("pool holds "+liquidity.String()+" "+req.Asset.Symbol()))
	}

	if err := p.ledger.Transfer(p.addr, req.Receiver, req.Asset, req.Principal); err != nil {
		return apperror.Wrap(err, apperror.CodeFlashLoanRejected, "disburse")
	}

	settlement := domain.Settlement{
		Asset:     req.Asset,
		Principal: new(big.Int).Set(req.Principal),
		Premium:   p.Premium(req.Principal),
		Initiator: req.Initiator,
	}

	p.logger.Debug("flash loan disbursed",
		"asset", req.Asset.Symbol(),
		"principal", req.Principal.String(),
		"premium", settlement.Premium.String(),
	)

	if err := receiver.OnFlashLoan(ctx, p.addr, settlement); err != nil {
		return apperror.Wrap(err, apperror.CodeFlashLoanRejected, "settlement callback")
	}

	// The callback must have left a standing allowance covering the
	// obligation; verify by pulling it.
	if err := p.ledger.TransferFrom(p.addr, req.Receiver, p.addr, req.Asset, settlement.Obligation()); err != nil {
		return apperror.External(apperror.CodeRepaymentPull, req.Asset.Symbol(), err)
	}

	return nil
}
