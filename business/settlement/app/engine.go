package app

import (
	"context"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flashloan-arbitrage/business/settlement/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
	"github.com/fd1az/flashloan-arbitrage/internal/ledger"
)

const (
	tracerName = "settlement"
	meterName  = "settlement"
)

// Ensure Engine implements the pool-facing callback.
var _ FlashLoanReceiver = (*Engine)(nil)

// Config identifies the principals of one engine instance.
type Config struct {
	// Self is the engine's own ledger identity.
	Self common.Address
	// Operator is the only identity allowed to grant venue allowances and
	// the only valid initiator of a cycle.
	Operator common.Address
	// VenueSpender is the identity the venue pulls engine funds with.
	VenueSpender common.Address
	// PoolAddress is the trusted lending pool identity; the settlement
	// callback rejects any other caller.
	PoolAddress common.Address
	// Pair is the two-asset universe of the engine: one side is borrowed,
	// the other is the counter-trade inventory.
	Pair [2]*asset.Asset
}

// engineMetrics holds OTEL metric instruments.
type engineMetrics struct {
	cyclesTotal  metric.Int64Counter
	cycleLatency metric.Float64Histogram
	cycleErrors  metric.Int64Counter
}

// cycle is per-invocation scratch state, discarded at cycle end.
type cycle struct {
	request  domain.FlashLoanRequest
	snapshot *ledger.Snapshot
	swapped  *big.Int
	received *big.Int
	premium  *big.Int
}

// Engine orchestrates one full borrow, trade, verify, repay cycle.
// It is single-threaded per cycle by construction: the pool invokes the
// callback synchronously, and the state machine rejects any re-entry while
// a cycle is live.
type Engine struct {
	ledger   *ledger.Ledger
	registry *asset.Registry
	pool     LendingPool
	venue    TradingVenue
	cfg      Config
	logger   *slog.Logger

	mu      sync.Mutex
	state   domain.CycleState
	current *cycle

	tracer  trace.Tracer
	metrics *engineMetrics
}

// NewEngine creates a settlement engine over the given ledger and ports.
func NewEngine(
	l *ledger.Ledger,
	registry *asset.Registry,
	pool LendingPool,
	venue TradingVenue,
	cfg Config,
	logger *slog.Logger,
) (*Engine, error) {
	if cfg.Pair[0] == nil || cfg.Pair[1] == nil {
		return nil, apperror.Validation(apperror.CodeConfigurationError, "engine pair not configured")
	}
	if cfg.Pair[0].Equals(cfg.Pair[1]) {
		return nil, apperror.Validation(apperror.CodeConfigurationError, "engine pair must be two distinct assets")
	}

	e := &Engine{
		ledger:   l,
		registry: registry,
		pool:     pool,
		venue:    venue,
		cfg:      cfg,
		logger:   logger,
		state:    domain.StateIdle,
		tracer:   otel.Tracer(tracerName),
	}

	if err := e.initMetrics(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternalError, "init engine metrics")
	}

	return e, nil
}

func (e *Engine) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	e.metrics = &engineMetrics{}

	e.metrics.cyclesTotal, err = meter.Int64Counter(
		"settlement_cycles_total",
		metric.WithDescription("Total flash loan cycles started"),
	)
	if err != nil {
		return err
	}

	e.metrics.cycleLatency, err = meter.Float64Histogram(
		"settlement_cycle_latency_ms",
		metric.WithDescription("Flash loan cycle latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	e.metrics.cycleErrors, err = meter.Int64Counter(
		"settlement_cycle_errors_total",
		metric.WithDescription("Flash loan cycles aborted, by error code"),
	)
	return err
}

// RequestFlashLoan runs one full cycle: borrow the asset from the pool,
// let the pool drive the settlement callback, and report the outcome.
// Any failure after funds were received restores the ledger to its exact
// pre-cycle state before the error is returned.
func (e *Engine) RequestFlashLoan(ctx context.Context, caller common.Address, a *asset.Asset, amount *big.Int) (*domain.Receipt, error) {
	if a == nil || amount == nil || amount.Sign() <= 0 {
		return nil, apperror.Validation(apperror.CodeInvalidRequest, "principal must be positive")
	}
	if !e.registry.Has(a.ID()) || e.counterOf(a) == nil {
		return nil, apperror.Validation(apperror.CodeInvalidRequest, "asset not tracked: "+a.Symbol())
	}

	req := domain.FlashLoanRequest{
		Asset:     a,
		Principal: new(big.Int).Set(amount),
		Initiator: caller,
		Receiver:  e.cfg.Self,
	}

	if err := e.begin(req); err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "settlement.cycle", trace.WithAttributes(
		attribute.String("asset", a.Symbol()),
		attribute.String("principal", amount.String()),
	))
	defer span.End()

	start := time.Now()
	e.metrics.cyclesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("asset", a.Symbol())))

	preBalance := e.ledger.Balance(e.cfg.Self, a)

	err := e.pool.FlashLoan(ctx, req, e)
	e.metrics.cycleLatency.Record(ctx, float64(time.Since(start).Microseconds())/1000.0)

	if err != nil {
		e.abort()
		span.RecordError(err)
		e.metrics.cycleErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("code", string(apperror.GetCode(err))),
		))
		e.logger.Warn("flash loan cycle aborted",
			"asset", a.Symbol(),
			"principal", amount.String(),
			"error", err,
		)
		return nil, err
	}

	receipt := e.settle(a, preBalance)
	e.logger.Info("flash loan cycle settled",
		"asset", a.Symbol(),
		"principal", receipt.Principal.String(),
		"premium", receipt.Premium.String(),
		"profit", receipt.Profit.String(),
	)
	return receipt, nil
}

// OnFlashLoan is the settlement callback the pool invokes after disbursing
// funds. It validates the caller and initiator, executes the counter-trade,
// verifies solvency against a fresh balance, and leaves the pool a standing
// allowance for exactly principal + premium.
func (e *Engine) OnFlashLoan(ctx context.Context, caller common.Address, s domain.Settlement) error {
	if err := e.enterCallback(caller, s); err != nil {
		return err
	}

	ctx, span := e.tracer.Start(ctx, "settlement.callback")
	defer span.End()

	counter := e.counterOf(s.Asset)

	// Balances are re-read fresh after every external call; the venue may
	// be arbitrary untrusted code.
	amountIn := e.ledger.Balance(e.cfg.Self, counter)
	e.ledger.Approve(e.cfg.Self, e.cfg.VenueSpender, counter, amountIn)

	received, err := e.venue.Swap(ctx, counter, s.Asset, amountIn)
	if err != nil {
		span.RecordError(err)
		return apperror.Wrap(err, apperror.CodeSwapFailed, "counter-trade")
	}

	obligation := s.Obligation()
	balance := e.ledger.Balance(e.cfg.Self, s.Asset)
	if balance.Cmp(obligation) < 0 {
		return apperror.New(apperror.CodeInsolvent,
			apperror.WithContext("have "+balance.String()+" "+s.Asset.Symbol()+", owe "+obligation.String()))
	}

	// The pool pulls repayment through this allowance after we return.
	e.ledger.Approve(e.cfg.Self, e.cfg.PoolAddress, s.Asset, obligation)

	e.mu.Lock()
	consumed := new(big.Int).Sub(amountIn, e.ledger.Allowance(e.cfg.Self, e.cfg.VenueSpender, counter))
	e.current.swapped = consumed
	e.current.received = received
	e.current.premium = new(big.Int).Set(s.Premium)
	e.state = domain.StateSettled
	e.mu.Unlock()

	return nil
}

// ApproveVenue pre-authorizes the trading venue for the asset outside the
// callback. Operator-only: an uncontrolled allowance grant could drain the
// engine through the venue.
func (e *Engine) ApproveVenue(caller common.Address, a *asset.Asset, amount *big.Int) error {
	if caller != e.cfg.Operator {
		return apperror.Unauthorized("approve from " + caller.Hex())
	}
	if a == nil || !e.registry.Has(a.ID()) {
		return apperror.Validation(apperror.CodeUnknownAsset, "approve")
	}
	if amount == nil || amount.Sign() < 0 {
		return apperror.Validation(apperror.CodeInvalidInput, "approve amount")
	}

	e.ledger.Approve(e.cfg.Self, e.cfg.VenueSpender, a, amount)
	e.logger.Debug("venue allowance set", "asset", a.Symbol(), "amount", amount.String())
	return nil
}

// VenueAllowance returns the current venue allowance for the asset.
// Read-only, callable by anyone.
func (e *Engine) VenueAllowance(a *asset.Asset) (*big.Int, error) {
	if a == nil || !e.registry.Has(a.ID()) {
		return nil, apperror.Validation(apperror.CodeUnknownAsset, "allowance")
	}
	return e.ledger.Allowance(e.cfg.Self, e.cfg.VenueSpender, a), nil
}

// Balance returns the engine's holding of the asset.
// Read-only, callable by anyone.
func (e *Engine) Balance(a *asset.Asset) (*big.Int, error) {
	if a == nil || !e.registry.Has(a.ID()) {
		return nil, apperror.Validation(apperror.CodeUnknownAsset, "balance")
	}
	return e.ledger.Balance(e.cfg.Self, a), nil
}

// State returns the engine's current cycle state.
func (e *Engine) State() domain.CycleState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// counterOf returns the other side of the configured pair, or nil when the
// asset is not part of it.
func (e *Engine) counterOf(a *asset.Asset) *asset.Asset {
	switch {
	case a.Equals(e.cfg.Pair[0]):
		return e.cfg.Pair[1]
	case a.Equals(e.cfg.Pair[1]):
		return e.cfg.Pair[0]
	default:
		return nil
	}
}

// begin transitions Idle -> AwaitingCallback and snapshots the ledger.
// Rejects re-entry while a cycle is live.
func (e *Engine) begin(req domain.FlashLoanRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != domain.StateIdle {
		return apperror.New(apperror.CodeReentrant,
			apperror.WithContext("state "+e.state.String()))
	}

	e.state = domain.StateAwaitingCallback
	e.current = &cycle{
		request:  req,
		snapshot: e.ledger.Snapshot(),
	}
	return nil
}

// enterCallback validates the callback entry and transitions to Executing.
func (e *Engine) enterCallback(caller common.Address, s domain.Settlement) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case domain.StateAwaitingCallback:
		// expected
	case domain.StateExecuting:
		return apperror.New(apperror.CodeReentrant, apperror.WithContext("callback re-entered"))
	default:
		return apperror.Unauthorized("callback outside a cycle")
	}

	if caller != e.cfg.PoolAddress {
		return apperror.Unauthorized("callback from " + caller.Hex())
	}
	if s.Initiator != e.cfg.Operator {
		return apperror.Unauthorized("initiator " + s.Initiator.Hex())
	}
	if s.Asset == nil || !s.Asset.Equals(e.current.request.Asset) {
		return apperror.Validation(apperror.CodeInvalidRequest, "settlement asset mismatch")
	}
	if s.Principal == nil || s.Principal.Cmp(e.current.request.Principal) != 0 {
		return apperror.Validation(apperror.CodeInvalidRequest, "settlement principal mismatch")
	}
	if s.Premium == nil || s.Premium.Sign() < 0 {
		return apperror.Validation(apperror.CodeInvalidRequest, "negative premium")
	}

	e.state = domain.StateExecuting
	return nil
}

// abort restores the pre-cycle snapshot and returns the engine to Idle.
func (e *Engine) abort() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		e.ledger.Restore(e.current.snapshot)
	}
	e.current = nil
	e.state = domain.StateIdle
}

// settle builds the receipt for a completed cycle and returns to Idle.
func (e *Engine) settle(a *asset.Asset, preBalance *big.Int) *domain.Receipt {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.current
	e.current = nil
	e.state = domain.StateIdle

	return &domain.Receipt{
		Asset:          a,
		Principal:      c.request.Principal,
		Premium:        c.premium,
		AmountSwapped:  c.swapped,
		AmountReceived: c.received,
		Profit:         new(big.Int).Sub(e.ledger.Balance(e.cfg.Self, a), preBalance),
	}
}
