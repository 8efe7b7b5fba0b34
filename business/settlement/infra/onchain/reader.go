// Package onchain provides a read-only diagnostics client against a
// deployed Dex contract. The engine never routes settlement through it;
// operators use it for pre-flight liquidity checks against the real venue.
package onchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
	"github.com/fd1az/flashloan-arbitrage/internal/circuitbreaker"
	"github.com/fd1az/flashloan-arbitrage/internal/ratelimit"
)

const tracerName = "onchain"

// Reader queries the venue's on-chain holdings through eth_call.
type Reader struct {
	client  *ethclient.Client
	dex     common.Address
	dexABI  abi.ABI
	cb      *circuitbreaker.CircuitBreaker[[]byte]
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewReader creates a reader for the Dex contract at dexAddr.
func NewReader(client *ethclient.Client, dexAddr common.Address, logger *slog.Logger) (*Reader, error) {
	parsedABI, err := abi.JSON(strings.NewReader(DexABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse dex ABI: %w", err)
	}

	return &Reader{
		client:  client,
		dex:     dexAddr,
		dexABI:  parsedABI,
		cb:      circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("dex-reader")),
		limiter: ratelimit.New(5, 2),
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// VenueBalance returns the Dex contract's holding of the asset's token.
func (r *Reader) VenueBalance(ctx context.Context, a *asset.Asset) (*big.Int, error) {
	ctx, span := r.tracer.Start(ctx, "onchain.venue_balance",
		trace.WithAttributes(attribute.String("asset", a.Symbol())),
	)
	defer span.End()

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeRateLimitExceeded, "venue balance")
	}

	callData, err := r.dexABI.Pack("getBalance", a.Address())
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	result, err := r.cb.Execute(func() ([]byte, error) {
		return r.client.CallContract(ctx, ethereum.CallMsg{
			To:   &r.dex,
			Data: callData,
		}, nil)
	})
	if err != nil {
		span.SetStatus(codes.Error, "call failed")
		span.RecordError(err)
		return nil, apperror.Wrap(err, apperror.CodeContractCallFailed, "dex.getBalance")
	}

	out, err := r.dexABI.Unpack("getBalance", result)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeContractCallFailed, "decode dex.getBalance")
	}

	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext("unexpected getBalance return type"))
	}

	span.SetAttributes(attribute.String("balance", balance.String()))
	r.logger.Debug("venue balance", "asset", a.Symbol(), "balance", balance.String())
	return balance, nil
}
