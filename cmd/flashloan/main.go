// Package main is the entry point for the flash loan arbitrage engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"

	settlementApp "github.com/fd1az/flashloan-arbitrage/business/settlement/app"
	"github.com/fd1az/flashloan-arbitrage/business/settlement/infra/dexsim"
	"github.com/fd1az/flashloan-arbitrage/business/settlement/infra/onchain"
	"github.com/fd1az/flashloan-arbitrage/business/settlement/infra/poolsim"
	"github.com/fd1az/flashloan-arbitrage/internal/apm"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
	"github.com/fd1az/flashloan-arbitrage/internal/config"
	"github.com/fd1az/flashloan-arbitrage/internal/health"
	"github.com/fd1az/flashloan-arbitrage/internal/ledger"
	"github.com/fd1az/flashloan-arbitrage/internal/metrics"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("flashloan-arbitrage %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	log.Info("starting flash loan arbitrage engine",
		"version", version,
		"environment", cfg.App.Environment,
	)

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info("tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info("prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn("failed to start health server", "error", err)
	}
	defer healthServer.Stop(ctx)

	registry := asset.DefaultRegistry()
	book := ledger.New()

	pairA, ok := registry.GetBySymbol(cfg.Engine.Pair[0])
	if !ok {
		return fmt.Errorf("unknown pair asset: %s", cfg.Engine.Pair[0])
	}
	pairB, ok := registry.GetBySymbol(cfg.Engine.Pair[1])
	if !ok {
		return fmt.Errorf("unknown pair asset: %s", cfg.Engine.Pair[1])
	}

	engineAddr := cfg.Engine.EngineAddressHex()
	operatorAddr := cfg.Engine.OperatorAddressHex()
	poolAddr := cfg.Pool.AddressHex()
	venueAddr := cfg.Venue.AddressHex()

	pool := poolsim.New(book, poolAddr, cfg.Pool.PremiumBps, log)
	venue := dexsim.New(book, venueAddr, engineAddr, log)

	for _, r := range cfg.Venue.Rates {
		in, ok := registry.GetBySymbol(r.In)
		if !ok {
			return fmt.Errorf("unknown rate asset: %s", r.In)
		}
		out, ok := registry.GetBySymbol(r.Out)
		if !ok {
			return fmt.Errorf("unknown rate asset: %s", r.Out)
		}
		venue.SetRate(in, out, r.Num, r.Den)
	}
	if len(cfg.Venue.Rates) == 0 {
		// No markets configured: quote the pair at par both ways
		venue.SetRate(pairA, pairB, 1, 1)
		venue.SetRate(pairB, pairA, 1, 1)
	}

	if err := seed(book, registry, cfg.Seed.Engine, engineAddr); err != nil {
		return err
	}
	if err := seed(book, registry, cfg.Seed.Venue, venueAddr); err != nil {
		return err
	}
	if err := seed(book, registry, cfg.Seed.Pool, poolAddr); err != nil {
		return err
	}

	healthServer.RegisterCheck("ledger", func(ctx context.Context) (bool, string) {
		return true, fmt.Sprintf("tracking %d assets", registry.Count())
	})

	engine, err := settlementApp.NewEngine(book, registry, pool, venue, settlementApp.Config{
		Self:         engineAddr,
		Operator:     operatorAddr,
		VenueSpender: venueAddr,
		PoolAddress:  poolAddr,
		Pair:         [2]*asset.Asset{pairA, pairB},
	}, log)
	if err != nil {
		return err
	}

	// Optional pre-flight against the real venue contract
	if cfg.Venue.RPCEnabled {
		client, err := ethclient.Dial(cfg.Venue.RPCURL)
		if err != nil {
			return fmt.Errorf("failed to connect to RPC: %w", err)
		}
		defer client.Close()

		reader, err := onchain.NewReader(client, cfg.Venue.DexAddressHex(), log)
		if err != nil {
			return err
		}
		for _, a := range []*asset.Asset{pairA, pairB} {
			balance, err := reader.VenueBalance(ctx, a)
			if err != nil {
				log.Warn("venue pre-flight failed", "asset", a.Symbol(), "error", err)
				continue
			}
			log.Info("venue holds", "asset", a.Symbol(),
				"balance", asset.NewAmount(a, balance).String())
		}
		healthServer.RegisterCheck("rpc", func(ctx context.Context) (bool, string) {
			if _, err := client.BlockNumber(ctx); err != nil {
				return false, err.Error()
			}
			return true, ""
		})
	}

	loanAsset, ok := registry.GetBySymbol(cfg.Loan.Asset)
	if !ok {
		return fmt.Errorf("unknown loan asset: %s", cfg.Loan.Asset)
	}
	principal, err := asset.ParseString(loanAsset, cfg.Loan.Amount)
	if err != nil {
		return fmt.Errorf("invalid loan amount: %w", err)
	}

	// Operator pre-authorizes the venue for both sides of the pair before
	// the cycle, mirroring the approve-then-borrow operating procedure.
	for _, a := range []*asset.Asset{pairA, pairB} {
		balance, err := engine.Balance(a)
		if err != nil {
			return err
		}
		limit := balance
		if a.Equals(loanAsset) {
			limit = principal.Raw()
		}
		if err := engine.ApproveVenue(operatorAddr, a, limit); err != nil {
			return err
		}
		allowance, _ := engine.VenueAllowance(a)
		log.Info("venue allowance set", "asset", a.Symbol(),
			"allowance", asset.NewAmount(a, allowance).String())
	}

	receipt, err := engine.RequestFlashLoan(ctx, operatorAddr, loanAsset, principal.Raw())
	if err != nil {
		return fmt.Errorf("flash loan cycle failed: %w", err)
	}

	log.Info("cycle settled",
		"asset", receipt.Asset.Symbol(),
		"principal", asset.NewAmount(receipt.Asset, receipt.Principal).String(),
		"premium", asset.NewAmount(receipt.Asset, receipt.Premium).String(),
		"profit", receipt.ProfitDecimal().String()+" "+receipt.Asset.Symbol(),
	)

	for _, a := range []*asset.Asset{pairA, pairB} {
		balance, _ := engine.Balance(a)
		log.Info("engine holds", "asset", a.Symbol(),
			"balance", asset.NewAmount(a, balance).String())
	}

	return nil
}

// seed credits display-unit amounts from config onto the ledger.
func seed(book *ledger.Ledger, registry *asset.Registry, amounts map[string]string, holder common.Address) error {
	for symbol, value := range amounts {
		a, ok := registry.GetBySymbol(symbol)
		if !ok {
			return fmt.Errorf("unknown seed asset: %s", symbol)
		}
		amt, err := asset.ParseString(a, value)
		if err != nil {
			return fmt.Errorf("invalid seed amount %s %s: %w", value, symbol, err)
		}
		book.Credit(holder, a, amt.Raw())
	}
	return nil
}
