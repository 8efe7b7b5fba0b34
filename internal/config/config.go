// Package config provides configuration loading and validation.
package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Pool      PoolConfig      `mapstructure:"pool"`
	Venue     VenueConfig     `mapstructure:"venue"`
	Seed      SeedConfig      `mapstructure:"seed"`
	Loan      LoanConfig      `mapstructure:"loan"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EngineConfig identifies the engine's principals and trading pair.
type EngineConfig struct {
	EngineAddress   string   `mapstructure:"engine_address"`
	OperatorAddress string   `mapstructure:"operator_address"`
	Pair            []string `mapstructure:"pair"`
}

// EngineAddressHex returns the engine address as common.Address.
func (c *EngineConfig) EngineAddressHex() common.Address {
	return common.HexToAddress(c.EngineAddress)
}

// OperatorAddressHex returns the operator address as common.Address.
func (c *EngineConfig) OperatorAddressHex() common.Address {
	return common.HexToAddress(c.OperatorAddress)
}

// PoolConfig holds lending pool parameters.
type PoolConfig struct {
	Address    string `mapstructure:"address"`
	PremiumBps int64  `mapstructure:"premium_bps"`
}

// AddressHex returns the pool address as common.Address.
func (c *PoolConfig) AddressHex() common.Address {
	return common.HexToAddress(c.Address)
}

// RateConfig fixes one simulated market: Num units of Out per Den units of In.
type RateConfig struct {
	In  string `mapstructure:"in"`
	Out string `mapstructure:"out"`
	Num int64  `mapstructure:"num"`
	Den int64  `mapstructure:"den"`
}

// VenueConfig holds trading venue parameters.
type VenueConfig struct {
	Address string       `mapstructure:"address"`
	Rates   []RateConfig `mapstructure:"rates"`

	// On-chain diagnostics (optional)
	RPCEnabled bool   `mapstructure:"rpc_enabled"`
	RPCURL     string `mapstructure:"rpc_url"`
	DexAddress string `mapstructure:"dex_address"`
}

// AddressHex returns the venue address as common.Address.
func (c *VenueConfig) AddressHex() common.Address {
	return common.HexToAddress(c.Address)
}

// DexAddressHex returns the Dex contract address as common.Address.
func (c *VenueConfig) DexAddressHex() common.Address {
	return common.HexToAddress(c.DexAddress)
}

// SeedConfig pre-funds ledger principals, keyed by asset symbol with
// display-unit decimal strings.
type SeedConfig struct {
	Engine map[string]string `mapstructure:"engine"`
	Venue  map[string]string `mapstructure:"venue"`
	Pool   map[string]string `mapstructure:"pool"`
}

// LoanConfig describes the cycle the binary runs.
type LoanConfig struct {
	Asset  string `mapstructure:"asset"`
	Amount string `mapstructure:"amount"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("FLASH")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; defaults cover the sim setup
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "flashloan-arbitrage")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Principal identities (ledger handles, address-shaped)
	v.SetDefault("engine.engine_address", "0x1000000000000000000000000000000000000001")
	v.SetDefault("engine.operator_address", "0x1000000000000000000000000000000000000002")
	v.SetDefault("engine.pair", []string{"DAI", "USDC"})

	v.SetDefault("pool.address", "0x2000000000000000000000000000000000000001")
	v.SetDefault("pool.premium_bps", 5) // Aave v3 flashLoanSimple fee

	v.SetDefault("venue.address", "0x3000000000000000000000000000000000000001")
	v.SetDefault("venue.rpc_enabled", false)

	// The Hardhat suite's seeding: venue 1500/1500, engine 1200 DAI
	v.SetDefault("seed.engine", map[string]string{"DAI": "1200"})
	v.SetDefault("seed.venue", map[string]string{"DAI": "1500", "USDC": "1500"})
	v.SetDefault("seed.pool", map[string]string{"USDC": "10000"})

	v.SetDefault("loan.asset", "USDC")
	v.SetDefault("loan.amount", "1000")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "flashloan-arbitrage")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.Engine.EngineAddress) {
		return fmt.Errorf("invalid engine.engine_address: %s", c.Engine.EngineAddress)
	}
	if !common.IsHexAddress(c.Engine.OperatorAddress) {
		return fmt.Errorf("invalid engine.operator_address: %s", c.Engine.OperatorAddress)
	}
	if !common.IsHexAddress(c.Pool.Address) {
		return fmt.Errorf("invalid pool.address: %s", c.Pool.Address)
	}
	if !common.IsHexAddress(c.Venue.Address) {
		return fmt.Errorf("invalid venue.address: %s", c.Venue.Address)
	}
	if len(c.Engine.Pair) != 2 {
		return fmt.Errorf("engine.pair must name exactly two assets, got %d", len(c.Engine.Pair))
	}
	if c.Pool.PremiumBps < 0 {
		return fmt.Errorf("pool.premium_bps cannot be negative")
	}
	if c.Venue.RPCEnabled {
		if c.Venue.RPCURL == "" {
			return fmt.Errorf("venue.rpc_url is required when venue.rpc_enabled is set")
		}
		if !common.IsHexAddress(c.Venue.DexAddress) {
			return fmt.Errorf("invalid venue.dex_address: %s", c.Venue.DexAddress)
		}
	}
	return nil
}
