package asset

import "github.com/ethereum/go-ethereum/common"

// Chain IDs
const (
	ChainIDEthereum = 1
	ChainIDPolygon  = 137
	ChainIDMumbai   = 80001
)

// Aave faucet token addresses on Polygon Mumbai.
var (
	AddrUSDCMumbai = common.HexToAddress("0x52D800ca262522580CeBAD275395ca6e7598C014")
	AddrDAIMumbai  = common.HexToAddress("0xc8c0Cf9436F4862a8F60Ce680Ca5a9f0f99b5ded")
)

// Well-known IDs
var (
	IDMumbaiUSDC = NewID(ChainIDMumbai, AddrUSDCMumbai)
	IDMumbaiDAI  = NewID(ChainIDMumbai, AddrDAIMumbai)
)

// Well-known Assets (pre-created instances)
var (
	USDC = NewWithName(IDMumbaiUSDC, "USDC", "USD Coin", 6)
	DAI  = NewWithName(IDMumbaiDAI, "DAI", "Dai Stablecoin", 18)
)

// DefaultRegistry returns a registry pre-populated with the assets the
// engine settles out of the box.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(USDC)
	r.Register(DAI)
	return r
}

// MustNewToken creates a new token asset with the given parameters.
// Convenience for registering custom tokens from config.
func MustNewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	return NewWithName(NewID(chainID, address), symbol, name, decimals)
}
