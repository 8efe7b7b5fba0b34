package asset

import "github.com/ethereum/go-ethereum/common"

// Asset represents the metadata of a tracked token.
// It is a reference entity with stable identity (ID); the symbol and
// decimals are metadata used for display only.
type Asset struct {
	id       ID
	symbol   string
	name     string
	decimals uint8
}

// New creates a new Asset with the given parameters.
func New(id ID, symbol string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 30 {
		panic("asset: suspicious decimals (>30)")
	}
	return &Asset{id: id, symbol: symbol, decimals: decimals}
}

// NewWithName creates a new Asset with a human-readable name.
func NewWithName(id ID, symbol, name string, decimals uint8) *Asset {
	a := New(id, symbol, decimals)
	a.name = name
	return a
}

// ID returns the unique identifier for this asset.
func (a *Asset) ID() ID {
	return a.id
}

// Symbol returns the ticker symbol (e.g., "DAI", "USDC").
func (a *Asset) Symbol() string {
	return a.symbol
}

// Name returns the human-readable name.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// Decimals returns the number of decimal places.
func (a *Asset) Decimals() uint8 {
	return a.decimals
}

// Address returns the token contract address.
func (a *Asset) Address() common.Address {
	return a.id.Address()
}

// ChainID returns the chain the token lives on.
func (a *Asset) ChainID() uint64 {
	return a.id.ChainID()
}

// Equals compares two Assets by their ID.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.id.Equals(other.id)
}

// String returns a human-readable representation.
func (a *Asset) String() string {
	return a.symbol
}
