// Package asset provides a type-safe model for the fungible tokens the
// settlement engine trades. Settlement math is big.Int in the smallest
// unit; decimal.Decimal appears only at display boundaries.
package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ID uniquely identifies a token by chain and contract address.
// The symbol is display metadata, never identity.
type ID struct {
	chainID uint64
	address common.Address
}

// NewID creates an ID for a token contract.
func NewID(chainID uint64, addr common.Address) ID {
	if addr == (common.Address{}) {
		panic("asset: token address cannot be zero")
	}
	return ID{chainID: chainID, address: addr}
}

// ChainID returns the chain the token lives on.
func (id ID) ChainID() uint64 {
	return id.chainID
}

// Address returns the token contract address.
func (id ID) Address() common.Address {
	return id.address
}

// IsZero reports whether the ID is the zero value (no asset).
func (id ID) IsZero() bool {
	return id.chainID == 0 && id.address == (common.Address{})
}

// Equals compares two IDs for equality.
func (id ID) Equals(other ID) bool {
	return id.chainID == other.chainID && id.address == other.address
}

// String returns a human-readable representation.
func (id ID) String() string {
	return fmt.Sprintf("chain:%d/%s", id.chainID, id.address.Hex())
}
