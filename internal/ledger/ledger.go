// Package ledger tracks token balances and spending allowances for every
// principal the settlement engine interacts with. Amounts are big.Int in
// the smallest unit; no operation may leave a balance negative.
package ledger

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
)

type balanceKey struct {
	holder common.Address
	asset  asset.ID
}

type allowanceKey struct {
	owner   common.Address
	spender common.Address
	asset   asset.ID
}

// Ledger is a thread-safe balance and allowance table.
// Approvals overwrite the previous cap, they never accumulate.
type Ledger struct {
	balances   map[balanceKey]*big.Int
	allowances map[allowanceKey]*big.Int
	mu         sync.RWMutex
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances:   make(map[balanceKey]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
	}
}

// Balance returns the holder's current balance of the asset.
// Unknown (holder, asset) pairs read as zero.
func (l *Ledger) Balance(holder common.Address, a *asset.Asset) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balanceLocked(holder, a)
}

func (l *Ledger) balanceLocked(holder common.Address, a *asset.Asset) *big.Int {
	if b, ok := l.balances[balanceKey{holder, a.ID()}]; ok {
		return new(big.Int).Set(b)
	}
	return big.NewInt(0)
}

// Credit adds amount to the holder's balance. Used for seeding and for
// inbound transfers from principals outside the ledger.
func (l *Ledger) Credit(holder common.Address, a *asset.Asset, amount *big.Int) {
	if amount.Sign() < 0 {
		panic("ledger: negative credit")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.creditLocked(holder, a, amount)
}

func (l *Ledger) creditLocked(holder common.Address, a *asset.Asset, amount *big.Int) {
	key := balanceKey{holder, a.ID()}
	cur, ok := l.balances[key]
	if !ok {
		cur = big.NewInt(0)
	}
	l.balances[key] = new(big.Int).Add(cur, amount)
}

// Transfer moves amount of the asset from one holder to another.
// Fails with INSUFFICIENT_BALANCE if the sender holds less than amount;
// on failure no balance changes.
func (l *Ledger) Transfer(from, to common.Address, a *asset.Asset, amount *big.Int) error {
	if amount.Sign() < 0 {
		return apperror.Validation(apperror.CodeInvalidInput, "negative transfer amount")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.balanceLocked(from, a)
	if cur.Cmp(amount) < 0 {
		return apperror.New(apperror.CodeInsufficientBalance,
			apperror.WithContext(a.Symbol()+" transfer from "+from.Hex()))
	}

	l.balances[balanceKey{from, a.ID()}] = new(big.Int).Sub(cur, amount)
	l.creditLocked(to, a, amount)
	return nil
}

// Approve sets the cap the spender may pull from the owner, overwriting any
// prior cap. Increasing or decreasing means re-approving with the new
// absolute value.
func (l *Ledger) Approve(owner, spender common.Address, a *asset.Asset, amount *big.Int) {
	if amount.Sign() < 0 {
		panic("ledger: negative approval")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.allowances[allowanceKey{owner, spender, a.ID()}] = new(big.Int).Set(amount)
}

// Allowance returns the current cap for (owner, spender, asset).
// Unknown keys read as zero.
func (l *Ledger) Allowance(owner, spender common.Address, a *asset.Asset) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if cap, ok := l.allowances[allowanceKey{owner, spender, a.ID()}]; ok {
		return new(big.Int).Set(cap)
	}
	return big.NewInt(0)
}

// TransferFrom lets the spender pull amount of the asset from the owner to
// the recipient, consuming allowance. Fails with INSUFFICIENT_ALLOWANCE if
// the cap is below amount and INSUFFICIENT_BALANCE if the owner holds less
// than amount; on failure neither balances nor allowances change.
func (l *Ledger) TransferFrom(spender, owner, to common.Address, a *asset.Asset, amount *big.Int) error {
	if amount.Sign() < 0 {
		return apperror.Validation(apperror.CodeInvalidInput, "negative transfer amount")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	akey := allowanceKey{owner, spender, a.ID()}
	cap, ok := l.allowances[akey]
	if !ok || cap.Cmp(amount) < 0 {
		return apperror.New(apperror.CodeInsufficientAllowance,
			apperror.WithContext(a.Symbol()+" pull by "+spender.Hex()))
	}

	cur := l.balanceLocked(owner, a)
	if cur.Cmp(amount) < 0 {
		return apperror.New(apperror.CodeInsufficientBalance,
			apperror.WithContext(a.Symbol()+" pull from "+owner.Hex()))
	}

	l.allowances[akey] = new(big.Int).Sub(cap, amount)
	l.balances[balanceKey{owner, a.ID()}] = new(big.Int).Sub(cur, amount)
	l.creditLocked(to, a, amount)
	return nil
}
