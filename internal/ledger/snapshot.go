package ledger

import "math/big"

// Snapshot is a deep copy of the ledger's balance and allowance tables.
// The settlement engine takes one before a flash loan cycle and restores it
// if any step of the cycle fails, reproducing the all-or-nothing revert of
// the source environment.
type Snapshot struct {
	balances   map[balanceKey]*big.Int
	allowances map[allowanceKey]*big.Int
}

// Snapshot captures the current ledger state.
func (l *Ledger) Snapshot() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := &Snapshot{
		balances:   make(map[balanceKey]*big.Int, len(l.balances)),
		allowances: make(map[allowanceKey]*big.Int, len(l.allowances)),
	}
	for k, v := range l.balances {
		s.balances[k] = new(big.Int).Set(v)
	}
	for k, v := range l.allowances {
		s.allowances[k] = new(big.Int).Set(v)
	}
	return s
}

// Restore discards the current state and reinstates the snapshot exactly.
func (l *Ledger) Restore(s *Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances = make(map[balanceKey]*big.Int, len(s.balances))
	l.allowances = make(map[allowanceKey]*big.Int, len(s.allowances))
	for k, v := range s.balances {
		l.balances[k] = new(big.Int).Set(v)
	}
	for k, v := range s.allowances {
		l.allowances[k] = new(big.Int).Set(v)
	}
}
