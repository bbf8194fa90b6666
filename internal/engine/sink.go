package engine

import "sync"

// TransferSink is the external token-custody collaborator. Settlement
// calls Transfer exactly once per distinct recipient per batch; each
// call is assumed to succeed or fail atomically and is never retried.
type TransferSink interface {
	Transfer(recipient string, amount uint64) error
}

// MemoryLedger is an in-memory TransferSink used by the server, the
// replayer, and tests. Real custody is out of scope; this stands in
// for it.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]uint64
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[string]uint64)}
}

// Transfer credits amount to recipient.
func (l *MemoryLedger) Transfer(recipient string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[recipient] += amount
	return nil
}

// Balance returns the credited total for one account.
func (l *MemoryLedger) Balance(account string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// Balances returns a copy of all account balances.
func (l *MemoryLedger) Balances() map[string]uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]uint64, len(l.balances))
	for k, v := range l.balances {
		out[k] = v
	}
	return out
}
