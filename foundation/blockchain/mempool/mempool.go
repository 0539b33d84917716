// Package mempool maintains the pool of unconfirmed, validated
// transactions waiting to be mined into a block.
package mempool

import (
	"errors"
	"sort"
	"sync"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/mempool/selector"
)

// Pool errors surfaced to callers on a failed admission.
var (
	// ErrDuplicateTx is returned when a transaction with the same
	// transaction hash is already pending.
	ErrDuplicateTx = errors.New("transaction already in the mempool")

	// ErrPoolFull is returned when the pool is at capacity. Eviction is
	// never automatic; callers decide when to evict.
	ErrPoolFull = errors.New("mempool is full")
)

// Mempool represents a cache of pending transactions keyed by their
// transaction hash. Admission order is preserved and is the default
// inclusion order for mining.
type Mempool struct {
	mu       sync.RWMutex
	pool     map[string]selector.Entry
	seq      uint64
	maxSize  int
	selectFn selector.Func
}

// New constructs a new mempool using the default FIFO strategy.
func New(maxSize int) (*Mempool, error) {
	return NewWithStrategy(maxSize, selector.StrategyFIFO)
}

// NewWithStrategy constructs a new mempool with the specified selection
// strategy.
func NewWithStrategy(maxSize int, strategy string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     make(map[string]selector.Entry),
		maxSize:  maxSize,
		selectFn: selectFn,
	}

	return &mp, nil
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds a transaction to the mempool keyed by its transaction hash.
// A transaction whose hash is already pending is rejected, as is any
// admission while the pool is at capacity.
func (mp *Mempool) Upsert(tx database.SignedTx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	hash := tx.Hash()

	if _, exists := mp.pool[hash]; exists {
		return len(mp.pool), ErrDuplicateTx
	}

	if len(mp.pool) >= mp.maxSize {
		return len(mp.pool), ErrPoolFull
	}

	mp.seq++
	mp.pool[hash] = selector.Entry{Tx: tx, Seq: mp.seq}

	return len(mp.pool), nil
}

// Delete removes the transaction with the specified hash from the mempool.
func (mp *Mempool) Delete(txHash string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, txHash)
}

// EvictOldest removes the n longest-resident transactions from the pool
// and returns how many were actually removed.
func (mp *Mempool) EvictOldest(n int) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	entries := make([]selector.Entry, 0, len(mp.pool))
	for _, entry := range mp.pool {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Seq < entries[j].Seq
	})

	if n > len(entries) {
		n = len(entries)
	}

	for _, entry := range entries[:n] {
		delete(mp.pool, entry.Tx.Hash())
	}

	return n
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]selector.Entry)
}

// PickBest uses the configured strategy to return up to howMany pending
// transactions in inclusion order. Pass -1 for all pending transactions.
// The selection is read-only; transactions are removed only once a block
// including them is accepted.
func (mp *Mempool) PickBest(howMany int) []database.SignedTx {
	var entries []selector.Entry
	mp.mu.RLock()
	{
		entries = make([]selector.Entry, 0, len(mp.pool))
		for _, entry := range mp.pool {
			entries = append(entries, entry)
		}
	}
	mp.mu.RUnlock()

	return mp.selectFn(entries, howMany)
}

// Copy returns every pending transaction in admission order.
func (mp *Mempool) Copy() []database.SignedTx {
	return mp.PickBest(-1)
}
