// Package memory implements the database.Storage interface in memory.
// It is used when a node runs without durable persistence and by tests.
package memory

import (
	"errors"
	"sync"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
)

// Memory represents the storage implementation for keeping blocks only
// in memory. This implements the database.Storage interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.BlockData
}

// New constructs a Memory value for use.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do.
func (m *Memory) Close() error {
	return nil
}

// Write appends the specified block to the in-memory list.
func (m *Memory) Write(blockData database.BlockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = append(m.blocks, blockData)
	return nil
}

// GetBlock returns the specified block by number. Block numbers start at
// 1 since the genesis block is never stored.
func (m *Memory) GetBlock(num uint64) (database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if num == 0 || num > uint64(len(m.blocks)) {
		return database.BlockData{}, errors.New("block doesn't exist")
	}

	return m.blocks[num-1], nil
}

// ForEach returns an iterator to walk through all the blocks starting
// with block number 1.
func (m *Memory) ForEach() database.Iterator {
	return &iterator{storage: m}
}

// Reset clears out the in-memory chain.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil
	return nil
}

// =============================================================================

// iterator walks the in-memory block list. This implements the
// database.Iterator interface.
type iterator struct {
	storage *Memory
	current uint64
	eoc     bool
}

// Next retrieves the next block from memory.
func (it *iterator) Next() (database.BlockData, error) {
	if it.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	it.current++
	blockData, err := it.storage.GetBlock(it.current)
	if err != nil {
		it.eoc = true
	}

	return blockData, err
}

// Done returns the end of chain value.
func (it *iterator) Done() bool {
	return it.eoc
}
