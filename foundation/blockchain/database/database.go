// Package database maintains the confirmed state of the ledger: the
// ordered chain of blocks and the account balances derived from replaying
// every transaction in chain order.
package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/genesis"
)

// Storage interface represents the behavior required to be implemented by
// any package providing durable support for storing and reading the chain.
// The database functions correctly when this port fails transiently; write
// failures never corrupt the in-memory chain.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over the stored blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database manages the chain of blocks and the account balances that
// result from applying them in order.
type Database struct {
	mu sync.RWMutex

	genesis  genesis.Genesis
	chain    []Block
	accounts map[AccountID]Account

	storage   Storage
	evHandler func(v string, args ...any)
}

// New constructs a new database, applies the genesis premine and replays
// any blocks found in storage. Consensus level validation of the loaded
// chain (linkage, proof-of-work, difficulty schedule) belongs to the
// state package; the database enforces the balance invariants.
func New(gen genesis.Genesis, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	db := Database{
		genesis:   gen,
		chain:     []Block{GenesisBlock(gen.Date, gen.Difficulty)},
		storage:   storage,
		evHandler: evHandler,
	}
	db.accounts = premine(gen)

	// Replay the blocks found in storage on top of the genesis state.
	iter := storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return nil, err
		}

		if err := db.ApplyBlock(block); err != nil {
			return nil, err
		}

		evHandler("database: New: loaded block[%d] from storage", block.Header.Number)
	}

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() {
	db.storage.Close()
}

// =============================================================================

// ApplyBlock replays the block's transactions against the current account
// balances and, if no balance would be driven negative, appends the block
// to the in-memory chain. The operation either fully succeeds or leaves
// the database untouched.
func (db *Database) ApplyBlock(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	accounts, err := applyTransactions(copyAccounts(db.accounts), block.Trans)
	if err != nil {
		return err
	}

	db.accounts = accounts
	db.chain = append(db.chain, block)

	return nil
}

// Write persists the block through the storage port. A failure here is
// reported but by design never affects the in-memory chain.
func (db *Database) Write(block Block) error {
	return db.storage.Write(NewBlockData(block))
}

// ReplaceChain atomically swaps the current chain and account state for
// the candidate chain. The candidate must include the genesis block at
// position zero. From the perspective of any reader the replacement is a
// single operation; no partially-replaced chain is ever observable. Once
// the in-memory swap commits the call succeeds; storage failures are
// logged and never roll it back.
func (db *Database) ReplaceChain(blocks []Block) error {
	if len(blocks) == 0 || blocks[0].Hash() != GenesisBlock(db.genesis.Date, db.genesis.Difficulty).Hash() {
		return errors.New("candidate chain doesn't start from genesis")
	}

	// Rebuild the account state from the premine before taking the lock.
	accounts := premine(db.genesis)

	var err error
	for _, block := range blocks[1:] {
		if accounts, err = applyTransactions(accounts, block.Trans); err != nil {
			return fmt.Errorf("replaying candidate chain: %w", err)
		}
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.chain = make([]Block, len(blocks))
	copy(db.chain, blocks)
	db.accounts = accounts

	// Rewrite storage to match the new chain. The in-memory swap above is
	// the commit point; a failing storage port must not make the caller
	// believe the replacement didn't happen.
	if err := db.storage.Reset(); err != nil {
		db.evHandler("database: ReplaceChain: storage reset: ERROR: %s", err)
		return nil
	}
	for _, block := range blocks[1:] {
		if err := db.storage.Write(NewBlockData(block)); err != nil {
			db.evHandler("database: ReplaceChain: storage write: blk[%d]: ERROR: %s", block.Header.Number, err)
			return nil
		}
	}

	return nil
}

// =============================================================================

// LatestBlock returns the current last block of the chain.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.chain[len(db.chain)-1]
}

// Height returns the block number of the latest block.
func (db *Database) Height() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.chain[len(db.chain)-1].Header.Number
}

// Chain returns a copy of the full chain of blocks.
func (db *Database) Chain() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	chain := make([]Block, len(db.chain))
	copy(chain, db.chain)

	return chain
}

// GetBlock returns the block with the specified number.
func (db *Database) GetBlock(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num >= uint64(len(db.chain)) {
		return Block{}, fmt.Errorf("block %d doesn't exist", num)
	}

	return db.chain[num], nil
}

// GetBlockByHash returns the block with the specified hash.
func (db *Database) GetBlockByHash(hash string) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, block := range db.chain {
		if block.Hash() == hash {
			return block, nil
		}
	}

	return Block{}, fmt.Errorf("block %s doesn't exist", hash)
}

// FindTransaction searches the chain for a confirmed transaction with the
// specified transaction hash and returns the block number it was mined in.
func (db *Database) FindTransaction(txHash string) (SignedTx, uint64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, block := range db.chain {
		for _, tx := range block.Trans {
			if tx.Hash() == txHash {
				return tx, block.Header.Number, nil
			}
		}
	}

	return SignedTx{}, 0, errors.New("transaction not found")
}

// Balance returns the confirmed balance for the specified account. For a
// valid chain this value can never be negative since every block append
// replays its transactions before being accepted.
func (db *Database) Balance(accountID AccountID) uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.accounts[accountID].Balance
}

// CopyAccounts makes a copy of the current accounts in the database.
func (db *Database) CopyAccounts() map[AccountID]Account {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return copyAccounts(db.accounts)
}

// =============================================================================

// ValidateBalances replays every transaction of the candidate chain in
// index order against the genesis premine and reports the first point at
// which an account balance would be driven negative. The chain must carry
// the genesis block at position zero.
func ValidateBalances(gen genesis.Genesis, chain []Block) error {
	accounts := premine(gen)

	var err error
	for _, block := range chain {
		if block.Header.Number == 0 {
			continue
		}

		if accounts, err = applyTransactions(accounts, block.Trans); err != nil {
			return fmt.Errorf("block %d: %w", block.Header.Number, err)
		}
	}

	return nil
}

// =============================================================================

// premine constructs the account state declared in the genesis file.
func premine(gen genesis.Genesis) map[AccountID]Account {
	accounts := make(map[AccountID]Account)
	for accountStr, balance := range gen.Balances {
		accountID := AccountID(accountStr)
		accounts[accountID] = newAccount(accountID, balance)
	}

	return accounts
}

// copyAccounts makes a deep copy of an account map.
func copyAccounts(accounts map[AccountID]Account) map[AccountID]Account {
	cpy := make(map[AccountID]Account, len(accounts))
	for accountID, account := range accounts {
		cpy[accountID] = account
	}

	return cpy
}

// applyTransactions replays the transactions of one block against the
// specified account state. Reward transactions credit the beneficiary and
// ordinary transactions move value between the two parties atomically.
func applyTransactions(accounts map[AccountID]Account, trans []SignedTx) (map[AccountID]Account, error) {
	for _, tx := range trans {
		if tx.IsReward() {
			to := accounts[tx.ToID]
			to.AccountID = tx.ToID
			to.Balance += tx.Value
			accounts[tx.ToID] = to
			continue
		}

		from := accounts[tx.FromID]
		if from.Balance < tx.Value {
			return nil, fmt.Errorf("%w: account %s, balance %d, needed %d", ErrInsufficientFunds, tx.FromID, from.Balance, tx.Value)
		}

		to := accounts[tx.ToID]
		from.AccountID = tx.FromID
		to.AccountID = tx.ToID

		from.Balance -= tx.Value
		to.Balance += tx.Value

		accounts[tx.FromID] = from
		accounts[tx.ToID] = to
	}

	return accounts, nil
}
