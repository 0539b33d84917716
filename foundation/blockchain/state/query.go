package state

import (
	"errors"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// =============================================================================

// Status represents a snapshot of the node for the query surface.
type Status struct {
	Height      uint64 `json:"height"`
	LatestHash  string `json:"latest_hash"`
	Difficulty  uint32 `json:"difficulty"`
	MempoolSize int    `json:"mempool_size"`
}

// QueryStatus returns the chain height, the difficulty currently in force
// and the pool size.
func (s *State) QueryStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := s.db.LatestBlock()

	return Status{
		Height:      latest.Header.Number,
		LatestHash:  latest.Hash(),
		Difficulty:  s.difficulty,
		MempoolSize: s.mempool.Count(),
	}
}

// QueryAccount returns a copy of the account from the database.
func (s *State) QueryAccount(accountID database.AccountID) (database.Account, error) {
	accounts := s.db.CopyAccounts()

	if info, exists := accounts[accountID]; exists {
		return info, nil
	}

	return database.Account{}, errors.New("account not found")
}

// QueryBalance returns the confirmed balance for the specified account,
// derived from replaying all confirmed transactions in chain order.
func (s *State) QueryBalance(accountID database.AccountID) uint64 {
	return s.db.Balance(accountID)
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlocksByNumber returns the set of blocks based on block numbers.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) []database.Block {
	if from == QueryLatest {
		from = s.db.LatestBlock().Header.Number
		to = from
	}
	if to == QueryLatest {
		to = s.db.LatestBlock().Header.Number
	}

	var out []database.Block
	for i := from; i <= to; i++ {
		block, err := s.db.GetBlock(i)
		if err != nil {
			s.evHandler("state: QueryBlocksByNumber: ERROR: %s", err)
			return nil
		}
		out = append(out, block)
	}

	return out
}

// QueryBlockByHash returns the block with the specified block hash.
func (s *State) QueryBlockByHash(hash string) (database.Block, error) {
	return s.db.GetBlockByHash(hash)
}

// TxStatus represents the confirmation status of a transaction located
// through the query surface.
type TxStatus struct {
	Tx          database.SignedTx `json:"tx"`
	Confirmed   bool              `json:"confirmed"`
	BlockNumber uint64            `json:"block_number,omitempty"`
}

// QueryTransactionByHash locates a transaction by its transaction hash,
// first in the confirmed chain and then in the mempool.
func (s *State) QueryTransactionByHash(txHash string) (TxStatus, error) {
	if tx, blockNum, err := s.db.FindTransaction(txHash); err == nil {
		return TxStatus{Tx: tx, Confirmed: true, BlockNumber: blockNum}, nil
	}

	for _, tx := range s.mempool.Copy() {
		if tx.Hash() == txHash {
			return TxStatus{Tx: tx, Confirmed: false}, nil
		}
	}

	return TxStatus{}, errors.New("transaction not found")
}
