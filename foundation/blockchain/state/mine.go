package state

import (
	"context"
	"errors"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are no pending transactions.
var ErrNoTransactions = errors.New("no transactions in mempool")

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain. Mining works against an immutable
// snapshot of the chain tip and pool contents taken here; exclusive access
// is re-acquired only when a valid nonce is found.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Are there enough transactions in the pool.
	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	// Snapshot the tip and the difficulty in force, and pick the pending
	// transactions in admission order. The reward transaction is always
	// the first transaction of the block.
	s.mu.RLock()
	prevBlock := s.db.LatestBlock()
	difficulty := s.difficulty
	s.mu.RUnlock()

	trans := s.mempool.PickBest(int(s.genesis.TransPerBlock))
	trans = append([]database.SignedTx{database.NewRewardTx(s.beneficiaryID, s.genesis.MiningReward)}, trans...)

	// Attempt to create a new block by solving the POW puzzle. This can
	// be cancelled.
	block, err := database.POW(ctx, database.POWArgs{
		Difficulty: difficulty,
		PrevBlock:  prevBlock,
		Trans:      trans,
		EvHandler:  s.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: validate and update database")

	// Validate the block and then update the blockchain database. If the
	// chain tip advanced while we were searching, the linkage check fails
	// and the attempt is discarded as stale; the transactions stay pending.
	if err := s.validateUpdateDatabase(block); err != nil {
		if errors.Is(err, database.ErrChainLinkage) {
			s.evHandler("state: MineNewBlock: MINING: stale attempt discarded: %s", err)
		}
		return database.Block{}, err
	}

	return block, nil
}

// ProcessProposedBlock takes a block received from a peer, validates it
// and if that passes, adds the block to the local chain.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.Header.PrevBlockHash, block.Hash(), len(block.Trans))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash())

	// Validate the block and then update the blockchain database.
	if err := s.validateUpdateDatabase(block); err != nil {
		return err
	}

	// If the runMiningOperation function is being executed it needs to
	// stop immediately since this node's attempt is now stale. The G
	// executing runMiningOperation will not return from the function
	// until done is called. That allows this function to complete its
	// state changes before a new mining operation takes place.
	if s.Worker != nil {
		done := s.Worker.SignalCancelMining()
		defer func() {
			s.evHandler("state: ProcessProposedBlock: signal runMiningOperation to terminate")
			done()
		}()
	}

	return nil
}

// =============================================================================

// validateUpdateDatabase takes the block and validates it against the
// consensus rules. If the block passes, the state of the node is updated:
// the block is appended, its transactions leave the mempool and the
// difficulty is adjusted on the interval boundary. The operation either
// fully succeeds or leaves the state untouched.
func (s *State) validateUpdateDatabase(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: validateUpdateDatabase: validate block")

	if err := block.ValidateBlock(s.db.LatestBlock(), s.difficulty, s.genesis.MiningReward, s.evHandler); err != nil {
		return err
	}

	// Replay the block's transactions against the current balances and
	// append. This fails without mutating state if any balance would be
	// driven negative.
	if err := s.db.ApplyBlock(block); err != nil {
		return err
	}

	s.evHandler("state: validateUpdateDatabase: write to storage")

	// Persist the new block through the storage port. A transient failure
	// is logged, never fatal to chain correctness; the collaborator is
	// expected to retry persistence.
	if err := s.db.Write(block); err != nil {
		s.evHandler("state: validateUpdateDatabase: WARNING: storage write failed: %s", err)
	}

	s.evHandler("state: validateUpdateDatabase: remove block transactions from mempool")

	for _, tx := range block.Trans {
		s.mempool.Delete(tx.Hash())
	}

	// Adjust the difficulty on the interval boundary.
	if block.Header.Number%uint64(s.genesis.AdjustInterval) == 0 {
		s.adjustDifficulty(block)
	}

	return nil
}
