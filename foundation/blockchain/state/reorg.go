package state

import (
	"errors"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
)

// ErrChainNotStronger is returned when a candidate chain is valid but its
// cumulative work doesn't strictly exceed the local chain's. Ties keep
// the existing local chain to avoid oscillation.
var ErrChainNotStronger = errors.New("candidate chain doesn't carry more work")

// ProcessPeerChain takes a competing chain received from a peer, validates
// it from genesis and replaces the local chain when the candidate carries
// strictly more cumulative work. The replacement is atomic from the
// perspective of any reader.
func (s *State) ProcessPeerChain(chain []database.Block) error {
	s.evHandler("state: ProcessPeerChain: started: blocks[%d]", len(chain))
	defer s.evHandler("state: ProcessPeerChain: completed")

	// Stop any in-flight mining attempt; whatever happens below, its
	// snapshot may no longer be the tip.
	if s.Worker != nil {
		done := s.Worker.SignalCancelMining()
		defer done()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the candidate from genesis. The difficulty schedule and
	// the cumulative work are recomputed locally, never trusted from the
	// candidate itself. A failure keeps the local chain untouched.
	candidateWork, err := validateChain(s.genesis, chain, s.evHandler)
	if err != nil {
		return err
	}

	localChain := s.db.Chain()
	localWork := chainWork(s.genesis, localChain)

	s.evHandler("state: ProcessPeerChain: localWork[%s] candidateWork[%s]", localWork, candidateWork)

	if candidateWork.Cmp(localWork) <= 0 {
		return ErrChainNotStronger
	}

	// Capture the transactions confirmed only in the local branch before
	// the chains are swapped, so they can be re-admitted to the pool.
	confirmed := make(map[string]struct{})
	for _, block := range chain {
		for _, tx := range block.Trans {
			confirmed[tx.Hash()] = struct{}{}
		}
	}

	var orphaned []database.SignedTx
	for _, block := range localChain[1:] {
		for _, tx := range block.Trans {
			if _, exists := confirmed[tx.Hash()]; !exists && !tx.IsReward() {
				orphaned = append(orphaned, tx)
			}
		}
	}

	// Swap the chain and the account state in one operation.
	if err := s.db.ReplaceChain(chain); err != nil {
		return err
	}
	s.difficulty = nextDifficulty(s.genesis, chain)

	// Transactions confirmed in the new chain are purged from the pool.
	for hash := range confirmed {
		s.mempool.Delete(hash)
	}

	// Transactions confirmed only in the discarded branch go back to the
	// pool when they are still individually valid against the new state.
	for _, tx := range orphaned {
		if err := tx.Validate(); err != nil {
			continue
		}
		if s.db.Balance(tx.FromID) < tx.Value {
			continue
		}
		if _, err := s.mempool.Upsert(tx); err != nil {
			s.evHandler("state: ProcessPeerChain: orphaned tx not re-admitted: %s", err)
		}
	}

	s.evHandler("state: ProcessPeerChain: chain replaced: height[%d]", chain[len(chain)-1].Header.Number)

	return nil
}
