package state

import (
	"fmt"
	"math/big"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/genesis"
)

// adjustDifficulty derives the difficulty for the next blocks from the
// timing of the interval that just closed with the specified block. The
// caller must hold the state mutex.
func (s *State) adjustDifficulty(block database.Block) {
	interval := uint64(s.genesis.AdjustInterval)

	first, err := s.db.GetBlock(block.Header.Number - interval)
	if err != nil {
		s.evHandler("state: adjustDifficulty: ERROR: %s", err)
		return
	}

	difficulty := applyAdjustment(s.genesis, s.difficulty, first.Header.TimeStamp, block.Header.TimeStamp)
	if difficulty != s.difficulty {
		s.evHandler("state: adjustDifficulty: difficulty changed: old[%d] new[%d]", s.difficulty, difficulty)
		s.difficulty = difficulty
	}
}

// maxDifficulty bounds the schedule to the same upper limit the genesis
// file accepts. isHashSolved compares against a fixed run of zeros, so
// the schedule must never walk past it.
const maxDifficulty = 16

// applyAdjustment implements the difficulty adjustment rule. The interval
// wall time is compared against the target production time for the same
// number of blocks: faster than target/ratio raises the difficulty by one
// unit, slower than target*ratio lowers it by one unit. The result stays
// within [1, maxDifficulty].
func applyAdjustment(gen genesis.Genesis, difficulty uint32, firstStamp uint64, lastStamp uint64) uint32 {
	interval := uint64(gen.AdjustInterval)
	ratio := uint64(gen.AdjustRatio)
	target := uint64(gen.TargetBlockTime) * interval
	timeTaken := lastStamp - firstStamp

	switch {
	case timeTaken*ratio < target && difficulty < maxDifficulty:
		difficulty++
	case timeTaken > target*ratio && difficulty > 1:
		difficulty--
	}

	return difficulty
}

// nextDifficulty replays the adjustment rule over the full chain and
// returns the difficulty in force for the next block. The schedule is a
// pure function of the chain's timestamps; it is never trusted from any
// block or peer.
func nextDifficulty(gen genesis.Genesis, chain []database.Block) uint32 {
	difficulty := gen.Difficulty
	interval := uint64(gen.AdjustInterval)

	for _, block := range chain {
		number := block.Header.Number
		if number == 0 || number%interval != 0 {
			continue
		}

		first := chain[number-interval]
		difficulty = applyAdjustment(gen, difficulty, first.Header.TimeStamp, block.Header.TimeStamp)
	}

	return difficulty
}

// chainWork returns the cumulative work of the chain: the sum over all
// mined blocks of 2^difficulty, with the difficulty recomputed from the
// schedule at each block. Used to pick among competing valid chains.
func chainWork(gen genesis.Genesis, chain []database.Block) *big.Int {
	work := big.NewInt(0)
	difficulty := gen.Difficulty
	interval := uint64(gen.AdjustInterval)

	for _, block := range chain {
		number := block.Header.Number
		if number == 0 {
			continue
		}

		work.Add(work, new(big.Int).Lsh(big.NewInt(1), uint(difficulty)))

		if number%interval == 0 {
			first := chain[number-interval]
			difficulty = applyAdjustment(gen, difficulty, first.Header.TimeStamp, block.Header.TimeStamp)
		}
	}

	return work
}

// validateChain replays the entire candidate sequence from genesis:
// linkage, per-block proof-of-work against the difficulty that would have
// been in force at that index, transaction signatures and cumulative
// balance non-negativity. It returns the total cumulative work on success
// or the first violated invariant on failure.
func validateChain(gen genesis.Genesis, chain []database.Block, evHandler func(v string, args ...any)) (*big.Int, error) {
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: candidate chain is empty", database.ErrChainLinkage)
	}

	genesisBlock := database.GenesisBlock(gen.Date, gen.Difficulty)
	if chain[0].Hash() != genesisBlock.Hash() {
		return nil, fmt.Errorf("%w: candidate chain doesn't start from our genesis block", database.ErrChainLinkage)
	}

	// Walk the chain once, maintaining the difficulty schedule and the
	// cumulative work as we go. Every block number must be present and
	// strictly increasing by one for the schedule indexes to line up.
	work := big.NewInt(0)
	difficulty := gen.Difficulty
	interval := uint64(gen.AdjustInterval)

	for i := 1; i < len(chain); i++ {
		block := chain[i]

		if block.Header.Number != uint64(i) {
			return nil, fmt.Errorf("%w: block out of order at position %d, got number %d", database.ErrChainLinkage, i, block.Header.Number)
		}

		if err := block.ValidateBlock(chain[i-1], difficulty, gen.MiningReward, evHandler); err != nil {
			return nil, err
		}

		work.Add(work, new(big.Int).Lsh(big.NewInt(1), uint(difficulty)))

		if block.Header.Number%interval == 0 {
			first := chain[block.Header.Number-interval]
			difficulty = applyAdjustment(gen, difficulty, first.Header.TimeStamp, block.Header.TimeStamp)
		}
	}

	// No block may drive any balance negative when replayed in order.
	if err := database.ValidateBalances(gen, chain); err != nil {
		return nil, err
	}

	return work, nil
}
