package state

import (
	"testing"
	"time"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		Name:            "test chain",
		Date:            time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		Difficulty:      3,
		TargetBlockTime: 10,
		AdjustInterval:  5,
		AdjustRatio:     2,
		MiningReward:    10,
		MinTxValue:      1,
		MaxTxValue:      10_000,
		TransPerBlock:   10,
		PoolMaxSize:     100,
		Balances:        map[string]uint64{},
	}
}

// syntheticChain builds a chain of headers with the specified seconds
// between blocks. Only the schedule and work functions consume it, so no
// real mining is needed.
func syntheticChain(gen genesis.Genesis, blocks int, secondsApart uint64) []database.Block {
	chain := make([]database.Block, 0, blocks+1)
	chain = append(chain, database.GenesisBlock(gen.Date, gen.Difficulty))

	stamp := uint64(gen.Date.UTC().Unix())
	for i := 1; i <= blocks; i++ {
		stamp += secondsApart
		chain = append(chain, database.Block{
			Header: database.BlockHeader{
				Number:    uint64(i),
				TimeStamp: stamp,
			},
		})
	}

	return chain
}

func TestApplyAdjustment(t *testing.T) {
	gen := testGenesis()

	// Five blocks at ten seconds each gives a fifty second target window.
	start := uint64(1_000_000)

	t.Log("Given the need to adjust the difficulty from interval timing.")
	{
		t.Logf("\tTest 0:\tWhen the interval runs close to the target.")
		{
			if got := applyAdjustment(gen, 3, start, start+50); got != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould hold the difficulty steady: got %d, exp %d", failed, got, 3)
			}
			t.Logf("\t%s\tTest 0:\tShould hold the difficulty steady.", success)
		}

		t.Logf("\tTest 1:\tWhen the interval runs much faster than the target.")
		{
			if got := applyAdjustment(gen, 3, start, start+10); got != 4 {
				t.Fatalf("\t%s\tTest 1:\tShould raise the difficulty by one: got %d, exp %d", failed, got, 4)
			}
			t.Logf("\t%s\tTest 1:\tShould raise the difficulty by one.", success)
		}

		t.Logf("\tTest 2:\tWhen the interval runs much slower than the target.")
		{
			if got := applyAdjustment(gen, 3, start, start+200); got != 2 {
				t.Fatalf("\t%s\tTest 2:\tShould lower the difficulty by one: got %d, exp %d", failed, got, 2)
			}
			t.Logf("\t%s\tTest 2:\tShould lower the difficulty by one.", success)
		}

		t.Logf("\tTest 3:\tWhen the difficulty is already at the floor.")
		{
			if got := applyAdjustment(gen, 1, start, start+200); got != 1 {
				t.Fatalf("\t%s\tTest 3:\tShould never drop below one: got %d, exp %d", failed, got, 1)
			}
			t.Logf("\t%s\tTest 3:\tShould never drop below one.", success)
		}

		t.Logf("\tTest 4:\tWhen the difficulty is already at the ceiling.")
		{
			if got := applyAdjustment(gen, maxDifficulty, start, start+10); got != maxDifficulty {
				t.Fatalf("\t%s\tTest 4:\tShould never rise above the ceiling: got %d, exp %d", failed, got, maxDifficulty)
			}
			t.Logf("\t%s\tTest 4:\tShould never rise above the ceiling.", success)
		}
	}
}

func TestNextDifficulty(t *testing.T) {
	gen := testGenesis()

	t.Log("Given the need to replay the difficulty schedule over a chain.")
	{
		t.Logf("\tTest 0:\tWhen the chain hasn't reached the interval.")
		{
			chain := syntheticChain(gen, 4, 10)
			if got := nextDifficulty(gen, chain); got != gen.Difficulty {
				t.Fatalf("\t%s\tTest 0:\tShould keep the genesis difficulty: got %d, exp %d", failed, got, gen.Difficulty)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the genesis difficulty.", success)
		}

		t.Logf("\tTest 1:\tWhen blocks arrive much faster than the target.")
		{
			chain := syntheticChain(gen, 10, 1)
			if got := nextDifficulty(gen, chain); got != gen.Difficulty+2 {
				t.Fatalf("\t%s\tTest 1:\tShould raise the difficulty once per interval: got %d, exp %d", failed, got, gen.Difficulty+2)
			}
			t.Logf("\t%s\tTest 1:\tShould raise the difficulty once per interval.", success)
		}

		t.Logf("\tTest 2:\tWhen blocks arrive much slower than the target.")
		{
			chain := syntheticChain(gen, 10, 100)
			if got := nextDifficulty(gen, chain); got != gen.Difficulty-2 {
				t.Fatalf("\t%s\tTest 2:\tShould lower the difficulty once per interval: got %d, exp %d", failed, got, gen.Difficulty-2)
			}
			t.Logf("\t%s\tTest 2:\tShould lower the difficulty once per interval.", success)
		}
	}
}

func TestChainWork(t *testing.T) {
	gen := testGenesis()

	t.Log("Given the need to compare cumulative work across chains.")
	{
		t.Logf("\tTest 0:\tWhen one chain is longer at the same difficulty.")
		{
			shorter := syntheticChain(gen, 2, 10)
			longer := syntheticChain(gen, 3, 10)

			if chainWork(gen, longer).Cmp(chainWork(gen, shorter)) <= 0 {
				t.Fatalf("\t%s\tTest 0:\tShould carry more work on the longer chain.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould carry more work on the longer chain.", success)
		}

		t.Logf("\tTest 1:\tWhen a shorter chain was mined at a higher difficulty.")
		{
			// Fast blocks raise the difficulty after the first interval, so
			// blocks past the interval each weigh more than slow ones.
			fast := syntheticChain(gen, 7, 1)
			slow := syntheticChain(gen, 8, 10)

			if chainWork(gen, fast).Cmp(chainWork(gen, slow)) <= 0 {
				t.Fatalf("\t%s\tTest 1:\tShould let difficulty outweigh raw length.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould let difficulty outweigh raw length.", success)
		}

		t.Logf("\tTest 2:\tWhen the chains are identical.")
		{
			a := syntheticChain(gen, 3, 10)
			b := syntheticChain(gen, 3, 10)

			if chainWork(gen, a).Cmp(chainWork(gen, b)) != 0 {
				t.Fatalf("\t%s\tTest 2:\tShould compute equal work for equal chains.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould compute equal work for equal chains.", success)
		}
	}
}
