package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const goodGenesis = `{
	"name": "Fulcrum Test Network",
	"date": "2026-01-01T00:00:00.000000000Z",
	"difficulty": 3,
	"target_block_time": 30,
	"adjust_interval": 10,
	"adjust_ratio": 2,
	"mining_reward": 10,
	"min_tx_value": 1,
	"max_tx_value": 1000000,
	"trans_per_block": 100,
	"pool_max_size": 1000,
	"balances": {
		"0xF01813E4B85e178A83e29B8E7bF26BD830a25f32": 500000
	}
}`

const badGenesis = `{
	"name": "Fulcrum Test Network",
	"date": "2026-01-01T00:00:00.000000000Z",
	"difficulty": 0,
	"target_block_time": 30,
	"adjust_interval": 1,
	"adjust_ratio": 2,
	"mining_reward": 10,
	"min_tx_value": 100,
	"max_tx_value": 10,
	"trans_per_block": 100,
	"pool_max_size": 1000
}`

func writeGenesis(t *testing.T, doc string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("\t%s\tShould be able to write the genesis file: %v", failed, err)
	}

	return path
}

func TestLoad(t *testing.T) {
	t.Log("Given the need to load and validate the genesis file.")
	{
		t.Logf("\tTest 0:\tWhen the file holds in-range parameters.")
		{
			gen, err := genesis.Load(writeGenesis(t, goodGenesis))
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to load the genesis file: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to load the genesis file.", success)

			if gen.Difficulty != 3 || gen.AdjustInterval != 10 || gen.MiningReward != 10 {
				t.Fatalf("\t%s\tTest 0:\tShould carry the configured parameters: %+v", failed, gen)
			}
			t.Logf("\t%s\tTest 0:\tShould carry the configured parameters.", success)

			if gen.Balances["0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"] != 500000 {
				t.Fatalf("\t%s\tTest 0:\tShould carry the premined balances: %+v", failed, gen.Balances)
			}
			t.Logf("\t%s\tTest 0:\tShould carry the premined balances.", success)
		}

		t.Logf("\tTest 1:\tWhen the file holds out-of-range parameters.")
		{
			if _, err := genesis.Load(writeGenesis(t, badGenesis)); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould reject out-of-range parameters.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould reject out-of-range parameters.", success)
		}

		t.Logf("\tTest 2:\tWhen the file does not exist.")
		{
			if _, err := genesis.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould reject a missing file.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould reject a missing file.", success)
		}
	}
}
