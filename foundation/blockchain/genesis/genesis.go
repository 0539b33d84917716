// Package genesis maintains access to the genesis file, the single
// immutable configuration value for a running chain. It is loaded once at
// startup and validated eagerly; a node never runs with out-of-range
// chain parameters.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

// Genesis represents the genesis file.
type Genesis struct {
	Name            string            `json:"name" validate:"required"`
	Date            time.Time         `json:"date"`
	Difficulty      uint32            `json:"difficulty" validate:"gte=1,lte=16"`       // Initial leading zeros needed to solve the work problem.
	TargetBlockTime uint32            `json:"target_block_time" validate:"gte=1"`      // Target seconds between blocks.
	AdjustInterval  uint32            `json:"adjust_interval" validate:"gte=2"`        // Blocks between difficulty adjustments.
	AdjustRatio     uint32            `json:"adjust_ratio" validate:"gte=2"`           // Tolerance band around the target block time.
	MiningReward    uint64            `json:"mining_reward" validate:"gte=1"`          // Reward for mining a block.
	MinTxValue      uint64            `json:"min_tx_value" validate:"gte=1"`           // Smallest acceptable transaction value.
	MaxTxValue      uint64            `json:"max_tx_value" validate:"gtfield=MinTxValue"` // Largest acceptable transaction value.
	TransPerBlock   uint16            `json:"trans_per_block" validate:"gte=1"`        // Maximum number of transactions mined into a block.
	PoolMaxSize     int               `json:"pool_max_size" validate:"gte=1"`          // Maximum number of pending transactions held.
	Balances        map[string]uint64 `json:"balances"`                                // Premined balances for the founders of the chain.
}

// validate is configured once and reused for every load.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := validate.Struct(genesis); err != nil {
		return Genesis{}, fmt.Errorf("invalid genesis file: %w", err)
	}

	return genesis, nil
}
