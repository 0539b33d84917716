// Package selector provides the different transaction selection strategies
// that can be used to pick transactions from the mempool for the next block.
package selector

import (
	"fmt"
	"strings"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
)

// List of selection strategies.
const (
	StrategyFIFO = "fifo"
)

// Entry associates a pending transaction with its admission sequence
// number so strategies can order by residency in the pool.
type Entry struct {
	Tx  database.SignedTx
	Seq uint64
}

// Func defines a function that takes the pool entries and returns the
// selected transactions in inclusion order.
type Func func(entries []Entry, howMany int) []database.SignedTx

// strategies maps a strategy name to its selection function. Fee based
// prioritization is deliberately absent; inclusion order is admission
// order and nothing else.
var strategies = map[string]Func{
	StrategyFIFO: fifoSelect,
}

// Retrieve returns the selection function for the specified strategy.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strings.ToLower(strategy)]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}

	return fn, nil
}
