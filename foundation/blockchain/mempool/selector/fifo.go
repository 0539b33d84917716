package selector

import (
	"sort"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
)

// fifoSelect returns up to howMany transactions in admission order, the
// default inclusion order for mining.
var fifoSelect = func(entries []Entry, howMany int) []database.SignedTx {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Seq < entries[j].Seq
	})

	if howMany == -1 || howMany > len(entries) {
		howMany = len(entries)
	}

	txs := make([]database.SignedTx, 0, howMany)
	for _, entry := range entries[:howMany] {
		txs = append(txs, entry.Tx)
	}

	return txs
}
