package public

import (
	"math/big"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
)

// submitTx is the wire form of a signed transaction submission. Decoding
// into this type keeps validation out of the decode path; a transaction
// with a bad signature is a rejected request, not a malformed one.
type submitTx struct {
	FromID    database.AccountID `json:"from"`
	ToID      database.AccountID `json:"to"`
	Value     uint64             `json:"value"`
	TimeStamp uint64             `json:"timestamp"`
	V         *big.Int           `json:"v"`
	R         *big.Int           `json:"r"`
	S         *big.Int           `json:"s"`
}

// info represents the view of account information for a client.
type info struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
	Balance uint64             `json:"balance"`
}

// actInfo is the response envelope for the accounts listing.
type actInfo struct {
	LatestBlock string `json:"latest_block"`
	Uncommitted int    `json:"uncommitted"`
	Accounts    []info `json:"accounts"`
}

// tx represents the view of a transaction for a client.
type tx struct {
	FromAccount database.AccountID `json:"from"`
	FromName    string             `json:"from_name"`
	To          database.AccountID `json:"to"`
	ToName      string             `json:"to_name"`
	Value       uint64             `json:"value"`
	TimeStamp   uint64             `json:"timestamp"`
	Hash        string             `json:"hash"`
	Sig         string             `json:"sig"`
}

// block represents the view of a block for a client.
type block struct {
	Hash          string `json:"hash"`
	PrevBlockHash string `json:"prev_block_hash"`
	Number        uint64 `json:"number"`
	TimeStamp     uint64 `json:"timestamp"`
	Nonce         uint64 `json:"nonce"`
	Difficulty    uint32 `json:"difficulty"`
	TxRoot        string `json:"tx_root"`
	Transactions  []tx   `json:"txs"`
}
