package database

import "errors"

// Consensus and validation errors returned when a block or chain fails
// one of the ledger invariants. Callers can test these with errors.Is.
var (
	// ErrChainLinkage is returned when a block's number or previous hash
	// doesn't line up with the block it claims to extend.
	ErrChainLinkage = errors.New("block doesn't link to the previous block")

	// ErrProofOfWork is returned when a block hash doesn't carry the
	// number of leading zeros required by the difficulty in force.
	ErrProofOfWork = errors.New("block hash doesn't meet the difficulty target")

	// ErrHashMismatch is returned when a block's declared hash doesn't
	// match the hash recomputed from its contents.
	ErrHashMismatch = errors.New("block hash doesn't match the block contents")

	// ErrEmptyBlock is returned when a non-genesis block carries no
	// transactions.
	ErrEmptyBlock = errors.New("block carries no transactions")

	// ErrInvalidReward is returned when a block's reward transaction is
	// missing, duplicated, misplaced or carries the wrong amount.
	ErrInvalidReward = errors.New("invalid mining reward transaction")

	// ErrInsufficientFunds is returned when applying a transaction would
	// drive the sender's balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
