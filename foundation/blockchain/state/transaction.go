package state

import (
	"fmt"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
)

// UpsertWalletTransaction accepts a transaction from a wallet for
// inclusion into the next mined block and shares it with the known peers.
func (s *State) UpsertWalletTransaction(signedTx database.SignedTx) error {
	if err := s.validateTransaction(signedTx); err != nil {
		return err
	}

	n, err := s.mempool.Upsert(signedTx)
	if err != nil {
		return err
	}

	s.evHandler("state: UpsertWalletTransaction: tx[%s] added: poolSize[%d]", signedTx, n)

	if s.Worker != nil {
		s.Worker.SignalShareTx(signedTx)
		s.Worker.SignalStartMining()
	}

	return nil
}

// UpsertNodeTransaction accepts a transaction shared by another node for
// inclusion into the next mined block.
func (s *State) UpsertNodeTransaction(signedTx database.SignedTx) error {
	if err := s.validateTransaction(signedTx); err != nil {
		return err
	}

	if _, err := s.mempool.Upsert(signedTx); err != nil {
		return err
	}

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return nil
}

// EvictOldestTransactions proactively removes the n longest-resident
// transactions from the mempool and returns how many were removed.
func (s *State) EvictOldestTransactions(n int) int {
	evicted := s.mempool.EvictOldest(n)
	s.evHandler("state: EvictOldestTransactions: evicted[%d]", evicted)
	return evicted
}

// =============================================================================

// validateTransaction takes the signed transaction and validates it has a
// proper signature, that the value is inside the configured bounds and
// that the sender's confirmed balance covers it. Only confirmed chain
// state is consulted, never other pending transactions, to avoid ordering
// ambiguity.
func (s *State) validateTransaction(signedTx database.SignedTx) error {
	if err := signedTx.Validate(); err != nil {
		return err
	}

	if signedTx.Value < s.genesis.MinTxValue || signedTx.Value > s.genesis.MaxTxValue {
		return fmt.Errorf("transaction value %d is outside the accepted bounds [%d, %d]", signedTx.Value, s.genesis.MinTxValue, s.genesis.MaxTxValue)
	}

	if balance := s.db.Balance(signedTx.FromID); balance < signedTx.Value {
		return fmt.Errorf("%w: account %s, balance %d, needed %d", database.ErrInsufficientFunds, signedTx.FromID, balance, signedTx.Value)
	}

	return nil
}
