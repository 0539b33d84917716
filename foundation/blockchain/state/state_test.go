package state_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database/storage/memory"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/genesis"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/mempool"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/peer"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	aliceHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	bobHexKey   = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

const minerAccount = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"

var nopEv = func(v string, args ...any) {}

func accountFor(t *testing.T, hexKey string) database.AccountID {
	t.Helper()

	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the private key: %v", failed, err)
	}

	return database.PublicKeyToAccountID(pk.PublicKey)
}

func signTx(t *testing.T, hexKey string, to database.AccountID, value uint64) database.SignedTx {
	t.Helper()

	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the private key: %v", failed, err)
	}

	tx, err := database.NewTx(database.PublicKeyToAccountID(pk.PublicKey), to, value)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the transaction: %v", failed, err)
	}

	signedTx, err := tx.Sign(pk)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
	}

	return signedTx
}

// newTestState constructs a state against in-memory storage with alice
// premined. Difficulty one keeps test mining fast.
func newTestState(t *testing.T) *state.State {
	t.Helper()

	storage, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open storage: %v", failed, err)
	}

	return newTestStateOn(t, storage, 100)
}

// newTestStateOn constructs a state over the provided storage with the
// specified pool capacity.
func newTestStateOn(t *testing.T, storage database.Storage, poolMaxSize int) *state.State {
	t.Helper()

	alice := accountFor(t, aliceHexKey)

	gen := genesis.Genesis{
		Name:            "test chain",
		Date:            time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		Difficulty:      1,
		TargetBlockTime: 10,
		AdjustInterval:  5,
		AdjustRatio:     2,
		MiningReward:    10,
		MinTxValue:      1,
		MaxTxValue:      10_000,
		TransPerBlock:   10,
		PoolMaxSize:     poolMaxSize,
		Balances:        map[string]uint64{string(alice): 1_000},
	}

	st, err := state.New(state.Config{
		BeneficiaryID: database.AccountID(minerAccount),
		Host:          "0.0.0.0:9080",
		Genesis:       gen,
		Storage:       storage,
		KnownPeers:    peer.NewPeerSet(),
		EvHandler:     nopEv,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	return st
}

// mineOn mines a wallet transaction into the next block of the state.
func mineOn(t *testing.T, st *state.State, tx database.SignedTx) database.Block {
	t.Helper()

	if err := st.UpsertWalletTransaction(tx); err != nil {
		t.Fatalf("\t%s\tShould be able to add the transaction: %v", failed, err)
	}

	block, err := st.MineNewBlock(context.Background())
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine the block: %v", failed, err)
	}

	return block
}

// =============================================================================

func TestMining(t *testing.T) {
	alice := accountFor(t, aliceHexKey)
	bob := accountFor(t, bobHexKey)

	t.Log("Given the need to mine pending transactions into blocks.")
	{
		t.Logf("\tTest 0:\tWhen mining a block with a pending transaction.")
		{
			st := newTestState(t)
			defer st.Shutdown()

			block := mineOn(t, st, signTx(t, aliceHexKey, bob, 100))
			t.Logf("\t%s\tTest 0:\tShould be able to mine the block.", success)

			if !block.Trans[0].IsReward() {
				t.Fatalf("\t%s\tTest 0:\tShould place the reward transaction first.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould place the reward transaction first.", success)

			if got := st.RetrieveLatestBlock().Header.Number; got != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould advance the chain tip: got %d, exp %d", failed, got, 1)
			}
			t.Logf("\t%s\tTest 0:\tShould advance the chain tip.", success)

			if got := st.QueryBalance(alice); got != 900 {
				t.Fatalf("\t%s\tTest 0:\tShould debit the sender: got %d, exp %d", failed, got, 900)
			}
			t.Logf("\t%s\tTest 0:\tShould debit the sender.", success)

			if got := st.QueryBalance(database.AccountID(minerAccount)); got != 10 {
				t.Fatalf("\t%s\tTest 0:\tShould credit the beneficiary: got %d, exp %d", failed, got, 10)
			}
			t.Logf("\t%s\tTest 0:\tShould credit the beneficiary.", success)

			if got := st.QueryMempoolLength(); got != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould drain the mined transactions from the pool: got %d, exp %d", failed, got, 0)
			}
			t.Logf("\t%s\tTest 0:\tShould drain the mined transactions from the pool.", success)
		}

		t.Logf("\tTest 1:\tWhen the mempool is empty.")
		{
			st := newTestState(t)
			defer st.Shutdown()

			if _, err := st.MineNewBlock(context.Background()); !errors.Is(err, state.ErrNoTransactions) {
				t.Fatalf("\t%s\tTest 1:\tShould refuse to mine an empty block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould refuse to mine an empty block.", success)
		}

		t.Logf("\tTest 2:\tWhen mining is cancelled.")
		{
			st := newTestState(t)
			defer st.Shutdown()

			if err := st.UpsertWalletTransaction(signTx(t, aliceHexKey, bob, 100)); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to add the transaction: %v", failed, err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := st.MineNewBlock(ctx); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould stop mining on cancellation.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould stop mining on cancellation.", success)

			if got := st.RetrieveLatestBlock().Header.Number; got != 0 {
				t.Fatalf("\t%s\tTest 2:\tShould leave the chain untouched: got %d, exp %d", failed, got, 0)
			}
			t.Logf("\t%s\tTest 2:\tShould leave the chain untouched.", success)

			if got := st.QueryMempoolLength(); got != 1 {
				t.Fatalf("\t%s\tTest 2:\tShould keep the transaction pending: got %d, exp %d", failed, got, 1)
			}
			t.Logf("\t%s\tTest 2:\tShould keep the transaction pending.", success)
		}
	}
}

func TestTransactionAdmission(t *testing.T) {
	bob := accountFor(t, bobHexKey)

	t.Log("Given the need to control admission into the mempool.")
	{
		t.Logf("\tTest 0:\tWhen the value is outside the configured bounds.")
		{
			st := newTestState(t)
			defer st.Shutdown()

			if err := st.UpsertWalletTransaction(signTx(t, aliceHexKey, bob, 99_999)); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a value above the maximum.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a value above the maximum.", success)
		}

		t.Logf("\tTest 1:\tWhen the sender balance doesn't cover the value.")
		{
			st := newTestState(t)
			defer st.Shutdown()

			// Bob has no premine, so any spend from bob must be rejected.
			alice := accountFor(t, aliceHexKey)
			if err := st.UpsertWalletTransaction(signTx(t, bobHexKey, alice, 100)); !errors.Is(err, database.ErrInsufficientFunds) {
				t.Fatalf("\t%s\tTest 1:\tShould reject an uncovered spend: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject an uncovered spend.", success)
		}

		t.Logf("\tTest 2:\tWhen the same transaction is submitted twice.")
		{
			st := newTestState(t)
			defer st.Shutdown()

			tx := signTx(t, aliceHexKey, bob, 100)
			if err := st.UpsertWalletTransaction(tx); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould accept the first submission: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould accept the first submission.", success)

			if err := st.UpsertWalletTransaction(tx); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould reject the duplicate submission.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould reject the duplicate submission.", success)
		}
	}
}

func TestPoolEviction(t *testing.T) {
	bob := accountFor(t, bobHexKey)

	t.Log("Given the need to make room in a full mempool.")
	{
		t.Logf("\tTest 0:\tWhen the pool has reached its capacity.")
		{
			storage, err := memory.New()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open storage: %v", failed, err)
			}

			st := newTestStateOn(t, storage, 2)
			defer st.Shutdown()

			if err := st.UpsertWalletTransaction(signTx(t, aliceHexKey, bob, 100)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept the first transaction: %v", failed, err)
			}
			if err := st.UpsertWalletTransaction(signTx(t, aliceHexKey, bob, 200)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept the second transaction: %v", failed, err)
			}

			blocked := signTx(t, aliceHexKey, bob, 300)
			if err := st.UpsertWalletTransaction(blocked); !errors.Is(err, mempool.ErrPoolFull) {
				t.Fatalf("\t%s\tTest 0:\tShould reject admission at capacity: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject admission at capacity.", success)

			if evicted := st.EvictOldestTransactions(1); evicted != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould evict the oldest transaction: got %d, exp %d", failed, evicted, 1)
			}
			t.Logf("\t%s\tTest 0:\tShould evict the oldest transaction.", success)

			if err := st.UpsertWalletTransaction(blocked); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept admission after eviction: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould accept admission after eviction.", success)

			if got := st.QueryMempoolLength(); got != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould stay within the pool capacity: got %d, exp %d", failed, got, 2)
			}
			t.Logf("\t%s\tTest 0:\tShould stay within the pool capacity.", success)
		}
	}
}

func TestProposedBlocks(t *testing.T) {
	bob := accountFor(t, bobHexKey)

	t.Log("Given the need to process blocks proposed by peers.")
	{
		t.Logf("\tTest 0:\tWhen a peer proposes the next block.")
		{
			local := newTestState(t)
			defer local.Shutdown()

			remote := newTestState(t)
			defer remote.Shutdown()

			block := mineOn(t, remote, signTx(t, aliceHexKey, bob, 100))

			if err := local.ProcessProposedBlock(block); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept the proposed block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould accept the proposed block.", success)

			if local.RetrieveLatestBlock().Hash() != block.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould advance the tip to the proposed block.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould advance the tip to the proposed block.", success)
		}

		t.Logf("\tTest 1:\tWhen a peer proposes a stale block.")
		{
			local := newTestState(t)
			defer local.Shutdown()

			remote := newTestState(t)
			defer remote.Shutdown()

			// Both nodes mine block one independently. The remote block no
			// longer links once the local block is in place.
			localBlock := mineOn(t, local, signTx(t, aliceHexKey, bob, 100))
			remoteBlock := mineOn(t, remote, signTx(t, aliceHexKey, bob, 200))

			if err := local.ProcessProposedBlock(remoteBlock); !errors.Is(err, database.ErrChainLinkage) {
				t.Fatalf("\t%s\tTest 1:\tShould reject the stale block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject the stale block.", success)

			if local.RetrieveLatestBlock().Hash() != localBlock.Hash() {
				t.Fatalf("\t%s\tTest 1:\tShould keep the local tip.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould keep the local tip.", success)
		}
	}
}

func TestForkResolution(t *testing.T) {
	alice := accountFor(t, aliceHexKey)
	bob := accountFor(t, bobHexKey)

	t.Log("Given the need to resolve forks by cumulative work.")
	{
		t.Logf("\tTest 0:\tWhen the candidate chain carries more work.")
		{
			local := newTestState(t)
			defer local.Shutdown()

			remote := newTestState(t)
			defer remote.Shutdown()

			mineOn(t, local, signTx(t, aliceHexKey, bob, 100))

			mineOn(t, remote, signTx(t, aliceHexKey, bob, 200))
			mineOn(t, remote, signTx(t, aliceHexKey, bob, 300))

			if err := local.ProcessPeerChain(remote.RetrieveChain()); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould adopt the stronger chain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould adopt the stronger chain.", success)

			if local.RetrieveLatestBlock().Hash() != remote.RetrieveLatestBlock().Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould share the tip with the remote chain.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould share the tip with the remote chain.", success)

			if got := local.QueryBalance(alice); got != 500 {
				t.Fatalf("\t%s\tTest 0:\tShould rebuild balances from the new chain: got %d, exp %d", failed, got, 500)
			}
			t.Logf("\t%s\tTest 0:\tShould rebuild balances from the new chain.", success)
		}

		t.Logf("\tTest 1:\tWhen the candidate chain carries equal work.")
		{
			local := newTestState(t)
			defer local.Shutdown()

			remote := newTestState(t)
			defer remote.Shutdown()

			localBlock := mineOn(t, local, signTx(t, aliceHexKey, bob, 100))
			mineOn(t, remote, signTx(t, aliceHexKey, bob, 200))

			if err := local.ProcessPeerChain(remote.RetrieveChain()); !errors.Is(err, state.ErrChainNotStronger) {
				t.Fatalf("\t%s\tTest 1:\tShould keep the local chain on a tie: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould keep the local chain on a tie.", success)

			if local.RetrieveLatestBlock().Hash() != localBlock.Hash() {
				t.Fatalf("\t%s\tTest 1:\tShould keep the local tip.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould keep the local tip.", success)
		}

		t.Logf("\tTest 2:\tWhen the local branch held transactions the winner doesn't.")
		{
			local := newTestState(t)
			defer local.Shutdown()

			remote := newTestState(t)
			defer remote.Shutdown()

			// The local transaction spends within alice's balance on the
			// winning chain too, so it must return to the pool.
			mineOn(t, local, signTx(t, aliceHexKey, bob, 100))

			mineOn(t, remote, signTx(t, aliceHexKey, bob, 200))
			mineOn(t, remote, signTx(t, aliceHexKey, bob, 300))

			if err := local.ProcessPeerChain(remote.RetrieveChain()); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould adopt the stronger chain: %v", failed, err)
			}

			if got := local.QueryMempoolLength(); got != 1 {
				t.Fatalf("\t%s\tTest 2:\tShould re-admit the orphaned transaction: got %d, exp %d", failed, got, 1)
			}
			t.Logf("\t%s\tTest 2:\tShould re-admit the orphaned transaction.", success)
		}
	}
}
