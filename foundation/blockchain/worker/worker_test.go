package worker_test

import (
	"testing"
	"time"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database/storage/memory"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/genesis"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/peer"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/state"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	fromAccount = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"
	toAccount   = "0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76"
)

var nopEv = func(v string, args ...any) {}

// stubNetwork implements state.NetworkPort with canned peer responses.
type stubNetwork struct {
	pool []database.SignedTx
}

func (sn stubNetwork) SendBlockToPeer(pr peer.Peer, block database.Block) error {
	return nil
}

func (sn stubNetwork) SendTxToPeer(pr peer.Peer, tx database.SignedTx) error {
	return nil
}

func (sn stubNetwork) QueryPeerStatus(pr peer.Peer) (peer.PeerStatus, error) {
	return peer.PeerStatus{}, nil
}

func (sn stubNetwork) QueryPeerMempool(pr peer.Peer) ([]database.SignedTx, error) {
	return sn.pool, nil
}

func (sn stubNetwork) QueryPeerBlocks(pr peer.Peer, from uint64) ([]database.Block, error) {
	return nil, nil
}

func newTestState(t *testing.T, net state.NetworkPort) *state.State {
	t.Helper()

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
		PoolMaxSize:     100,
		Balances:        map[string]uint64{},
	}

	storage, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open storage: %v", failed, err)
	}

	knownPeers := peer.NewPeerSet()
	knownPeers.Add(peer.New("localhost:9081"))

	st, err := state.New(state.Config{
		BeneficiaryID: database.AccountID(fromAccount),
		Host:          "localhost:9080",
		Genesis:       gen,
		Storage:       storage,
		KnownPeers:    knownPeers,
		Net:           net,
		EvHandler:     nopEv,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	return st
}

func TestSyncUntrustedPeerPool(t *testing.T) {
	t.Log("Given the need to survive startup sync against a hostile peer.")
	{
		t.Logf("\tTest 0:\tWhen the peer's mempool carries unsignable transactions.")
		{
			// A reward transaction and a transaction that was never signed
			// both produce an empty signature string.
			net := stubNetwork{
				pool: []database.SignedTx{
					database.NewRewardTx(database.AccountID(toAccount), 10),
					{Tx: database.Tx{
						FromID:    database.AccountID(fromAccount),
						ToID:      database.AccountID(toAccount),
						Value:     50,
						TimeStamp: 1,
					}},
				},
			}

			st := newTestState(t, net)

			worker.Run(st, nopEv)
			defer st.Shutdown()
			t.Logf("\t%s\tTest 0:\tShould complete the sync without panicking.", success)

			if got := st.QueryMempoolLength(); got != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould reject every peer transaction: got %d, exp %d", failed, got, 0)
			}
			t.Logf("\t%s\tTest 0:\tShould reject every peer transaction.", success)

			if got := st.RetrieveLatestBlock().Header.Number; got != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the chain untouched: got %d, exp %d", failed, got, 0)
			}
			t.Logf("\t%s\tTest 0:\tShould leave the chain untouched.", success)
		}
	}
}
