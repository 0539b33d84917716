package public_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fulcrumchain/fulcrum/app/services/node/handlers/v1/public"
	"github.com/fulcrumchain/fulcrum/business/web/v1/mid"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database/storage/memory"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/genesis"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/peer"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/state"
	"github.com/fulcrumchain/fulcrum/foundation/web"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const aliceHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

const minerAccount = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"

var nopEv = func(v string, args ...any) {}

// newSubmitApp builds a routed app carrying only the submit endpoint, the
// way the node service mounts it.
func newSubmitApp(t *testing.T) (*web.App, *state.State) {
	t.Helper()

	pk, err := crypto.HexToECDSA(aliceHexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the private key: %v", failed, err)
	}
	alice := database.PublicKeyToAccountID(pk.PublicKey)

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
		Balances:        map[string]uint64{string(alice): 1_000},
	}

	storage, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open storage: %v", failed, err)
	}

	st, err := state.New(state.Config{
		BeneficiaryID: database.AccountID(minerAccount),
		Host:          "localhost:9080",
		Genesis:       gen,
		Storage:       storage,
		KnownPeers:    peer.NewPeerSet(),
		EvHandler:     nopEv,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	log := zap.NewNop().Sugar()

	app := web.NewApp(make(chan os.Signal, 1), mid.Errors(log))

	hdl := public.Handlers{
		Log:   log,
		State: st,
	}
	app.Handle(http.MethodPost, "v1", "/tx/submit", hdl.SubmitWalletTransaction)

	return app, st
}

// signedAliceTx produces a properly signed transaction from alice.
func signedAliceTx(t *testing.T, value uint64) database.SignedTx {
	t.Helper()

	pk, err := crypto.HexToECDSA(aliceHexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the private key: %v", failed, err)
	}

	tx, err := database.NewTx(database.PublicKeyToAccountID(pk.PublicKey), database.AccountID(minerAccount), value)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the transaction: %v", failed, err)
	}

	signedTx, err := tx.Sign(pk)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
	}

	return signedTx
}

func TestSubmitWalletTransaction(t *testing.T) {
	t.Log("Given the need to accept or reject submitted transactions over HTTP.")
	{
		t.Logf("\tTest 0:\tWhen the transaction is properly signed.")
		{
			app, st := newSubmitApp(t)
			defer st.Shutdown()

			body, err := json.Marshal(signedAliceTx(t, 100))
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to marshal the transaction: %v", failed, err)
			}

			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/tx/submit", bytes.NewReader(body)))

			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest 0:\tShould accept the transaction: got %d, exp %d: %s", failed, w.Code, http.StatusOK, w.Body.String())
			}
			t.Logf("\t%s\tTest 0:\tShould accept the transaction.", success)

			if got := st.QueryMempoolLength(); got != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould admit the transaction to the pool: got %d, exp %d", failed, got, 1)
			}
			t.Logf("\t%s\tTest 0:\tShould admit the transaction to the pool.", success)
		}

		t.Logf("\tTest 1:\tWhen the signature doesn't match the payload.")
		{
			app, st := newSubmitApp(t)
			defer st.Shutdown()

			// Tamper with the value after signing. The signature no longer
			// recovers the claimed sender.
			tampered := signedAliceTx(t, 100)
			tampered.Value = 999

			body, err := json.Marshal(tampered)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to marshal the transaction: %v", failed, err)
			}

			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/tx/submit", bytes.NewReader(body)))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest 1:\tShould reject the transaction as a bad request: got %d, exp %d", failed, w.Code, http.StatusBadRequest)
			}
			t.Logf("\t%s\tTest 1:\tShould reject the transaction as a bad request.", success)

			if got := st.QueryMempoolLength(); got != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould keep the pool empty: got %d, exp %d", failed, got, 0)
			}
			t.Logf("\t%s\tTest 1:\tShould keep the pool empty.", success)
		}

		t.Logf("\tTest 2:\tWhen the payload is not valid JSON.")
		{
			app, st := newSubmitApp(t)
			defer st.Shutdown()

			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/tx/submit", strings.NewReader("{not json")))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest 2:\tShould reject the payload as a bad request: got %d, exp %d", failed, w.Code, http.StatusBadRequest)
			}
			t.Logf("\t%s\tTest 2:\tShould reject the payload as a bad request.", success)
		}
	}
}
