// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	v1 "github.com/fulcrumchain/fulcrum/business/web/v1"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/state"
	"github.com/fulcrumchain/fulcrum/foundation/events"
	"github.com/fulcrumchain/fulcrum/foundation/nameservice"
	"github.com/fulcrumchain/fulcrum/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitWalletTransaction adds a new user transaction to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var wtx submitTx
	if err := web.Decode(r, &wtx); err != nil {
		return v1.NewRequestError(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	signedTx := database.SignedTx{
		Tx: database.Tx{
			FromID:    wtx.FromID,
			ToID:      wtx.ToID,
			Value:     wtx.Value,
			TimeStamp: wtx.TimeStamp,
		},
		V: wtx.V,
		R: wtx.R,
		S: wtx.S,
	}

	h.Log.Infow("add user tran", "traceid", v.TraceID, "from", signedTx.FromID, "to", signedTx.ToID, "value", signedTx.Value)
	if err := h.State.UpsertWalletTransaction(signedTx); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Status returns the chain height, latest block hash, the difficulty in
// force and the mempool size.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status := h.State.QueryStatus()
	return web.Respond(ctx, w, status, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	acct := web.Param(r, "account")

	mempool := h.State.RetrieveMempool()

	trans := []tx{}
	for _, tran := range mempool {
		if acct != "" && (acct != string(tran.FromID)) && (acct != string(tran.ToID)) {
			continue
		}

		trans = append(trans, toTx(h.NS, tran))
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Accounts returns the current balances for all users.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	var accounts map[database.AccountID]database.Account
	switch account {
	case "":
		accounts = h.State.RetrieveAccounts()

	default:
		accountID, err := database.ToAccountID(account)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}

		act, err := h.State.QueryAccount(accountID)
		if err != nil {
			return v1.NewRequestError(err, http.StatusNotFound)
		}
		accounts = map[database.AccountID]database.Account{accountID: act}
	}

	acts := make([]info, 0, len(accounts))
	for accountID, act := range accounts {
		acts = append(acts, info{
			Account: accountID,
			Name:    h.NS.Lookup(accountID),
			Balance: act.Balance,
		})
	}

	ai := actInfo{
		LatestBlock: h.State.RetrieveLatestBlock().Hash(),
		Uncommitted: h.State.QueryMempoolLength(),
		Accounts:    acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// BlocksByNumber returns the blocks for the specified range. The from and
// to parameters accept the keyword latest.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	fromStr := web.Param(r, "from")
	toStr := web.Param(r, "to")

	from, err := parseBlockNumber(fromStr)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	to, err := parseBlockNumber(toStr)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	dbBlocks := h.State.QueryBlocksByNumber(from, to)
	if len(dbBlocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blocks := make([]block, len(dbBlocks))
	for i, blk := range dbBlocks {
		blocks[i] = toBlock(h.NS, blk)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// BlockByHash returns the block with the specified block hash.
func (h Handlers) BlockByHash(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hash := web.Param(r, "hash")

	blk, err := h.State.QueryBlockByHash(hash)
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, toBlock(h.NS, blk), http.StatusOK)
}

// TransactionStatus locates a transaction by hash in the chain or in the
// mempool and reports its confirmation status.
func (h Handlers) TransactionStatus(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hash := web.Param(r, "hash")

	txStatus, err := h.State.QueryTransactionByHash(hash)
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, txStatus, http.StatusOK)
}

// SignalMining signals the node to mine the next block.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// parseBlockNumber converts a route parameter into a block number. The
// keyword latest selects the current chain tip.
func parseBlockNumber(s string) (uint64, error) {
	if s == "latest" || s == "" {
		return state.QueryLatest, nil
	}

	return strconv.ParseUint(s, 10, 64)
}

// toTx converts a database transaction into its client view.
func toTx(ns *nameservice.NameService, tran database.SignedTx) tx {
	return tx{
		FromAccount: tran.FromID,
		FromName:    ns.Lookup(tran.FromID),
		To:          tran.ToID,
		ToName:      ns.Lookup(tran.ToID),
		Value:       tran.Value,
		TimeStamp:   tran.TimeStamp,
		Hash:        tran.Hash(),
		Sig:         tran.SignatureString(),
	}
}

// toBlock converts a database block into its client view.
func toBlock(ns *nameservice.NameService, blk database.Block) block {
	trans := make([]tx, len(blk.Trans))
	for i, tran := range blk.Trans {
		trans[i] = toTx(ns, tran)
	}

	return block{
		Hash:          blk.Hash(),
		PrevBlockHash: blk.Header.PrevBlockHash,
		Number:        blk.Header.Number,
		TimeStamp:     blk.Header.TimeStamp,
		Nonce:         blk.Header.Nonce,
		Difficulty:    blk.Header.Difficulty,
		TxRoot:        blk.Header.TxRoot,
		Transactions:  trans,
	}
}
