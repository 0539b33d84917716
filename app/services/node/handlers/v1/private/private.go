// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	v1 "github.com/fulcrumchain/fulcrum/business/web/v1"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/peer"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/state"
	"github.com/fulcrumchain/fulcrum/foundation/nameservice"
	"github.com/fulcrumchain/fulcrum/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
}

// Status returns the current status of the node to the requesting peer.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latestBlock := h.State.RetrieveLatestBlock()

	status := peer.PeerStatus{
		LatestBlockHash:   latestBlock.Hash(),
		LatestBlockNumber: latestBlock.Header.Number,
		Difficulty:        h.State.RetrieveDifficulty(),
		KnownPeers:        h.State.RetrieveKnownPeers(),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempool(), http.StatusOK)
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

	blocks := h.State.QueryBlocksByNumber(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blocksData := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		blocksData[i] = database.NewBlockData(block)
	}

	return web.Respond(ctx, w, blocksData, http.StatusOK)
}

// ProposeBlock accepts a newly mined block from a peer, validates it and
// adds it to the local chain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var blockData database.BlockData
	if err := web.Decode(r, &blockData); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	block, err := database.ToBlock(blockData)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	if err := h.State.ProcessProposedBlock(block); err != nil {

		// A linkage failure means this node is on a different fork. Tell
		// the peer so it can offer its full chain for fork resolution.
		if errors.Is(err, database.ErrChainLinkage) {
			h.Log.Infow("propose block", "traceid", v.TraceID, "WARNING", err)
			return v1.NewRequestError(err, http.StatusConflict)
		}

		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "block accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitNodeTransaction adds a transaction shared by a peer to the mempool.
func (h Handlers) SubmitNodeTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var signedTx database.SignedTx
	if err := web.Decode(r, &signedTx); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("add node tran", "traceid", v.TraceID, "from", signedTx.FromID, "to", signedTx.ToID, "value", signedTx.Value)
	if err := h.State.UpsertNodeTransaction(signedTx); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// AddPeer adds the requesting node to the known peer list.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var pr peer.Peer
	if err := web.Decode(r, &pr); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	added := h.State.AddKnownPeer(pr)
	h.Log.Infow("add peer", "host", pr.Host, "added", added)

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "peer registered",
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
