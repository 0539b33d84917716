// Package network implements the state.NetworkPort interface over
// HTTP/JSON against the private API of peer nodes.
package network

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1/node"

// Client knows how to talk to the private API of peer nodes. This
// implements the state.NetworkPort interface.
type Client struct {
	client http.Client
}

// New constructs a network client with a bounded request timeout so the
// ledger core never blocks indefinitely on a peer.
func New(timeout time.Duration) *Client {
	return &Client{
		client: http.Client{Timeout: timeout},
	}
}

// SendBlockToPeer proposes a newly mined block to the specified peer.
func (c *Client) SendBlockToPeer(pr peer.Peer, block database.Block) error {
	url := fmt.Sprintf("%s/block/propose", fmt.Sprintf(baseURL, pr.Host))

	var status struct {
		Status string `json:"status"`
	}

	return c.send(http.MethodPost, url, database.NewBlockData(block), &status)
}

// SendTxToPeer shares a transaction with the specified peer.
func (c *Client) SendTxToPeer(pr peer.Peer, tx database.SignedTx) error {
	url := fmt.Sprintf("%s/tx/submit", fmt.Sprintf(baseURL, pr.Host))

	return c.send(http.MethodPost, url, tx, nil)
}

// QueryPeerStatus returns the chain status of the specified peer.
func (c *Client) QueryPeerStatus(pr peer.Peer) (peer.PeerStatus, error) {
	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))

	var ps peer.PeerStatus
	if err := c.send(http.MethodGet, url, nil, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	return ps, nil
}

// QueryPeerMempool asks the peer for the transactions in its mempool.
func (c *Client) QueryPeerMempool(pr peer.Peer) ([]database.SignedTx, error) {
	url := fmt.Sprintf("%s/tx/list", fmt.Sprintf(baseURL, pr.Host))

	var mempool []database.SignedTx
	if err := c.send(http.MethodGet, url, nil, &mempool); err != nil {
		return nil, err
	}

	return mempool, nil
}

// QueryPeerBlocks asks the peer for its blocks starting at the specified
// number. Each block's declared hash is checked against its contents
// during decoding.
func (c *Client) QueryPeerBlocks(pr peer.Peer, from uint64) ([]database.Block, error) {
	url := fmt.Sprintf("%s/block/list/%d/latest", fmt.Sprintf(baseURL, pr.Host), from)

	var blocksData []database.BlockData
	if err := c.send(http.MethodGet, url, nil, &blocksData); err != nil {
		return nil, err
	}

	blocks := make([]database.Block, len(blocksData))
	for i, blockData := range blocksData {
		block, err := database.ToBlock(blockData)
		if err != nil {
			return nil, err
		}
		blocks[i] = block
	}

	return blocks, nil
}

// =============================================================================

// send is a helper function to send an HTTP request to a peer node.
func (c *Client) send(method string, url string, dataSend any, dataRecv any) error {
	var req *http.Request

	switch {
	case dataSend != nil:
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		req, err = http.NewRequest(method, url, bytes.NewReader(data))
		if err != nil {
			return err
		}

	default:
		var err error
		req, err = http.NewRequest(method, url, nil)
		if err != nil {
			return err
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return errors.New(string(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
