package state

import (
	"fmt"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/peer"
)

// NetSendBlockToPeers takes a newly mined block and sends it to all known
// peers through the network port. The node runs fine with no port wired.
func (s *State) NetSendBlockToPeers(block database.Block) error {
	s.evHandler("state: NetSendBlockToPeers: started")
	defer s.evHandler("state: NetSendBlockToPeers: completed")

	if s.net == nil {
		return nil
	}

	for _, pr := range s.RetrieveKnownPeers() {
		if err := s.net.SendBlockToPeer(pr, block); err != nil {
			return fmt.Errorf("%s: %w", pr.Host, err)
		}

		s.evHandler("state: NetSendBlockToPeers: sent to peer[%s]", pr.Host)
	}

	return nil
}

// NetSendTxToPeers shares a new transaction with the known peers. Failures
// are logged and skipped; sharing is best effort.
func (s *State) NetSendTxToPeers(tx database.SignedTx) {
	s.evHandler("state: NetSendTxToPeers: started")
	defer s.evHandler("state: NetSendTxToPeers: completed")

	if s.net == nil {
		return
	}

	for _, pr := range s.RetrieveKnownPeers() {
		if err := s.net.SendTxToPeer(pr, tx); err != nil {
			s.evHandler("state: NetSendTxToPeers: WARNING: %s", err)
		}
	}
}

// NetQueryPeerStatus asks the specified peer for its current status.
func (s *State) NetQueryPeerStatus(pr peer.Peer) (peer.PeerStatus, error) {
	s.evHandler("state: NetQueryPeerStatus: started: %s", pr.Host)
	defer s.evHandler("state: NetQueryPeerStatus: completed: %s", pr.Host)

	if s.net == nil {
		return peer.PeerStatus{}, nil
	}

	return s.net.QueryPeerStatus(pr)
}

// NetQueryPeerMempool asks the peer for the transactions in its mempool.
func (s *State) NetQueryPeerMempool(pr peer.Peer) ([]database.SignedTx, error) {
	s.evHandler("state: NetQueryPeerMempool: started: %s", pr.Host)
	defer s.evHandler("state: NetQueryPeerMempool: completed: %s", pr.Host)

	if s.net == nil {
		return nil, nil
	}

	return s.net.QueryPeerMempool(pr)
}

// NetQueryPeerBlocks queries the specified peer for the blocks this node
// doesn't have and processes them one by one.
func (s *State) NetQueryPeerBlocks(pr peer.Peer) error {
	s.evHandler("state: NetQueryPeerBlocks: started: %s", pr.Host)
	defer s.evHandler("state: NetQueryPeerBlocks: completed: %s", pr.Host)

	if s.net == nil {
		return nil
	}

	from := s.RetrieveLatestBlock().Header.Number + 1
	blocks, err := s.net.QueryPeerBlocks(pr, from)
	if err != nil {
		return err
	}

	s.evHandler("state: NetQueryPeerBlocks: found blocks[%d]", len(blocks))

	for _, block := range blocks {
		if err := s.ProcessProposedBlock(block); err != nil {
			return err
		}
	}

	return nil
}

// NetRequestPeerChain pulls the peer's full chain and runs it through the
// fork resolution rules. Used when the peer's next blocks don't link to
// this node's tip.
func (s *State) NetRequestPeerChain(pr peer.Peer) error {
	s.evHandler("state: NetRequestPeerChain: started: %s", pr.Host)
	defer s.evHandler("state: NetRequestPeerChain: completed: %s", pr.Host)

	if s.net == nil {
		return nil
	}

	// Pull the chain from block zero so the candidate carries the peer's
	// genesis block and can be validated from the very start.
	chain, err := s.net.QueryPeerBlocks(pr, 0)
	if err != nil {
		return err
	}

	return s.ProcessPeerChain(chain)
}
