package worker

import (
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/peer"
)

// peerOperations handles finding new peers, keeping the chain in sync
// with them and running periodic pool maintenance.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
				w.runPoolMaintenance()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation updates the peer list and brings in any blocks this
// node is missing.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetQueryPeerStatus(pr)
		if err != nil {
			w.evHandler("worker: runPeersOperation: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		// If this peer has blocks we don't have, we need to add them.
		if peerStatus.LatestBlockNumber > w.state.RetrieveLatestBlock().Header.Number {
			w.evHandler("worker: runPeersOperation: writePeerBlocks: %s: latestBlockNumber[%d]", pr.Host, peerStatus.LatestBlockNumber)

			if err := w.state.NetQueryPeerBlocks(pr); err != nil {
				w.evHandler("worker: runPeersOperation: writePeerBlocks: %s: ERROR %s", pr.Host, err)

				// A failure to append the peer's next blocks to our chain
				// means the peer is on a different fork. Ask for their full
				// chain and let the work comparison decide.
				if err := w.state.NetRequestPeerChain(pr); err != nil {
					w.evHandler("worker: runPeersOperation: requestPeerChain: %s: ERROR %s", pr.Host, err)
				}
			}
		}
	}
}

// addNewPeers takes the list of known peers and makes sure they are
// included in this nodes list of known peers.
func (w *Worker) addNewPeers(knownPeers []peer.Peer) {
	w.evHandler("worker: runPeersOperation: addNewPeers: started")
	defer w.evHandler("worker: runPeersOperation: addNewPeers: completed")

	for _, pr := range knownPeers {

		// Don't add this running node to the known peer list.
		if pr.Match(w.state.RetrieveHost()) {
			continue
		}

		if w.state.AddKnownPeer(pr) {
			w.evHandler("worker: runPeersOperation: addNewPeers: add peer nodes: adding peer-node %s", pr.Host)
		}
	}
}
