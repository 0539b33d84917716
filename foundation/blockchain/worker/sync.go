package worker

// Sync updates the peer list, mempool and blocks from the known peers
// before the worker starts accepting work.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetQueryPeerStatus(pr)
		if err != nil {
			w.evHandler("worker: sync: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		// Update the mempool with this peer's pending transactions.
		pool, err := w.state.NetQueryPeerMempool(pr)
		if err != nil {
			w.evHandler("worker: sync: queryPeerMempool: %s: ERROR: %s", pr.Host, err)
			continue
		}
		for _, tx := range pool {

			// A peer can hand us anything, including transactions with no
			// signature at all. Don't trust the length of the string.
			sig := tx.SignatureString()
			if len(sig) > 16 {
				sig = sig[:16]
			}

			w.evHandler("worker: sync: queryPeerMempool: %s: Add Tx: %s", pr.Host, sig)
			if err := w.state.UpsertNodeTransaction(tx); err != nil {
				w.evHandler("worker: sync: queryPeerMempool: %s: WARNING: %s", pr.Host, err)
			}
		}

		// If this peer has blocks we don't have, we need to add them.
		if peerStatus.LatestBlockNumber > w.state.RetrieveLatestBlock().Header.Number {
			w.evHandler("worker: sync: writePeerBlocks: %s: latestBlockNumber[%d]", pr.Host, peerStatus.LatestBlockNumber)

			if err := w.state.NetQueryPeerBlocks(pr); err != nil {
				w.evHandler("worker: sync: writePeerBlocks: %s: ERROR %s", pr.Host, err)

				if err := w.state.NetRequestPeerChain(pr); err != nil {
					w.evHandler("worker: sync: requestPeerChain: %s: ERROR %s", pr.Host, err)
				}
			}
		}
	}
}
