package worker

// Sync updates the peer list, mempool and chain.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(pr)
		if err != nil {
			w.evHandler("worker: sync: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		// If this peer has more work than we do, take their chain before
		// looking at their mempool.
		w.syncChain(pr, peerStatus)

		// Retrieve the mempool from the peer.
		pool, err := w.state.NetRequestPeerMempool(pr)
		if err != nil {
			w.evHandler("worker: sync: retrievePeerMempool: %s: ERROR: %s", pr.Host, err)
			continue
		}

		for _, tx := range pool {
			w.evHandler("worker: sync: retrievePeerMempool: %s: Add Tx: %s", pr.Host, tx)
			if err := w.state.UpsertNodeTransaction(tx); err != nil {
				w.evHandler("worker: sync: retrievePeerMempool: %s: WARNING: %s", pr.Host, err)
			}
		}
	}
}
