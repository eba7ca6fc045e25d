package worker

import (
	"github.com/ardanlabs/utxochain/foundation/blockchain/peer"
)

// peerOperations handles finding new peers and heavier chains.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.startSync:
			if !w.isShutdown() {
				w.Sync()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation updates the peer list and replaces the chain when a
// peer carries more work.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(pr)
		if err != nil {
			w.evHandler("worker: runPeersOperation: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			w.state.RemoveKnownPeer(pr)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		// If this peer has more work than we do, take their chain.
		w.syncChain(pr, peerStatus)
	}

	// Get the latest peers and let them know this node is available to chat.
	for _, pr := range w.state.RetrieveKnownPeers() {
		if err := w.state.NetRequestAddPeer(pr); err != nil {
			w.evHandler("worker: runPeersOperation: addPeer: %s: ERROR: %s", pr.Host, err)
		}
	}
}

// addNewPeers takes the list of known peers and makes sure they are included
// in the nodes list of know peers.
func (w *Worker) addNewPeers(knownPeers []peer.Peer) {
	w.evHandler("worker: runPeersOperation: addNewPeers: started")
	defer w.evHandler("worker: runPeersOperation: addNewPeers: completed")

	for _, pr := range knownPeers {
		if w.state.AddKnownPeer(pr) {
			w.evHandler("worker: runPeersOperation: addNewPeers: add peer nodes: adding peer-node %s", pr.Host)
		}
	}
}

// syncChain requests the peer's chain when the peer reports more
// accumulated work than this node.
func (w *Worker) syncChain(pr peer.Peer, peerStatus peer.PeerStatus) {
	if peerStatus.Work().Cmp(w.state.RetrieveWork()) <= 0 {
		return
	}

	w.evHandler("worker: syncChain: %s: work[%s]: latest-blkidx[%d]", pr.Host, peerStatus.AccumulatedWork, peerStatus.LatestBlockIndex)

	replaced, err := w.state.NetRequestPeerChain(pr)
	if err != nil {
		w.evHandler("worker: syncChain: %s: ERROR: %s", pr.Host, err)
		return
	}

	w.evHandler("worker: syncChain: %s: replaced[%v]", pr.Host, replaced)
}
