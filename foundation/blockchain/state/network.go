package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1/node"

// client is used for every request to a peer. Peers that don't answer in time
// are treated as unavailable.
var client = http.Client{Timeout: 10 * time.Second}

// =============================================================================

// NetSendBlockToPeers takes the new mined block and sends it to all know peers.
func (s *State) NetSendBlockToPeers(block database.Block) error {
	s.evHandler("state: NetSendBlockToPeers: started")
	defer s.evHandler("state: NetSendBlockToPeers: completed")

	var errs []error
	for _, peer := range s.RetrieveKnownPeers() {
		url := fmt.Sprintf("%s/block/propose", fmt.Sprintf(baseURL, peer.Host))

		var status struct {
			Status string `json:"status"`
		}

		if err := send(http.MethodPost, url, block, &status); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", peer.Host, err))
			continue
		}

		s.evHandler("state: NetSendBlockToPeers: sent to peer[%s]: status[%s]", peer, status.Status)
	}

	return errors.Join(errs...)
}

// NetSendTxToPeers shares a new transaction with the known peers.
func (s *State) NetSendTxToPeers(tx database.Tx) {
	s.evHandler("state: NetSendTxToPeers: started")
	defer s.evHandler("state: NetSendTxToPeers: completed")

	// CORE NOTE: Bitcoin does not send the full transaction immediately to save
	// on bandwidth. A node will send the transaction id first so the receiving
	// node can check if they already have the transaction or not.

	// For now, the full transaction is sent.
	for _, peer := range s.RetrieveKnownPeers() {
		url := fmt.Sprintf("%s/tx/submit", fmt.Sprintf(baseURL, peer.Host))
		if err := send(http.MethodPost, url, tx, nil); err != nil {
			s.evHandler("state: NetSendTxToPeers: WARNING: %s", err)
		}
	}
}

// NetRequestPeerStatus looks for new nodes on the blockchain by asking
// known nodes for their peer list. New nodes are added to the list.
func (s *State) NetRequestPeerStatus(pr peer.Peer) (peer.PeerStatus, error) {
	s.evHandler("state: NetRequestPeerStatus: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerStatus: completed: %s", pr)

	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))

	var ps peer.PeerStatus
	if err := send(http.MethodGet, url, nil, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	s.evHandler("state: NetRequestPeerStatus: peer-node[%s]: latest-blkidx[%d]: work[%s]: peer-list[%s]", pr, ps.LatestBlockIndex, ps.AccumulatedWork, ps.KnownPeers)

	return ps, nil
}

// NetRequestPeerMempool asks the peer for the transactions in their mempool.
func (s *State) NetRequestPeerMempool(pr peer.Peer) ([]database.Tx, error) {
	s.evHandler("state: NetRequestPeerMempool: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerMempool: completed: %s", pr)

	url := fmt.Sprintf("%s/tx/list", fmt.Sprintf(baseURL, pr.Host))

	var mempool []database.Tx
	if err := send(http.MethodGet, url, nil, &mempool); err != nil {
		return nil, err
	}

	s.evHandler("state: NetRequestPeerMempool: len[%d]", len(mempool))

	return mempool, nil
}

// NetRequestPeerChain asks the peer for its full chain and replaces the local
// chain with it when the peer's chain is valid and carries more work.
func (s *State) NetRequestPeerChain(pr peer.Peer) (bool, error) {
	s.evHandler("state: NetRequestPeerChain: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerChain: completed: %s", pr)

	// CORE NOTE: A real node would pull block headers first and perform the
	// cryptographic audit before downloading full blocks. Here the whole chain
	// is pulled and validated in one step.

	url := fmt.Sprintf("%s/chain/list", fmt.Sprintf(baseURL, pr.Host))

	var chain database.Chain
	if err := send(http.MethodGet, url, nil, &chain); err != nil {
		return false, err
	}

	s.evHandler("state: NetRequestPeerChain: found blocks[%d]", len(chain))

	return s.ReplaceChain(chain)
}

// NetRequestAddPeer lets the peer know this node is available.
func (s *State) NetRequestAddPeer(pr peer.Peer) error {
	s.evHandler("state: NetRequestAddPeer: started: %s", pr)
	defer s.evHandler("state: NetRequestAddPeer: completed: %s", pr)

	url := fmt.Sprintf("%s/peers", fmt.Sprintf(baseURL, pr.Host))

	return send(http.MethodPost, url, peer.New(s.host), nil)
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func send(method string, url string, dataSend any, dataRecv any) error {
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
		req.Header.Set("Content-Type", "application/json")

	default:
		var err error
		req, err = http.NewRequest(method, url, nil)
		if err != nil {
			return err
		}
	}

	resp, err := client.Do(req)
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
