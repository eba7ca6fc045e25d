// Package peer maintains the peer related information such as the set
// of know peers and their status.
package peer

import (
	"math/big"
	"sort"
	"sync"
)

// Peer represents information about a Node in the network.
type Peer struct {
	Host string
}

// New constructs a new info value.
func New(host string) Peer {
	return Peer{
		Host: host,
	}
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// =============================================================================

// PeerStatus represents information about the status
// of any given peer. The accumulated work is carried as a base 10 string
// since it can grow past any fixed size integer.
type PeerStatus struct {
	LatestBlockHash  string `json:"latest_block_hash"`
	LatestBlockIndex uint64 `json:"latest_block_index"`
	AccumulatedWork  string `json:"accumulated_work"`
	KnownPeers       []Peer `json:"known_peers"`
}

// NewPeerStatus constructs a status for the tip and work of a chain.
func NewPeerStatus(hash string, index uint64, work *big.Int, peers []Peer) PeerStatus {
	return PeerStatus{
		LatestBlockHash:  hash,
		LatestBlockIndex: index,
		AccumulatedWork:  work.String(),
		KnownPeers:       peers,
	}
}

// Work returns the accumulated work reported by the peer. A missing or
// malformed value is reported as zero work.
func (ps PeerStatus) Work() *big.Int {
	work, ok := new(big.Int).SetString(ps.AccumulatedWork, 10)
	if !ok || work.Sign() < 0 {
		return new(big.Int)
	}

	return work
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new node to the set.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	if !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// Remove removes a node from the set.
func (ps *PeerSet) Remove(peer Peer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, peer)
}

// Copy returns a list of the known peers.
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for peer := range ps.set {
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	sort.Slice(peers, func(i, j int) bool { return peers[i].Host < peers[j].Host })

	return peers
}
