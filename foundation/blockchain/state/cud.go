package state

import (
	"github.com/ardanlabs/utxochain/foundation/blockchain/peer"
)

// AddKnownPeer provides the ability to add a new peer. This node is never
// added to its own list.
func (s *State) AddKnownPeer(peer peer.Peer) bool {
	if peer.Match(s.host) {
		return false
	}

	return s.knownPeers.Add(peer)
}

// RemoveKnownPeer provides the ability to remove a peer.
func (s *State) RemoveKnownPeer(peer peer.Peer) {
	s.knownPeers.Remove(peer)
}
