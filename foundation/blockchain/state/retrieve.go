package state

import (
	"math/big"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/peer"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveBeneficiary returns the address this node mines to.
func (s *State) RetrieveBeneficiary() database.Address {
	return s.beneficiary
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ledger.LatestBlock()
}

// RetrieveChain returns a copy of the current chain.
func (s *State) RetrieveChain() database.Chain {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ledger.Chain()
}

// RetrieveWork returns the accumulated work of the current chain.
func (s *State) RetrieveWork() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ledger.Work()
}

// RetrieveNextDifficulty returns the difficulty the next block must solve.
func (s *State) RetrieveNextDifficulty() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ledger.NextDifficulty()
}

// RetrieveMempool returns a copy of the mempool.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrieveStatus returns the status this node reports to its peers.
func (s *State) RetrieveStatus() peer.PeerStatus {
	s.mu.RLock()
	latest := s.ledger.LatestBlock()
	work := s.ledger.Work()
	s.mu.RUnlock()

	return peer.NewPeerStatus(latest.Hash, latest.Index, work, s.RetrieveKnownPeers())
}
