package state

import (
	"errors"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// ErrNotFound is returned when a block or transaction does not exist.
var ErrNotFound = errors.New("not found")

// =============================================================================

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlocksByIndex returns the set of blocks based on block indexes.
func (s *State) QueryBlocksByIndex(from uint64, to uint64) []database.Block {
	chain := s.RetrieveChain()
	latest := chain.LatestBlock().Index

	if from == QueryLatest {
		from = latest
		to = from
	}
	if to == QueryLatest || to > latest {
		to = latest
	}

	if from > to {
		return nil
	}

	out := make([]database.Block, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, chain[i])
	}

	return out
}

// QueryBlockByHash returns the block with the specified hash.
func (s *State) QueryBlockByHash(hash string) (database.Block, error) {
	for _, block := range s.RetrieveChain() {
		if block.Hash == hash {
			return block, nil
		}
	}

	return database.Block{}, ErrNotFound
}

// QueryTxByID returns the transaction with the specified id. Transactions in
// the chain are searched first, then the mempool. The index of the block
// holding the transaction is returned, or false for a pooled transaction.
func (s *State) QueryTxByID(id string) (database.Tx, uint64, bool, error) {
	for _, block := range s.RetrieveChain() {
		for _, tx := range block.Trans {
			if tx.ID == id {
				return tx, block.Index, true, nil
			}
		}
	}

	if tx, exists := s.mempool.Get(id); exists {
		return tx, 0, false, nil
	}

	return database.Tx{}, 0, false, ErrNotFound
}

// QueryBalance returns the sum of the unspent outputs owned by the address.
func (s *State) QueryBalance(address database.Address) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ledger.UTXOs().Balance(address)
}

// QueryUTXOs returns every unspent output.
func (s *State) QueryUTXOs() []database.UnspentTxOut {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ledger.UTXOs().Values()
}

// QueryUTXOsByAddress returns the unspent outputs owned by the address.
func (s *State) QueryUTXOsByAddress(address database.Address) []database.UnspentTxOut {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ledger.UTXOs().Owned(address)
}

// QueryMyUTXOs returns the unspent outputs owned by this node that are not
// already being spent by a transaction in the mempool.
func (s *State) QueryMyUTXOs() []database.UnspentTxOut {
	s.mu.RLock()
	utxos := s.ledger.UTXOs()
	s.mu.RUnlock()

	return utxos.Spendable(s.beneficiary, s.mempool.TxIns())
}
