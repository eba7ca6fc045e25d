package database

import (
	"math/big"
	"time"
)

// Chain is an ordered set of blocks starting with the genesis block. A chain
// is never changed once it is handed out. It is either extended into a new
// value or replaced as a whole.
type Chain []Block

// LatestBlock returns the last block in the chain.
func (c Chain) LatestBlock() Block {
	if len(c) == 0 {
		return Block{}
	}

	return c[len(c)-1]
}

// Extend returns a new chain with the block added to the end.
func (c Chain) Extend(block Block) Chain {
	chain := make(Chain, len(c), len(c)+1)
	copy(chain, c)

	return append(chain, block)
}

// ForEach returns an iterator to walk through the blocks of the chain.
func (c Chain) ForEach() Iterator {
	return &chainIterator{chain: c}
}

// chainIterator walks the blocks of a chain held in memory.
type chainIterator struct {
	chain   Chain
	current int
	eoc     bool
}

// Next returns the next block of the chain.
func (ci *chainIterator) Next() (Block, error) {
	if ci.current >= len(ci.chain) {
		ci.eoc = true
		return Block{}, nil
	}

	block := ci.chain[ci.current]
	ci.current++

	return block, nil
}

// Done returns the end of chain value.
func (ci *chainIterator) Done() bool {
	return ci.eoc
}

// =============================================================================

// AccumulatedWork returns the sum of 2^difficulty over every block. The
// exponent models how each extra bit of difficulty doubles the expected work.
func AccumulatedWork(chain Chain) *big.Int {
	work := new(big.Int)
	for _, block := range chain {
		work.Add(work, new(big.Int).Lsh(big.NewInt(1), uint(block.Difficulty)))
	}

	return work
}

// TryReplace decides if the candidate chain should replace the local chain.
// The candidate must be valid and carry strictly more accumulated work. Ties
// keep the local chain. An error is returned only when the candidate is
// invalid. A valid but lighter candidate returns false with no error.
func TryReplace(local Chain, candidate Chain, genesisBlock Block, now time.Time) (Chain, bool, error) {
	if err := ValidateChain(candidate, genesisBlock, now); err != nil {
		return local, false, err
	}

	if AccumulatedWork(candidate).Cmp(AccumulatedWork(local)) <= 0 {
		return local, false, nil
	}

	return candidate, true, nil
}
