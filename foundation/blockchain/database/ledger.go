package database

import (
	"math/big"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
)

// Ledger is the aggregate of the chain and the unspent outputs it produced.
// The two always agree with each other. A ledger is a value, any change
// returns a new ledger and leaves the original untouched.
type Ledger struct {
	genesis      genesis.Genesis
	genesisBlock Block
	chain        Chain
	utxos        UTXOSet
}

// NewLedger constructs a ledger holding only the genesis block.
func NewLedger(gen genesis.Genesis) Ledger {
	genesisBlock := GenesisBlock(gen)

	return Ledger{
		genesis:      gen,
		genesisBlock: genesisBlock,
		chain:        Chain{genesisBlock},
		utxos:        ApplyBlock(NewUTXOSet(), genesisBlock),
	}
}

// Genesis returns the genesis information the ledger was built with.
func (l Ledger) Genesis() genesis.Genesis {
	return l.genesis
}

// GenesisBlock returns the first block of the chain.
func (l Ledger) GenesisBlock() Block {
	return l.genesisBlock
}

// Chain returns a copy of the chain.
func (l Ledger) Chain() Chain {
	chain := make(Chain, len(l.chain))
	copy(chain, l.chain)
	return chain
}

// LatestBlock returns the last block in the chain.
func (l Ledger) LatestBlock() Block {
	return l.chain.LatestBlock()
}

// UTXOs returns the unspent outputs at the latest block.
func (l Ledger) UTXOs() UTXOSet {
	return l.utxos
}

// Work returns the accumulated work of the chain.
func (l Ledger) Work() *big.Int {
	return AccumulatedWork(l.chain)
}

// NextDifficulty returns the difficulty the next block must solve.
func (l Ledger) NextDifficulty() uint32 {
	return CurrentDifficulty(l.chain, l.genesis.BlockInterval, l.genesis.RetargetWindow)
}

// =============================================================================

// Append validates the block as the next block in the chain and returns the
// ledger that includes it.
func (l Ledger) Append(block Block, now time.Time) (Ledger, error) {
	if err := l.validateNext(block, now); err != nil {
		return l, err
	}

	nl := Ledger{
		genesis:      l.genesis,
		genesisBlock: l.genesisBlock,
		chain:        l.chain.Extend(block),
		utxos:        ApplyBlock(l.utxos, block),
	}

	return nl, nil
}

// Replace returns a ledger for the candidate chain when the candidate is
// valid and heavier than the current chain. The unspent outputs are rebuilt
// by replaying every block from genesis so the returned ledger is consistent
// before anyone can see it.
func (l Ledger) Replace(candidate Chain, now time.Time) (Ledger, bool, error) {
	chain, replaced, err := TryReplace(l.chain, candidate, l.genesisBlock, now)
	if err != nil || !replaced {
		return l, false, err
	}

	nl, err := Replay(l.genesis, chain.ForEach(), now)
	if err != nil {
		return l, false, err
	}

	return nl, true, nil
}

// Replay builds a ledger from the blocks provided by the iterator, which must
// start with the genesis block. Replay stops at the first block that does not
// validate and returns the ledger of the blocks before it along with the
// error. An iterator with no blocks produces a ledger holding only genesis.
func Replay(gen genesis.Genesis, iter Iterator, now time.Time) (Ledger, error) {
	l := NewLedger(gen)

	// The chain is only visible to this function until it returns, so it is
	// grown in place instead of copied for every block.
	chain := l.chain

	first := true
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return l, err
		}

		if first {
			if !block.Equal(l.genesisBlock) {
				return l, newValidationError(ReasonGenesis, "first block %s is not the genesis block %s", block.Hash, l.genesisBlock.Hash)
			}
			first = false
			continue
		}

		if err := l.validateNext(block, now); err != nil {
			return l, err
		}

		chain = append(chain, block)
		l.chain = chain
		l.utxos = ApplyBlock(l.utxos, block)
	}

	return l, nil
}

// validateNext performs every check a block must pass to follow the latest
// block of the ledger.
func (l Ledger) validateNext(block Block, now time.Time) error {
	if err := ValidateNextBlock(block, l.chain.LatestBlock(), now); err != nil {
		return err
	}

	if exp := l.NextDifficulty(); block.Difficulty < exp {
		return newValidationError(ReasonDifficulty, "blk[%d]: difficulty %d is less than required %d", block.Index, block.Difficulty, exp)
	}

	return ValidateBlockTransactions(block, l.utxos, l.genesis.MiningReward)
}
