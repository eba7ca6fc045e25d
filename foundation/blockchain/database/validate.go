package database

import (
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
)

// timestampTolerance is the number of seconds a block timestamp may lag its
// parent or lead the local clock.
const timestampTolerance = 60

// ValidateStructure checks every field of the block is present and properly
// formatted. A zero value field fails the check.
func ValidateStructure(block Block) error {
	if !signature.IsHash(block.Hash) {
		return newValidationError(ReasonStructure, "blk[%d]: hash is not properly formatted: %q", block.Index, block.Hash)
	}

	if !signature.IsHash(block.PrevHash) {
		return newValidationError(ReasonStructure, "blk[%d]: previous hash is not properly formatted: %q", block.Index, block.PrevHash)
	}

	if block.TimeStamp <= 0 {
		return newValidationError(ReasonStructure, "blk[%d]: timestamp is missing", block.Index)
	}

	for i, tx := range block.Trans {
		if err := ValidateTxStructure(tx); err != nil {
			return newValidationError(ReasonStructure, "blk[%d]: tx[%d]: %s", block.Index, i, err)
		}
	}

	return nil
}

// ValidateTimestamp checks the block is not too far behind its parent or too
// far ahead of the local clock. This stops miners from forging timestamps to
// manipulate the difficulty.
func ValidateTimestamp(block Block, previousBlock Block, now time.Time) error {
	if previousBlock.TimeStamp-timestampTolerance >= block.TimeStamp {
		return newValidationError(ReasonTimestamp, "blk[%d]: timestamp %d is too far before parent timestamp %d", block.Index, block.TimeStamp, previousBlock.TimeStamp)
	}

	if block.TimeStamp-timestampTolerance >= now.Unix() {
		return newValidationError(ReasonTimestamp, "blk[%d]: timestamp %d is too far in the future, now %d", block.Index, block.TimeStamp, now.Unix())
	}

	return nil
}

// ValidateLinkage checks the block is the next block after its parent, the
// hash matches the content and the hash solves the difficulty.
func ValidateLinkage(block Block, previousBlock Block) error {
	if block.Index != previousBlock.Index+1 {
		return newValidationError(ReasonLinkage, "blk[%d]: this block is not the next number, exp %d", block.Index, previousBlock.Index+1)
	}

	if block.PrevHash != previousBlock.Hash {
		return newValidationError(ReasonLinkage, "blk[%d]: parent block hash doesn't match our known parent, got %s, exp %s", block.Index, block.PrevHash, previousBlock.Hash)
	}

	if hash := block.CalculateHash(); hash != block.Hash {
		return newValidationError(ReasonLinkage, "blk[%d]: hash doesn't match the block content, got %s, exp %s", block.Index, block.Hash, hash)
	}

	if !HashMatchesDifficulty(block.Hash, block.Difficulty) {
		return newValidationError(ReasonDifficulty, "blk[%d]: hash %s does not solve difficulty %d", block.Index, block.Hash, block.Difficulty)
	}

	return nil
}

// ValidateNextBlock performs the structure, linkage and timestamp checks of
// a block against its parent.
func ValidateNextBlock(block Block, previousBlock Block, now time.Time) error {
	if err := ValidateStructure(block); err != nil {
		return err
	}

	if err := ValidateLinkage(block, previousBlock); err != nil {
		return err
	}

	return ValidateTimestamp(block, previousBlock, now)
}

// ValidateChain checks the first block is the genesis block and that every
// block after that is valid against its parent. Validation stops at the
// first failure.
func ValidateChain(chain Chain, genesisBlock Block, now time.Time) error {
	if len(chain) == 0 {
		return newValidationError(ReasonGenesis, "chain is empty")
	}

	if !chain[0].Equal(genesisBlock) {
		return newValidationError(ReasonGenesis, "first block %s is not the genesis block %s", chain[0].Hash, genesisBlock.Hash)
	}

	for i := 1; i < len(chain); i++ {
		if err := ValidateNextBlock(chain[i], chain[i-1], now); err != nil {
			return err
		}
	}

	return nil
}
