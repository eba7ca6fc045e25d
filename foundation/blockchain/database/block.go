package database

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
)

// hashSeparator sits between the fields of a block when it is hashed.
const hashSeparator = "|"

// Block represents a group of transactions batched together.
type Block struct {
	Index      uint64 `json:"index"`         // Bitcoin: Height of the block in the chain.
	Hash       string `json:"hash"`          // Bitcoin: Hash of the fields of this block.
	PrevHash   string `json:"previous_hash"` // Bitcoin: Hash of the previous block in the chain.
	TimeStamp  int64  `json:"timestamp"`     // Bitcoin: Unix seconds the block was mined.
	Trans      []Tx   `json:"trans"`         // Bitcoin: Transactions, the coinbase first.
	Difficulty uint32 `json:"difficulty"`    // Bitcoin: Leading zero bits required in the hash.
	Nonce      uint64 `json:"nonce"`         // Bitcoin: Value identified to solve the hash solution.
}

// GenesisBlock constructs the first block of the chain from the genesis
// information. The same genesis always produces the same block.
func GenesisBlock(gen genesis.Genesis) Block {
	coinbase := NewCoinbase(Address(gen.Beneficiary), 0, gen.MiningReward)

	block := Block{
		Index:      0,
		PrevHash:   signature.ZeroHash,
		TimeStamp:  gen.Date.UTC().Unix(),
		Trans:      []Tx{coinbase},
		Difficulty: gen.Difficulty,
		Nonce:      0,
	}
	block.Hash = block.CalculateHash()

	return block
}

// CalculateHash returns the hash of the fields of the block, excluding the
// hash field itself.
func (b Block) CalculateHash() string {
	return CalculateHash(b.Index, b.PrevHash, b.TimeStamp, b.Trans, b.Difficulty, b.Nonce)
}

// Equal reports whether the two blocks carry the same content.
func (b Block) Equal(other Block) bool {
	return b.Index == other.Index &&
		b.Hash == other.Hash &&
		b.PrevHash == other.PrevHash &&
		b.TimeStamp == other.TimeStamp &&
		b.Difficulty == other.Difficulty &&
		b.Nonce == other.Nonce &&
		PayloadHash(b.Trans) == PayloadHash(other.Trans)
}

// =============================================================================

// CalculateHash is the content hash of a block. The fields are concatenated
// in a fixed order with numbers written in base 10 and the payload replaced
// by its own hash.
func CalculateHash(index uint64, prevHash string, timeStamp int64, trans []Tx, difficulty uint32, nonce uint64) string {
	return hashFields(index, prevHash, timeStamp, PayloadHash(trans), difficulty, nonce)
}

// PayloadHash returns the hash of the transactions carried by a block.
func PayloadHash(trans []Tx) string {
	if len(trans) == 0 {
		return signature.ZeroHash
	}

	return signature.Hash(trans)
}

// HashMatchesDifficulty reports whether the binary representation of the
// hash starts with at least difficulty zero bits.
func HashMatchesDifficulty(hash string, difficulty uint32) bool {
	zeros, err := signature.LeadingZeroBits(hash)
	if err != nil {
		return false
	}

	return uint32(zeros) >= difficulty
}

// hashFields performs the hashing once the payload hash is known. Fields are
// separated so two different sets of fields never produce the same input.
func hashFields(index uint64, prevHash string, timeStamp int64, payloadHash string, difficulty uint32, nonce uint64) string {
	fields := []string{
		strconv.FormatUint(index, 10),
		prevHash,
		strconv.FormatInt(timeStamp, 10),
		payloadHash,
		strconv.FormatUint(uint64(difficulty), 10),
		strconv.FormatUint(nonce, 10),
	}

	return signature.HashString(strings.Join(fields, hashSeparator))
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Index      uint64
	PrevHash   string
	TimeStamp  int64
	Trans      []Tx
	Difficulty uint32
	MaxNonce   uint64 // Zero means the search is bounded only by cancellation.
	EvHandler  func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle. The search starts at nonce 0 and can
// be cancelled through the context.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	nb := Block{
		Index:      args.Index,
		PrevHash:   args.PrevHash,
		TimeStamp:  args.TimeStamp,
		Trans:      args.Trans,
		Difficulty: args.Difficulty,
	}

	if err := nb.performPOW(ctx, args.MaxNonce, ev); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, maxNonce uint64, ev func(v string, args ...any)) error {
	ev("database: PerformPOW: MINING: started: blk[%d]: difficulty[%d]", b.Index, b.Difficulty)
	defer ev("database: PerformPOW: MINING: completed: blk[%d]", b.Index)

	for _, tx := range b.Trans {
		ev("database: PerformPOW: MINING: tx[%s]", tx)
	}

	if maxNonce == 0 {
		maxNonce = math.MaxUint64
	}

	// The payload does not change while searching.
	payloadHash := PayloadHash(b.Trans)

	var attempts uint64
	for nonce := uint64(0); ; nonce++ {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: PerformPOW: MINING: attempts[%d]", attempts)
		}

		// Did we get cancelled trying to solve the problem.
		if ctx.Err() != nil {
			ev("database: PerformPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		hash := hashFields(b.Index, b.PrevHash, b.TimeStamp, payloadHash, b.Difficulty, nonce)
		if HashMatchesDifficulty(hash, b.Difficulty) {
			b.Nonce = nonce
			b.Hash = hash

			ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", b.PrevHash, hash, attempts)
			return nil
		}

		if nonce == maxNonce {
			ev("database: PerformPOW: MINING: EXHAUSTED: attempts[%d]", attempts)
			return ErrNonceExhausted
		}
	}
}
