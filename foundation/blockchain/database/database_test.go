package database_test

import (
	"context"
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// Keys and addresses for the accounts used in the tests.
const (
	kennedyKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	minerKey   = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"

	kennedy database.Address = "04412ffaffb78f2931e193f1add952fcb84ceaa55c8491b3a71f25f89fbb482aaf9b74f0fc0d3b6a71da07425d3ef94ac0a1b1d7972f10c2c38bd77257b346fbf8"
	miner   database.Address = "0440ee457d69843e6d5a569684861731422623d0bb04cfcec2e0b6ba23843c1dd1a72e9397751351a4b0f8f335c50d31e27f949de1a9603a1d258422545f0cad0e"
)

// =============================================================================

func privateKey(t *testing.T, hexKey string) *ecdsa.PrivateKey {
	t.Helper()

	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the private key: %v", failed, err)
	}

	return pk
}

func testGenesis() genesis.Genesis {
	gen := genesis.Default()
	gen.Beneficiary = string(kennedy)
	return gen
}

// mine solves the next block for the ledger with the coinbase paid to the
// specified address followed by the transactions.
func mine(t *testing.T, l database.Ledger, to database.Address, ts int64, trans ...database.Tx) database.Block {
	t.Helper()

	latest := l.LatestBlock()
	coinbase := database.NewCoinbase(to, latest.Index+1, l.Genesis().MiningReward)

	args := database.POWArgs{
		Index:      latest.Index + 1,
		PrevHash:   latest.Hash,
		TimeStamp:  ts,
		Trans:      append([]database.Tx{coinbase}, trans...),
		Difficulty: l.NextDifficulty(),
	}

	block, err := database.POW(context.Background(), args)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine block %d: %v", failed, args.Index, err)
	}

	return block
}

// extend mines and appends n blocks paying the coinbase to the address.
func extend(t *testing.T, l database.Ledger, to database.Address, n int) database.Ledger {
	t.Helper()

	now := time.Now()
	for i := 0; i < n; i++ {
		block := mine(t, l, to, now.Unix()+int64(i))

		var err error
		if l, err = l.Append(block, now); err != nil {
			t.Fatalf("\t%s\tShould be able to append block %d: %v", failed, block.Index, err)
		}
	}

	return l
}
