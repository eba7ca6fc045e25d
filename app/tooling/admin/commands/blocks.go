package commands

import (
	"fmt"
	"strconv"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// Blocks prints the blocks in the chain starting at the optional index.
func Blocks(args conf.Args, ledger database.Ledger) error {
	var from uint64
	if arg := args.Num(1); arg != "" {
		var err error
		if from, err = strconv.ParseUint(arg, 10, 64); err != nil {
			return err
		}
	}

	fmt.Printf("Work: %s  NextDifficulty: %d\n\n", ledger.Work(), ledger.NextDifficulty())

	for _, block := range ledger.Chain() {
		if block.Index < from {
			continue
		}

		fmt.Printf("Block: %d  Hash: %s  Prev: %s  Difficulty: %d  Nonce: %d  Trans: %d\n",
			block.Index, block.Hash, block.PrevHash, block.Difficulty, block.Nonce, len(block.Trans))

		for _, tx := range block.Trans {
			fmt.Printf("    Tx: %s\n", tx)
		}
	}

	return nil
}
