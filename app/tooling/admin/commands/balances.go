package commands

import (
	"fmt"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// Balances prints the balance of every address holding unspent outputs, or
// of the single address provided.
func Balances(args conf.Args, ledger database.Ledger) error {
	utxos := ledger.UTXOs()

	fmt.Printf("LatestBlockHash: %s\n\n", ledger.LatestBlock().Hash)

	if only := args.Num(1); only != "" {
		address, err := database.ToAddress(only)
		if err != nil {
			return err
		}
		fmt.Printf("Address: %s  Balance: %d\n", address, utxos.Balance(address))
		return nil
	}

	balances := make(map[database.Address]uint64)
	var order []database.Address
	for _, utxo := range utxos.Values() {
		if _, exists := balances[utxo.Address]; !exists {
			order = append(order, utxo.Address)
		}
		balances[utxo.Address] += utxo.Amount
	}

	for _, address := range order {
		fmt.Printf("Address: %s  Balance: %d\n", address, balances[address])
	}
	fmt.Printf("\nTotal: %d\n", utxos.Total())

	return nil
}
