// This program is a wallet for the utxo chain. Keys are kept in local files
// and transactions are built and signed locally.
package main

import "github.com/ardanlabs/utxochain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
