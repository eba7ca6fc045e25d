package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

type balance struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Balance     uint64 `json:"balance"`
	LatestBlock string `json:"latest_block"`
	Uncommitted int    `json:"uncommitted"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	address := database.PublicKeyToAddress(privateKey.PublicKey)
	fmt.Println("For Address:", address)

	var bal balance
	if err := get(fmt.Sprintf("%s/v1/balances/list/%s", url, address), &bal); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Balance: %d  Latest Block: %s  Uncommitted: %d\n", bal.Balance, bal.LatestBlock, bal.Uncommitted)
}
