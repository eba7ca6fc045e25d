package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount uint64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		tx, err := sendWithDetails(privateKey)
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println("Submitted:", tx.ID)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address to send to.")
	sendCmd.Flags().Uint64VarP(&amount, "amount", "v", 0, "Amount to send.")
}

// sendWithDetails builds the transaction from the unspent outputs the node
// reports for this wallet, leaving out outputs already being spent in the
// mempool, signs it locally and submits it.
func sendWithDetails(privateKey *ecdsa.PrivateKey) (database.Tx, error) {
	from := database.PublicKeyToAddress(privateKey.PublicKey)

	toAddress, err := database.ToAddress(to)
	if err != nil {
		return database.Tx{}, fmt.Errorf("to: %w", err)
	}

	var outs []database.UnspentTxOut
	if err := get(fmt.Sprintf("%s/v1/utxo/list/%s", url, from), &outs); err != nil {
		return database.Tx{}, err
	}

	var pool []database.Tx
	if err := get(fmt.Sprintf("%s/v1/tx/uncommitted/list", url), &pool); err != nil {
		return database.Tx{}, err
	}

	var poolTxIns []database.TxIn
	for _, tx := range pool {
		poolTxIns = append(poolTxIns, tx.TxIns...)
	}

	tx, err := database.BuildTransaction(toAddress, amount, from, privateKey, database.NewUTXOSet(outs...), poolTxIns)
	if err != nil {
		return database.Tx{}, err
	}

	data, err := json.Marshal(tx)
	if err != nil {
		return database.Tx{}, err
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewReader(data))
	if err != nil {
		return database.Tx{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return database.Tx{}, fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}

	return tx, nil
}

// get performs a GET against the node and decodes the JSON response.
func get(url string, dataRecv any) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return errors.New(string(msg))
	}

	return json.NewDecoder(resp.Body).Decode(dataRecv)
}
