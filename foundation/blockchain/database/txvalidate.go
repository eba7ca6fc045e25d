package database

import (
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
)

// ValidateTxStructure checks every field is present and properly formatted.
func ValidateTxStructure(tx Tx) error {
	if !signature.IsHash(tx.ID) {
		return fmt.Errorf("transaction id is not properly formatted: %q", tx.ID)
	}

	if len(tx.TxIns) == 0 {
		return fmt.Errorf("transaction %s has no inputs", tx)
	}

	if len(tx.TxOuts) == 0 {
		return fmt.Errorf("transaction %s has no outputs", tx)
	}

	for i, txOut := range tx.TxOuts {
		if !txOut.Address.IsAddress() {
			return fmt.Errorf("transaction %s: output[%d]: address is not properly formatted", tx, i)
		}
	}

	return nil
}

// ValidateTx checks the transaction against the set of unspent outputs. Every
// input must resolve, every signature must belong to the owner of the output
// it spends and the inputs must add up to the outputs.
func ValidateTx(tx Tx, utxos UTXOSet) error {
	if err := ValidateTxStructure(tx); err != nil {
		return err
	}

	id := CalculateTxID(tx)

	var totalIn uint64
	seen := make(map[OutPoint]struct{}, len(tx.TxIns))
	for i, txIn := range tx.TxIns {
		if _, exists := seen[txIn.outPoint()]; exists {
			return fmt.Errorf("transaction %s: input[%d]: %w", tx, i, ErrDoubleSpend)
		}
		seen[txIn.outPoint()] = struct{}{}

		utxo, exists := utxos.Find(txIn.TxOutID, txIn.TxOutIndex)
		if !exists {
			return fmt.Errorf("transaction %s: input[%d]: %w", tx, i, ErrUnknownUTXO)
		}

		if err := signature.Verify(id, txIn.Signature, string(utxo.Address)); err != nil {
			return fmt.Errorf("transaction %s: input[%d]: %s: %w", tx, i, err, ErrInvalidSignature)
		}

		sum, ok := addAmount(totalIn, utxo.Amount)
		if !ok {
			return fmt.Errorf("transaction %s: input total overflows: %w", tx, ErrInvalidAmount)
		}
		totalIn = sum
	}

	if tx.ID != id {
		return fmt.Errorf("transaction %s: %w", tx, ErrInvalidTxID)
	}

	totalOut, err := tx.TotalOut()
	if err != nil {
		return fmt.Errorf("transaction %s: %w", tx, err)
	}

	if totalIn != totalOut {
		return fmt.Errorf("transaction %s: inputs %d do not equal outputs %d: %w", tx, totalIn, totalOut, ErrInvalidAmount)
	}

	return nil
}

// ValidateCoinbase checks the reward transaction for the block at the
// specified index.
func ValidateCoinbase(tx Tx, blockIndex uint64, reward uint64) error {
	if err := ValidateTxStructure(tx); err != nil {
		return fmt.Errorf("%s: %w", err, ErrInvalidCoinbase)
	}

	if CalculateTxID(tx) != tx.ID {
		return fmt.Errorf("coinbase %s: %w", tx, ErrInvalidTxID)
	}

	if len(tx.TxIns) != 1 {
		return fmt.Errorf("coinbase %s: exactly one input required: %w", tx, ErrInvalidCoinbase)
	}

	if uint64(tx.TxIns[0].TxOutIndex) != blockIndex {
		return fmt.Errorf("coinbase %s: input index %d must equal block index %d: %w", tx, tx.TxIns[0].TxOutIndex, blockIndex, ErrInvalidCoinbase)
	}

	if len(tx.TxOuts) != 1 {
		return fmt.Errorf("coinbase %s: exactly one output required: %w", tx, ErrInvalidCoinbase)
	}

	if tx.TxOuts[0].Amount != reward {
		return fmt.Errorf("coinbase %s: amount %d must equal reward %d: %w", tx, tx.TxOuts[0].Amount, reward, ErrInvalidCoinbase)
	}

	return nil
}

// ValidateBlockTransactions checks the payload of a block against the set of
// unspent outputs before the block. The first transaction must be the
// coinbase, no output may be spent twice and every other transaction must
// be valid.
func ValidateBlockTransactions(block Block, utxos UTXOSet, reward uint64) error {
	if len(block.Trans) == 0 {
		return newValidationError(ReasonTransaction, "block %d has no coinbase transaction", block.Index)
	}

	if err := ValidateCoinbase(block.Trans[0], block.Index, reward); err != nil {
		return &ValidationError{Reason: ReasonTransaction, Err: err}
	}

	seen := make(map[OutPoint]struct{})
	for _, tx := range block.Trans[1:] {
		for _, txIn := range tx.TxIns {
			if _, exists := seen[txIn.outPoint()]; exists {
				return &ValidationError{
					Reason: ReasonTransaction,
					Err:    fmt.Errorf("block %d: %s:%d: %w", block.Index, txIn.TxOutID, txIn.TxOutIndex, ErrDoubleSpend),
				}
			}
			seen[txIn.outPoint()] = struct{}{}
		}
	}

	for _, tx := range block.Trans[1:] {
		if err := ValidateTx(tx, utxos); err != nil {
			return &ValidationError{Reason: ReasonTransaction, Err: err}
		}
	}

	return nil
}
