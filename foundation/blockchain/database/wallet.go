package database

import (
	"crypto/ecdsa"
	"fmt"
)

// BuildTransaction constructs and signs a transaction sending the amount to
// the specified address. Spendable outputs are selected in the order they
// were created until they cover the amount. Any remainder is returned to the
// sender as change.
func BuildTransaction(to Address, amount uint64, from Address, privateKey *ecdsa.PrivateKey, utxos UTXOSet, poolTxIns []TxIn) (Tx, error) {
	if !to.IsAddress() {
		return Tx{}, fmt.Errorf("to address is not properly formatted")
	}

	if amount == 0 {
		return Tx{}, fmt.Errorf("amount must be greater than zero: %w", ErrInvalidAmount)
	}

	if PublicKeyToAddress(privateKey.PublicKey) != from {
		return Tx{}, ErrKeyMismatch
	}

	selected, total, err := selectOutputs(amount, utxos.Spendable(from, poolTxIns))
	if err != nil {
		return Tx{}, err
	}

	txIns := make([]TxIn, len(selected))
	for i, utxo := range selected {
		txIns[i] = TxIn{
			TxOutID:    utxo.TxOutID,
			TxOutIndex: utxo.TxOutIndex,
		}
	}

	txOuts := []TxOut{{Address: to, Amount: amount}}
	if change := total - amount; change > 0 {
		txOuts = append(txOuts, TxOut{Address: from, Amount: change})
	}

	tx, err := NewTx(txIns, txOuts)
	if err != nil {
		return Tx{}, err
	}

	for i := range tx.TxIns {
		sig, err := SignInput(tx, i, privateKey, utxos)
		if err != nil {
			return Tx{}, err
		}
		tx.TxIns[i].Signature = sig
	}

	return tx, nil
}

// selectOutputs walks the outputs in order until their sum covers the amount.
func selectOutputs(amount uint64, outs []UnspentTxOut) ([]UnspentTxOut, uint64, error) {
	var total uint64
	for i, out := range outs {
		sum, ok := addAmount(total, out.Amount)
		if !ok {
			return nil, 0, fmt.Errorf("selected total overflows: %w", ErrInvalidAmount)
		}
		total = sum

		if total >= amount {
			return outs[:i+1], total, nil
		}
	}

	return nil, 0, fmt.Errorf("have %d, need %d: %w", total, amount, ErrInsufficientFunds)
}
