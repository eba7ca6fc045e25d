package database

import (
	"crypto/ecdsa"
	"fmt"
	"strconv"
	"strings"

	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
)

// TxIn references an unspent output being consumed by a transaction and
// carries the proof the spender owns it.
type TxIn struct {
	TxOutID    string `json:"tx_out_id"`    // Bitcoin: Id of the transaction that created the output.
	TxOutIndex uint32 `json:"tx_out_index"` // Bitcoin: Position of the output in that transaction.
	Signature  string `json:"signature"`    // Bitcoin: Signature over the transaction id.
}

// TxOut is a destination and quantity created by a transaction.
type TxOut struct {
	Address Address `json:"address"` // Bitcoin: Public key allowed to spend this output.
	Amount  uint64  `json:"amount"`  // Bitcoin: Value held by this output.
}

// Tx is the transactional information moving value between addresses.
type Tx struct {
	ID     string  `json:"id"`
	TxIns  []TxIn  `json:"tx_ins"`
	TxOuts []TxOut `json:"tx_outs"`
}

// NewTx constructs a new transaction with the id calculated. The inputs
// still need to be signed.
func NewTx(txIns []TxIn, txOuts []TxOut) (Tx, error) {
	for _, txOut := range txOuts {
		if !txOut.Address.IsAddress() {
			return Tx{}, fmt.Errorf("output address is not properly formatted: %q", txOut.Address)
		}
	}

	tx := Tx{
		TxIns:  txIns,
		TxOuts: txOuts,
	}
	tx.ID = CalculateTxID(tx)

	return tx, nil
}

// NewCoinbase constructs the reward transaction for the block at the
// specified index. The single input does not reference a real output. Its
// index carries the block index so every coinbase id is unique per height.
func NewCoinbase(address Address, blockIndex uint64, reward uint64) Tx {
	tx := Tx{
		TxIns: []TxIn{
			{TxOutID: "", TxOutIndex: uint32(blockIndex), Signature: ""},
		},
		TxOuts: []TxOut{
			{Address: address, Amount: reward},
		},
	}
	tx.ID = CalculateTxID(tx)

	return tx
}

// CalculateTxID returns the hash of the input references and the outputs.
// Signatures are excluded so the id is stable once inputs and outputs are set.
func CalculateTxID(tx Tx) string {
	var b strings.Builder

	for _, txIn := range tx.TxIns {
		b.WriteString(txIn.TxOutID)
		b.WriteString(strconv.FormatUint(uint64(txIn.TxOutIndex), 10))
	}

	for _, txOut := range tx.TxOuts {
		b.WriteString(string(txOut.Address))
		b.WriteString(strconv.FormatUint(txOut.Amount, 10))
	}

	return signature.HashString(b.String())
}

// SignInput produces the signature for the input at the specified index. The
// referenced output must exist and be owned by the private key.
func SignInput(tx Tx, txInIndex int, privateKey *ecdsa.PrivateKey, utxos UTXOSet) (string, error) {
	if txInIndex < 0 || txInIndex >= len(tx.TxIns) {
		return "", fmt.Errorf("input index %d out of range", txInIndex)
	}
	txIn := tx.TxIns[txInIndex]

	utxo, exists := utxos.Find(txIn.TxOutID, txIn.TxOutIndex)
	if !exists {
		return "", fmt.Errorf("%s:%d: %w", txIn.TxOutID, txIn.TxOutIndex, ErrUnknownUTXO)
	}

	if PublicKeyToAddress(privateKey.PublicKey) != utxo.Address {
		return "", fmt.Errorf("%s:%d: %w", txIn.TxOutID, txIn.TxOutIndex, ErrKeyMismatch)
	}

	return signature.Sign(tx.ID, privateKey)
}

// =============================================================================

// IsCoinbase reports whether the transaction is shaped like a reward.
func (tx Tx) IsCoinbase() bool {
	return len(tx.TxIns) == 1 && tx.TxIns[0].TxOutID == ""
}

// TotalOut returns the sum of all output amounts.
func (tx Tx) TotalOut() (uint64, error) {
	var total uint64
	for _, txOut := range tx.TxOuts {
		sum, ok := addAmount(total, txOut.Amount)
		if !ok {
			return 0, fmt.Errorf("output total overflows: %w", ErrInvalidAmount)
		}
		total = sum
	}

	return total, nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	id := tx.ID
	if len(id) > 10 {
		id = id[:10]
	}

	return fmt.Sprintf("%s:ins[%d]:outs[%d]", id, len(tx.TxIns), len(tx.TxOuts))
}

// =============================================================================

// outPoint returns the key used to identify the output referenced by an input.
func (txIn TxIn) outPoint() OutPoint {
	return OutPoint{TxOutID: txIn.TxOutID, TxOutIndex: txIn.TxOutIndex}
}
