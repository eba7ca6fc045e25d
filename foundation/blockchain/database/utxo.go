package database

import (
	"math/bits"
)

// OutPoint identifies a single transaction output.
type OutPoint struct {
	TxOutID    string `json:"tx_out_id"`
	TxOutIndex uint32 `json:"tx_out_index"`
}

// UnspentTxOut represents a transaction output not yet consumed by any input.
type UnspentTxOut struct {
	TxOutID    string  `json:"tx_out_id"`
	TxOutIndex uint32  `json:"tx_out_index"`
	Address    Address `json:"address"`
	Amount     uint64  `json:"amount"`
}

// outPoint returns the key for this output.
func (u UnspentTxOut) outPoint() OutPoint {
	return OutPoint{TxOutID: u.TxOutID, TxOutIndex: u.TxOutIndex}
}

// =============================================================================

// UTXOSet is the set of unspent outputs. A value is never changed once it is
// constructed, applying a block returns a new set. Outputs are kept in the
// order they were created so spending selection is deterministic.
type UTXOSet struct {
	outs  []UnspentTxOut
	index map[OutPoint]int
}

// NewUTXOSet constructs a set from the specified outputs.
func NewUTXOSet(outs ...UnspentTxOut) UTXOSet {
	set := UTXOSet{
		outs:  make([]UnspentTxOut, 0, len(outs)),
		index: make(map[OutPoint]int, len(outs)),
	}

	for _, out := range outs {
		if _, exists := set.index[out.outPoint()]; exists {
			continue
		}
		set.index[out.outPoint()] = len(set.outs)
		set.outs = append(set.outs, out)
	}

	return set
}

// ApplyBlock removes the outputs consumed by every transaction in the block
// and adds the outputs each transaction creates. The original set is not
// modified.
func ApplyBlock(set UTXOSet, block Block) UTXOSet {
	consumed := make(map[OutPoint]struct{})
	created := 0
	for _, tx := range block.Trans {
		for _, txIn := range tx.TxIns {
			consumed[txIn.outPoint()] = struct{}{}
		}
		created += len(tx.TxOuts)
	}

	outs := make([]UnspentTxOut, 0, len(set.outs)+created)
	for _, out := range set.outs {
		if _, spent := consumed[out.outPoint()]; !spent {
			outs = append(outs, out)
		}
	}

	for _, tx := range block.Trans {
		for i, txOut := range tx.TxOuts {
			out := UnspentTxOut{
				TxOutID:    tx.ID,
				TxOutIndex: uint32(i),
				Address:    txOut.Address,
				Amount:     txOut.Amount,
			}
			if _, spent := consumed[out.outPoint()]; spent {
				continue
			}
			outs = append(outs, out)
		}
	}

	return NewUTXOSet(outs...)
}

// Find returns the unspent output referenced by the id and index.
func (s UTXOSet) Find(txOutID string, txOutIndex uint32) (UnspentTxOut, bool) {
	i, exists := s.index[OutPoint{TxOutID: txOutID, TxOutIndex: txOutIndex}]
	if !exists {
		return UnspentTxOut{}, false
	}

	return s.outs[i], true
}

// Len returns the number of unspent outputs.
func (s UTXOSet) Len() int {
	return len(s.outs)
}

// Values returns a copy of the unspent outputs in creation order.
func (s UTXOSet) Values() []UnspentTxOut {
	outs := make([]UnspentTxOut, len(s.outs))
	copy(outs, s.outs)
	return outs
}

// Balance returns the sum of the outputs owned by the address.
func (s UTXOSet) Balance(address Address) uint64 {
	var balance uint64
	for _, out := range s.outs {
		if out.Address == address {
			balance += out.Amount
		}
	}

	return balance
}

// Owned returns the outputs owned by the address.
func (s UTXOSet) Owned(address Address) []UnspentTxOut {
	var outs []UnspentTxOut
	for _, out := range s.outs {
		if out.Address == address {
			outs = append(outs, out)
		}
	}

	return outs
}

// Spendable returns the outputs owned by the address that are not already
// referenced by an input of a transaction waiting in the pool.
func (s UTXOSet) Spendable(address Address, poolTxIns []TxIn) []UnspentTxOut {
	pending := make(map[OutPoint]struct{}, len(poolTxIns))
	for _, txIn := range poolTxIns {
		pending[txIn.outPoint()] = struct{}{}
	}

	var outs []UnspentTxOut
	for _, out := range s.outs {
		if out.Address != address {
			continue
		}
		if _, exists := pending[out.outPoint()]; exists {
			continue
		}
		outs = append(outs, out)
	}

	return outs
}

// Total returns the value held by every unspent output.
func (s UTXOSet) Total() uint64 {
	var total uint64
	for _, out := range s.outs {
		total += out.Amount
	}

	return total
}

// =============================================================================

// addAmount adds two amounts and reports false on overflow.
func addAmount(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}
