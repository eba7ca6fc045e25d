// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// Mempool represents a cache of transactions waiting to be mined, organized
// by transaction id and kept in arrival order. A second index on the outputs
// being spent stops two pooled transactions from consuming the same output.
type Mempool struct {
	mu    sync.RWMutex
	pool  map[string]database.Tx
	order []string
	spent map[database.OutPoint]string
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{
		pool:  make(map[string]database.Tx),
		spent: make(map[database.OutPoint]string),
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds a transaction to the mempool. Adding a transaction already in
// the pool is a no-op. A transaction spending an output already referenced
// by a pooled transaction is rejected.
func (mp *Mempool) Upsert(tx database.Tx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[tx.ID]; exists {
		return len(mp.pool), nil
	}

	for _, txIn := range tx.TxIns {
		if id, exists := mp.spent[outPoint(txIn)]; exists {
			return len(mp.pool), fmt.Errorf("%s:%d already spent by pooled tx %s: %w", txIn.TxOutID, txIn.TxOutIndex, id, database.ErrDoubleSpend)
		}
	}

	mp.pool[tx.ID] = tx
	mp.order = append(mp.order, tx.ID)
	for _, txIn := range tx.TxIns {
		mp.spent[outPoint(txIn)] = tx.ID
	}

	return len(mp.pool), nil
}

// Delete removed a transaction from the mempool.
func (mp *Mempool) Delete(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.delete(tx.ID)
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.Tx)
	mp.spent = make(map[database.OutPoint]string)
	mp.order = nil
}

// Get returns the pooled transaction for the specified id.
func (mp *Mempool) Get(id string) (database.Tx, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	tx, exists := mp.pool[id]
	return tx, exists
}

// PickBest returns the next set of transactions for the next block in the
// order they arrived. A value of -1 returns every transaction.
func (mp *Mempool) PickBest(howMany int) []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if howMany == -1 || howMany > len(mp.order) {
		howMany = len(mp.order)
	}

	txs := make([]database.Tx, 0, howMany)
	for _, id := range mp.order[:howMany] {
		txs = append(txs, mp.pool[id])
	}

	return txs
}

// Copy returns every transaction in the pool in arrival order.
func (mp *Mempool) Copy() []database.Tx {
	return mp.PickBest(-1)
}

// TxIns returns every input referenced by a pooled transaction. A wallet
// uses this to avoid selecting outputs that are already being spent.
func (mp *Mempool) TxIns() []database.TxIn {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	var txIns []database.TxIn
	for _, id := range mp.order {
		txIns = append(txIns, mp.pool[id].TxIns...)
	}

	return txIns
}

// Update drops every pooled transaction with an input that is no longer in
// the set of unspent outputs. This is called after a block is accepted or
// the chain is replaced. The number of dropped transactions is returned.
func (mp *Mempool) Update(utxos database.UTXOSet) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var stale []string
	for _, id := range mp.order {
		for _, txIn := range mp.pool[id].TxIns {
			if _, exists := utxos.Find(txIn.TxOutID, txIn.TxOutIndex); !exists {
				stale = append(stale, id)
				break
			}
		}
	}

	for _, id := range stale {
		mp.delete(id)
	}

	return len(stale)
}

// =============================================================================

// delete removes the transaction and its spent outputs. The caller must
// hold the write lock.
func (mp *Mempool) delete(id string) {
	tx, exists := mp.pool[id]
	if !exists {
		return
	}

	delete(mp.pool, id)
	for _, txIn := range tx.TxIns {
		delete(mp.spent, outPoint(txIn))
	}

	for i, oid := range mp.order {
		if oid == id {
			mp.order = append(mp.order[:i:i], mp.order[i+1:]...)
			break
		}
	}
}

// outPoint returns the key for the output referenced by the input.
func outPoint(txIn database.TxIn) database.OutPoint {
	return database.OutPoint{TxOutID: txIn.TxOutID, TxOutIndex: txIn.TxOutIndex}
}
