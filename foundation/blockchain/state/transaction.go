package state

import (
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// UpsertWalletTransaction accepts a transaction from a wallet for inclusion.
func (s *State) UpsertWalletTransaction(tx database.Tx) error {
	if err := s.validateTransaction(tx); err != nil {
		return err
	}

	if _, err := s.mempool.Upsert(tx); err != nil {
		return err
	}

	s.Worker.SignalShareTx(tx)
	s.Worker.SignalStartMining()

	return nil
}

// UpsertNodeTransaction accepts a transaction from a node for inclusion.
func (s *State) UpsertNodeTransaction(tx database.Tx) error {
	if _, exists := s.mempool.Get(tx.ID); exists {
		return nil
	}

	if err := s.validateTransaction(tx); err != nil {
		return err
	}

	if _, err := s.mempool.Upsert(tx); err != nil {
		return err
	}

	s.Worker.SignalStartMining()

	return nil
}

// SendTransaction builds a transaction paying the amount from the node's
// address and submits it like a wallet would.
func (s *State) SendTransaction(to database.Address, amount uint64) (database.Tx, error) {
	tx, err := s.buildTransaction(to, amount)
	if err != nil {
		return database.Tx{}, err
	}

	if err := s.UpsertWalletTransaction(tx); err != nil {
		return database.Tx{}, err
	}

	return tx, nil
}

// =============================================================================

// validateTransaction takes the signed transaction and validates it against
// the current set of unspent outputs.
func (s *State) validateTransaction(tx database.Tx) error {
	s.mu.RLock()
	utxos := s.ledger.UTXOs()
	s.mu.RUnlock()

	return database.ValidateTx(tx, utxos)
}

// buildTransaction constructs a transaction signed with the node's key that
// avoids outputs already being spent by the mempool.
func (s *State) buildTransaction(to database.Address, amount uint64) (database.Tx, error) {
	s.mu.RLock()
	utxos := s.ledger.UTXOs()
	s.mu.RUnlock()

	return database.BuildTransaction(to, amount, s.beneficiary, s.privateKey, utxos, s.mempool.TxIns())
}
