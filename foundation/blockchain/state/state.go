// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"crypto/ecdsa"
	"errors"
	"sync"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/mempool"
	"github.com/ardanlabs/utxochain/foundation/blockchain/peer"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, peer updates, and transaction sharing.
type Worker interface {
	Shutdown()
	Sync()
	SignalStartMining()
	SignalCancelMining() (done func())
	SignalShareTx(tx database.Tx)
	SignalSync()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	PrivateKey *ecdsa.PrivateKey
	Host       string
	Storage    database.Storage
	Genesis    genesis.Genesis
	MaxNonce   uint64
	KnownPeers *peer.PeerSet
	EvHandler  EventHandler
}

// State manages the blockchain database.
type State struct {
	mu          sync.RWMutex
	ledger      database.Ledger
	privateKey  *ecdsa.PrivateKey
	beneficiary database.Address
	host        string
	maxNonce    uint64
	evHandler   EventHandler

	knownPeers *peer.PeerSet
	genesis    genesis.Genesis
	mempool    *mempool.Mempool
	storage    database.Storage

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {
	if cfg.PrivateKey == nil {
		return nil, errors.New("private key is required")
	}

	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	// Load all existing blocks from storage into memory for processing.
	ledger, err := loadLedger(cfg.Storage, cfg.Genesis, ev)
	if err != nil {
		return nil, err
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		ledger:      ledger,
		privateKey:  cfg.PrivateKey,
		beneficiary: database.PublicKeyToAddress(cfg.PrivateKey.PublicKey),
		host:        cfg.Host,
		maxNonce:    cfg.MaxNonce,
		evHandler:   ev,

		knownPeers: knownPeers,
		genesis:    cfg.Genesis,
		mempool:    mempool.New(),
		storage:    cfg.Storage,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the database file is properly closed.
	defer func() {
		s.storage.Close()
	}()

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()

	return nil
}

// =============================================================================

// loadLedger replays the blocks found in storage on top of the genesis block.
// Storage that does not start with this genesis block is reset to genesis.
// Storage holding a block that no longer validates is cut back to the
// blocks before it.
func loadLedger(strg database.Storage, gen genesis.Genesis, ev EventHandler) (database.Ledger, error) {
	ledger, err := database.Replay(gen, strg.ForEach(), time.Now())
	if err != nil {
		if _, ok := database.ReasonOf(err); !ok {
			return database.Ledger{}, err
		}

		ev("state: loadLedger: WARNING: %s: keeping the valid blocks[%d]", err, ledger.LatestBlock().Index+1)
		return resetStorage(strg, ledger)
	}

	if ledger.LatestBlock().Index == 0 {
		ev("state: loadLedger: writing genesis block[%s]", ledger.GenesisBlock().Hash)
		return resetStorage(strg, ledger)
	}

	ev("state: loadLedger: loaded blocks[%d]: latest[%s]", ledger.LatestBlock().Index+1, ledger.LatestBlock().Hash)

	return ledger, nil
}

// resetStorage clears the storage and writes the chain held by the ledger.
func resetStorage(strg database.Storage, ledger database.Ledger) (database.Ledger, error) {
	if err := strg.Reset(); err != nil {
		return database.Ledger{}, err
	}

	for _, block := range ledger.Chain() {
		if err := strg.Write(block); err != nil {
			return database.Ledger{}, err
		}
	}

	return ledger, nil
}
