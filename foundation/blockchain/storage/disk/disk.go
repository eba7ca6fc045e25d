// Package disk implements the ability to read and write blocks to a bolt
// database file. The core keeps the chain in memory, this package lets a
// node survive a restart without a full network sync.
package disk

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when a block does not exist in the database.
var ErrNotFound = errors.New("block does not exist")

// blocksBucket holds every block keyed by its big endian index.
var blocksBucket = []byte("blocks")

// Disk represents the storage implementation for reading and storing
// blocks in a bolt database. This implements the database.Storage
// interface.
type Disk struct {
	db *bolt.DB
}

// New opens or creates the bolt database at the specified path.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating blocks bucket: %w", err)
	}

	return &Disk{db: db}, nil
}

// Close closes the bolt database.
func (d *Disk) Close() error {
	return d.db.Close()
}

// Write takes the specified database block and stores it under its index.
// Blocks must be written in order.
func (d *Disk) Write(block database.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return err
	}

	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(blocksBucket)

		var next uint64
		if k, _ := b.Cursor().Last(); k != nil {
			next = binary.BigEndian.Uint64(k) + 1
		}

		if block.Index != next {
			return errors.New("block is out of order")
		}

		return b.Put(key(block.Index), data)
	})
}

// GetBlock searches the bolt database to locate and return the contents of
// the specified block by index.
func (d *Disk) GetBlock(index uint64) (database.Block, error) {
	var block database.Block

	err := d.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(blocksBucket).Get(key(index))
		if data == nil {
			return ErrNotFound
		}

		return json.Unmarshal(data, &block)
	})
	if err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with the genesis block.
func (d *Disk) ForEach() database.Iterator {
	return &diskIterator{disk: d}
}

// Reset will clear out the blockchain on disk.
func (d *Disk) Reset() error {
	return d.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(blocksBucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}

		_, err := tx.CreateBucket(blocksBucket)
		return err
	})
}

// =============================================================================

// key converts the block index into a key that sorts in chain order.
func key(index uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, index)
	return k
}

// diskIterator represents the iteration implementation for walking
// through and reading blocks on disk. This implements the database
// Iterator interface.
type diskIterator struct {
	disk    *Disk  // Access to the storage API.
	current uint64 // Current block index being iterated over.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from disk.
func (di *diskIterator) Next() (database.Block, error) {
	if di.eoc {
		return database.Block{}, errors.New("end of chain")
	}

	block, err := di.disk.GetBlock(di.current)
	if errors.Is(err, ErrNotFound) {
		di.eoc = true
	}

	di.current++

	return block, err
}

// Done returns the end of chain value.
func (di *diskIterator) Done() bool {
	return di.eoc
}
