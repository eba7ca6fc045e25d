// Package storage selects the implementation used to persist the blocks of
// the chain.
package storage

import (
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/utxochain/foundation/blockchain/storage/memory"
)

// Set of supported storage kinds.
const (
	KindMemory = "memory"
	KindDisk   = "disk"
)

// Open constructs the storage for the specified kind. The path is only used
// by the disk implementation.
func Open(kind string, path string) (database.Storage, error) {
	switch kind {
	case KindMemory:
		return memory.New()

	case KindDisk:
		return disk.New(path)
	}

	return nil, fmt.Errorf("unknown storage kind %q", kind)
}
