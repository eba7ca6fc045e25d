// Package nameservice reads the zblock/accounts folder and creates a name
// service lookup for the addresses of the known key files.
package nameservice

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
)

// NameService maintains a map of addresses for name lookup.
type NameService struct {
	addresses map[database.Address]string
}

// New constructs a name service with the addresses of the key files found
// under the root folder.
func New(root string) (*NameService, error) {
	ns := NameService{
		addresses: make(map[database.Address]string),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("%s: %w", fileName, err)
		}

		address := database.PublicKeyToAddress(privateKey.PublicKey)
		ns.addresses[address] = strings.TrimSuffix(filepath.Base(fileName), ".ecdsa")

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified address. Unknown addresses
// are returned as is.
func (ns *NameService) Lookup(address database.Address) string {
	name, exists := ns.addresses[address]
	if !exists {
		return string(address)
	}
	return name
}

// Copy returns a copy of the map of names and addresses.
func (ns *NameService) Copy() map[database.Address]string {
	cpy := make(map[database.Address]string, len(ns.addresses))
	for address, name := range ns.addresses {
		cpy[address] = name
	}
	return cpy
}
