package database

import (
	"crypto/ecdsa"
	"errors"

	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
)

// addressLength is the number of hex characters in an uncompressed
// secp256k1 public key.
const addressLength = 130

// addressPrefix is the hex encoded leading byte of an uncompressed public key.
const addressPrefix = "04"

// =============================================================================

// Address represents the uncompressed public key that owns transaction
// outputs. Only the holder of the matching private key can spend them.
type Address string

// ToAddress converts a hex-encoded string to an address and validates the
// hex-encoded string is formatted correctly.
func ToAddress(hex string) (Address, error) {
	a := Address(hex)
	if !a.IsAddress() {
		return "", errors.New("invalid address format")
	}

	return a, nil
}

// PublicKeyToAddress converts the public key to an address value.
func PublicKeyToAddress(pk ecdsa.PublicKey) Address {
	return Address(signature.PublicKeyHex(pk))
}

// IsAddress verifies whether the underlying data represents a valid
// hex-encoded uncompressed public key.
func (a Address) IsAddress() bool {
	if len(a) != addressLength {
		return false
	}

	if a[:2] != addressPrefix {
		return false
	}

	return isHex(a)
}

// =============================================================================

// isHex validates whether each byte is valid hexadecimal string.
func isHex(a Address) bool {
	if len(a)%2 != 0 {
		return false
	}

	for _, c := range []byte(a) {
		if !isHexCharacter(c) {
			return false
		}
	}

	return true
}

// isHexCharacter returns bool of c being a valid hexadecimal.
func isHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
