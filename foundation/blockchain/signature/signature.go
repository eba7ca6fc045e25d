// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/bits"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// hashLength is the number of characters in a 0x prefixed sha256 hex string.
const hashLength = 66

// ardanID is an arbitrary number for signing messages. This will make it
// clear that the signature comes from the Ardan blockchain.
// Ethereum and Bitcoin do this as well, but they use the value of 27.
const ardanID = 29

// =============================================================================

// Hash returns a unique string for the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// HashString returns the sha256 hash of the raw string data.
func HashString(data string) string {
	hash := sha256.Sum256([]byte(data))
	return hexutil.Encode(hash[:])
}

// IsHash validates the string is a 0x prefixed, 32 byte hex encoded value.
func IsHash(hash string) bool {
	if len(hash) != hashLength {
		return false
	}

	_, err := hexutil.Decode(hash)
	return err == nil
}

// LeadingZeroBits returns the number of leading zero bits in the binary
// representation of the hash.
func LeadingZeroBits(hash string) (int, error) {
	if !IsHash(hash) {
		return 0, fmt.Errorf("invalid hash %q", hash)
	}

	data, err := hexutil.Decode(hash)
	if err != nil {
		return 0, err
	}

	var zeros int
	for _, b := range data {
		if b != 0 {
			zeros += bits.LeadingZeros8(b)
			break
		}
		zeros += 8
	}

	return zeros, nil
}

// =============================================================================

// Sign uses the specified private key to sign the transaction id.
func Sign(id string, privateKey *ecdsa.PrivateKey) (string, error) {
	data := stamp(id)

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Check the public key extracted from the data and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return "", errors.New("invalid signature")
	}

	sig[crypto.RecoveryIDOffset] += ardanID

	return hexutil.Encode(sig), nil
}

// Verify checks the signature was produced over the transaction id by the
// private key behind the specified public key, provided as hex.
func Verify(id string, sigStr string, publicKeyHex string) error {
	sig, err := toSignatureBytes(sigStr)
	if err != nil {
		return err
	}

	publicKey, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return fmt.Errorf("decoding public key: %w", err)
	}

	if !crypto.VerifySignature(publicKey, stamp(id), sig[:crypto.RecoveryIDOffset]) {
		return errors.New("signature does not match public key")
	}

	return nil
}

// FromPublicKey extracts the public key that signed the transaction id
// and returns it as uncompressed hex.
func FromPublicKey(id string, sigStr string) (string, error) {
	sig, err := toSignatureBytes(sigStr)
	if err != nil {
		return "", err
	}

	publicKey, err := crypto.SigToPub(stamp(id), sig)
	if err != nil {
		return "", err
	}

	return PublicKeyHex(*publicKey), nil
}

// PublicKeyHex returns the uncompressed public key as a hex string without
// the 0x prefix. The first byte is always 04.
func PublicKeyHex(pk ecdsa.PublicKey) string {
	return hex.EncodeToString(crypto.FromECDSAPub(&pk))
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents the transaction id with
// the Ardan stamp embedded into the final hash.
func stamp(id string) []byte {

	// Hash the id into a 32 byte array. This will provide a data length
	// consistency with all data.
	idHash := crypto.Keccak256([]byte(id))

	// This stamp is used so signatures we produce when signing data
	// are always unique to the Ardan blockchain.
	stamp := []byte("\x19Ardan Signed Message:\n32")

	return crypto.Keccak256(stamp, idHash)
}

// toSignatureBytes decodes the signature string and removes the ardanID
// from the recovery id.
func toSignatureBytes(sigStr string) ([]byte, error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return nil, fmt.Errorf("decoding signature: %w", err)
	}

	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("invalid signature length %d", len(sig))
	}

	// Check the recovery id is either 0 or 1.
	v := sig[crypto.RecoveryIDOffset] - ardanID
	if v != 0 && v != 1 {
		return nil, errors.New("invalid recovery id")
	}
	sig[crypto.RecoveryIDOffset] = v

	return sig, nil
}
