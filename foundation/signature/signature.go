// Package signature provides helper functions for handling the ledger
// signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// ledgerStamp is mixed into every signed hash so signatures produced here
// can't be replayed as plain Ethereum message signatures.
const ledgerStamp = "\x19Car Ledger Signed Message:\n32"

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

// PublicKey returns the compressed hex encoding of the public key. This is
// the form owners are identified by on the ledger.
func PublicKey(pk ecdsa.PublicKey) string {
	return hexutil.Encode(crypto.CompressPubkey(&pk))
}

// Sign uses the specified private key to sign the value. The signature is
// returned hex encoded in the [R|S|V] format.
func Sign(value any, privateKey *ecdsa.PrivateKey) (string, error) {

	// Prepare the data for signing.
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Check the public key extracted from the data and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.CompressPubkey(&privateKey.PublicKey), data, rs) {
		return "", errors.New("invalid signature")
	}

	return hexutil.Encode(sig), nil
}

// Recover extracts the compressed public key that signed the value.
func Recover(value any, sigStr string) (string, error) {

	// NOTE: If the same exact data for the given signature is not provided
	// we will get back the wrong public key. The caller must compare the
	// result against the key it expects.

	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return "", fmt.Errorf("decoding signature: %w", err)
	}

	if len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("invalid signature length %d", len(sig))
	}

	// Check the recovery id is either 0 or 1.
	if v := sig[crypto.RecoveryIDOffset]; v != 0 && v != 1 {
		return "", errors.New("invalid recovery id")
	}

	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	return PublicKey(*publicKey), nil
}

// Verify checks the signature was produced over the value by the owner of
// the specified compressed public key.
func Verify(value any, sigStr string, publicKey string) error {
	signer, err := Recover(value, sigStr)
	if err != nil {
		return err
	}

	if signer != publicKey {
		return fmt.Errorf("signed by %s, expected %s", signer, publicKey)
	}

	return nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the ledger stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {

	// Marshal the data.
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	// Hash the data into a 32 byte array. This will provide
	// a data length consistency with all data.
	txHash := crypto.Keccak256(v)

	// Hash the stamp and txHash together in a final 32 byte array
	// that represents the data.
	data := crypto.Keccak256([]byte(ledgerStamp), txHash)

	return data, nil
}
