package ledger

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ardanlabs/carledger/foundation/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Keypair is an owner identity on the ledger.
type Keypair struct {
	PrivateKey *ecdsa.PrivateKey
	PublicKey  string
}

// GenerateKeypair produces a fresh random keypair.
func GenerateKeypair() (Keypair, error) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		return Keypair{}, fmt.Errorf("generating key: %w", err)
	}

	return NewKeypair(pk), nil
}

// NewKeypair wraps an existing private key.
func NewKeypair(pk *ecdsa.PrivateKey) Keypair {
	return Keypair{
		PrivateKey: pk,
		PublicKey:  signature.PublicKey(pk.PublicKey),
	}
}

// LoadKeypair reads a hex encoded private key file.
func LoadKeypair(path string) (Keypair, error) {
	pk, err := crypto.LoadECDSA(path)
	if err != nil {
		return Keypair{}, fmt.Errorf("loading key %q: %w", path, err)
	}

	return NewKeypair(pk), nil
}

// SaveKeypair writes the private key hex encoded to the file.
func SaveKeypair(path string, kp Keypair) error {
	if err := crypto.SaveECDSA(path, kp.PrivateKey); err != nil {
		return fmt.Errorf("saving key %q: %w", path, err)
	}

	return nil
}
