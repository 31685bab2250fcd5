// Package nameservice reads a folder of owner key files and resolves ledger
// public keys back to the owner names the files are named after.
package nameservice

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/carledger/foundation/ledger"
)

// KeyExtension is the file extension of owner key files.
const KeyExtension = ".ecdsa"

// NameService maintains a map of public keys for name lookup.
type NameService struct {
	names map[string]string
}

// New constructs a name service from the key files under root. A missing
// root yields an empty name service.
func New(root string) (*NameService, error) {
	ns := NameService{
		names: make(map[string]string),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			if fileName == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != KeyExtension {
			return nil
		}

		kp, err := ledger.LoadKeypair(fileName)
		if err != nil {
			return err
		}

		ns.names[kp.PublicKey] = strings.TrimSuffix(filepath.Base(fileName), KeyExtension)

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified public key or the key itself
// when it is unknown.
func (ns *NameService) Lookup(publicKey string) string {
	name, exists := ns.names[publicKey]
	if !exists {
		return publicKey
	}
	return name
}

// Copy returns a copy of the map of public keys and names.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.names))
	for publicKey, name := range ns.names {
		cpy[publicKey] = name
	}
	return cpy
}
