// Package store validates and records ledger transactions in memory with an
// optional append only journal on disk.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/ardanlabs/carledger/foundation/ledger"
)

// EventHandler defines a function that is called when transactions are
// committed.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to open a store.
type Config struct {
	JournalPath string
	EvHandler   EventHandler
}

// Store manages the committed transactions.
type Store struct {
	mu        sync.RWMutex
	evHandler EventHandler
	journal   *os.File

	txs    map[string]ledger.Tx
	assets map[string][]string
	spent  map[ledger.OutputRef]string
	owned  map[string][]ledger.OutputRef
}

// New constructs a store. When a journal path is provided, the journal is
// replayed before the store is returned.
func New(cfg Config) (*Store, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	s := Store{
		evHandler: ev,
		txs:       make(map[string]ledger.Tx),
		assets:    make(map[string][]string),
		spent:     make(map[ledger.OutputRef]string),
		owned:     make(map[string][]ledger.OutputRef),
	}

	if cfg.JournalPath == "" {
		return &s, nil
	}

	if err := s.replay(cfg.JournalPath); err != nil {
		return nil, err
	}

	journal, err := os.OpenFile(cfg.JournalPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	s.journal = journal

	return &s, nil
}

// Close cleanly releases the journal.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.journal == nil {
		return nil
	}

	err := s.journal.Close()
	s.journal = nil
	return err
}

// Submit validates the transaction against the committed state and records
// it.
func (s *Store) Submit(tx ledger.Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(tx); err != nil {
		return err
	}

	if s.journal != nil {
		data, err := json.Marshal(tx)
		if err != nil {
			return fmt.Errorf("marshal transaction: %w", err)
		}

		if _, err := s.journal.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("writing journal: %w", err)
		}
	}

	s.apply(tx)

	s.evHandler("store: submit: committed: %s: asset[%s] outputs[%d]", tx, tx.AssetID(), len(tx.Outputs))

	return nil
}

// Transaction returns the committed transaction with the specified id.
func (s *Store) Transaction(id string) (ledger.Tx, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, exists := s.txs[id]
	if !exists {
		return ledger.Tx{}, fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
	}

	return tx, nil
}

// AssetHistory returns the CREATE and every TRANSFER of the asset in the
// order they were committed.
func (s *Store) AssetHistory(assetID string) ([]ledger.Tx, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, exists := s.assets[assetID]
	if !exists {
		return nil, fmt.Errorf("asset %s: %w", assetID, ledger.ErrNotFound)
	}

	txs := make([]ledger.Tx, len(ids))
	for i, id := range ids {
		txs[i] = s.txs[id]
	}

	return txs, nil
}

// Outputs returns the outputs owned by the public key. When spent is not
// nil only outputs in that spent state are returned.
func (s *Store) Outputs(publicKey string, spent *bool) []ledger.OutputRef {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]ledger.OutputRef, 0, len(s.owned[publicKey]))
	for _, ref := range s.owned[publicKey] {
		_, isSpent := s.spent[ref]
		if spent != nil && *spent != isSpent {
			continue
		}
		refs = append(refs, ref)
	}

	return refs
}

// Count returns the number of committed transactions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.txs)
}

// =============================================================================

// check applies the ledger rules to the transaction against the committed
// state.
func (s *Store) check(tx ledger.Tx) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	if _, exists := s.txs[tx.ID]; exists {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicate, tx.ID)
	}

	if tx.Operation == ledger.OpCreate {
		return nil
	}

	if _, exists := s.assets[tx.Asset.ID]; !exists {
		return fmt.Errorf("%w: asset %s is unknown", ledger.ErrInvalidTx, tx.Asset.ID)
	}

	seen := make(map[ledger.OutputRef]bool)
	for i, in := range tx.Inputs {
		ref := ledger.OutputRef{
			TransactionID: in.Fulfills.TransactionID,
			OutputIndex:   in.Fulfills.OutputIndex,
		}

		prev, exists := s.txs[ref.TransactionID]
		if !exists {
			return fmt.Errorf("%w: input %d spends unknown transaction %s", ledger.ErrInvalidTx, i, ref.TransactionID)
		}

		if prev.AssetID() != tx.Asset.ID {
			return fmt.Errorf("%w: input %d spends asset %s, not %s", ledger.ErrInvalidTx, i, prev.AssetID(), tx.Asset.ID)
		}

		if ref.OutputIndex < 0 || ref.OutputIndex >= len(prev.Outputs) {
			return fmt.Errorf("%w: input %d output index %d out of range", ledger.ErrInvalidTx, i, ref.OutputIndex)
		}

		if by, spent := s.spent[ref]; spent || seen[ref] {
			return fmt.Errorf("%w: %s:%d spent by %s", ledger.ErrSpent, ref.TransactionID, ref.OutputIndex, by)
		}
		seen[ref] = true

		if owner := prev.Outputs[ref.OutputIndex].PublicKeys[0]; owner != in.OwnersBefore[0] {
			return fmt.Errorf("%w: input %d is signed by %s, output is owned by %s", ledger.ErrInvalidTx, i, in.OwnersBefore[0], owner)
		}
	}

	return nil
}

// apply records a checked transaction in the indexes.
func (s *Store) apply(tx ledger.Tx) {
	s.txs[tx.ID] = tx

	assetID := tx.AssetID()
	s.assets[assetID] = append(s.assets[assetID], tx.ID)

	for _, in := range tx.Inputs {
		if in.Fulfills == nil {
			continue
		}

		ref := ledger.OutputRef{
			TransactionID: in.Fulfills.TransactionID,
			OutputIndex:   in.Fulfills.OutputIndex,
		}
		s.spent[ref] = tx.ID
	}

	for i, out := range tx.Outputs {
		ref := ledger.OutputRef{
			TransactionID: tx.ID,
			OutputIndex:   i,
		}
		for _, pk := range out.PublicKeys {
			s.owned[pk] = append(s.owned[pk], ref)
		}
	}
}

// replay reads the journal and applies every transaction in order.
func (s *Store) replay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var line int
	for scanner.Scan() {
		line++

		var tx ledger.Tx
		if err := json.Unmarshal(scanner.Bytes(), &tx); err != nil {
			return fmt.Errorf("journal line %d: %w", line, err)
		}

		if err := s.check(tx); err != nil {
			return fmt.Errorf("journal line %d: %w", line, err)
		}

		s.apply(tx)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}

	s.evHandler("store: replay: loaded[%d] transactions from %s", len(s.txs), path)

	return nil
}
