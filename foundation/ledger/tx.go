// Package ledger provides the transaction model for the car ledger and a
// client for submitting transactions to a ledger node.
package ledger

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/carledger/foundation/signature"
)

// Version is the transaction format version produced by this package.
const Version = "2.0"

// ConditionType names the only spending condition the ledger supports: a
// single secp256k1 signature from the listed public key.
const ConditionType = "ecdsa-secp256k1-keccak"

// Operation represents the kind of transaction.
type Operation string

// Set of known operations.
const (
	OpCreate   Operation = "CREATE"
	OpTransfer Operation = "TRANSFER"
)

// =============================================================================

// Asset is the payload of a CREATE or the reference to the created asset
// for a TRANSFER.
type Asset struct {
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewAsset marshals the value as the data of a new asset.
func NewAsset(data any) (Asset, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Asset{}, fmt.Errorf("marshal asset: %w", err)
	}

	return Asset{Data: raw}, nil
}

// Fulfills identifies the output an input spends.
type Fulfills struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	OutputIndex   int    `json:"output_index" validate:"gte=0"`
}

// Input spends a previous output, or for a CREATE, names the creator.
type Input struct {
	Fulfills     *Fulfills `json:"fulfills"`
	OwnersBefore []string  `json:"owners_before" validate:"required,len=1"`
	Fulfillment  string    `json:"fulfillment" validate:"required"`
}

// Condition describes who may spend an output.
type Condition struct {
	Type      string `json:"type" validate:"required"`
	PublicKey string `json:"public_key" validate:"required"`
}

// Output is an unspent claim on the asset.
type Output struct {
	Condition  Condition `json:"condition"`
	PublicKeys []string  `json:"public_keys" validate:"required,len=1"`
	Amount     string    `json:"amount" validate:"required"`
}

// OutputRef points at an output of a committed transaction.
type OutputRef struct {
	TransactionID string `json:"transaction_id"`
	OutputIndex   int    `json:"output_index"`
}

// Tx is a ledger transaction.
type Tx struct {
	ID        string          `json:"id" validate:"required"`
	Version   string          `json:"version" validate:"required"`
	Operation Operation       `json:"operation" validate:"required,oneof=CREATE TRANSFER"`
	Asset     Asset           `json:"asset"`
	Metadata  json.RawMessage `json:"metadata"`
	Inputs    []Input         `json:"inputs" validate:"required,min=1,dive"`
	Outputs   []Output        `json:"outputs" validate:"required,min=1,dive"`
}

// AssetID returns the id of the asset this transaction is about.
func (tx Tx) AssetID() string {
	if tx.Operation == OpCreate {
		return tx.ID
	}
	return tx.Asset.ID
}

// Signers returns the public keys that signed the inputs.
func (tx Tx) Signers() []string {
	signers := make([]string, 0, len(tx.Inputs))
	for _, in := range tx.Inputs {
		signers = append(signers, in.OwnersBefore...)
	}
	return signers
}

// Spend constructs the input that spends the specified output.
func (tx Tx) Spend(index int) (Input, error) {
	if index < 0 || index >= len(tx.Outputs) {
		return Input{}, fmt.Errorf("%w: output index %d out of range", ErrInvalidTx, index)
	}

	owners := make([]string, len(tx.Outputs[index].PublicKeys))
	copy(owners, tx.Outputs[index].PublicKeys)

	in := Input{
		Fulfills: &Fulfills{
			TransactionID: tx.ID,
			OutputIndex:   index,
		},
		OwnersBefore: owners,
	}

	return in, nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%s", tx.Operation, tx.ID)
}

// Validate checks the structure of the transaction, that the id matches its
// content and that every input is signed by its owner.
func (tx Tx) Validate() error {
	switch tx.Operation {
	case OpCreate:
		if len(tx.Asset.Data) == 0 || tx.Asset.ID != "" {
			return fmt.Errorf("%w: create must carry asset data only", ErrInvalidTx)
		}
		for _, in := range tx.Inputs {
			if in.Fulfills != nil {
				return fmt.Errorf("%w: create inputs can't spend outputs", ErrInvalidTx)
			}
		}

	case OpTransfer:
		if tx.Asset.ID == "" || len(tx.Asset.Data) != 0 {
			return fmt.Errorf("%w: transfer must reference an asset id only", ErrInvalidTx)
		}
		for _, in := range tx.Inputs {
			if in.Fulfills == nil {
				return fmt.Errorf("%w: transfer inputs must spend an output", ErrInvalidTx)
			}
		}

	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidTx, tx.Operation)
	}

	if len(tx.Inputs) == 0 || len(tx.Outputs) == 0 {
		return fmt.Errorf("%w: inputs and outputs are required", ErrInvalidTx)
	}

	for i, out := range tx.Outputs {
		if len(out.PublicKeys) != 1 || out.Condition.PublicKey != out.PublicKeys[0] {
			return fmt.Errorf("%w: output %d condition does not match its owner", ErrInvalidTx, i)
		}
	}

	if id := tx.hash(); id != tx.ID {
		return fmt.Errorf("%w: id %s does not match content %s", ErrInvalidTx, tx.ID, id)
	}

	msg := tx.message()
	for i, in := range tx.Inputs {
		if len(in.OwnersBefore) != 1 {
			return fmt.Errorf("%w: input %d must have exactly one owner", ErrInvalidTx, i)
		}

		if err := signature.Verify(msg, in.Fulfillment, in.OwnersBefore[0]); err != nil {
			return fmt.Errorf("%w: input %d: %s", ErrInvalidTx, i, err)
		}
	}

	return nil
}

// =============================================================================

// PrepareRequest carries what is needed to draft a transaction.
type PrepareRequest struct {
	Operation  Operation
	Signers    []string
	Asset      Asset
	Metadata   any
	Inputs     []Input
	Recipients []string
}

// Prepare drafts an unsigned transaction.
func Prepare(req PrepareRequest) (Tx, error) {
	metadata, err := json.Marshal(req.Metadata)
	if err != nil {
		return Tx{}, fmt.Errorf("marshal metadata: %w", err)
	}

	tx := Tx{
		Version:   Version,
		Operation: req.Operation,
		Metadata:  metadata,
	}

	recipients := req.Recipients

	switch req.Operation {
	case OpCreate:
		if len(req.Signers) == 0 {
			return Tx{}, fmt.Errorf("%w: create requires a signer", ErrInvalidTx)
		}
		if len(req.Asset.Data) == 0 {
			return Tx{}, fmt.Errorf("%w: create requires asset data", ErrInvalidTx)
		}

		tx.Asset = Asset{Data: req.Asset.Data}
		for _, signer := range req.Signers {
			tx.Inputs = append(tx.Inputs, Input{OwnersBefore: []string{signer}})
		}

		if len(recipients) == 0 {
			recipients = req.Signers
		}

	case OpTransfer:
		if req.Asset.ID == "" {
			return Tx{}, fmt.Errorf("%w: transfer requires an asset id", ErrInvalidTx)
		}
		if len(req.Inputs) == 0 {
			return Tx{}, fmt.Errorf("%w: transfer requires inputs", ErrInvalidTx)
		}
		if len(recipients) == 0 {
			return Tx{}, fmt.Errorf("%w: transfer requires recipients", ErrInvalidTx)
		}

		tx.Asset = Asset{ID: req.Asset.ID}
		for _, in := range req.Inputs {
			in.Fulfillment = ""
			tx.Inputs = append(tx.Inputs, in)
		}

	default:
		return Tx{}, fmt.Errorf("%w: unknown operation %q", ErrInvalidTx, req.Operation)
	}

	for _, recipient := range recipients {
		out := Output{
			Condition: Condition{
				Type:      ConditionType,
				PublicKey: recipient,
			},
			PublicKeys: []string{recipient},
			Amount:     "1",
		}
		tx.Outputs = append(tx.Outputs, out)
	}

	return tx, nil
}

// Fulfill signs every input of the draft with the matching private key and
// assigns the transaction id.
func Fulfill(tx Tx, privateKeys ...*ecdsa.PrivateKey) (Tx, error) {
	keys := make(map[string]*ecdsa.PrivateKey, len(privateKeys))
	for _, pk := range privateKeys {
		keys[signature.PublicKey(pk.PublicKey)] = pk
	}

	signed := tx.clone()
	signed.ID = ""
	msg := signed.message()

	for i, in := range signed.Inputs {
		if len(in.OwnersBefore) != 1 {
			return Tx{}, fmt.Errorf("%w: input %d must have exactly one owner", ErrInvalidTx, i)
		}

		pk, exists := keys[in.OwnersBefore[0]]
		if !exists {
			return Tx{}, errors.New("missing private key for owner " + in.OwnersBefore[0])
		}

		sig, err := signature.Sign(msg, pk)
		if err != nil {
			return Tx{}, fmt.Errorf("signing input %d: %w", i, err)
		}

		signed.Inputs[i].Fulfillment = sig
	}

	signed.ID = signed.hash()

	return signed, nil
}

// =============================================================================

// message returns the form of the transaction covered by the signatures.
func (tx Tx) message() Tx {
	msg := tx.clone()
	msg.ID = ""
	for i := range msg.Inputs {
		msg.Inputs[i].Fulfillment = ""
	}
	return msg
}

// hash returns the id the transaction content produces.
func (tx Tx) hash() string {
	cpy := tx.clone()
	cpy.ID = ""
	return signature.Hash(cpy)
}

// clone copies the slices so signing never touches the caller's value.
func (tx Tx) clone() Tx {
	cpy := tx

	cpy.Inputs = make([]Input, len(tx.Inputs))
	for i, in := range tx.Inputs {
		if in.Fulfills != nil {
			f := *in.Fulfills
			in.Fulfills = &f
		}
		in.OwnersBefore = append([]string(nil), in.OwnersBefore...)
		cpy.Inputs[i] = in
	}

	cpy.Outputs = make([]Output, len(tx.Outputs))
	for i, out := range tx.Outputs {
		out.PublicKeys = append([]string(nil), out.PublicKeys...)
		cpy.Outputs[i] = out
	}

	return cpy
}
