package signature_test

import (
	"testing"

	"github.com/ardanlabs/carledger/foundation/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(value, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	publicKey := signature.PublicKey(pk.PublicKey)

	got, err := signature.Recover(value, sig)
	if err != nil {
		t.Fatalf("Should be able to recover the public key: %s", err)
	}

	if got != publicKey {
		t.Logf("got: %s", got)
		t.Logf("exp: %s", publicKey)
		t.Fatalf("Should get back the right public key.")
	}

	if err := signature.Verify(value, sig, publicKey); err != nil {
		t.Fatalf("Should be able to verify the signature: %s", err)
	}
}

func Test_VerifyTampered(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}
	tampered := struct {
		Name string
	}{
		Name: "Jill",
	}

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(value, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if err := signature.Verify(tampered, sig, signature.PublicKey(pk.PublicKey)); err == nil {
		t.Fatalf("Should not verify a signature over different data.")
	}

	other, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	if err := signature.Verify(value, sig, signature.PublicKey(other.PublicKey)); err == nil {
		t.Fatalf("Should not verify a signature against a different key.")
	}

	if _, err := signature.Recover(value, "0x1234"); err == nil {
		t.Fatalf("Should not recover from a short signature.")
	}
}

func Test_Hash(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}
	hash := "0x0f6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a"

	h := signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the right hash: %s", h[:6])
	}

	h = signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the same hash twice.")
	}
}

func Test_SignConsistency(t *testing.T) {
	value1 := struct {
		Name string
	}{
		Name: "Bill",
	}
	value2 := struct {
		Name string
	}{
		Name: "Jill",
	}

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig1, err := signature.Sign(value1, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	key1, err := signature.Recover(value1, sig1)
	if err != nil {
		t.Fatalf("Should be able to recover a public key: %s", err)
	}

	sig2, err := signature.Sign(value2, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	key2, err := signature.Recover(value2, sig2)
	if err != nil {
		t.Fatalf("Should be able to recover a public key: %s", err)
	}

	if key1 != key2 {
		t.Errorf("Got: %s", key1)
		t.Errorf("Got: %s", key2)
		t.Fatalf("Should have the same public key.")
	}
}
