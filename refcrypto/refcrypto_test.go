package refcrypto

import (
	"bytes"
	"testing"

	"github.com/saltchannel/saltchannel-go/saltchannel"
)

var _ saltchannel.Provider = Provider{}

func TestDHAgreement(t *testing.T) {
	p := Provider{}
	var aPub, aSec, bPub, bSec [32]byte
	if err := p.DHKeypair(aPub[:], aSec[:]); err != nil {
		t.Fatalf("DHKeypair a: %v", err)
	}
	if err := p.DHKeypair(bPub[:], bSec[:]); err != nil {
		t.Fatalf("DHKeypair b: %v", err)
	}
	var sharedA, sharedB [32]byte
	if err := p.DH(sharedA[:], bPub[:], aSec[:]); err != nil {
		t.Fatalf("DH a: %v", err)
	}
	if err := p.DH(sharedB[:], aPub[:], bSec[:]); err != nil {
		t.Fatalf("DH b: %v", err)
	}
	if sharedA != sharedB {
		t.Fatalf("shared secrets diverge: %x vs %x", sharedA, sharedB)
	}
}

func TestSignRoundTrip(t *testing.T) {
	p := Provider{}
	var pub [32]byte
	var sec [64]byte
	if err := p.SignKeypair(pub[:], sec[:]); err != nil {
		t.Fatalf("SignKeypair: %v", err)
	}
	msg := []byte("SC-SIG01" + "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcd")
	var sig [64]byte
	if err := p.Sign(sig[:], msg, sec[:]); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !p.SignVerify(sig[:], msg, pub[:]) {
		t.Fatal("SignVerify rejected a valid signature")
	}
	sig[0] ^= 0xff
	if p.SignVerify(sig[:], msg, pub[:]) {
		t.Fatal("SignVerify accepted a corrupted signature")
	}
}

func TestAEADRoundTrip(t *testing.T) {
	p := Provider{}
	var key [32]byte
	for i := range key {
		key[i] = byte(i)
	}
	nonce := make([]byte, 24)
	nonce[23] = 1
	plain := []byte("application payload bytes")

	sealed, err := p.AEADSeal(nil, nonce, key[:], plain)
	if err != nil {
		t.Fatalf("AEADSeal: %v", err)
	}
	if len(sealed) != len(plain)+16 {
		t.Fatalf("unexpected sealed length: got %d want %d", len(sealed), len(plain)+16)
	}
	opened, err := p.AEADOpen(nil, nonce, key[:], sealed)
	if err != nil {
		t.Fatalf("AEADOpen: %v", err)
	}
	if !bytes.Equal(opened, plain) {
		t.Fatalf("round trip mismatch: got %q want %q", opened, plain)
	}

	sealed[0] ^= 0xff
	if _, err := p.AEADOpen(nil, nonce, key[:], sealed); err == nil {
		t.Fatal("AEADOpen accepted tampered ciphertext")
	}
}

func TestHashSHA512(t *testing.T) {
	p := Provider{}
	var out [64]byte
	if err := p.HashSHA512(out[:], []byte("abc")); err != nil {
		t.Fatalf("HashSHA512: %v", err)
	}
	// Known SHA-512("abc") first byte, from the published test vector.
	if out[0] != 0xdd {
		t.Fatalf("unexpected digest: %x", out)
	}
}
