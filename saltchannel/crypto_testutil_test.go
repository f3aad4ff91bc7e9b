package saltchannel

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"errors"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/secretbox"
)

// testProvider is a minimal, self-contained Provider used only by this
// package's internal (white-box) tests. Rather than importing package
// refcrypto, it re-implements the same primitives directly against the
// same third-party packages refcrypto uses.
type testProvider struct{}

func (testProvider) DHKeypair(pk, sk []byte) error {
	if _, err := rand.Read(sk); err != nil {
		return err
	}
	out, err := curve25519.X25519(sk, curve25519.Basepoint)
	if err != nil {
		return err
	}
	copy(pk, out)
	return nil
}

func (testProvider) DH(shared, pk, sk []byte) error {
	out, err := curve25519.X25519(sk, pk)
	if err != nil {
		return err
	}
	copy(shared, out)
	return nil
}

func (testProvider) SignKeypair(pk, sk []byte) error {
	p, s, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	copy(pk, p)
	copy(sk, s)
	return nil
}

func (testProvider) Sign(sig, msg, sk []byte) error {
	copy(sig, ed25519.Sign(ed25519.PrivateKey(sk), msg))
	return nil
}

func (testProvider) SignVerify(sig, msg, pk []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pk), msg, sig)
}

func (testProvider) AEADSeal(dst, nonce, key, plaintext []byte) ([]byte, error) {
	var n [24]byte
	copy(n[:], nonce)
	var k [32]byte
	copy(k[:], key)
	return secretbox.Seal(dst, plaintext, &n, &k), nil
}

func (testProvider) AEADOpen(dst, nonce, key, ciphertext []byte) ([]byte, error) {
	var n [24]byte
	copy(n[:], nonce)
	var k [32]byte
	copy(k[:], key)
	out, ok := secretbox.Open(dst, ciphertext, &n, &k)
	if !ok {
		return nil, errors.New("testProvider: authentication failed")
	}
	return out, nil
}

func (testProvider) HashSHA512(out, in []byte) error {
	sum := sha512.Sum512(in)
	copy(out, sum[:])
	return nil
}

func (testProvider) RandomBytes(out []byte) error {
	_, err := rand.Read(out)
	return err
}
