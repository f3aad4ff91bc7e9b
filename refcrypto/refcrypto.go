// Package refcrypto is a reference implementation of saltchannel.Provider
// backed entirely by well-known Go crypto packages: X25519 scalar
// multiplication, Ed25519 signatures, XSalsa20-Poly1305 AEAD, and SHA-512.
// It is suitable as the default Provider for callers that don't need a
// hardware-backed or constant-time-audited alternative.
package refcrypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"errors"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/secretbox"
)

// Provider implements saltchannel.Provider. The zero value is ready to use.
type Provider struct{}

// DHKeypair generates an X25519 keypair into pk/sk (32 bytes each).
func (Provider) DHKeypair(pk, sk []byte) error {
	if len(pk) != 32 || len(sk) != 32 {
		return errBadKeySize
	}
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

// DH computes the X25519 shared secret for (pk, sk) into shared (32 bytes).
func (Provider) DH(shared, pk, sk []byte) error {
	if len(shared) != 32 || len(pk) != 32 || len(sk) != 32 {
		return errBadKeySize
	}
	out, err := curve25519.X25519(sk, pk)
	if err != nil {
		return err
	}
	copy(shared, out)
	return nil
}

// SignKeypair generates an Ed25519 keypair into pk (32 bytes) / sk (64 bytes).
func (Provider) SignKeypair(pk, sk []byte) error {
	if len(pk) != ed25519.PublicKeySize || len(sk) != ed25519.PrivateKeySize {
		return errBadKeySize
	}
	p, s, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	copy(pk, p)
	copy(sk, s)
	return nil
}

// Sign produces a detached Ed25519 signature of msg using sk into sig (64 bytes).
func (Provider) Sign(sig, msg, sk []byte) error {
	if len(sig) != ed25519.SignatureSize || len(sk) != ed25519.PrivateKeySize {
		return errBadKeySize
	}
	s := ed25519.Sign(ed25519.PrivateKey(sk), msg)
	copy(sig, s)
	return nil
}

// SignVerify reports whether sig is a valid Ed25519 signature of msg under pk.
func (Provider) SignVerify(sig, msg, pk []byte) bool {
	if len(sig) != ed25519.SignatureSize || len(pk) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pk), msg, sig)
}

// AEADSeal encrypts plaintext with an XSalsa20-Poly1305 secretbox keyed by
// key, using the low 24 bytes of nonce, and appends the sealed box to dst.
func (Provider) AEADSeal(dst, nonce, key, plaintext []byte) ([]byte, error) {
	if len(nonce) != 24 || len(key) != 32 {
		return nil, errBadKeySize
	}
	var n [24]byte
	copy(n[:], nonce)
	var k [32]byte
	copy(k[:], key)
	return secretbox.Seal(dst, plaintext, &n, &k), nil
}

// AEADOpen verifies and decrypts ciphertext, appending the plaintext to dst.
func (Provider) AEADOpen(dst, nonce, key, ciphertext []byte) ([]byte, error) {
	if len(nonce) != 24 || len(key) != 32 {
		return nil, errBadKeySize
	}
	var n [24]byte
	copy(n[:], nonce)
	var k [32]byte
	copy(k[:], key)
	out, ok := secretbox.Open(dst, ciphertext, &n, &k)
	if !ok {
		return nil, errAuthFailed
	}
	return out, nil
}

// HashSHA512 writes the 64-byte SHA-512 digest of in into out.
func (Provider) HashSHA512(out, in []byte) error {
	if len(out) != sha512.Size {
		return errBadKeySize
	}
	sum := sha512.Sum512(in)
	copy(out, sum[:])
	return nil
}

// RandomBytes fills out with cryptographically secure random bytes.
func (Provider) RandomBytes(out []byte) error {
	_, err := rand.Read(out)
	return err
}

var (
	errBadKeySize = errors.New("refcrypto: wrong buffer size")
	errAuthFailed = errors.New("refcrypto: authentication failed")
)
