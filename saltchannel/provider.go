package saltchannel

// Provider is the narrow crypto interface the engine consumes. The engine
// never implements these primitives itself — it only calls
// through this interface, so any conforming implementation (see package
// refcrypto for a reference one) can be substituted, including ones backed
// by hardware security modules or constant-time assembly.
//
// All byte-slice parameters are caller-owned; implementations must not
// retain references to them past the call.
type Provider interface {
	// DHKeypair generates an ephemeral X25519-style keypair into pk/sk.
	DHKeypair(pk, sk []byte) error
	// DH computes the shared secret for (pk, sk) into shared.
	DH(shared, pk, sk []byte) error

	// SignKeypair generates an Ed25519-style signing keypair into pk/sk.
	SignKeypair(pk, sk []byte) error
	// Sign produces a detached 64-byte signature of msg using sk, into sig.
	Sign(sig, msg, sk []byte) error
	// SignVerify reports whether sig is a valid signature of msg under pk.
	SignVerify(sig, msg, pk []byte) bool

	// AEADSeal encrypts plaintext with key/nonce, honoring the NaCl
	// zero-padding convention, appending the result to dst and
	// returning the extended slice. Salt Channel's AEAD usage has no
	// associated data: type and flags bytes are part of the encrypted
	// plaintext, not authenticated-but-cleartext header bytes.
	AEADSeal(dst, nonce, key, plaintext []byte) ([]byte, error)
	// AEADOpen decrypts ciphertext with key/nonce, appending the
	// plaintext to dst. It returns a non-nil error on authentication
	// failure, which the engine reports as CodeCrypto.
	AEADOpen(dst, nonce, key, ciphertext []byte) ([]byte, error)

	// HashSHA512 writes the 64-byte SHA-512 digest of in into out.
	HashSHA512(out, in []byte) error

	// RandomBytes fills out with cryptographically secure random bytes.
	RandomBytes(out []byte) error
}
