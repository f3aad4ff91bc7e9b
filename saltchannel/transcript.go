package saltchannel

// TranscriptHash computes SHA-512(m1m2) into out (64 bytes). m1m2 is the
// M1 body immediately followed by the M2 body, the exact bytes
// sent/received on the wire, excluding the 4-byte size prefixes but
// including the type/flags headers. The session keeps the two bodies
// adjacent in its buffer, so no concatenation copy is needed.
func TranscriptHash(p Provider, out, m1m2 []byte) error {
	if len(out) != SizeHash {
		return wrapErr("transcript_hash", CodeConfig, errString("out must be 64 bytes"))
	}
	if err := p.HashSHA512(out, m1m2); err != nil {
		return wrapErr("transcript_hash", CodeCrypto, err)
	}
	return nil
}

// signInput builds label || hash into out (len(label)+64 bytes), the input
// to Signature-1/Signature-2.
func signInput(out []byte, label string, hash []byte) {
	copy(out[:len(label)], label)
	copy(out[len(label):len(label)+len(hash)], hash)
}

// SignInputLen is the length of the signature input (8-byte label + 64-byte hash).
const SignInputLen = 8 + SizeHash
