// Package saltchannel implements the Salt Channel v2 protocol engine: a
// strict binary wire codec, a resumable non-blocking I/O pump, a
// mutually-authenticating handshake state machine for both host and client
// roles, an encrypted application-message framer (including MultiApp
// batching and optional timestamps), and the pre-handshake A1/A2
// service-discovery exchange.
//
// The package allocates no working memory of its own: every operation reads
// from and writes into a buffer supplied by the caller at session creation.
// Cryptographic primitives (DH, signatures, AEAD, hashing) are consumed
// through the Provider interface rather than hard-coded, so any conforming
// implementation — see package refcrypto for a reference one — can be
// plugged in. Transport I/O is driven through a caller-supplied
// non-blocking read/write callback pair; see the Transport type.
package saltchannel
