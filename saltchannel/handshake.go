package saltchannel

// hsPhase enumerates the resumable sub-steps of the handshake state
// machine. A Session is fixed to one role at NewSession time; only the
// phases for that role are ever entered.
type hsPhase uint8

const (
	hsNotStarted hsPhase = iota

	hsClientWriteM1
	hsClientReadM2
	hsClientReadM3
	hsClientWriteM4

	hsHostReadM1
	hsHostWriteM2
	hsHostWriteA2 // A1/A2 detour: host saw type=8 instead of M1.
	hsHostWriteM3
	hsHostReadM4

	hsDone
)

// handshakeState holds the handshake engine's resumable progress. It is
// plain counters and byte offsets, no channels or goroutines.
type handshakeState struct {
	phase hsPhase

	m1Len int // bytes of M1 stored at buf[0:m1Len]
	m2Len int // bytes of M2 stored at buf[m1Len:m1Len+m2Len]

	pinRequested bool
	pinRejected  bool
	lastA1       A1
	haveLastA1   bool
}

// m1Region/m2Region/workArea locate the fixed regions of the session buffer
// used to retain the handshake transcript (the M1||M2 bytes) until M4 has
// been produced/verified; both session signatures are computed over it.

func (s *Session) m1Region() []byte { return s.buf[0:s.hs.m1Len] }
func (s *Session) transcript() []byte { return s.buf[0 : s.hs.m1Len+s.hs.m2Len] }
func (s *Session) m2Region() []byte { return s.buf[s.hs.m1Len : s.hs.m1Len+s.hs.m2Len] }
func (s *Session) workArea() []byte { return s.buf[s.hs.m1Len+s.hs.m2Len:] }

func decodeEncryptedFrame(body []byte) ([]byte, error) {
	if len(body) < headerLen || body[0] != MsgTypeEncrypted {
		return nil, parseErrorf("decode_encrypted")
	}
	return body[headerLen:], nil
}

func encodeEncryptedHeader(buf []byte) {
	buf[0] = MsgTypeEncrypted
	buf[1] = 0
}

// Handshake drives the handshake state machine. Call it repeatedly (each
// time the transport is ready) until it returns (true, nil) — the session
// is then Established() — or a non-pending error. A *Error with
// CodePending means the transport would have blocked; call Handshake again
// later. On any other error the session is terminal.
//
// On the host side, Handshake also transparently serves the A1/A2
// discovery detour: if the first message received is A1 instead of M1, it
// replies with A2 built from discoveryProtocols and returns a
// CodeSessionClosed error once that reply has been sent — discovery never
// establishes a session.
func (s *Session) Handshake(t Transport, discoveryProtocols []ProtocolPair) (bool, error) {
	if s.st == stateError || s.st == stateClosed {
		return false, wrapErr("handshake", CodeSessionClosed, nil)
	}
	if s.st == stateEstablished {
		return true, nil
	}
	if s.st == stateInit {
		if err := s.beginHandshake(); err != nil {
			return false, s.fail("handshake", CodeCrypto, err)
		}
		s.st = stateHandshaking
	}

	switch s.role {
	case RoleClient:
		return s.clientHandshakeStep(t)
	default:
		return s.hostHandshakeStep(t, discoveryProtocols)
	}
}

func (s *Session) beginHandshake() error {
	if err := s.provider.DHKeypair(s.ephPub[:], s.ephSec[:]); err != nil {
		return err
	}
	s.hs.phase = hsNotStarted
	if s.role == RoleClient {
		s.hs.phase = hsClientWriteM1
	} else {
		s.hs.phase = hsHostReadM1
	}
	return nil
}

// --- client ---

func (s *Session) clientHandshakeStep(t Transport) (bool, error) {
	for {
		switch s.hs.phase {
		case hsClientWriteM1:
			if !s.wp.inProgress() {
				m1 := M1{ClientDHPub: s.ephPub}
				if s.expectedPeerKey != nil {
					m1.PinPeerKey = true
					m1.HasPeerSigKey = true
					m1.PeerSigKey = *s.expectedPeerKey
				}
				n, err := EncodeM1(s.buf, m1)
				if err != nil {
					return false, s.fail("handshake", CodeParse, err)
				}
				s.hs.m1Len = n
				s.wp.start(s.m1Region())
			}
			ok, err := s.wp.step(t.Write)
			if err != nil {
				return false, s.fail("handshake", CodeOf(err), err)
			}
			if !ok {
				return false, wrapErr("handshake", CodePending, nil)
			}
			s.hs.phase = hsClientReadM2

		case hsClientReadM2:
			body, ok, err := s.rp.step(t.Read, s.buf[s.hs.m1Len:], m2BodyLen)
			if err != nil {
				return false, s.fail("handshake", CodeOf(err), err)
			}
			if !ok {
				return false, wrapErr("handshake", CodePending, nil)
			}
			m2, err := DecodeM2(body)
			if err != nil {
				return false, s.fail("handshake", CodeParse, err)
			}
			if m2.NoSuchServer {
				return false, s.fail("handshake", CodeNoSuchServer, nil)
			}
			s.hs.m2Len = len(body)
			if err := s.provider.DH(s.sessionKey[:], m2.HostDHPub[:], s.ephSec[:]); err != nil {
				return false, s.fail("handshake", CodeCrypto, err)
			}
			// Client: read=1, write=2; the host uses the opposite pair, so
			// each direction's reader and writer walk the same sequence.
			s.readNonce = newNonceCounter(1)
			s.writeNonce = newNonceCounter(2)
			s.hs.phase = hsClientReadM3

		case hsClientReadM3:
			body, ok, err := s.rp.step(t.Read, s.workArea(), len(s.workArea()))
			if err != nil {
				return false, s.fail("handshake", CodeOf(err), err)
			}
			if !ok {
				return false, wrapErr("handshake", CodePending, nil)
			}
			cipher, err := decodeEncryptedFrame(body)
			if err != nil {
				return false, s.fail("handshake", CodeParse, err)
			}
			if err := s.verifyM3(cipher); err != nil {
				return false, s.fail("handshake", CodeOf(err), err)
			}
			s.hs.phase = hsClientWriteM4

		case hsClientWriteM4:
			if !s.wp.inProgress() {
				frame, err := s.buildM4()
				if err != nil {
					return false, s.fail("handshake", CodeOf(err), err)
				}
				s.wp.start(frame)
			}
			ok, err := s.wp.step(t.Write)
			if err != nil {
				return false, s.fail("handshake", CodeOf(err), err)
			}
			if !ok {
				return false, wrapErr("handshake", CodePending, nil)
			}
			s.establish()
			return true, nil

		default:
			return false, s.fail("handshake", CodeProtocol, errString("invalid client phase"))
		}
	}
}

// verifyM3 decrypts and checks M3's signature using the client's read nonce.
func (s *Session) verifyM3(cipher []byte) error {
	var nonce [SizeNonce]byte
	aeadNonce(nonce[:], s.readNonce)
	// Open into scratch, not the work area: the ciphertext lives in the
	// work area and the AEAD does not tolerate overlapping dst/src.
	plain, err := s.provider.AEADOpen(s.scratch[:0], nonce[:], s.sessionKey[:], cipher)
	if err != nil {
		return wrapErr("verify_m3", CodeCrypto, err)
	}
	s.readNonce.advance()
	hostSignPub, sig1, err := DecodeM3Plaintext(plain)
	if err != nil {
		return wrapErr("verify_m3", CodeParse, err)
	}
	var th [SizeHash]byte
	if err := TranscriptHash(s.provider, th[:], s.transcript()); err != nil {
		return err
	}
	var sigIn [SignInputLen]byte
	signInput(sigIn[:], SigLabelHost, th[:])
	if !s.provider.SignVerify(sig1[:], sigIn[:], hostSignPub[:]) {
		return wrapErr("verify_m3", CodeCrypto, errString("signature1 invalid"))
	}
	if s.expectedPeerKey != nil && *s.expectedPeerKey != hostSignPub {
		return wrapErr("verify_m3", CodeCrypto, errString("host key pin mismatch"))
	}
	s.peerSignPub = hostSignPub
	return nil
}

// buildM4 signs the transcript with the client's signing key and encrypts
// the result, returning the full [type=6][flags][ciphertext] frame body
// located in the work area.
func (s *Session) buildM4() ([]byte, error) {
	var th [SizeHash]byte
	if err := TranscriptHash(s.provider, th[:], s.transcript()); err != nil {
		return nil, err
	}
	var sigIn [SignInputLen]byte
	signInput(sigIn[:], SigLabelClient, th[:])
	var sig2 [SizeSignature]byte
	if err := s.provider.Sign(sig2[:], sigIn[:], s.signing.Secret[:]); err != nil {
		return nil, wrapErr("build_m4", CodeCrypto, err)
	}
	work := s.workArea()
	plainLen, err := EncodeM4Plaintext(work, s.signing.Public[:], sig2[:])
	if err != nil {
		return nil, wrapErr("build_m4", CodeParse, err)
	}
	var nonce [SizeNonce]byte
	aeadNonce(nonce[:], s.writeNonce)
	copy(s.scratch[:plainLen], work[:plainLen])
	out := work[:headerLen]
	encodeEncryptedHeader(out)
	sealed, err := s.provider.AEADSeal(out, nonce[:], s.sessionKey[:], s.scratch[:plainLen])
	if err != nil {
		return nil, wrapErr("build_m4", CodeCrypto, err)
	}
	s.writeNonce.advance()
	return sealed, nil
}

func (s *Session) establish() {
	s.st = stateEstablished
	s.obs.Handshake(s.role, HandshakeResultOK, "")
	zero(s.ephPub[:])
	zero(s.ephSec[:])
	// The M1||M2 transcript served its purpose (TranscriptHash, already
	// folded into the M3/M4 signatures); discard it so the wire region is
	// free for App/MultiApp framing.
	zero(s.m1Region())
	zero(s.m2Region())
	s.hs.m1Len = 0
	s.hs.m2Len = 0
}

// --- host ---

func (s *Session) hostHandshakeStep(t Transport, discoveryProtocols []ProtocolPair) (bool, error) {
	for {
		switch s.hs.phase {
		case hsHostReadM1:
			// The first frame may be an A1 query, whose address field can
			// exceed M1's fixed size; bound the read by the whole wire
			// region and let the per-type decoders do the strict checks.
			body, ok, err := s.rp.step(t.Read, s.buf, len(s.buf))
			if err != nil {
				return false, s.fail("handshake", CodeOf(err), err)
			}
			if !ok {
				return false, wrapErr("handshake", CodePending, nil)
			}
			if len(body) > 0 && body[0] == MsgTypeA1 {
				a1, err := DecodeA1(body)
				if err != nil {
					return false, s.fail("handshake", CodeParse, err)
				}
				s.hs.lastA1 = a1
				s.hs.haveLastA1 = true
				s.obs.Discovery(len(discoveryProtocols))
				// Encode the reply after the received query so a1.Address
				// (aliasing the front of the buffer) survives for LastA1.
				n, err := EncodeA2(s.buf[len(body):], true, discoveryProtocols)
				if err != nil {
					return false, s.fail("handshake", CodeParse, err)
				}
				s.wp.start(s.buf[len(body) : len(body)+n])
				s.hs.phase = hsHostWriteA2
				continue
			}
			m1, err := DecodeM1(body)
			if err != nil {
				return false, s.fail("handshake", CodeParse, err)
			}
			s.hs.m1Len = len(body)
			s.hs.pinRequested = m1.PinPeerKey && m1.HasPeerSigKey
			if s.hs.pinRequested && m1.PeerSigKey != s.signing.Public {
				n, err := EncodeM2(s.buf[s.hs.m1Len:], M2{NoSuchServer: true, HostDHPub: s.ephPub})
				if err != nil {
					return false, s.fail("handshake", CodeParse, err)
				}
				s.hs.m2Len = n
				s.wp.start(s.m2Region())
				s.hs.phase = hsHostWriteM2 // falls through to write, then fails after.
				s.hs.pinRejected = true    // no M3 follows a rejected pin.
				continue
			}
			s.peerSignPub = m1.PeerSigKey // zero value if not pinned; unused unless pinRequested.
			n, err := EncodeM2(s.buf[s.hs.m1Len:], M2{HostDHPub: s.ephPub})
			if err != nil {
				return false, s.fail("handshake", CodeParse, err)
			}
			s.hs.m2Len = n
			if err := s.provider.DH(s.sessionKey[:], m1.ClientDHPub[:], s.ephSec[:]); err != nil {
				return false, s.fail("handshake", CodeCrypto, err)
			}
			// Host: read=2, write=1, mirroring the client's pair.
			s.readNonce = newNonceCounter(2)
			s.writeNonce = newNonceCounter(1)
			s.wp.start(s.m2Region())
			s.hs.phase = hsHostWriteM2

		case hsHostWriteA2:
			ok, err := s.wp.step(t.Write)
			if err != nil {
				return false, s.fail("handshake", CodeOf(err), err)
			}
			if !ok {
				return false, wrapErr("handshake", CodePending, nil)
			}
			return false, s.fail("handshake", CodeSessionClosed, nil)

		case hsHostWriteM2:
			ok, err := s.wp.step(t.Write)
			if err != nil {
				return false, s.fail("handshake", CodeOf(err), err)
			}
			if !ok {
				return false, wrapErr("handshake", CodePending, nil)
			}
			if s.hs.pinRejected {
				return false, s.fail("handshake", CodeNoSuchServer, nil)
			}
			s.hs.phase = hsHostWriteM3

		case hsHostWriteM3:
			if !s.wp.inProgress() {
				frame, err := s.buildM3()
				if err != nil {
					return false, s.fail("handshake", CodeOf(err), err)
				}
				s.wp.start(frame)
			}
			ok, err := s.wp.step(t.Write)
			if err != nil {
				return false, s.fail("handshake", CodeOf(err), err)
			}
			if !ok {
				return false, wrapErr("handshake", CodePending, nil)
			}
			s.hs.phase = hsHostReadM4

		case hsHostReadM4:
			body, ok, err := s.rp.step(t.Read, s.workArea(), len(s.workArea()))
			if err != nil {
				return false, s.fail("handshake", CodeOf(err), err)
			}
			if !ok {
				return false, wrapErr("handshake", CodePending, nil)
			}
			cipher, err := decodeEncryptedFrame(body)
			if err != nil {
				return false, s.fail("handshake", CodeParse, err)
			}
			if err := s.verifyM4(cipher); err != nil {
				return false, s.fail("handshake", CodeOf(err), err)
			}
			s.establish()
			return true, nil

		default:
			return false, s.fail("handshake", CodeProtocol, errString("invalid host phase"))
		}
	}
}

// buildM3 signs the transcript with the host's signing key and encrypts it.
func (s *Session) buildM3() ([]byte, error) {
	var th [SizeHash]byte
	if err := TranscriptHash(s.provider, th[:], s.transcript()); err != nil {
		return nil, err
	}
	var sigIn [SignInputLen]byte
	signInput(sigIn[:], SigLabelHost, th[:])
	var sig1 [SizeSignature]byte
	if err := s.provider.Sign(sig1[:], sigIn[:], s.signing.Secret[:]); err != nil {
		return nil, wrapErr("build_m3", CodeCrypto, err)
	}
	work := s.workArea()
	plainLen, err := EncodeM3Plaintext(work, s.signing.Public[:], sig1[:])
	if err != nil {
		return nil, wrapErr("build_m3", CodeParse, err)
	}
	var nonce [SizeNonce]byte
	aeadNonce(nonce[:], s.writeNonce)
	copy(s.scratch[:plainLen], work[:plainLen])
	out := work[:headerLen]
	encodeEncryptedHeader(out)
	sealed, err := s.provider.AEADSeal(out, nonce[:], s.sessionKey[:], s.scratch[:plainLen])
	if err != nil {
		return nil, wrapErr("build_m3", CodeCrypto, err)
	}
	s.writeNonce.advance()
	return sealed, nil
}

// verifyM4 decrypts and checks M4's signature using the host's read nonce.
func (s *Session) verifyM4(cipher []byte) error {
	var nonce [SizeNonce]byte
	aeadNonce(nonce[:], s.readNonce)
	plain, err := s.provider.AEADOpen(s.scratch[:0], nonce[:], s.sessionKey[:], cipher)
	if err != nil {
		return wrapErr("verify_m4", CodeCrypto, err)
	}
	s.readNonce.advance()
	clientSignPub, sig2, err := DecodeM4Plaintext(plain)
	if err != nil {
		return wrapErr("verify_m4", CodeParse, err)
	}
	var th [SizeHash]byte
	if err := TranscriptHash(s.provider, th[:], s.transcript()); err != nil {
		return err
	}
	var sigIn [SignInputLen]byte
	signInput(sigIn[:], SigLabelClient, th[:])
	if !s.provider.SignVerify(sig2[:], sigIn[:], clientSignPub[:]) {
		return wrapErr("verify_m4", CodeCrypto, errString("signature2 invalid"))
	}
	if s.expectedPeerKey != nil && *s.expectedPeerKey != clientSignPub {
		return wrapErr("verify_m4", CodeCrypto, errString("client key pin mismatch"))
	}
	s.peerSignPub = clientSignPub
	return nil
}

// LastA1 returns the most recently received A1 query (host role only), if any.
func (s *Session) LastA1() (A1, bool) { return s.hs.lastA1, s.hs.haveLastA1 }
