package saltchannel

// Framer (C5): Write/WriteMulti encrypt and send one App/MultiApp frame;
// Read decrypts and returns the next one. All three are resumable: a
// CodePending error means call the same method again once the transport
// is ready, with the same arguments (the in-flight payload is held by the
// Session, not re-read from the caller's slice).

// Write encrypts payload as a single App message and sends it. Once
// last=true has been sent, the session no longer accepts further writes.
func (s *Session) Write(t Transport, payload []byte, last bool) (bool, error) {
	if !s.Established() {
		return false, wrapErr("write", CodeSessionClosed, nil)
	}
	if s.weSentLast {
		return false, wrapErr("write", CodeProtocol, errString("already sent last"))
	}
	if len(payload) > s.appMax {
		return false, wrapErr("write", CodeProtocol, errString("payload exceeds AppMax"))
	}
	if !s.wp.inProgress() {
		frame, err := s.sealApp(payload, last)
		if err != nil {
			return false, s.fail("write", CodeOf(err), err)
		}
		s.wp.start(frame)
	}
	ok, err := s.wp.step(t.Write)
	if err != nil {
		return false, s.fail("write", CodeOf(err), err)
	}
	if !ok {
		return false, wrapErr("write", CodePending, nil)
	}
	if last {
		s.weSentLast = true
	}
	s.obs.Record(RecordDirectionWrite, len(payload), last)
	return true, nil
}

// WriteMulti encrypts payloads as one MultiApp batch and sends it.
func (s *Session) WriteMulti(t Transport, payloads [][]byte, last bool) (bool, error) {
	if !s.Established() {
		return false, wrapErr("write_multi", CodeSessionClosed, nil)
	}
	if s.weSentLast {
		return false, wrapErr("write_multi", CodeProtocol, errString("already sent last"))
	}
	if len(payloads) > s.maxMultiAppCount {
		return false, wrapErr("write_multi", CodeProtocol, errString("too many payloads"))
	}
	batchLen := appHeaderLen + 2
	for _, p := range payloads {
		if len(p) > s.appMax {
			return false, wrapErr("write_multi", CodeProtocol, errString("payload exceeds AppMax"))
		}
		batchLen += 2 + len(p)
	}
	if batchLen > len(s.scratch) {
		return false, wrapErr("write_multi", CodeProtocol, errString("batch exceeds session buffer"))
	}
	if !s.wp.inProgress() {
		frame, err := s.sealMultiApp(payloads, last)
		if err != nil {
			return false, s.fail("write_multi", CodeOf(err), err)
		}
		s.wp.start(frame)
	}
	ok, err := s.wp.step(t.Write)
	if err != nil {
		return false, s.fail("write_multi", CodeOf(err), err)
	}
	if !ok {
		return false, wrapErr("write_multi", CodePending, nil)
	}
	if last {
		s.weSentLast = true
	}
	total := 0
	for _, p := range payloads {
		total += len(p)
	}
	s.obs.Record(RecordDirectionWrite, total, last)
	return true, nil
}

func (s *Session) sealApp(payload []byte, last bool) ([]byte, error) {
	n, err := EncodeAppPlaintext(s.scratch, last, s.stamp(), payload)
	if err != nil {
		return nil, wrapErr("seal_app", CodeParse, err)
	}
	return s.seal(n)
}

func (s *Session) sealMultiApp(payloads [][]byte, last bool) ([]byte, error) {
	n, err := EncodeMultiAppPlaintext(s.scratch, last, s.stamp(), payloads)
	if err != nil {
		return nil, wrapErr("seal_multiapp", CodeParse, err)
	}
	return s.seal(n)
}

// seal AEAD-seals s.scratch[:plainLen] using the current write nonce and
// returns the [type=6][flags][ciphertext] frame body, written into s.buf.
func (s *Session) seal(plainLen int) ([]byte, error) {
	var nonce [SizeNonce]byte
	aeadNonce(nonce[:], s.writeNonce)
	out := s.buf[:headerLen]
	encodeEncryptedHeader(out)
	sealed, err := s.provider.AEADSeal(out, nonce[:], s.sessionKey[:], s.scratch[:plainLen])
	if err != nil {
		return nil, wrapErr("seal", CodeCrypto, err)
	}
	s.writeNonce.advance()
	return sealed, nil
}

// ReadResult is the decoded view of one received App/MultiApp frame.
// Exactly one of App or Multi is valid, per IsMulti.
type ReadResult struct {
	IsMulti     bool
	Last        bool
	TimestampMs uint32
	App         []byte         // valid when !IsMulti; aliases the session's scratch region.
	Multi       MultiAppCursor // valid when IsMulti.
}

// Read decrypts and decodes the next App or MultiApp frame. Once a frame
// with Last=true has been received, the session is considered closed for
// further reads and subsequent calls return CodeSessionClosed.
func (s *Session) Read(t Transport) (ReadResult, bool, error) {
	var empty ReadResult
	if !s.Established() {
		return empty, false, wrapErr("read", CodeSessionClosed, nil)
	}
	if s.peerClosed {
		return empty, false, wrapErr("read", CodeSessionClosed, nil)
	}
	body, ok, err := s.rp.step(t.Read, s.buf, s.maxFrameBody)
	if err != nil {
		return empty, false, s.fail("read", CodeOf(err), err)
	}
	if !ok {
		return empty, false, wrapErr("read", CodePending, nil)
	}
	cipher, err := decodeEncryptedFrame(body)
	if err != nil {
		return empty, false, s.fail("read", CodeParse, err)
	}
	var nonce [SizeNonce]byte
	aeadNonce(nonce[:], s.readNonce)
	plain, err := s.provider.AEADOpen(s.scratch[:0], nonce[:], s.sessionKey[:], cipher)
	if err != nil {
		return empty, false, s.fail("read", CodeCrypto, err)
	}
	s.readNonce.advance()

	if len(plain) == 0 {
		return empty, false, s.fail("read", CodeParse, errString("empty plaintext"))
	}
	var result ReadResult
	var tsMs uint32
	switch plain[0] {
	case MsgTypeApp:
		d, derr := DecodeAppPlaintext(plain)
		if derr != nil {
			return empty, false, s.fail("read", CodeParse, derr)
		}
		result = ReadResult{Last: d.Last, TimestampMs: d.TimestampMs, App: d.Payload}
		tsMs = d.TimestampMs
	case MsgTypeMultiApp:
		cur, derr := DecodeMultiAppPlaintext(plain, s.maxMultiAppCount)
		if derr != nil {
			return empty, false, s.fail("read", CodeParse, derr)
		}
		result = ReadResult{IsMulti: true, Last: cur.Last, TimestampMs: cur.TimestampMs, Multi: cur}
		tsMs = cur.TimestampMs
	default:
		return empty, false, s.fail("read", CodeProtocol, errString("unexpected frame type"))
	}

	// A zero timestamp always disables the regression check for this
	// message: peers that don't run a clock send 0 throughout, and a 0
	// arriving after a non-zero reading must not be treated as a
	// 4+ billion millisecond regression.
	if tsMs != 0 && s.timeRegressionThresholdMs > 0 && s.haveLastReadTimestamp {
		if s.lastReadTimestampMs > tsMs && s.lastReadTimestampMs-tsMs > s.timeRegressionThresholdMs {
			return empty, false, s.fail("read", CodeTimeViolation, nil)
		}
	}
	if tsMs != 0 {
		s.lastReadTimestampMs = tsMs
		s.haveLastReadTimestamp = true
	}

	if result.Last {
		s.peerClosed = true
	}
	s.obs.Record(RecordDirectionRead, len(plain), result.Last)
	return result, true, nil
}
