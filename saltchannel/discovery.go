package saltchannel

// A1/A2 service discovery (C6). RequestA1 and RespondA1 are standalone
// pre-handshake operations: they never touch handshake keys and never
// establish a session. A completed exchange terminates the
// pre-session on both sides — the caller discards this Session and opens a
// new one to actually connect. Hosts that want to serve discovery and
// handshakes on the same listening Session can instead rely on Handshake's
// built-in A1 detour.

type discPhase uint8

const (
	discIdle discPhase = iota
	discReqWriting
	discReqReading
	discRespReading
	discRespWriting
)

type discState struct {
	phase discPhase
}

// RequestA1 sends an A1 query and drives the exchange to completion across
// possibly many calls. Returns a CodePending error while the transport is
// pending, or (pairs, true, nil) once the A2 response is fully decoded —
// at which point the pre-session is closed. The returned pairs view
// aliases the session buffer and is only valid until the Session is
// reused or discarded.
func (s *Session) RequestA1(t Transport, query A1) (A2Pairs, bool, error) {
	var empty A2Pairs
	if s.st != stateInit {
		return empty, false, wrapErr("request_a1", CodeProtocol, errString("discovery only before handshake"))
	}
	if s.disc.phase == discIdle {
		n, err := EncodeA1(s.buf, query)
		if err != nil {
			return empty, false, wrapErr("request_a1", CodeParse, err)
		}
		s.wp.start(s.buf[:n])
		s.disc.phase = discReqWriting
	}
	if s.disc.phase == discReqWriting {
		ok, err := s.wp.step(t.Write)
		if err != nil {
			s.disc.phase = discIdle
			return empty, false, err
		}
		if !ok {
			return empty, false, wrapErr("request_a1", CodePending, nil)
		}
		s.disc.phase = discReqReading
	}
	body, ok, err := s.rp.step(t.Read, s.buf, len(s.buf))
	if err != nil {
		s.disc.phase = discIdle
		return empty, false, err
	}
	if !ok {
		return empty, false, wrapErr("request_a1", CodePending, nil)
	}
	s.disc.phase = discIdle
	_, pairs, derr := DecodeA2(body)
	if derr != nil {
		return empty, false, derr
	}
	s.obs.Discovery(pairs.Count())
	// A2 carries LastFlag; nothing follows it. Terminate the pre-session.
	s.st = stateClosed
	s.obs.Closed(CodeSessionClosed)
	return pairs, true, nil
}

// RespondA1 serves one discovery exchange on the host side: it reads an A1
// query and replies with an A2 carrying pairs and the LastFlag. Returns the
// received query once the reply has been fully written; the pre-session is
// closed at that point. A received frame that is not an A1 fails with
// CodeParse.
func (s *Session) RespondA1(t Transport, pairs []ProtocolPair) (A1, bool, error) {
	var empty A1
	if s.st != stateInit {
		return empty, false, wrapErr("respond_a1", CodeProtocol, errString("discovery only before handshake"))
	}
	if s.disc.phase == discIdle {
		s.disc.phase = discRespReading
	}
	if s.disc.phase == discRespReading {
		body, ok, err := s.rp.step(t.Read, s.buf, len(s.buf))
		if err != nil {
			s.disc.phase = discIdle
			return empty, false, err
		}
		if !ok {
			return empty, false, wrapErr("respond_a1", CodePending, nil)
		}
		a1, derr := DecodeA1(body)
		if derr != nil {
			s.disc.phase = discIdle
			return empty, false, derr
		}
		s.hs.lastA1 = a1
		s.hs.haveLastA1 = true
		// Encode the reply after the received query so a1.Address (which
		// aliases the front of the buffer) stays valid until we return it.
		n, err := EncodeA2(s.buf[len(body):], true, pairs)
		if err != nil {
			s.disc.phase = discIdle
			return empty, false, err
		}
		s.wp.start(s.buf[len(body) : len(body)+n])
		s.disc.phase = discRespWriting
	}
	ok, err := s.wp.step(t.Write)
	if err != nil {
		s.disc.phase = discIdle
		return empty, false, err
	}
	if !ok {
		return empty, false, wrapErr("respond_a1", CodePending, nil)
	}
	s.disc.phase = discIdle
	s.obs.Discovery(len(pairs))
	s.st = stateClosed
	s.obs.Closed(CodeSessionClosed)
	return s.hs.lastA1, true, nil
}
