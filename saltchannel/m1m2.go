package saltchannel

// M1 is the client's opening handshake message.
type M1 struct {
	PinPeerKey   bool
	ResumeAsked  bool // always ignored by this engine; ticket/resume is not implemented.
	ClientDHPub  [SizePublicKey]byte
	HasPeerSigKey bool
	PeerSigKey   [SizePublicKey]byte
}

// m1BodyLen returns the encoded body length for M1 (excluding the size prefix).
func m1BodyLen(hasPeerSigKey bool) int {
	n := headerLen + len(ProtocolID) + SizePublicKey
	if hasPeerSigKey {
		n += SizePublicKey
	}
	return n
}

// EncodeM1 writes the M1 body into buf (which must be at least
// m1BodyLen(m.HasPeerSigKey) bytes) and returns the number of bytes written.
func EncodeM1(buf []byte, m M1) (int, error) {
	n := m1BodyLen(m.HasPeerSigKey)
	if len(buf) < n {
		return 0, parseErrorf("encode_m1")
	}
	var flags uint8
	if m.PinPeerKey {
		flags |= M1FlagPinPeerKey
	}
	if m.ResumeAsked {
		flags |= M1FlagResume
	}
	buf[0] = MsgTypeM1
	buf[1] = flags
	copy(buf[2:2+len(ProtocolID)], ProtocolID)
	off := 2 + len(ProtocolID)
	copy(buf[off:off+SizePublicKey], m.ClientDHPub[:])
	off += SizePublicKey
	if m.HasPeerSigKey {
		copy(buf[off:off+SizePublicKey], m.PeerSigKey[:])
		off += SizePublicKey
	}
	return off, nil
}

// DecodeM1 parses an M1 body (as received, excluding the size prefix).
func DecodeM1(body []byte) (M1, error) {
	var m M1
	minLen := headerLen + len(ProtocolID) + SizePublicKey
	if len(body) != minLen && len(body) != minLen+SizePublicKey {
		return m, parseErrorf("decode_m1")
	}
	if body[0] != MsgTypeM1 {
		return m, parseErrorf("decode_m1")
	}
	flags := body[1]
	if string(body[2:2+len(ProtocolID)]) != ProtocolID {
		return m, parseErrorf("decode_m1")
	}
	off := 2 + len(ProtocolID)
	m.PinPeerKey = flags&M1FlagPinPeerKey != 0
	m.ResumeAsked = flags&M1FlagResume != 0
	copy(m.ClientDHPub[:], body[off:off+SizePublicKey])
	off += SizePublicKey
	if len(body) == minLen+SizePublicKey {
		m.HasPeerSigKey = true
		copy(m.PeerSigKey[:], body[off:off+SizePublicKey])
		off += SizePublicKey
	}
	return m, nil
}

// M2 is the host's handshake response.
type M2 struct {
	NoSuchServer        bool
	ResumeNotSupported  bool
	HostDHPub           [SizePublicKey]byte
}

const m2BodyLen = headerLen + SizePublicKey

// EncodeM2 writes the M2 body into buf and returns the number of bytes written.
func EncodeM2(buf []byte, m M2) (int, error) {
	if len(buf) < m2BodyLen {
		return 0, parseErrorf("encode_m2")
	}
	var flags uint8
	if m.NoSuchServer {
		flags |= M2FlagNoSuchServer
	}
	if m.ResumeNotSupported {
		flags |= M2FlagResumeNotSupported
	}
	buf[0] = MsgTypeM2
	buf[1] = flags
	copy(buf[2:2+SizePublicKey], m.HostDHPub[:])
	return m2BodyLen, nil
}

// DecodeM2 parses an M2 body.
func DecodeM2(body []byte) (M2, error) {
	var m M2
	if len(body) != m2BodyLen {
		return m, parseErrorf("decode_m2")
	}
	if body[0] != MsgTypeM2 {
		return m, parseErrorf("decode_m2")
	}
	flags := body[1]
	m.NoSuchServer = flags&M2FlagNoSuchServer != 0
	m.ResumeNotSupported = flags&M2FlagResumeNotSupported != 0
	copy(m.HostDHPub[:], body[2:2+SizePublicKey])
	return m, nil
}
