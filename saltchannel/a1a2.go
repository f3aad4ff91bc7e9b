package saltchannel

// A1/A2 are the plaintext pre-handshake discovery messages.
// They are never encrypted and never establish a session.

// A1 query.
type A1 struct {
	AddressType uint8
	Address     []byte
}

// A1BodyLen returns the encoded body length for an A1 query.
func A1BodyLen(addressLen int) int { return headerLen + 1 + 2 + addressLen }

// EncodeA1 writes the A1 body into buf.
func EncodeA1(buf []byte, a A1) (int, error) {
	if len(a.Address) > 0xffff {
		return 0, parseErrorf("encode_a1")
	}
	n := A1BodyLen(len(a.Address))
	if len(buf) < n {
		return 0, parseErrorf("encode_a1")
	}
	buf[0] = MsgTypeA1
	buf[1] = 0
	buf[2] = a.AddressType
	putU16(buf[3:5], uint16(len(a.Address)))
	copy(buf[5:n], a.Address)
	return n, nil
}

// DecodeA1 parses an A1 body. The returned Address aliases body.
func DecodeA1(body []byte) (A1, error) {
	var a A1
	if len(body) < headerLen+1+2 || body[0] != MsgTypeA1 {
		return a, parseErrorf("decode_a1")
	}
	a.AddressType = body[2]
	l := int(getU16(body[3:5]))
	if headerLen+1+2+l != len(body) {
		return a, parseErrorf("decode_a1")
	}
	a.Address = body[5 : 5+l]
	return a, nil
}

// ProtocolPair is one (p1, p2) entry in an A2 response: a 10-byte protocol
// identifier and a 10-byte profile identifier.
type ProtocolPair struct {
	P1 [10]byte
	P2 [10]byte
}

// A2BodyLen returns the encoded body length for an A2 response with n pairs.
func A2BodyLen(n int) int { return headerLen + 1 + n*20 }

// EncodeA2 writes the A2 body into buf.
func EncodeA2(buf []byte, last bool, pairs []ProtocolPair) (int, error) {
	if len(pairs) > MaxA2Pairs {
		return 0, parseErrorf("encode_a2")
	}
	n := A2BodyLen(len(pairs))
	if len(buf) < n {
		return 0, parseErrorf("encode_a2")
	}
	buf[0] = MsgTypeA2
	flags := uint8(0)
	if last {
		flags |= LastFlagBit
	}
	buf[1] = flags
	buf[2] = uint8(len(pairs))
	off := headerLen + 1
	for _, pr := range pairs {
		copy(buf[off:off+10], pr.P1[:])
		off += 10
		copy(buf[off:off+10], pr.P2[:])
		off += 10
	}
	return off, nil
}

// A2Pairs is a view over the pairs of a decoded A2 body. It aliases the
// input buffer and is only valid until the buffer is reused.
type A2Pairs struct {
	body  []byte
	count int
}

// Count returns the number of (p1, p2) pairs in the response.
func (a A2Pairs) Count() int { return a.count }

// At returns pair i by value.
func (a A2Pairs) At(i int) ProtocolPair {
	var pr ProtocolPair
	off := headerLen + 1 + i*20
	copy(pr.P1[:], a.body[off:off+10])
	copy(pr.P2[:], a.body[off+10:off+20])
	return pr
}

// DecodeA2 parses an A2 body. The returned pairs view aliases body.
func DecodeA2(body []byte) (last bool, pairs A2Pairs, err error) {
	if len(body) < headerLen+1 || body[0] != MsgTypeA2 {
		return false, pairs, parseErrorf("decode_a2")
	}
	flags := body[1]
	last = flags&LastFlagBit != 0
	count := int(body[2])
	if count > MaxA2Pairs || A2BodyLen(count) != len(body) {
		return false, pairs, parseErrorf("decode_a2")
	}
	return last, A2Pairs{body: body, count: count}, nil
}
