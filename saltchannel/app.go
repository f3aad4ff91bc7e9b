package saltchannel

// App/MultiApp plaintext layout (the bytes that get AEAD-sealed, before the
// outer type=6 wire wrapper is added):
//
//	App:      type(1)=5 || flags(1) || timestamp(4 LE) || payload
//	MultiApp: type(1)=11 || flags(1) || timestamp(4 LE) || count(2 LE) || (len(2 LE) || payload)×count

const appHeaderLen = headerLen + 4 // type+flags+timestamp

// AppPlaintextLen returns the plaintext length for a single App message.
func AppPlaintextLen(payloadLen int) int { return appHeaderLen + payloadLen }

// EncodeAppPlaintext writes a single App message's plaintext into buf.
func EncodeAppPlaintext(buf []byte, last bool, timestampMs uint32, payload []byte) (int, error) {
	n := AppPlaintextLen(len(payload))
	if len(buf) < n {
		return 0, parseErrorf("encode_app")
	}
	buf[0] = MsgTypeApp
	flags := uint8(0)
	if last {
		flags |= LastFlagBit
	}
	buf[1] = flags
	putU32(buf[2:6], timestampMs)
	copy(buf[appHeaderLen:n], payload)
	return n, nil
}

// DecodedApp is a view over a decoded App plaintext; Payload aliases the
// input buffer and is only valid until the buffer is reused.
type DecodedApp struct {
	Last        bool
	TimestampMs uint32
	Payload     []byte
}

// DecodeAppPlaintext parses a decrypted single-App plaintext.
func DecodeAppPlaintext(body []byte) (DecodedApp, error) {
	var d DecodedApp
	if len(body) < appHeaderLen || body[0] != MsgTypeApp {
		return d, parseErrorf("decode_app")
	}
	flags := body[1]
	d.Last = flags&LastFlagBit != 0
	d.TimestampMs = getU32(body[2:6])
	d.Payload = body[appHeaderLen:]
	return d, nil
}

// MultiAppPlaintextLen returns the plaintext length for a MultiApp batch of
// the given payload lengths.
func MultiAppPlaintextLen(payloadLens []int) int {
	n := appHeaderLen + 2 // + count
	for _, l := range payloadLens {
		n += 2 + l
	}
	return n
}

// EncodeMultiAppPlaintext writes a MultiApp batch's plaintext into buf.
func EncodeMultiAppPlaintext(buf []byte, last bool, timestampMs uint32, payloads [][]byte) (int, error) {
	if len(payloads) > 0xffff {
		return 0, parseErrorf("encode_multiapp")
	}
	n := appHeaderLen + 2
	for _, p := range payloads {
		if len(p) > 0xffff {
			return 0, parseErrorf("encode_multiapp")
		}
		n += 2 + len(p)
	}
	if len(buf) < n {
		return 0, parseErrorf("encode_multiapp")
	}
	buf[0] = MsgTypeMultiApp
	flags := uint8(0)
	if last {
		flags |= LastFlagBit
	}
	buf[1] = flags
	putU32(buf[2:6], timestampMs)
	off := appHeaderLen
	putU16(buf[off:off+2], uint16(len(payloads)))
	off += 2
	for _, p := range payloads {
		putU16(buf[off:off+2], uint16(len(p)))
		off += 2
		copy(buf[off:off+len(p)], p)
		off += len(p)
	}
	return off, nil
}

// MultiAppCursor iterates the decoded payloads of a MultiApp plaintext
// without allocating: it walks the same underlying buffer.
type MultiAppCursor struct {
	Last        bool
	TimestampMs uint32
	count       int
	remaining   int
	body        []byte
	off         int
}

// DecodeMultiAppPlaintext parses a decrypted MultiApp plaintext header and
// returns a cursor over its contained messages. maxCount bounds decode work;
// 0 disables the check.
func DecodeMultiAppPlaintext(body []byte, maxCount int) (MultiAppCursor, error) {
	var c MultiAppCursor
	if len(body) < appHeaderLen+2 || body[0] != MsgTypeMultiApp {
		return c, parseErrorf("decode_multiapp")
	}
	flags := body[1]
	c.Last = flags&LastFlagBit != 0
	c.TimestampMs = getU32(body[2:6])
	count := int(getU16(body[appHeaderLen : appHeaderLen+2]))
	if maxCount > 0 && count > maxCount {
		return c, parseErrorf("decode_multiapp")
	}
	c.count = count
	c.remaining = count
	c.body = body
	c.off = appHeaderLen + 2
	return c, nil
}

// Count returns the total number of payloads in the batch.
func (c *MultiAppCursor) Count() int { return c.count }

// Next returns the next payload, or ok=false once exhausted.
func (c *MultiAppCursor) Next() (payload []byte, ok bool, err error) {
	if c.remaining == 0 {
		return nil, false, nil
	}
	if c.off+2 > len(c.body) {
		return nil, false, parseErrorf("decode_multiapp")
	}
	l := int(getU16(c.body[c.off : c.off+2]))
	c.off += 2
	if c.off+l > len(c.body) {
		return nil, false, parseErrorf("decode_multiapp")
	}
	payload = c.body[c.off : c.off+l]
	c.off += l
	c.remaining--
	return payload, true, nil
}
