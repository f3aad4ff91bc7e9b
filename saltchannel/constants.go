package saltchannel

// ProtocolID is the fixed 10-byte identifier carried in M1.
const ProtocolID = "SCv2------"

// Message types. The first byte of every message body, plaintext or
// encrypted, identifies its kind.
const (
	MsgTypeM1       uint8 = 1
	MsgTypeM2       uint8 = 2
	MsgTypeM3       uint8 = 3
	MsgTypeM4       uint8 = 4
	MsgTypeApp      uint8 = 5
	MsgTypeEncrypted uint8 = 6 // wraps App(5) or MultiApp(11) once encrypted.
	MsgTypeA1       uint8 = 8
	MsgTypeA2       uint8 = 9
	MsgTypeMultiApp uint8 = 11
)

// M1 flag bits.
const (
	M1FlagPinPeerKey uint8 = 1 << 0 // client included a peer-sig-key to pin.
	M1FlagResume     uint8 = 1 << 4 // ticket/resume support requested; always ignored.
)

// M2 flag bits.
const (
	M2FlagNoSuchServer  uint8 = 1 << 0
	M2FlagResumeNotSupported uint8 = 1 << 4
)

// LastFlagBit is the high bit of the flags byte in App/MultiApp/A2,
// signalling that no further messages will follow from this side.
const LastFlagBit uint8 = 1 << 7

// Fixed field sizes (bytes).
const (
	SizePublicKey    = 32
	SizeSecretKey    = 64
	SizeSignature    = 64
	SizeNonce        = 24
	SizeAEADOverhead = 16
	SizeHash         = 64 // SHA-512.
)

// sizePrefixLen is the 4-byte little-endian length prefix on every wire frame.
const sizePrefixLen = 4

// headerLen is the 2-byte type+flags header at the start of every message body.
const headerLen = 2

// Signature input labels.
const (
	SigLabelHost   = "SC-SIG01"
	SigLabelClient = "SC-SIG02"
)

// DefaultMaxMultiAppCount bounds decode work for MultiApp batches. The
// wire format's count field allows up to 65535 entries; a ceiling keeps a
// hostile batch header from turning one frame into unbounded parse work.
const DefaultMaxMultiAppCount = 127

// MaxA2Pairs is the maximum number of (p1, p2) protocol pairs an A2 message
// may carry.
const MaxA2Pairs = 127

// minHandshakeBufferLen is the minimum wire-region buffer size (bytes)
// required to hold the largest possible M1+M2 transcript (retained for the
// signature transcript until M4) plus the full M3/M4 encrypted frame body,
// type+flags header included.
func minHandshakeBufferLen() int {
	maxM1 := m1BodyLen(true)
	m2 := m2BodyLen
	m3m4Frame := headerLen + m3m4PlaintextLen + SizeAEADOverhead
	return maxM1 + m2 + m3m4Frame
}

// maxAppPlaintextLen is the largest App/MultiApp plaintext a session sized
// for (appMax, maxCount) can carry: the common type/flags/timestamp header,
// the MultiApp count field, one 2-byte length field per batched payload,
// and appMax payload bytes in total.
func maxAppPlaintextLen(appMax, maxCount int) int {
	return appHeaderLen + 2 + 2*maxCount + appMax
}

// minScratchLen is the minimum size of the plaintext-assembly scratch
// region: large enough to stage either an M3/M4 plaintext or one
// App/MultiApp plaintext, before it is sealed into the wire region (and,
// on the read side, to receive the opened plaintext). Keeping this
// separate from the wire region (rather than reusing it in place) is what
// lets Seal/Open run without their source/destination slices overlapping,
// with no heap allocation on the hot path.
func minScratchLen(appMax, maxCount int) int {
	app := maxAppPlaintextLen(appMax, maxCount)
	if app > m3m4PlaintextLen {
		return app
	}
	return m3m4PlaintextLen
}
