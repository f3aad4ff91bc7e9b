package saltchannel

import "sync"

// Role identifies which side of the handshake a Session plays.
type Role uint8

const (
	RoleHost Role = iota
	RoleClient
)

// state is the top-level protocol state.
type state uint8

const (
	stateInit state = iota
	stateHandshaking
	stateEstablished
	stateClosed
	stateError
)

// SigningKeypair is the session's long-term Ed25519-style identity,
// supplied at NewSession and immutable thereafter.
type SigningKeypair struct {
	Public [SizePublicKey]byte
	Secret [SizeSecretKey]byte
}

// Config configures a Session at creation time.
type Config struct {
	Role      Role
	Provider  Provider
	Buffer    []byte // caller-owned working memory; see MinBufferLen.
	Signing   SigningKeypair

	// AppMax is the largest single App/MultiApp plaintext payload the
	// caller intends to send/receive in one message. It drives the
	// minimum buffer size check.
	AppMax int

	// ExpectedPeerKey, if set, pins the peer's long-term signing key. A
	// client advertises it in M1 (the host refuses with NoSuchServer on
	// mismatch) and additionally checks the key received in M3 against
	// it. A host checks the key received in M4 against it and fails the
	// handshake on mismatch, regardless of whether the client asked for
	// pinning itself.
	ExpectedPeerKey *[SizePublicKey]byte

	// Clock, if non-nil, returns a monotonically non-decreasing
	// millisecond counter. When nil, time fields are transmitted as zero.
	Clock func() uint32

	// TimeRegressionThresholdMs bounds how far a peer timestamp may fall
	// below the previous one before the session fails with
	// CodeTimeViolation. Zero disables the check.
	TimeRegressionThresholdMs uint32

	// MaxMultiAppCount bounds MultiApp batch size on decode. Zero selects
	// DefaultMaxMultiAppCount.
	MaxMultiAppCount int
}

// maxFrameBodyLen returns the largest encrypted frame body a session sized
// for (appMax, maxCount) accepts or produces: type+flags wrapper, sealed
// plaintext, MAC.
func maxFrameBodyLen(appMax, maxCount int) int {
	return headerLen + maxAppPlaintextLen(appMax, maxCount) + SizeAEADOverhead
}

// wireRegionLen returns the size of the portion of Config.Buffer used for
// wire frames (and, during the handshake, the retained M1||M2 transcript):
// max(handshake_max, app_max + crypto_overhead + 4).
func wireRegionLen(appMax, maxCount int) int {
	hs := minHandshakeBufferLen()
	app := maxFrameBodyLen(appMax, maxCount) + sizePrefixLen
	if app > hs {
		return app
	}
	return hs
}

// MinBufferLen returns the minimum buffer size Config.Buffer must have for
// a session using DefaultMaxMultiAppCount: the wire region plus the
// plaintext-assembly scratch region. Sessions configuring a different
// MaxMultiAppCount use MinBufferLenFor.
func MinBufferLen(appMax int) int {
	return MinBufferLenFor(appMax, DefaultMaxMultiAppCount)
}

// MinBufferLenFor is MinBufferLen for an explicit MaxMultiAppCount.
func MinBufferLenFor(appMax, maxMultiAppCount int) int {
	return wireRegionLen(appMax, maxMultiAppCount) + minScratchLen(appMax, maxMultiAppCount)
}

// Session is one end of a Salt Channel: the handshake engine, the
// application-message framer, and the I/O pump, bound together over a
// single caller-owned buffer.
type Session struct {
	role     Role
	provider Provider
	buf      []byte // wire region: carries frames in flight and, during the handshake, the retained M1||M2 transcript.
	scratch  []byte // plaintext-assembly region: never holds wire bytes, so Seal/Open never alias buf.
	signing  SigningKeypair
	appMax   int
	maxFrameBody int // largest encrypted frame body accepted after the handshake.
	maxMultiAppCount int
	timeRegressionThresholdMs uint32
	clock    func() uint32
	t0set    bool
	t0       uint32

	expectedPeerKey *[SizePublicKey]byte

	st state

	// Handshake material. The ephemeral keypair is zeroized once the
	// handshake completes or fails; peerSignPub keeps the peer's signing
	// key learned during the handshake.
	ephPub  [SizePublicKey]byte
	ephSec  [SizePublicKey]byte
	peerSignPub [SizePublicKey]byte

	// Established session material; zeroized on Close/error.
	sessionKey [32]byte
	writeNonce nonceCounter
	readNonce  nonceCounter

	lastReadTimestampMs uint32
	haveLastReadTimestamp bool
	peerClosed bool
	weSentLast bool

	rp readPump
	wp writePump

	hs   handshakeState
	disc discState

	closeOnce sync.Once
	obs       Observer
}

// NewSession creates a Session in its initial state. It validates cfg and
// returns CodeConfig if the buffer is too small or required fields are
// missing.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Provider == nil {
		return nil, wrapErr("init", CodeConfig, errString("missing provider"))
	}
	maxMultiApp := cfg.MaxMultiAppCount
	if maxMultiApp <= 0 {
		maxMultiApp = DefaultMaxMultiAppCount
	}
	if len(cfg.Buffer) < MinBufferLenFor(cfg.AppMax, maxMultiApp) {
		return nil, wrapErr("init", CodeConfig, errString("buffer too small"))
	}
	wireLen := wireRegionLen(cfg.AppMax, maxMultiApp)
	s := &Session{
		role:             cfg.Role,
		provider:         cfg.Provider,
		buf:              cfg.Buffer[:wireLen],
		scratch:          cfg.Buffer[wireLen : wireLen+minScratchLen(cfg.AppMax, maxMultiApp)],
		maxFrameBody:     maxFrameBodyLen(cfg.AppMax, maxMultiApp),
		signing:          cfg.Signing,
		appMax:           cfg.AppMax,
		maxMultiAppCount: maxMultiApp,
		timeRegressionThresholdMs: cfg.TimeRegressionThresholdMs,
		clock:            cfg.Clock,
		expectedPeerKey:  cfg.ExpectedPeerKey,
		st:               stateInit,
		obs:              NoopObserver,
	}
	return s, nil
}

// SetObserver installs an Observer for handshake/record/discovery events.
// A nil obs reverts to the no-op observer.
func (s *Session) SetObserver(obs Observer) {
	if obs == nil {
		obs = NoopObserver
	}
	s.obs = obs
}

// State-check helpers used throughout the engine.

func (s *Session) fail(op string, code Code, err error) error {
	s.st = stateError
	s.zeroizeSecrets()
	// A CodeSessionClosed "failure" during the handshake is the A1/A2
	// detour finishing its job; it is reported via Discovery, not as a
	// failed handshake.
	if op == "handshake" && code != CodeSessionClosed {
		result := HandshakeResultFailed
		if code == CodeNoSuchServer {
			result = HandshakeResultNoSuchServer
		}
		s.obs.Handshake(s.role, result, code)
	}
	s.obs.Closed(code)
	return wrapErr(op, code, err)
}

func (s *Session) zeroizeSecrets() {
	zero(s.ephPub[:])
	zero(s.ephSec[:])
	zero(s.sessionKey[:])
	s.writeNonce = nonceCounter{}
	s.readNonce = nonceCounter{}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Established reports whether the handshake has completed and App/MultiApp
// I/O is allowed.
func (s *Session) Established() bool { return s.st == stateEstablished }

// Close tears the session down: zeroizes all cryptographic material and
// marks the session closed, so subsequent Handshake, Read and Write calls
// fail with CodeSessionClosed (RequestA1/RespondA1 fail with CodeProtocol).
// Close is idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.zeroizeSecrets()
		zero(s.signing.Secret[:])
		s.st = stateClosed
		s.obs.Closed(CodeSessionClosed)
	})
	return nil
}

// stamp returns the current timestamp field to send: milliseconds since t0
// if a clock is configured, else 0.
func (s *Session) stamp() uint32 {
	if s.clock == nil {
		return 0
	}
	now := s.clock()
	if !s.t0set {
		s.t0 = now
		s.t0set = true
	}
	return now - s.t0
}
