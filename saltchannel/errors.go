package saltchannel

import "fmt"

// Code is a stable, programmatic error identifier.
type Code string

const (
	// CodePending is not a failure: the transport would have blocked and
	// the caller must invoke the operation again once ready.
	CodePending Code = "transport_pending"
	// CodeTransportFatal surfaces a negative return from a transport callback.
	CodeTransportFatal Code = "transport_fatal"
	// CodeParse indicates malformed wire data.
	CodeParse Code = "parse_error"
	// CodeProtocol indicates a structurally valid message in the wrong
	// state, or an invalid flag combination.
	CodeProtocol Code = "protocol_error"
	// CodeCrypto indicates AEAD or signature verification failure, or a
	// DH/keygen failure.
	CodeCrypto Code = "crypto_error"
	// CodeNoSuchServer indicates the host rejected a pinned peer key.
	CodeNoSuchServer Code = "no_such_server"
	// CodeSessionClosed indicates the session is done: the peer set
	// LastFlag, the session was closed or failed earlier, or an A1/A2
	// exchange ended the pre-session.
	CodeSessionClosed Code = "session_closed"
	// CodeTimeViolation indicates the monotonic timestamp check failed.
	CodeTimeViolation Code = "time_violation"
	// CodeConfig indicates an init-time configuration error (e.g. undersized buffer).
	CodeConfig Code = "config_error"
)

// Error is the engine's structured error type. Op names the operation that
// failed (e.g. "handshake", "write", "read", "request_a1", "respond_a1") for diagnostics;
// Code is the stable taxonomy value callers should branch on.
type Error struct {
	Op   string
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("saltchannel: %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("saltchannel: %s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is implements errors.Is matching purely on Code, so sentinels below
// compare equal to any *Error sharing their code regardless of Op/Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func wrapErr(op string, code Code, err error) error {
	return &Error{Op: op, Code: code, Err: err}
}

// Sentinel errors, one per Code, for errors.Is comparisons without an Op/Err.
var (
	ErrPending       = &Error{Code: CodePending}
	ErrTransportFatal = &Error{Code: CodeTransportFatal}
	ErrParse         = &Error{Code: CodeParse}
	ErrProtocol      = &Error{Code: CodeProtocol}
	ErrCrypto        = &Error{Code: CodeCrypto}
	ErrNoSuchServer  = &Error{Code: CodeNoSuchServer}
	ErrSessionClosed = &Error{Code: CodeSessionClosed}
	ErrTimeViolation = &Error{Code: CodeTimeViolation}
	ErrConfig        = &Error{Code: CodeConfig}
)

// CodeOf extracts the Code from err if it is (or wraps) a *Error, and the
// zero Code otherwise.
func CodeOf(err error) Code {
	var e *Error
	for err != nil {
		if se, ok := err.(*Error); ok {
			e = se
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return ""
	}
	return e.Code
}
