// Package netcb adapts a net.Conn to saltchannel's non-blocking
// ReadFunc/WriteFunc callback pair by setting a deadline one millisecond
// ahead on every call: a socket read/write that would otherwise wait for
// data instead returns with a timeout once that window has passed, which
// this package maps to the engine's "0, nil" pending contract. (An
// already-elapsed deadline would not do: the net package then fails the
// call without attempting any transfer.)
package netcb

import (
	"net"
	"time"

	"github.com/saltchannel/saltchannel-go/saltchannel"
)

// Conn wraps a net.Conn and exposes it as a saltchannel.Transport.
type Conn struct {
	c net.Conn
}

// New wraps c. The caller remains responsible for closing c.
func New(c net.Conn) *Conn {
	return &Conn{c: c}
}

// Transport returns the non-blocking Read/Write callback pair the engine drives I/O through.
func (w *Conn) Transport() saltchannel.Transport {
	return saltchannel.Transport{Read: w.Read, Write: w.Write}
}

func (w *Conn) Read(p []byte) (int, error) {
	if err := w.c.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return 0, err
	}
	n, err := w.c.Read(p)
	if err != nil {
		// A net.Conn may return n > 0 alongside a timeout error if some
		// bytes were already read before the deadline hit; the timeout is
		// folded away and those n bytes are reported as transferred.
		if isTimeout(err) {
			return n, nil
		}
		return n, err
	}
	return n, nil
}

func (w *Conn) Write(p []byte) (int, error) {
	if err := w.c.SetWriteDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return 0, err
	}
	n, err := w.c.Write(p)
	if err != nil {
		if isTimeout(err) {
			return n, nil
		}
		return n, err
	}
	return n, nil
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
