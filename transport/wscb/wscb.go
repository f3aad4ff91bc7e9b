// Package wscb adapts a gorilla/websocket connection to saltchannel's
// non-blocking ReadFunc/WriteFunc callback pair. Each engine Write call
// becomes exactly one binary websocket message (WriteMessage is
// all-or-nothing, so partial writes never occur); each websocket message
// read is buffered internally and drained across as many engine Read
// calls as it takes to exhaust it, since the engine may ask for fewer
// bytes than one message holds.
package wscb

import (
	"errors"
	"net"
	"time"

	"github.com/gorilla/websocket"
	"github.com/saltchannel/saltchannel-go/saltchannel"
)

// ErrNonBinaryMessage is returned when a text or control message arrives
// where saltchannel traffic (always binary) was expected.
var ErrNonBinaryMessage = errors.New("wscb: unexpected non-binary websocket message")

// Conn wraps a *websocket.Conn and exposes it as a saltchannel.Transport.
type Conn struct {
	c       *websocket.Conn
	pending []byte
	off     int
}

// New wraps c. The caller remains responsible for closing c.
func New(c *websocket.Conn) *Conn {
	return &Conn{c: c}
}

// Transport returns the non-blocking Read/Write callback pair the engine drives I/O through.
func (w *Conn) Transport() saltchannel.Transport {
	return saltchannel.Transport{Read: w.Read, Write: w.Write}
}

func (w *Conn) Read(p []byte) (int, error) {
	if w.off < len(w.pending) {
		n := copy(p, w.pending[w.off:])
		w.off += n
		return n, nil
	}
	if err := w.c.SetReadDeadline(time.Now()); err != nil {
		return 0, err
	}
	mt, b, err := w.c.ReadMessage()
	if err != nil {
		if isTimeout(err) {
			return 0, nil
		}
		return 0, err
	}
	if mt != websocket.BinaryMessage {
		return 0, ErrNonBinaryMessage
	}
	w.pending = b
	w.off = copy(p, b)
	return w.off, nil
}

func (w *Conn) Write(p []byte) (int, error) {
	if err := w.c.SetWriteDeadline(time.Now()); err != nil {
		return 0, err
	}
	err := w.c.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		if isTimeout(err) {
			return 0, nil
		}
		return 0, err
	}
	return len(p), nil
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
