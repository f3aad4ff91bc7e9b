package observability

import (
	"testing"

	"github.com/saltchannel/saltchannel-go/saltchannel"
)

type recordingObserver struct {
	handshakes int
}

func (r *recordingObserver) Handshake(saltchannel.Role, saltchannel.HandshakeResult, saltchannel.Code) {
	r.handshakes++
}
func (r *recordingObserver) Record(saltchannel.RecordDirection, int, bool) {}
func (r *recordingObserver) Discovery(int)                                {}
func (r *recordingObserver) Closed(saltchannel.Code)                      {}

func TestAtomicObserverDefaultsToNoop(t *testing.T) {
	a := NewAtomicObserver()
	a.Handshake(saltchannel.RoleHost, saltchannel.HandshakeResultOK, "")
}

func TestAtomicObserverSwap(t *testing.T) {
	a := NewAtomicObserver()
	rec := &recordingObserver{}
	a.Set(rec)
	a.Handshake(saltchannel.RoleClient, saltchannel.HandshakeResultOK, "")
	a.Handshake(saltchannel.RoleClient, saltchannel.HandshakeResultFailed, "")
	if rec.handshakes != 2 {
		t.Fatalf("got %d handshake events, want 2", rec.handshakes)
	}
	a.Set(nil)
	a.Handshake(saltchannel.RoleClient, saltchannel.HandshakeResultOK, "")
	if rec.handshakes != 2 {
		t.Fatal("Set(nil) did not revert to the no-op observer")
	}
}
