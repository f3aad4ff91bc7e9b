// Package observability provides AtomicObserver, a runtime-swappable
// saltchannel.Observer, and the prom subpackage, a Prometheus exporter
// implementing the same interface.
package observability

import (
	"sync"
	"sync/atomic"

	"github.com/saltchannel/saltchannel-go/saltchannel"
)

// AtomicObserver swaps its delegate Observer at runtime, so a session can be
// constructed before the final metrics sink is wired up (or have its sink
// replaced without tearing the session down).
type AtomicObserver struct {
	once sync.Once
	v    atomic.Value
}

type observerHolder struct {
	obs saltchannel.Observer
}

// NewAtomicObserver returns an initialized atomic observer delegating to
// saltchannel.NoopObserver until Set is called.
func NewAtomicObserver() *AtomicObserver {
	a := &AtomicObserver{}
	a.once.Do(func() { a.v.Store(&observerHolder{obs: saltchannel.NoopObserver}) })
	return a
}

// Set replaces the delegate, falling back to the no-op observer on nil.
func (a *AtomicObserver) Set(obs saltchannel.Observer) {
	if obs == nil {
		obs = saltchannel.NoopObserver
	}
	a.once.Do(func() { a.v.Store(&observerHolder{obs: saltchannel.NoopObserver}) })
	a.v.Store(&observerHolder{obs: obs})
}

func (a *AtomicObserver) load() saltchannel.Observer {
	a.once.Do(func() { a.v.Store(&observerHolder{obs: saltchannel.NoopObserver}) })
	return a.v.Load().(*observerHolder).obs
}

func (a *AtomicObserver) Handshake(role saltchannel.Role, result saltchannel.HandshakeResult, code saltchannel.Code) {
	a.load().Handshake(role, result, code)
}

func (a *AtomicObserver) Record(dir saltchannel.RecordDirection, plaintextBytes int, last bool) {
	a.load().Record(dir, plaintextBytes, last)
}

func (a *AtomicObserver) Discovery(pairCount int) { a.load().Discovery(pairCount) }

func (a *AtomicObserver) Closed(code saltchannel.Code) { a.load().Closed(code) }
