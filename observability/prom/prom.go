// Package prom exports saltchannel.Observer events as Prometheus metrics.
package prom

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saltchannel/saltchannel-go/saltchannel"
)

// NewRegistry returns a fresh Prometheus registry.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// Handler returns a Prometheus HTTP handler bound to the registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Observer exports session lifecycle metrics to Prometheus.
type Observer struct {
	handshakeTotal *prometheus.CounterVec
	recordTotal    *prometheus.CounterVec
	recordBytes    *prometheus.CounterVec
	discoveryTotal prometheus.Counter
	discoveryPairs prometheus.Histogram
	closedTotal    *prometheus.CounterVec
}

// NewObserver registers session metrics on the registry.
func NewObserver(reg *prometheus.Registry) *Observer {
	o := &Observer{
		handshakeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saltchannel_handshake_total",
			Help: "Completed handshake attempts by role and result.",
		}, []string{"role", "result"}),
		recordTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saltchannel_record_total",
			Help: "App/MultiApp frames encrypted or decrypted, by direction.",
		}, []string{"direction"}),
		recordBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saltchannel_record_plaintext_bytes_total",
			Help: "Plaintext bytes carried by App/MultiApp frames, by direction.",
		}, []string{"direction"}),
		discoveryTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saltchannel_discovery_total",
			Help: "A1/A2 discovery exchanges completed.",
		}),
		discoveryPairs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "saltchannel_discovery_pairs",
			Help:    "Protocol pair count carried by each A2 response.",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64, 127},
		}),
		closedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saltchannel_closed_total",
			Help: "Session teardowns, by terminal code.",
		}, []string{"code"}),
	}
	reg.MustRegister(
		o.handshakeTotal,
		o.recordTotal,
		o.recordBytes,
		o.discoveryTotal,
		o.discoveryPairs,
		o.closedTotal,
	)
	return o
}

func (o *Observer) Handshake(role saltchannel.Role, result saltchannel.HandshakeResult, code saltchannel.Code) {
	o.handshakeTotal.WithLabelValues(roleLabel(role), string(result)).Inc()
	_ = code
}

func (o *Observer) Record(dir saltchannel.RecordDirection, plaintextBytes int, last bool) {
	o.recordTotal.WithLabelValues(string(dir)).Inc()
	o.recordBytes.WithLabelValues(string(dir)).Add(float64(plaintextBytes))
	_ = last
}

func (o *Observer) Discovery(pairCount int) {
	o.discoveryTotal.Inc()
	o.discoveryPairs.Observe(float64(pairCount))
}

func (o *Observer) Closed(code saltchannel.Code) {
	o.closedTotal.WithLabelValues(string(code)).Inc()
}

func roleLabel(r saltchannel.Role) string {
	if r == saltchannel.RoleHost {
		return "host"
	}
	return "client"
}
