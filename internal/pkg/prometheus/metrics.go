package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sessiond"

// Result labels for Metrics.Requests.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the daemon's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Requests *prometheus.CounterVec
	Sessions prometheus.Gauge
	Swept    prometheus.Counter
}

// NewMetrics builds the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Socket requests handled, by operation and result.",
		}, []string{"op", "result"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Live session entries.",
		}),
		Swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_total",
			Help:      "Entries removed by expiration sweeps.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Sessions, m.Swept)
	}
	return m
}

func (m *Metrics) ObserveRequest(op string, ok bool) {
	if m == nil {
		return
	}
	result := ResultOK
	if !ok {
		result = ResultError
	}
	m.Requests.WithLabelValues(op, result).Inc()
}

func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.Sessions.Set(float64(n))
}

func (m *Metrics) AddSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Swept.Add(float64(n))
}
