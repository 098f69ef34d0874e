package hxmount

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of a registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Mounts          *prometheus.CounterVec
	MountFailures   *prometheus.CounterVec
	MountWait       *prometheus.HistogramVec
	StyleInjections *prometheus.CounterVec
	Events          *prometheus.CounterVec
	StateErrors     *prometheus.CounterVec
	Disconnects     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg. Collectors
// that are already registered are reused, so several registries may share
// one Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Mounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hxmount",
			Name:      "mounts_total",
			Help:      "Components that reached the mounted state.",
		}, []string{"tag"}),
		MountFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hxmount",
			Name:      "mount_failures_total",
			Help:      "Mount attempts aborted by a failing mount hook.",
		}, []string{"tag"}),
		MountWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hxmount",
			Name:      "mount_wait_seconds",
			Help:      "Time between construction and mount condition resolution.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"tag", "policy"}),
		StyleInjections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hxmount",
			Name:      "style_injections_total",
			Help:      "Style payloads inserted into a document.",
		}, []string{"id"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hxmount",
			Name:      "events_dispatched_total",
			Help:      "Custom events dispatched by components.",
		}, []string{"tag"}),
		StateErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hxmount",
			Name:      "state_errors_total",
			Help:      "State persistence failures, by operation and reason.",
		}, []string{"op", "reason"}),
		Disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hxmount",
			Name:      "disconnects_total",
			Help:      "Components disconnected, by the status they left.",
		}, []string{"tag", "status"}),
	}

	if reg == nil {
		return m, nil
	}
	register := func(c prometheus.Collector) (prometheus.Collector, error) {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				return are.ExistingCollector, nil
			}
			return nil, err
		}
		return c, nil
	}
	for _, vec := range []**prometheus.CounterVec{&m.Mounts, &m.MountFailures, &m.StyleInjections, &m.Events, &m.StateErrors, &m.Disconnects} {
		c, err := register(*vec)
		if err != nil {
			return nil, err
		}
		*vec = c.(*prometheus.CounterVec)
	}
	c, err := register(m.MountWait)
	if err != nil {
		return nil, err
	}
	m.MountWait = c.(*prometheus.HistogramVec)
	return m, nil
}

func (m *Metrics) mounted(tag string) {
	if m != nil {
		m.Mounts.WithLabelValues(tag).Inc()
	}
}

func (m *Metrics) mountFailed(tag string) {
	if m != nil {
		m.MountFailures.WithLabelValues(tag).Inc()
	}
}

func (m *Metrics) observeWait(tag string, policy MountPolicy, d time.Duration) {
	if m != nil {
		m.MountWait.WithLabelValues(tag, policy.String()).Observe(d.Seconds())
	}
}

func (m *Metrics) styleInjected(id string) {
	if m != nil {
		m.StyleInjections.WithLabelValues(id).Inc()
	}
}

func (m *Metrics) eventDispatched(tag string, n int) {
	if m != nil {
		m.Events.WithLabelValues(tag).Add(float64(n))
	}
}

func (m *Metrics) stateError(op, reason string) {
	if m != nil {
		m.StateErrors.WithLabelValues(op, reason).Inc()
	}
}

func (m *Metrics) disconnected(tag string, from Status) {
	if m != nil {
		m.Disconnects.WithLabelValues(tag, from.String()).Inc()
	}
}
