// Package metrics exposes the service's Prometheus collectors. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eventmatch"

type Metrics struct {
	registrations *prometheus.CounterVec
	votes         *prometheus.CounterVec
	corrections   prometheus.Counter
	qrCodes       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	jobsDropped   prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by admission outcome and reason.",
		}, []string{"outcome", "reason"}),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_toggles_total",
			Help:      "Public question vote toggles by resulting state.",
		}, []string{"state"}),
		corrections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_counter_corrections_total",
			Help:      "Vote counters rewritten by reconciliation.",
		}),
		qrCodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qr_codes_total",
			Help:      "QR code generations by result.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications sent by kind and result.",
		}, []string{"kind", "result"}),
		jobsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_jobs_dropped_total",
			Help:      "Background jobs dropped because the queue was full.",
		}),
	}

	reg.MustRegister(m.registrations, m.votes, m.corrections, m.qrCodes, m.notifications, m.jobsDropped)
	return m
}

func (m *Metrics) Registration(outcome, reason string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) VoteToggled(voted bool) {
	if m == nil {
		return
	}
	state := "removed"
	if voted {
		state = "added"
	}
	m.votes.WithLabelValues(state).Inc()
}

func (m *Metrics) VoteCorrections(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.corrections.Add(float64(n))
}

func (m *Metrics) QRCode(err error) {
	if m == nil {
		return
	}
	m.qrCodes.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) Notification(kind string, err error) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, result(err)).Inc()
}

func (m *Metrics) JobDropped() {
	if m == nil {
		return
	}
	m.jobsDropped.Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
