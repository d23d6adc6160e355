// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Proposals         *prometheus.CounterVec
	Notifications     *prometheus.CounterVec
	Reports           *prometheus.CounterVec
	LiveSubscriptions *prometheus.GaugeVec
	EventsPublished   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Proposals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trueq",
			Name:      "proposals_total",
			Help:      "Proposal lifecycle transitions by outcome.",
		}, []string{"outcome"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trueq",
			Name:      "notifications_created_total",
			Help:      "Notification items written, by type.",
		}, []string{"type"}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trueq",
			Name:      "reports_total",
			Help:      "Abuse reports by resulting status.",
		}, []string{"status"}),
		LiveSubscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "trueq",
			Name:      "live_subscriptions",
			Help:      "Open live list subscriptions by stream.",
		}, []string{"stream"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trueq",
			Name:      "events_published_total",
			Help:      "Domain events handed to the event bus, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.Proposals,
		m.Notifications,
		m.Reports,
		m.LiveSubscriptions,
		m.EventsPublished,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
