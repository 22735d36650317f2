// Package metrics exposes Prometheus instrumentation for update handling
// and notification delivery.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	UpdatesTotal     *prometheus.CounterVec
	FlowCompletions  *prometheus.CounterVec
	BroadcastsSent   prometheus.Counter
	BroadcastsFailed prometheus.Counter
	HandlerDuration  prometheus.Histogram
}

// New registers all collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UpdatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Inbound updates processed, by kind.",
		}, []string{"kind"}),
		FlowCompletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_flow_completions_total",
			Help: "Completed conversation flows, by flow name.",
		}, []string{"flow"}),
		BroadcastsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bot_broadcast_messages_sent_total",
			Help: "Broadcast messages delivered.",
		}),
		BroadcastsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bot_broadcast_messages_failed_total",
			Help: "Broadcast messages that failed to deliver.",
		}),
		HandlerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bot_update_duration_seconds",
			Help:    "Time spent handling one update.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.UpdatesTotal,
		m.FlowCompletions,
		m.BroadcastsSent,
		m.BroadcastsFailed,
		m.HandlerDuration,
	)
	return m
}
