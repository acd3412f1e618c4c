// Package metrics exposes the ambient Prometheus instrumentation for RPC
// retries, cycle outcomes and withdraw latency (C10).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RPCCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rpc_calls_total",
		Help: "Total RPC calls issued by the solana client, by method.",
	}, []string{"method"})

	RPCRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rpc_retries_total",
		Help: "Total RPC retries, by reason (rate_limited).",
	}, []string{"reason"})

	RPCSendLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rpc_send_latency_seconds",
		Help:    "Latency of build_and_send end-to-end, including confirm polling.",
		Buckets: prometheus.DefBuckets,
	}, []string{"label"})

	CyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cycles_total",
		Help: "Total cycles completed, by outcome (done, aborted).",
	}, []string{"outcome"})

	WithdrawLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "withdraw_latency_seconds",
		Help:    "Time from Monitoring phase entry to a confirmed withdraw transaction.",
		Buckets: prometheus.DefBuckets,
	})

	WSReconnectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_reconnects_total",
		Help: "Total WebSocket reconnects performed by the monitor.",
	})
)

func init() {
	prometheus.MustRegister(
		RPCCallsTotal,
		RPCRetriesTotal,
		RPCSendLatencySeconds,
		CyclesTotal,
		WithdrawLatencySeconds,
		WSReconnectsTotal,
	)
}
