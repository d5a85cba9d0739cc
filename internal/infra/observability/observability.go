// Package observability defines the Prometheus metrics exported at /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── HTTP Metrics ───────────────────────────────────────────────────────────

// HTTPRequests tracks handled requests by method and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "questkeep",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests handled, by method and status code.",
}, []string{"method", "code"})

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// LedgerTransactions tracks rewards-engine operations by outcome.
// op is one of toggle_quest, use_item, buy_item; outcome is committed or
// rejected or failed.
var LedgerTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "questkeep",
	Subsystem: "ledger",
	Name:      "transactions_total",
	Help:      "Total ledger transactions by operation and outcome.",
}, []string{"op", "outcome"})

// LedgerRejections tracks rejected operations by reason.
var LedgerRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "questkeep",
	Subsystem: "ledger",
	Name:      "rejections_total",
	Help:      "Total rejected ledger transactions by reason.",
}, []string{"reason"})

// PointsGranted tracks total points credited by dimension.
var PointsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "questkeep",
	Subsystem: "ledger",
	Name:      "points_granted_total",
	Help:      "Total points credited to ledgers, by dimension.",
}, []string{"dimension"})

// PointsSpent tracks total points debited by dimension.
var PointsSpent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "questkeep",
	Subsystem: "ledger",
	Name:      "points_spent_total",
	Help:      "Total points debited from ledgers, by dimension.",
}, []string{"dimension"})

// ActiveSessions tracks the number of live browser sessions.
var ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "questkeep",
	Subsystem: "auth",
	Name:      "active_sessions",
	Help:      "Number of unexpired browser sessions.",
})
