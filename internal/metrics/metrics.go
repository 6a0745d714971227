package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Wallet lifecycle
	// ============================================
	WalletsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "privacy_wallet_wallets_generated_total",
			Help: "Total number of ephemeral wallets generated",
		},
		[]string{"privacy_level"},
	)

	WalletsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "privacy_wallet_wallets_deleted_total",
			Help: "Total number of wallets deleted",
		},
		[]string{"trigger"}, // timer, sweep, manual
	)

	ArmedTimers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "privacy_wallet_armed_timers",
		Help: "Number of armed per-wallet expiry timers",
	})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "privacy_wallet_sweep_duration_seconds",
		Help:    "Duration of the periodic expiry sweep",
		Buckets: prometheus.DefBuckets,
	})

	// ============================================
	// Bridge
	// ============================================
	BridgeSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "privacy_wallet_bridge_steps_total",
			Help: "Total number of bridge steps by outcome",
		},
		[]string{"step", "status"},
	)

	BridgeTransactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "privacy_wallet_bridge_transactions_total",
			Help: "Total number of bridge transactions reaching a terminal status",
		},
		[]string{"status"},
	)

	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "privacy_wallet_quote_requests_total",
			Help: "Total number of settlement service requests",
		},
		[]string{"endpoint", "result"},
	)

	QuoteLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "privacy_wallet_quote_request_duration_seconds",
			Help:    "Settlement service request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// ============================================
	// Recovery
	// ============================================
	RecoveriesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "privacy_wallet_recoveries_created_total",
			Help: "Total number of fund recovery records created",
		},
		[]string{"reason"},
	)

	RecoveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "privacy_wallet_recovery_failures_total",
		Help: "Total number of wallets skipped by a recovery sweep because of an error",
	})
)
