package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IncomingAppCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fix_incoming_app_messages",
		Help: "The total number of incoming application-level FIX messages",
	}, []string{"msg_type"})

	IncomingAdminCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fix_incoming_admin_messages",
		Help: "The total number of incoming admin-level FIX messages",
	}, []string{"msg_type"})

	OutgoingOrderCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fix_outgoing_orders",
		Help: "The total number of outgoing order messages",
	}, []string{"operation"})

	ExecutionReportCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fix_execution_reports",
		Help: "The total number of execution reports received",
	})

	CancelRejectCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fix_cancel_rejects",
		Help: "The total number of order cancel rejects received",
	})

	MarketDataTickCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fix_market_data_ticks",
		Help: "The total number of market data ticks emitted",
	})

	DroppedMessageCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fix_dropped_messages",
		Help: "The total number of messages dropped for unknown sessions",
	})

	OutgoingKafkaCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outgoing_kafka",
		Help: "The total number of events published to kafka",
	})

	SessionErrorCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fix_session_errors",
		Help: "The total number of unrecoverable session errors",
	})
)
