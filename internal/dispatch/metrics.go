package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// notificationsSent counts successfully delivered messages by kind.
	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_notifications_sent_total",
			Help: "Total number of notifications delivered.",
		},
		[]string{"kind"},
	)

	// notificationsFailed counts deliveries that exhausted all attempts.
	notificationsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_notifications_failed_total",
			Help: "Total number of notifications that exhausted delivery attempts.",
		},
		[]string{"kind"},
	)

	// notificationsBatched counts events parked in a batch window instead
	// of being sent immediately.
	notificationsBatched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_notifications_batched_total",
			Help: "Total number of events added to a pending batch.",
		},
	)

	// batchFlushes counts flushes by trigger (event or sweep).
	batchFlushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_batch_flushes_total",
			Help: "Total number of batch flushes.",
		},
		[]string{"trigger"},
	)

	// batchSize records how many events each flushed batch carried.
	batchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_batch_size",
			Help:    "Number of events per flushed batch.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)

	// sendRetries counts retried send attempts by reason.
	sendRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_send_retries_total",
			Help: "Total number of retried send attempts.",
		},
		[]string{"reason"},
	)

	// transactionsFetched counts transactions returned by upstream polls.
	transactionsFetched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_transactions_fetched_total",
			Help: "Total number of transactions returned by upstream polls.",
		},
	)

	// transactionsNew counts transactions seen for the first time.
	transactionsNew = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_transactions_new_total",
			Help: "Total number of previously unseen transactions.",
		},
	)

	// remindersCancelled counts reminders cancelled before firing by reason
	// (postponed, cancelled, stale).
	remindersCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_reminders_cancelled_total",
			Help: "Total number of game reminders cancelled before firing.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		notificationsSent,
		notificationsFailed,
		notificationsBatched,
		batchFlushes,
		batchSize,
		sendRetries,
		transactionsFetched,
		transactionsNew,
		remindersCancelled,
	)
}
