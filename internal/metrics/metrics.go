package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_sent_total",
		Help: "Messages accepted by the send pipeline and persisted.",
	})

	SendRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_send_rejected_total",
		Help: "Send attempts rejected before persistence.",
	}, []string{"reason"})

	FeedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_feed_events_total",
		Help: "Message-insert events consumed from the change feed.",
	})

	FeedDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_feed_dropped_total",
		Help: "Feed events dropped because a subscriber buffer was full.",
	})

	FanoutFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_fanout_failures_total",
		Help: "Best-effort notification publishes that failed.",
	})

	GuestSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_guest_sessions_total",
		Help: "Guest sessions created, by issuance mode.",
	}, []string{"mode"})
)

// Handler returns an http.Handler for Prometheus scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
