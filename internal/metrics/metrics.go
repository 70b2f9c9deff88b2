package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	MessagesStored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_stored_total",
		Help: "Total number of chat messages persisted",
	})
	PushDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_delivered_total",
		Help: "Push deliveries that the provider accepted",
	}, []string{"platform"})
	PushFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_failed_total",
		Help: "Push deliveries that failed, by failure class",
	}, []string{"platform", "class"})
	TokensPruned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "push_tokens_pruned_total",
		Help: "Device tokens deleted after the provider reported them dead",
	})
	FeedEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_events_total",
		Help: "Change-feed events consumed, by topic",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(MessagesStored, PushDelivered, PushFailed, TokensPruned, FeedEvents)
}
