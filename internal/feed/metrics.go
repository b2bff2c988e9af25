package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circled_feed_events_published_total",
		Help: "Number of message events published to the feed.",
	})
	eventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circled_feed_events_delivered_total",
		Help: "Number of handler invocations completed across all subscribers.",
	})
	handlerPanics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circled_feed_handler_panics_total",
		Help: "Number of subscriber handler panics recovered by the feed.",
	})
)
