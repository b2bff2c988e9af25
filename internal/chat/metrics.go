package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messagesAppended = promauto.NewCounter(prometheus.CounterOpts{
	Name: "circled_chat_messages_appended_total",
	Help: "Number of messages accepted into the chat store.",
})
