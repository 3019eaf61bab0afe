package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesSent counts accepted (persisted) messages.
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total chat messages persisted",
		},
	)

	// MessagesDelivered counts delivery outcomes: "live" when the receiver
	// had a connection, "stored" when the message waits for the next poll.
	MessagesDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_delivered_total",
			Help: "Total chat message deliveries by result",
		},
		[]string{"result"},
	)

	// TypingEvents counts relayed typing signals.
	TypingEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_typing_events_total",
			Help: "Total typing signals relayed",
		},
	)

	// ConnectionsActive tracks live websocket connections.
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_ws_connections",
			Help: "Number of currently open chat websocket connections",
		},
	)
)
