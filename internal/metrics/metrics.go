// Package metrics exposes the relay's Prometheus collectors. They are
// registered on the default registry and served by the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatrelay_connections_open",
		Help: "Number of live WebSocket connections.",
	})

	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatrelay_rooms_active",
		Help: "Number of rooms with at least one member.",
	})

	MessagesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatrelay_messages_relayed_total",
		Help: "Messages fanned out to rooms, by kind.",
	}, []string{"kind"})

	DeliveriesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatrelay_deliveries_dropped_total",
		Help: "Per-recipient deliveries dropped because the send queue was full.",
	})

	EventsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatrelay_events_rejected_total",
		Help: "Inbound frames rejected at the protocol boundary.",
	})
)
