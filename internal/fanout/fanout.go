// Package fanout delivers pipeline events over the connection registry.
//
// Admin events go to every admin connection; customer events go only to the
// addressed customer's connections. Delivery is best-effort and at-most-once
// per connection: a failed send is logged, counted, and triggers lazy
// unregistration of that connection without touching its siblings.
package fanout

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/AntoDono/suscart/internal/domain"
	"github.com/AntoDono/suscart/internal/metrics"
	"github.com/AntoDono/suscart/internal/registry"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	channelAdmin    = "admin"
	channelCustomer = "customer"
)

// Broadcaster fans events out over registry snapshots.
type Broadcaster struct {
	registry *registry.Registry
	clock    clockwork.Clock
}

func New(reg *registry.Registry, clock clockwork.Clock) *Broadcaster {
	return &Broadcaster{registry: reg, clock: clock}
}

// BroadcastAdmin emits one event to every admin connection. Admins observe
// every state transition, whether or not any recommendation resulted.
func (b *Broadcaster) BroadcastAdmin(eventType string, payload any) {
	data, err := b.encode(eventType, payload)
	if err != nil {
		slog.Error("Failed to marshal admin event", "event_type", eventType, "error", err)
		return
	}
	b.deliver(b.registry.Admins(), channelAdmin, data)
}

// NotifyCustomer emits one event to the addressed customer's live
// connections. An offline customer receives nothing; there is no queue.
func (b *Broadcaster) NotifyCustomer(customerID uuid.UUID, eventType string, payload any) {
	data, err := b.encode(eventType, payload)
	if err != nil {
		slog.Error("Failed to marshal customer event", "event_type", eventType, "customer_id", customerID.String(), "error", err)
		return
	}
	b.deliver(b.registry.Lookup(customerID), channelCustomer, data)
}

// Envelope builds the wire frame for an event. Exposed for handlers that
// write welcome frames directly on a connection before it joins a round.
func (b *Broadcaster) Envelope(eventType string, payload any) domain.Event {
	return domain.Event{
		Type:      eventType,
		Payload:   payload,
		EmittedAt: b.clock.Now().UTC(),
	}
}

func (b *Broadcaster) encode(eventType string, payload any) ([]byte, error) {
	return json.Marshal(b.Envelope(eventType, payload))
}

// deliver enqueues a frame on each client in the snapshot. A failure on one
// connection never aborts delivery to the others in the same round.
func (b *Broadcaster) deliver(clients []*registry.Client, channel string, data []byte) {
	for _, client := range clients {
		if err := client.Send(data); err != nil {
			metrics.FanoutDeliveryFailuresTotal.WithLabelValues(channel).Inc()
			if errors.Is(err, registry.ErrSendBufferFull) {
				metrics.FanoutSlowClientsEvicted.Inc()
			}
			slog.Warn("Delivery failed, unregistering connection", "channel", channel, "error", err)
			b.registry.Unregister(client.Conn())
			continue
		}
		metrics.FanoutDeliveriesTotal.WithLabelValues(channel).Inc()
	}
}
