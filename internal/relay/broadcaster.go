package relay

import (
	"log"

	"chatrelay/internal/metrics"
)

// Broadcaster fans messages out to a room's roster. It looks connections up
// through the registry and never owns them.
type Broadcaster struct {
	reg *Registry
}

func NewBroadcaster(reg *Registry) *Broadcaster {
	return &Broadcaster{reg: reg}
}

// Broadcast delivers the message to every member of the room except the
// optionally excluded connection (empty excludeID means no exclusion).
// Delivery is best-effort: a recipient whose queue is full is skipped and
// the rest still receive the message. Broadcasting to an unknown or empty
// room is a silent no-op.
func (b *Broadcaster) Broadcast(roomCode string, msg Message, excludeID string) {
	data, err := EncodeReceiveMessage(msg)
	if err != nil {
		log.Printf("[Broadcast] encode error: %v", err)
		return
	}

	kind := "chat"
	if msg.IsSystem() {
		kind = "system"
	}
	metrics.MessagesRelayed.WithLabelValues(kind).Inc()

	b.reg.forEachMember(roomCode, func(c *Client) {
		if c.ID == excludeID {
			return
		}
		select {
		case c.Send <- data:
		default:
			// Queue full: drop for this recipient, keep going.
			metrics.DeliveriesDropped.Inc()
			log.Printf("[Broadcast] dropping delivery to %s in room %s", c.ID, roomCode)
		}
	})
}

// NotifySystemJoin announces a new member to the whole roster, the joiner
// included. The join and the notice are independent, so the joining client
// sees its own arrival.
func (b *Broadcaster) NotifySystemJoin(roomCode, name string) {
	b.Broadcast(roomCode, systemJoinMessage(name), "")
}
