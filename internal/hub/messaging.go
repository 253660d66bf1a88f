// internal/hub/messaging.go
package hub

import (
	"encoding/json"
	"time"

	"github.com/erilali/mcbridge/internal/message"
)

func envelope(kind, direction, username, playerID, data string) message.WSMessage {
	return message.WSMessage{
		Version:   message.EnvelopeVersion,
		Type:      kind,
		Direction: direction,
		Username:  username,
		PlayerID:  playerID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// publish counts a relayed event and mirrors it to observers and NATS.
func (h *Hub) publish(msg message.WSMessage) {
	h.relayed.Add(1)
	h.mirror(msg)
}

// publishStatus mirrors a game session change without counting it as relayed.
func (h *Hub) publishStatus(detail string) {
	h.mirror(envelope("status", message.DirectionGameToChat, "", "", detail))
}

func (h *Hub) mirror(msg message.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.Logger.Errorf("Failed to marshal relay event: %v", err)
		return
	}
	h.BroadcastMessage(data)
	h.publishToNATS(msg, data)
}

// BroadcastMessage sends data to every observer. It must run on the hub's
// event loop. Observers whose buffer is full are dropped.
func (h *Hub) BroadcastMessage(data []byte) {
	for client := range h.Clients {
		select {
		case client.Send <- data:
		default:
			h.Logger.Warnf("Observer %s is too slow, dropping it", client.Addr)
			h.dropClient(client)
		}
	}
}
