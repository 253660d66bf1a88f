// internal/hub/nats.go
package hub

import (
	"strings"

	"github.com/erilali/mcbridge/internal/message"
)

const subjectPrefix = "mcbridge"

// natsSubject maps a relay event to its subject, e.g.
// mcbridge.chat.game_to_chat or mcbridge.join.game_to_chat.
func natsSubject(msg message.WSMessage) string {
	direction := strings.NewReplacer("->", "_to_").Replace(msg.Direction)
	return subjectPrefix + "." + msg.Type + "." + direction
}

// publishToNATS mirrors a relay event. It is best-effort and does nothing
// when no publisher is configured.
func (h *Hub) publishToNATS(msg message.WSMessage, data []byte) {
	if h.Publisher == nil {
		return
	}
	if err := h.Publisher.Publish(natsSubject(msg), data); err != nil {
		h.Logger.Errorf("Failed to publish relay event to NATS: %v", err)
	}
}
