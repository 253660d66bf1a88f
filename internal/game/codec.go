package game

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"

	"github.com/erilali/mcbridge/internal/message"
)

const unknownSource = "Unknown"

// Decode turns one inbound packet into events. Packets the bridge does not
// relay, and text or player-list packets of other kinds, yield nothing.
func Decode(pk packet.Packet) []Event {
	switch pk := pk.(type) {
	case *packet.Text:
		var kind message.EventKind
		switch pk.TextType {
		case packet.TextTypeChat:
			kind = message.KindPlayerChat
		case packet.TextTypeTranslation:
			kind = message.KindSystemNotice
		default:
			return nil
		}
		source := pk.SourceName
		if source == "" {
			source = unknownSource
		}
		return []Event{Chat{message.ChatEvent{
			SourceUsername: source,
			Content:        pk.Message,
			Kind:           kind,
		}}}

	case *packet.PlayerList:
		var action message.PresenceAction
		switch pk.ActionType {
		case packet.PlayerListActionAdd:
			action = message.Join
		case packet.PlayerListActionRemove:
			action = message.Leave
		default:
			return nil
		}
		events := make([]Event, 0, len(pk.Entries))
		for _, entry := range pk.Entries {
			events = append(events, Presence{message.PresenceEvent{
				PlayerID:    entry.UUID,
				DisplayName: entry.Username,
				Action:      action,
			}})
		}
		return events
	}
	return nil
}

// chatPacket encodes an outbound chat message attributed to source.
func chatPacket(source, text string) *packet.Text {
	return &packet.Text{
		TextType:         packet.TextTypeChat,
		NeedsTranslation: false,
		SourceName:       source,
		Message:          text,
		XUID:             "",
		PlatformChatID:   "",
	}
}

// commandPacket encodes a command request issued as the player. A leading
// slash is stripped.
func commandPacket(command string) *packet.CommandRequest {
	return &packet.CommandRequest{
		CommandLine: strings.TrimPrefix(command, "/"),
		CommandOrigin: protocol.CommandOrigin{
			Origin: protocol.CommandOriginPlayer,
			UUID:   uuid.New(),
		},
		Internal: false,
	}
}
