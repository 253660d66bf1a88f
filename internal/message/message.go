// internal/message/message.go
// Contains the events relayed between the game and chat transports and the
// envelope used to publish them to observers.
package message

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies a ChatEvent.
type EventKind string

const (
	KindPlayerChat   EventKind = "player_chat"
	KindSystemNotice EventKind = "system_notice"
)

// ChatEvent is one unit of relayed message content. Duplicates are not
// deduplicated.
type ChatEvent struct {
	SourceUsername string
	Content        string
	Kind           EventKind
}

type PresenceAction int

const (
	Join PresenceAction = iota
	Leave
)

func (a PresenceAction) String() string {
	switch a {
	case Join:
		return "join"
	case Leave:
		return "leave"
	default:
		return "unknown"
	}
}

// PlayerID identifies a player for the length of a play session.
type PlayerID = uuid.UUID

// PresenceEvent is a join or leave of one player. DisplayName is empty for
// leaves reported by the server.
type PresenceEvent struct {
	PlayerID    PlayerID
	DisplayName string
	Action      PresenceAction
}

// Category selects how a message is rendered on the chat platform.
type Category int

const (
	CategoryPlayerChat Category = iota
	CategoryJoin
	CategoryLeave
	CategorySystem
)

func (c Category) String() string {
	switch c {
	case CategoryPlayerChat:
		return "player_chat"
	case CategoryJoin:
		return "join"
	case CategoryLeave:
		return "leave"
	case CategorySystem:
		return "system"
	default:
		return "unknown"
	}
}

// Payload is the content of a categorized message. Title is the player name
// for chat, join and leave messages; Body carries chat content or a notice.
type Payload struct {
	Title string
	Body  string
}

// ConnectionState is the lifecycle state of one transport.
type ConnectionState int

const (
	StateIdle ConnectionState = iota
	StateConnecting
	StateConnected
	StateDisconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// Relay directions.
const (
	DirectionGameToChat = "game->chat"
	DirectionChatToGame = "chat->game"
)

// WSMessage is the envelope published to feed observers and NATS.
type WSMessage struct {
	Version   string    `json:"version"`
	Type      string    `json:"type"`
	Direction string    `json:"direction"`
	Username  string    `json:"username,omitempty"`
	PlayerID  string    `json:"player_id,omitempty"`
	Data      string    `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const EnvelopeVersion = "1.0"
