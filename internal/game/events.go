package game

import "github.com/erilali/mcbridge/internal/message"

// Event is emitted by the Transport on its Events channel. The set of
// variants is closed: Connected, Disconnected, Chat, Presence and Error.
type Event interface {
	isGameEvent()
}

// Connected follows a completed handshake and spawn.
type Connected struct{}

// Disconnected reports the loss of a session that had been connected.
type Disconnected struct {
	Reason string
}

type Chat struct {
	message.ChatEvent
}

type Presence struct {
	message.PresenceEvent
}

// Error carries a classified, non-fatal transport failure.
type Error struct {
	Err error
}

func (Connected) isGameEvent()    {}
func (Disconnected) isGameEvent() {}
func (Chat) isGameEvent()         {}
func (Presence) isGameEvent()     {}
func (Error) isGameEvent()        {}
