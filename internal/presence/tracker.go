// internal/presence/tracker.go
package presence

import "github.com/erilali/mcbridge/internal/message"

// UnknownName is reported for players that leave without a recorded join.
const UnknownName = "Unknown"

// Tracker maps player identity to the last known display name. It is owned by
// the hub's event loop and is not safe for concurrent use.
type Tracker struct {
	names map[message.PlayerID]string
}

func NewTracker() *Tracker {
	return &Tracker{names: make(map[message.PlayerID]string)}
}

// Join records the display name for id, replacing any previous one.
func (t *Tracker) Join(id message.PlayerID, displayName string) {
	t.names[id] = displayName
}

// Leave returns the recorded name for id and forgets it. An unknown id yields
// UnknownName and removes nothing.
func (t *Tracker) Leave(id message.PlayerID) string {
	name, ok := t.names[id]
	if !ok {
		return UnknownName
	}
	delete(t.names, id)
	return name
}

// Lookup returns the recorded name for id.
func (t *Tracker) Lookup(id message.PlayerID) (string, bool) {
	name, ok := t.names[id]
	return name, ok
}

func (t *Tracker) Len() int { return len(t.names) }

// Reset forgets every player. The game session's player list is resent in
// full after a reconnect.
func (t *Tracker) Reset() {
	clear(t.names)
}
