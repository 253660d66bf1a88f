package chat

import "github.com/erilali/mcbridge/internal/message"

// Event is emitted by the Transport. Variants: Ready, Message and Error.
type Event interface {
	isChatEvent()
}

// Ready follows the platform session becoming ready and the target channel
// resolution attempt.
type Ready struct {
	ChannelResolved bool
}

// Message is an inbound message from the target channel.
type Message struct {
	message.ChatEvent
}

type Error struct {
	Err error
}

func (Ready) isChatEvent()   {}
func (Message) isChatEvent() {}
func (Error) isChatEvent()   {}
