// internal/hub/hub.go
// Provides the Hub, which relays events between the game and chat transports.
package hub

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/erilali/mcbridge/internal/chat"
	"github.com/erilali/mcbridge/internal/game"
	"github.com/erilali/mcbridge/internal/logger"
	"github.com/erilali/mcbridge/internal/message"
	"github.com/erilali/mcbridge/internal/presence"
)

// GameTransport is the game side as seen by the hub. *game.Transport
// implements it.
type GameTransport interface {
	Events() <-chan game.Event
	Connect()
	Disconnect()
	SendChat(text string) error
	Username() string
	State() message.ConnectionState
}

// ChatTransport is the chat platform side as seen by the hub. *chat.Transport
// implements it.
type ChatTransport interface {
	Events() <-chan chat.Event
	Connect() error
	Disconnect()
	SendCategorized(category message.Category, payload message.Payload) error
	Ready() bool
}

// Publisher mirrors relay events to a message bus. *nats.Conn implements it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Hub owns both transports and the presence tracker. All event handling
// happens on the goroutine running Run, so the tracker needs no locking.
type Hub struct {
	Game     GameTransport
	Chat     ChatTransport
	Presence *presence.Tracker

	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}

	Publisher      Publisher // optional
	Platform       string
	StartupStagger time.Duration
	StartTime      time.Time
	Logger         *logger.Logger

	relayed   atomic.Int64
	observers atomic.Int64
}

// NewHub wires the two transports together. The publisher may be nil.
func NewHub(gameSide GameTransport, chatSide ChatTransport, publisher Publisher, stagger time.Duration, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewLogger("hub")
	}
	return &Hub{
		Game:           gameSide,
		Chat:           chatSide,
		Presence:       presence.NewTracker(),
		Clients:        make(map[*Client]bool),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		done:           make(chan struct{}),
		Publisher:      publisher,
		Platform:       "Discord",
		StartupStagger: stagger,
		StartTime:      time.Now(),
		Logger:         log,
	}
}

// Start logs in to the chat platform, waits the startup stagger so the
// channel is likely resolved, then starts the game session. The stagger is a
// heuristic; game events relayed before the channel resolves are dropped.
func (h *Hub) Start(ctx context.Context) error {
	h.Logger.Info("Starting bridge...")
	if err := h.Chat.Connect(); err != nil {
		return err
	}
	h.Logger.Info("Discord bot started")

	if h.StartupStagger > 0 {
		timer := time.NewTimer(h.StartupStagger)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	h.Game.Connect()
	h.Logger.Info("Minecraft bot started")
	h.Logger.Info("Bridge is running!")
	return nil
}

// Stop disconnects both transports.
func (h *Hub) Stop() {
	h.Logger.Info("Stopping bridge...")
	h.Game.Disconnect()
	h.Chat.Disconnect()
}

// Run is the hub's event loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	gameEvents := h.Game.Events()
	chatEvents := h.Chat.Events()

	for {
		select {
		case ev := <-gameEvents:
			h.handleGameEvent(ev)

		case ev := <-chatEvents:
			h.handleChatEvent(ev)

		case client := <-h.Register:
			h.Clients[client] = true
			h.observers.Store(int64(len(h.Clients)))
			h.Logger.Infof("Observer registered: %s", client.Addr)

		case client := <-h.Unregister:
			h.dropClient(client)

		case <-ctx.Done():
			for client := range h.Clients {
				h.dropClient(client)
			}
			return
		}
	}
}

func (h *Hub) dropClient(client *Client) {
	if _, ok := h.Clients[client]; !ok {
		return
	}
	delete(h.Clients, client)
	close(client.Send)
	h.observers.Store(int64(len(h.Clients)))
	h.Logger.Infof("Observer unregistered: %s", client.Addr)
}

// Stats is a point-in-time view used by the health endpoint.
type Stats struct {
	GameState string        `json:"game_state"`
	ChatReady bool          `json:"chat_ready"`
	Observers int64         `json:"observers"`
	Relayed   int64         `json:"relayed"`
	Uptime    time.Duration `json:"uptime_ns"`
}

// Stats may be called from any goroutine.
func (h *Hub) Stats() Stats {
	return Stats{
		GameState: h.Game.State().String(),
		ChatReady: h.Chat.Ready(),
		Observers: h.observers.Load(),
		Relayed:   h.relayed.Load(),
		Uptime:    time.Since(h.StartTime),
	}
}
