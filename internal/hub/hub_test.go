package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erilali/mcbridge/internal/chat"
	"github.com/erilali/mcbridge/internal/game"
	"github.com/erilali/mcbridge/internal/logger"
	"github.com/erilali/mcbridge/internal/message"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type fakeGame struct {
	events   chan game.Event
	username string

	mu         sync.Mutex
	sent       []string
	sendErr    error
	connects   int
	disconnect int
}

func newFakeGame(username string) *fakeGame {
	return &fakeGame{events: make(chan game.Event, 16), username: username}
}

func (g *fakeGame) Events() <-chan game.Event { return g.events }
func (g *fakeGame) Username() string          { return g.username }

func (g *fakeGame) State() message.ConnectionState { return message.StateConnected }

func (g *fakeGame) Connect() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connects++
}

func (g *fakeGame) Disconnect() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.disconnect++
}

func (g *fakeGame) SendChat(text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return g.sendErr
	}
	g.sent = append(g.sent, text)
	return nil
}

func (g *fakeGame) connectCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connects
}

type categorized struct {
	category message.Category
	payload  message.Payload
}

type fakeChat struct {
	events     chan chat.Event
	sends      chan categorized
	connectErr error
	sendErr    error

	mu           sync.Mutex
	connects     int
	disconnected bool
}

func newFakeChat() *fakeChat {
	return &fakeChat{events: make(chan chat.Event, 16), sends: make(chan categorized, 64)}
}

func (c *fakeChat) Events() <-chan chat.Event { return c.events }
func (c *fakeChat) Ready() bool               { return true }

func (c *fakeChat) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects++
	return c.connectErr
}

func (c *fakeChat) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
}

func (c *fakeChat) SendCategorized(category message.Category, payload message.Payload) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sends <- categorized{category, payload}
	return nil
}

// drain returns every send recorded so far.
func (c *fakeChat) drain() []categorized {
	var out []categorized
	for {
		select {
		case s := <-c.sends:
			out = append(out, s)
		default:
			return out
		}
	}
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func newTestHub(t *testing.T) (*Hub, *fakeGame, *fakeChat) {
	t.Helper()
	g := newFakeGame("DiscordBot")
	c := newFakeChat()
	return NewHub(g, c, nil, 0, logger.Discard()), g, c
}

func chatEvent(source, content string) game.Chat {
	return game.Chat{ChatEvent: message.ChatEvent{SourceUsername: source, Content: content, Kind: message.KindPlayerChat}}
}

func presenceEvent(id uuid.UUID, name string, action message.PresenceAction) game.Presence {
	return game.Presence{PresenceEvent: message.PresenceEvent{PlayerID: id, DisplayName: name, Action: action}}
}

func TestGameChatIsRelayed(t *testing.T) {
	h, _, c := newTestHub(t)

	h.handleGameEvent(chatEvent("Alex", "hello there"))

	sends := c.drain()
	if len(sends) != 1 {
		t.Fatalf("expected exactly one send, got %d", len(sends))
	}
	want := categorized{message.CategoryPlayerChat, message.Payload{Title: "Alex", Body: "hello there"}}
	if sends[0] != want {
		t.Errorf("got %+v, want %+v", sends[0], want)
	}
}

func TestSelfEchoIsSuppressed(t *testing.T) {
	h, _, c := newTestHub(t)

	h.handleGameEvent(chatEvent("DiscordBot", "[Discord] <Bob> hi"))
	if sends := c.drain(); len(sends) != 0 {
		t.Fatalf("expected no sends for self-echo, got %+v", sends)
	}

	// Matching is case-sensitive.
	h.handleGameEvent(chatEvent("discordbot", "hi"))
	if sends := c.drain(); len(sends) != 1 {
		t.Fatalf("expected a different-case name to be relayed, got %d sends", len(sends))
	}
}

func TestInboundMessageFormat(t *testing.T) {
	h, g, _ := newTestHub(t)

	h.handleChatEvent(chat.Message{ChatEvent: message.ChatEvent{
		SourceUsername: "Bob",
		Content:        "anyone online?",
		Kind:           message.KindPlayerChat,
	}})

	if len(g.sent) != 1 {
		t.Fatalf("expected one game send, got %d", len(g.sent))
	}
	if want := "[Discord] <Bob> anyone online?"; g.sent[0] != want {
		t.Errorf("got %q, want %q", g.sent[0], want)
	}
}

func TestInboundDroppedWhileGameDisconnected(t *testing.T) {
	h, g, _ := newTestHub(t)
	g.sendErr = errors.New("not connected")

	h.handleChatEvent(chat.Message{ChatEvent: message.ChatEvent{SourceUsername: "Bob", Content: "hi"}})

	if got := h.Stats().Relayed; got != 0 {
		t.Errorf("expected dropped message not to be counted, got %d", got)
	}
}

func TestJoinThenLeaveUsesCachedName(t *testing.T) {
	h, _, c := newTestHub(t)
	p1 := uuid.New()

	h.handleGameEvent(presenceEvent(p1, "Alice", message.Join))
	h.handleGameEvent(presenceEvent(p1, "", message.Leave))

	sends := c.drain()
	if len(sends) != 2 {
		t.Fatalf("expected two sends, got %d", len(sends))
	}
	if sends[0].category != message.CategoryJoin || sends[0].payload.Title != "Alice" {
		t.Errorf("unexpected join send %+v", sends[0])
	}
	if sends[1].category != message.CategoryLeave || sends[1].payload.Title != "Alice" {
		t.Errorf("unexpected leave send %+v", sends[1])
	}
	if h.Presence.Len() != 0 {
		t.Errorf("expected tracker to be empty, has %d entries", h.Presence.Len())
	}
}

func TestLeaveForUnknownPlayer(t *testing.T) {
	h, _, c := newTestHub(t)
	known := uuid.New()
	h.handleGameEvent(presenceEvent(known, "Alice", message.Join))
	c.drain()

	h.handleGameEvent(presenceEvent(uuid.New(), "", message.Leave))

	sends := c.drain()
	if len(sends) != 1 || sends[0].category != message.CategoryLeave || sends[0].payload.Title != "Unknown" {
		t.Fatalf("expected one Leave send for Unknown, got %+v", sends)
	}
	if name, ok := h.Presence.Lookup(known); !ok || name != "Alice" {
		t.Errorf("unrelated entry was disturbed: %q, %v", name, ok)
	}
}

func TestLeaveRemovesEntryEvenIfSendFails(t *testing.T) {
	h, _, c := newTestHub(t)
	id := uuid.New()
	h.handleGameEvent(presenceEvent(id, "Alice", message.Join))

	c.sendErr = errors.New("channel unavailable")
	h.handleGameEvent(presenceEvent(id, "", message.Leave))

	if _, ok := h.Presence.Lookup(id); ok {
		t.Error("expected entry to be removed")
	}
}

func TestSteveScenario(t *testing.T) {
	h, _, c := newTestHub(t)
	u1 := uuid.New()

	h.handleGameEvent(presenceEvent(u1, "Steve", message.Join))
	h.handleGameEvent(chatEvent("Steve", "hi"))
	h.handleGameEvent(presenceEvent(u1, "", message.Leave))

	want := []categorized{
		{message.CategoryJoin, message.Payload{Title: "Steve"}},
		{message.CategoryPlayerChat, message.Payload{Title: "Steve", Body: "hi"}},
		{message.CategoryLeave, message.Payload{Title: "Steve"}},
	}
	got := c.drain()
	if len(got) != len(want) {
		t.Fatalf("got %d sends, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("send %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
	if _, ok := h.Presence.Lookup(u1); ok {
		t.Error("expected u1 to be removed from the tracker")
	}
}

func TestConnectionNotices(t *testing.T) {
	h, _, c := newTestHub(t)
	h.Presence.Join(uuid.New(), "Stale")

	h.handleGameEvent(game.Connected{})
	h.handleGameEvent(game.Disconnected{Reason: "server closed"})

	sends := c.drain()
	if len(sends) != 2 {
		t.Fatalf("expected two notices, got %+v", sends)
	}
	if sends[0].category != message.CategorySystem || sends[0].payload.Body != "Minecraft bot connected to the server" {
		t.Errorf("unexpected connected notice %+v", sends[0])
	}
	if sends[1].category != message.CategorySystem || sends[1].payload.Body != "Minecraft bot disconnected: server closed" {
		t.Errorf("unexpected disconnected notice %+v", sends[1])
	}
	if h.Presence.Len() != 0 {
		t.Error("expected presence to be reset on a new session")
	}
}

func TestNoticeWhileChatNotReady(t *testing.T) {
	h, _, c := newTestHub(t)
	c.sendErr = errors.New("no channel")

	// Must not panic or block.
	h.handleGameEvent(game.Connected{})
	h.handleGameEvent(game.Error{Err: errors.New("dial failed")})
}

func TestPublishedSubjects(t *testing.T) {
	h, _, _ := newTestHub(t)
	pub := &fakePublisher{}
	h.Publisher = pub

	h.handleGameEvent(game.Connected{})
	h.handleGameEvent(chatEvent("Alex", "hi"))
	h.handleGameEvent(presenceEvent(uuid.New(), "Alex", message.Join))
	h.handleChatEvent(chat.Message{ChatEvent: message.ChatEvent{SourceUsername: "Bob", Content: "yo"}})

	want := []string{
		"mcbridge.status.game_to_chat",
		"mcbridge.chat.game_to_chat",
		"mcbridge.join.game_to_chat",
		"mcbridge.chat.chat_to_game",
	}
	if strings.Join(pub.subjects, ",") != strings.Join(want, ",") {
		t.Fatalf("got subjects %v, want %v", pub.subjects, want)
	}

	var msg message.WSMessage
	if err := json.Unmarshal(pub.payloads[1], &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Version != message.EnvelopeVersion || msg.Username != "Alex" || msg.Data != "hi" {
		t.Errorf("unexpected envelope %+v", msg)
	}
	if got := h.Stats().Relayed; got != 3 {
		t.Errorf("expected status not to count as relayed, got %d", got)
	}
}

func TestStartConnectsChatThenGame(t *testing.T) {
	h, g, c := newTestHub(t)

	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.connects != 1 || g.connectCount() != 1 {
		t.Errorf("expected one connect each, got chat=%d game=%d", c.connects, g.connectCount())
	}

	h.Stop()
	if g.disconnect != 1 || !c.disconnected {
		t.Error("expected Stop to disconnect both transports")
	}
}

func TestStartChatFailureIsFatal(t *testing.T) {
	h, g, c := newTestHub(t)
	c.connectErr = errors.New("invalid token")

	if err := h.Start(context.Background()); err == nil {
		t.Fatal("expected chat login failure to be returned")
	}
	if g.connectCount() != 0 {
		t.Error("game must not connect after chat login failure")
	}
}

func TestStartStaggerHonoursContext(t *testing.T) {
	h, g, _ := newTestHub(t)
	h.StartupStagger = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if g.connectCount() != 0 {
		t.Error("game must not connect when cancelled during the stagger")
	}
}

func TestRunDispatchesEvents(t *testing.T) {
	h, g, c := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	g.events <- chatEvent("Alex", "from game")

	select {
	case s := <-c.sends:
		if s.payload.Body != "from game" {
			t.Errorf("unexpected send %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relay")
	}
}

func TestWebsocketFeed(t *testing.T) {
	h, g, _ := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(h.ServeWs))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Stats().Observers != 1 {
		if time.Now().After(deadline) {
			t.Fatal("observer was never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	g.events <- chatEvent("Alex", "watch this")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg message.WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "chat" || msg.Direction != message.DirectionGameToChat || msg.Username != "Alex" || msg.Data != "watch this" {
		t.Errorf("unexpected feed message %+v", msg)
	}
}
