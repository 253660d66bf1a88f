// internal/chat/transport.go
// Owns the session to the chat platform: login, target channel resolution,
// inbound filtering and queued outbound sends.
package chat

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/erilali/mcbridge/internal/config"
	bridgeerrors "github.com/erilali/mcbridge/internal/errors"
	"github.com/erilali/mcbridge/internal/logger"
	"github.com/erilali/mcbridge/internal/message"
)

const (
	eventBufferSize  = 256
	outboxBufferSize = 256
)

// Session is the part of *discordgo.Session the transport uses.
type Session interface {
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// NewSession creates a bot session with the intents needed to read guild
// messages.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildMessages | discordgo.IntentMessageContent
	return s, nil
}

type outbound struct {
	channelID string
	content   string
	embed     *discordgo.MessageEmbed
	label     string
}

// Transport relays messages to and from a single target channel. The
// platform library reconnects its own gateway; the transport only tracks
// readiness and resolves the channel once.
type Transport struct {
	cfg     config.ChatConfig
	session Session
	logger  *logger.Logger
	events  chan Event
	outbox  chan outbound
	done    chan struct{}
	now     func() time.Time

	resolveOnce sync.Once
	writerOnce  sync.Once
	closeOnce   sync.Once

	mu          sync.Mutex
	state       message.ConnectionState
	selfID      string
	channelID   string // resolved target; empty until resolution succeeds
	channelName string
}

func NewTransport(cfg config.ChatConfig, session Session, log *logger.Logger) *Transport {
	if log == nil {
		log = logger.NewLogger("chat")
	}
	t := &Transport{
		cfg:     cfg,
		session: session,
		logger:  log,
		events:  make(chan Event, eventBufferSize),
		outbox:  make(chan outbound, outboxBufferSize),
		done:    make(chan struct{}),
		now:     time.Now,
		state:   message.StateIdle,
	}
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) { t.handleReady(r) })
	session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) { t.handleMessage(m) })
	session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) {
		t.logger.Warn("Discord gateway disconnected, waiting for library reconnect")
	})
	session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Resumed) {
		t.logger.Info("Discord gateway session resumed")
	})
	return t
}

func (t *Transport) Events() <-chan Event { return t.events }

func (t *Transport) State() message.ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Ready reports whether the target channel is resolved and sends are
// accepted.
func (t *Transport) Ready() bool {
	_, ok := t.target()
	return ok
}

// Connect logs in. Readiness is reported later by a Ready event.
func (t *Transport) Connect() error {
	select {
	case <-t.done:
		return bridgeerrors.NewConnectionError("login", "", 0, fmt.Errorf("transport closed"))
	default:
	}
	t.mu.Lock()
	if t.state != message.StateIdle {
		t.mu.Unlock()
		t.logger.Info("Discord session already open")
		return nil
	}
	t.state = message.StateConnecting
	t.mu.Unlock()

	t.writerOnce.Do(func() { go t.writeLoop() })
	if err := t.session.Open(); err != nil {
		t.mu.Lock()
		t.state = message.StateIdle
		t.mu.Unlock()
		t.logger.WithError(err).Error("Failed to login to Discord")
		return bridgeerrors.NewConnectionError("login", "", 0, err)
	}
	t.logger.Info("Discord session opened")
	return nil
}

func (t *Transport) handleReady(r *discordgo.Ready) {
	t.mu.Lock()
	if r.User != nil {
		t.selfID = r.User.ID
	}
	if t.state == message.StateConnecting {
		t.state = message.StateConnected
	}
	t.mu.Unlock()
	if r.User != nil {
		t.logger.Infof("Discord bot logged in as %s", r.User.String())
	}

	t.resolveOnce.Do(t.resolveChannel)
	t.emit(Ready{ChannelResolved: t.Ready()})
}

func (t *Transport) resolveChannel() {
	ch, err := t.session.Channel(t.cfg.ChannelID)
	if err != nil {
		t.logger.WithError(err).Error("Failed to fetch target channel")
		t.emit(Error{Err: fmt.Errorf("resolve channel %s: %w", t.cfg.ChannelID, err)})
		return
	}
	if !isTextChannel(ch.Type) {
		t.logger.Errorf("Target channel %s is not a text channel", t.cfg.ChannelID)
		return
	}
	t.mu.Lock()
	t.channelID = ch.ID
	t.channelName = ch.Name
	t.mu.Unlock()
	t.logger.Infof("Target channel set: %s", ch.Name)
}

func isTextChannel(kind discordgo.ChannelType) bool {
	switch kind {
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildVoice,
		discordgo.ChannelTypeDM,
		discordgo.ChannelTypeGroupDM,
		discordgo.ChannelTypeGuildNewsThread,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread:
		return true
	}
	return false
}

// handleMessage relays messages posted in the target channel by anyone but a
// bot account, including this one.
func (t *Transport) handleMessage(m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil {
		return
	}
	t.mu.Lock()
	self := t.selfID
	t.mu.Unlock()
	if m.Author.Bot || (self != "" && m.Author.ID == self) {
		return
	}
	if m.ChannelID != t.cfg.ChannelID {
		return
	}
	t.logger.Debugf("[Discord] %s: %s", m.Author.Username, m.Content)
	t.emit(Message{message.ChatEvent{
		SourceUsername: m.Author.Username,
		Content:        m.Content,
		Kind:           message.KindPlayerChat,
	}})
}

func (t *Transport) target() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.channelID == "" || t.state == message.StateIdle {
		return "", false
	}
	return t.channelID, true
}

// SendPlain queues text for the target channel.
func (t *Transport) SendPlain(text string) error {
	channelID, ok := t.target()
	if !ok {
		t.logger.Error("Target channel not set")
		return bridgeerrors.NewSendError("discord", bridgeerrors.ErrChannelUnavailable)
	}
	return t.enqueue(outbound{channelID: channelID, content: text, label: "plain"})
}

// SendCategorized queues a rendered message of the given category.
func (t *Transport) SendCategorized(category message.Category, payload message.Payload) error {
	channelID, ok := t.target()
	if !ok {
		t.logger.Debugf("Target channel not set, dropping %s message", category)
		return bridgeerrors.NewSendError("discord", bridgeerrors.ErrChannelUnavailable)
	}
	return t.enqueue(outbound{
		channelID: channelID,
		embed:     renderEmbed(category, payload, t.now()),
		label:     category.String(),
	})
}

func (t *Transport) enqueue(msg outbound) error {
	select {
	case t.outbox <- msg:
		return nil
	default:
		t.logger.Errorf("Outbox full, dropping %s message", msg.label)
		return bridgeerrors.NewSendError("discord", fmt.Errorf("outbox full"))
	}
}

func (t *Transport) writeLoop() {
	for {
		select {
		case msg := <-t.outbox:
			t.deliver(msg)
		case <-t.done:
			return
		}
	}
}

func (t *Transport) deliver(msg outbound) {
	var err error
	if msg.embed != nil {
		_, err = t.session.ChannelMessageSendEmbed(msg.channelID, msg.embed)
	} else {
		_, err = t.session.ChannelMessageSend(msg.channelID, msg.content)
	}
	if err != nil {
		t.logger.WithError(bridgeerrors.NewSendError("discord", err)).Errorf("Failed to send %s message to Discord", msg.label)
		return
	}
	t.logger.Debugf("[Discord Send] %s", msg.label)
}

// Disconnect closes the platform session and stops the writer. The transport
// cannot be reconnected afterwards.
func (t *Transport) Disconnect() {
	t.closeOnce.Do(func() {
		close(t.done)
		t.mu.Lock()
		t.state = message.StateIdle
		t.mu.Unlock()
		if err := t.session.Close(); err != nil {
			t.logger.Warnf("Close Discord session: %v", err)
		}
		t.logger.Info("Discord session closed")
	})
}

func (t *Transport) emit(ev Event) {
	select {
	case t.events <- ev:
	case <-t.done:
	}
}
