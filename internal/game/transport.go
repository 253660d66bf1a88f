// internal/game/transport.go
// Owns the session to the game server: connect, reconnect, inbound decoding
// and outbound chat and command encoding.
package game

import (
	"context"
	"strings"
	"sync"

	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"

	"github.com/erilali/mcbridge/internal/config"
	bridgeerrors "github.com/erilali/mcbridge/internal/errors"
	"github.com/erilali/mcbridge/internal/lifecycle"
	"github.com/erilali/mcbridge/internal/logger"
	"github.com/erilali/mcbridge/internal/message"
)

const eventBufferSize = 256

// Transport is the game-side connection state machine:
//
//	Idle -> Connecting -> Connected -> Disconnecting -> Connecting ...
//
// Only one attempt is outstanding at a time. A lost session schedules exactly
// one reconnect through the supervisor; Disconnect cancels it and returns the
// transport to Idle until Connect is called again.
type Transport struct {
	cfg        config.GameConfig
	dialer     Dialer
	scheduler  lifecycle.Scheduler
	supervisor *lifecycle.Supervisor
	logger     *logger.Logger
	events     chan Event

	mu         sync.Mutex
	state      message.ConnectionState
	conn       Conn               // set only while Connected
	cancel     context.CancelFunc // cancels the current attempt's goroutine
	epoch      uint64             // bumped per attempt and on Disconnect
	spawnTimer lifecycle.Timer
}

type Option func(*Transport)

func WithDialer(d Dialer) Option {
	return func(t *Transport) { t.dialer = d }
}

func WithScheduler(s lifecycle.Scheduler) Option {
	return func(t *Transport) { t.scheduler = s }
}

func WithLogger(l *logger.Logger) Option {
	return func(t *Transport) { t.logger = l }
}

func NewTransport(cfg config.GameConfig, opts ...Option) *Transport {
	t := &Transport{
		cfg:       cfg,
		scheduler: lifecycle.RealScheduler(),
		events:    make(chan Event, eventBufferSize),
		state:     message.StateIdle,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logger.NewLogger("game")
	}
	if t.dialer == nil {
		t.dialer = NewNetDialer(cfg, t.logger)
	}
	t.supervisor = lifecycle.NewSupervisor(cfg.ReconnectDelay, t.scheduler, t.reconnect, t.logger)
	return t
}

// Events delivers the transport's events in session order.
func (t *Transport) Events() <-chan Event { return t.events }

// Username is the identity the bot plays as.
func (t *Transport) Username() string { return t.cfg.Username }

func (t *Transport) State() message.ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transport) IsConnected() bool {
	return t.State() == message.StateConnected
}

// Connect starts a session attempt. It does nothing unless the transport is
// Idle.
func (t *Transport) Connect() {
	t.mu.Lock()
	if t.state != message.StateIdle {
		state := t.state
		t.mu.Unlock()
		t.logger.Infof("Already connected or connecting (%s)...", state)
		return
	}
	t.state = message.StateConnecting
	t.epoch++
	epoch := t.epoch
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.mu.Unlock()

	t.logger.Infof("Connecting to Minecraft server: %s", t.cfg.Address())
	go t.run(ctx, cancel, epoch)
}

func (t *Transport) run(ctx context.Context, cancel context.CancelFunc, epoch uint64) {
	defer cancel()

	dialCtx := ctx
	if t.cfg.ConnectTimeout > 0 {
		var dialCancel context.CancelFunc
		dialCtx, dialCancel = context.WithTimeout(ctx, t.cfg.ConnectTimeout)
		defer dialCancel()
	}
	conn, err := t.dialer.Dial(dialCtx)
	if err != nil {
		t.fail(ctx, epoch, "dial", err)
		return
	}

	t.mu.Lock()
	if t.epoch != epoch || t.state != message.StateConnecting {
		t.mu.Unlock()
		_ = conn.Close()
		return
	}
	t.conn = conn
	t.state = message.StateConnected
	if t.cfg.SpawnCommand != "" {
		command := t.cfg.SpawnCommand
		t.spawnTimer = t.scheduler.AfterFunc(t.cfg.SpawnCommandDelay, func() {
			_ = t.SendCommand(command)
		})
	}
	t.mu.Unlock()

	t.logger.Info("Successfully connected to Minecraft server!")
	if !t.emit(ctx, Connected{}) {
		return
	}
	t.readLoop(ctx, epoch, conn)
}

func (t *Transport) readLoop(ctx context.Context, epoch uint64, conn Conn) {
	for {
		pk, err := conn.ReadPacket()
		if err != nil {
			t.fail(ctx, epoch, "read", err)
			return
		}
		for _, ev := range Decode(pk) {
			switch ev := ev.(type) {
			case Chat:
				t.logger.Debugf("[MC Chat] %s: %s", ev.SourceUsername, ev.Content)
			case Presence:
				t.logger.Debugf("[MC] Player %s: %s %s", ev.Action, ev.DisplayName, ev.PlayerID)
			}
			if !t.emit(ctx, ev) {
				return
			}
		}
	}
}

// fail handles an error or close of the attempt identified by epoch. Stale
// attempts, and attempts ended by Disconnect, are ignored.
func (t *Transport) fail(ctx context.Context, epoch uint64, op string, err error) {
	t.mu.Lock()
	if t.epoch != epoch || (t.state != message.StateConnecting && t.state != message.StateConnected) {
		t.mu.Unlock()
		return
	}
	wasConnected := t.state == message.StateConnected
	conn := t.conn
	t.conn = nil
	t.state = message.StateDisconnecting
	t.stopSpawnTimerLocked()
	t.supervisor.Schedule()
	t.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	connErr := bridgeerrors.NewConnectionError(op, t.cfg.Host, t.cfg.Port, err)
	t.logger.WithError(err).Errorf("Minecraft client error during %s", op)
	for _, hint := range connErr.Diagnostics() {
		t.logger.Error(hint)
	}
	t.emit(ctx, Error{Err: connErr})
	if wasConnected {
		reason := disconnectReason(err)
		t.logger.Infof("Disconnected from Minecraft server: %s", reason)
		t.emit(ctx, Disconnected{Reason: reason})
	}
}

// reconnect is called by the supervisor when its timer fires.
func (t *Transport) reconnect() {
	t.mu.Lock()
	if t.state != message.StateDisconnecting {
		t.mu.Unlock()
		return
	}
	t.state = message.StateIdle
	t.mu.Unlock()
	t.Connect()
}

// Disconnect cancels any pending reconnect, closes the session and returns
// to Idle. It is safe to call in any state and more than once.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	t.supervisor.Cancel()
	t.stopSpawnTimerLocked()
	t.epoch++
	conn := t.conn
	t.conn = nil
	cancel := t.cancel
	t.cancel = nil
	prev := t.state
	t.state = message.StateIdle
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			t.logger.Warnf("Close session: %v", err)
		}
	}
	if prev != message.StateIdle {
		t.logger.Infof("Disconnected from Minecraft server (was %s)", prev)
	}
}

func (t *Transport) stopSpawnTimerLocked() {
	if t.spawnTimer != nil {
		t.spawnTimer.Stop()
		t.spawnTimer = nil
	}
}

func (t *Transport) liveConn() (Conn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != message.StateConnected || t.conn == nil {
		return nil, false
	}
	return t.conn, true
}

// SendChat sends text as a chat message from the bot. Failures are logged and
// the message is dropped.
func (t *Transport) SendChat(text string) error {
	return t.write(chatPacket(t.cfg.Username, text), "chat", text)
}

// SendCommand issues a command as the bot. A leading slash is optional.
func (t *Transport) SendCommand(command string) error {
	return t.write(commandPacket(command), "command", "/"+strings.TrimPrefix(command, "/"))
}

func (t *Transport) write(pk packet.Packet, what, detail string) error {
	conn, ok := t.liveConn()
	if !ok {
		t.logger.Errorf("Not connected to Minecraft server, dropping %s", what)
		return bridgeerrors.NewSendError("minecraft", bridgeerrors.ErrNotConnected)
	}
	if err := conn.WritePacket(pk); err != nil {
		sendErr := bridgeerrors.NewSendError("minecraft", err)
		t.logger.WithError(err).Errorf("Failed to send %s", what)
		return sendErr
	}
	t.logger.Infof("[MC Send] %s", detail)
	return nil
}

// emit delivers ev unless ctx is cancelled first.
func (t *Transport) emit(ctx context.Context, ev Event) bool {
	select {
	case t.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func disconnectReason(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, "disconnect:"); i >= 0 {
		return strings.TrimSpace(msg[i+len("disconnect:"):])
	}
	return msg
}
