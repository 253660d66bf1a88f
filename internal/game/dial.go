package game

import (
	"context"
	"sync"

	"github.com/sandertv/gophertunnel/minecraft"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/login"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
	"golang.org/x/oauth2"

	"github.com/erilali/mcbridge/internal/config"
	"github.com/erilali/mcbridge/internal/logger"
)

// Conn is a live game session. *minecraft.Conn satisfies it.
type Conn interface {
	ReadPacket() (packet.Packet, error)
	WritePacket(pk packet.Packet) error
	Close() error
}

// Dialer opens a session and completes the spawn handshake.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// NetDialer dials a Bedrock server over RakNet.
type NetDialer struct {
	cfg    config.GameConfig
	logger *logger.Logger

	mu     sync.Mutex
	tokens oauth2.TokenSource
}

func NewNetDialer(cfg config.GameConfig, log *logger.Logger) *NetDialer {
	if cfg.Offline {
		log.Info("Offline mode (no authentication)")
	} else {
		log.WithFields(map[string]interface{}{
			"auth_title": cfg.AuthTitle,
			"flow":       cfg.Flow,
			"cache":      cfg.AuthCache,
		}).Info("Online mode (Microsoft authentication)")
	}
	version := cfg.Version
	if version == "" {
		version = "auto-detect"
	} else if version != protocol.CurrentVersion {
		log.Warnf("Configured version %s differs from supported protocol %s (%d)",
			version, protocol.CurrentVersion, protocol.CurrentProtocol)
	}
	log.WithFields(map[string]interface{}{
		"address":  cfg.Address(),
		"username": cfg.Username,
		"version":  version,
		"offline":  cfg.Offline,
	}).Info("Game client options")
	return &NetDialer{cfg: cfg, logger: log}
}

func (d *NetDialer) tokenSource() (oauth2.TokenSource, error) {
	if d.cfg.Offline {
		return nil, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tokens == nil {
		src, err := loadTokenSource(d.cfg.AuthCache, d.cfg.Username, d.logger)
		if err != nil {
			return nil, err
		}
		d.tokens = src
	}
	return d.tokens, nil
}

func (d *NetDialer) Dial(ctx context.Context) (Conn, error) {
	tokens, err := d.tokenSource()
	if err != nil {
		return nil, err
	}
	dialer := minecraft.Dialer{
		IdentityData: login.IdentityData{DisplayName: d.cfg.Username},
		TokenSource:  tokens,
	}

	d.logger.Info("Joining Minecraft server...")
	conn, err := dialer.DialContext(ctx, "raknet", d.cfg.Address())
	if err != nil {
		return nil, err
	}
	d.logger.Info("Logged in to Minecraft server")
	if err := conn.DoSpawnContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}
