// Package config builds the bridge configuration from the process
// environment. The value is constructed once at startup and passed to both
// transports; nothing reads the environment after Load returns.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/subosito/gotenv"

	bridgeerrors "github.com/erilali/mcbridge/internal/errors"
)

// GameConfig holds the game server connection parameters.
type GameConfig struct {
	Host              string        `env:"MINECRAFT_HOST"                envDefault:"localhost"`
	Port              int           `env:"MINECRAFT_PORT"                envDefault:"19132"`
	Username          string        `env:"MINECRAFT_USERNAME"            envDefault:"DiscordBot"`
	Version           string        `env:"MINECRAFT_VERSION"`
	Offline           bool          `env:"MINECRAFT_OFFLINE"             envDefault:"true"`
	AuthTitle         string        `env:"MICROSOFT_AUTH_TITLE"          envDefault:"00000000441cc96b"`
	Flow              string        `env:"MICROSOFT_FLOW"                envDefault:"live"`
	AuthCache         string        `env:"MINECRAFT_AUTH_CACHE"          envDefault:"./auth_cache"`
	ConnectTimeout    time.Duration `env:"MINECRAFT_CONNECT_TIMEOUT"     envDefault:"15s"`
	ReconnectDelay    time.Duration `env:"MINECRAFT_RECONNECT_DELAY"     envDefault:"5s"`
	SpawnCommand      string        `env:"MINECRAFT_SPAWN_COMMAND"       envDefault:"/connect"`
	SpawnCommandDelay time.Duration `env:"MINECRAFT_SPAWN_COMMAND_DELAY" envDefault:"1s"`
}

// Address returns host:port.
func (g GameConfig) Address() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// ChatConfig holds the chat platform credentials.
type ChatConfig struct {
	Token     string `env:"DISCORD_TOKEN"`
	ChannelID string `env:"DISCORD_CHANNEL_ID"`
}

// BridgeConfig is the complete, validated configuration.
type BridgeConfig struct {
	Game           GameConfig
	Chat           ChatConfig
	StartupStagger time.Duration `env:"BRIDGE_STARTUP_STAGGER" envDefault:"2s"`
	HTTPAddr       string        `env:"BRIDGE_HTTP_ADDR"       envDefault:":8080"`
	NatsURL        string        `env:"NATS_URL"`
}

// Load reads an optional dotenv file, then parses and validates the
// environment. Variables already set in the environment win over the file.
func Load(envFile string) (BridgeConfig, error) {
	if envFile != "" {
		if err := gotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return BridgeConfig{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnvironment(env.Options{})
}

// FromEnvironment parses the configuration with the given options. Tests pass
// Options.Environment to avoid touching the process environment.
func FromEnvironment(opts env.Options) (BridgeConfig, error) {
	var cfg BridgeConfig
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return BridgeConfig{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Chat.Token = strings.TrimSpace(cfg.Chat.Token)
	cfg.Chat.ChannelID = strings.TrimSpace(cfg.Chat.ChannelID)
	if err := cfg.Validate(); err != nil {
		return BridgeConfig{}, err
	}
	return cfg, nil
}

// Validate reports the first missing or invalid required setting as a
// ConfigError.
func (c BridgeConfig) Validate() error {
	switch {
	case c.Chat.Token == "":
		return bridgeerrors.NewConfigError("DISCORD_TOKEN", "is required")
	case c.Chat.ChannelID == "":
		return bridgeerrors.NewConfigError("DISCORD_CHANNEL_ID", "is required")
	case c.Game.Host == "":
		return bridgeerrors.NewConfigError("MINECRAFT_HOST", "must not be empty")
	case c.Game.Port <= 0 || c.Game.Port > 65535:
		return bridgeerrors.NewConfigError("MINECRAFT_PORT", fmt.Sprintf("invalid port %d", c.Game.Port))
	case c.Game.Username == "":
		return bridgeerrors.NewConfigError("MINECRAFT_USERNAME", "must not be empty")
	case c.Game.ReconnectDelay <= 0:
		return bridgeerrors.NewConfigError("MINECRAFT_RECONNECT_DELAY", "must be positive")
	case !c.Game.Offline && c.Game.Flow != "live" && c.Game.Flow != "sisu":
		return bridgeerrors.NewConfigError("MICROSOFT_FLOW", fmt.Sprintf("unknown flow %q", c.Game.Flow))
	}
	return nil
}
