// internal/api/api.go
// Provides the HTTP surface (health and observer feed) and the NATS
// connection used to mirror relay events.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/erilali/mcbridge/internal/hub"
	"github.com/erilali/mcbridge/internal/logger"
	"github.com/nats-io/nats.go"
)

const (
	version              = "1.0.0"
	natsReconnectWait    = 5 * time.Second
	serverReadTimeout    = 10 * time.Second
	serverShutdownWindow = 5 * time.Second
)

// ConnectNATS connects to url. It returns nil when url is empty or the
// server cannot be reached; the bridge runs without a mirror then.
func ConnectNATS(url string, log *logger.Logger) *nats.Conn {
	if url == "" {
		log.Info("NATS_URL not set, relay events will not be mirrored")
		return nil
	}

	log.Infof("Connecting to NATS at %s", url)
	nc, err := nats.Connect(url,
		nats.Name("mcbridge"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Infof("NATS reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		log.Errorf("Error connecting to NATS: %v", err)
		log.Warn("Running without NATS connection. Relay events will not be mirrored.")
		return nil
	}
	log.Info("Successfully connected to NATS")
	return nc
}

// StatsSource is the part of the hub the health endpoint reads.
type StatsSource interface {
	Stats() hub.Stats
}

// NewServer builds the HTTP server exposing /health and /ws. nc may be nil.
func NewServer(addr string, h *hub.Hub, nc *nats.Conn) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWs)
	mux.HandleFunc("/health", HealthHandler(h, nc))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: serverReadTimeout,
	}
}

// HealthHandler reports transport states and the NATS link.
func HealthHandler(source StatsSource, nc *nats.Conn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		natsStatus := "disabled"
		if nc != nil {
			natsStatus = "disconnected"
			if nc.Status() == nats.CONNECTED {
				natsStatus = "connected"
			}
		}
		stats := source.Stats()
		health := map[string]interface{}{
			"status":     "ok",
			"nats":       natsStatus,
			"version":    version,
			"game_state": stats.GameState,
			"chat_ready": stats.ChatReady,
			"observers":  stats.Observers,
			"relayed":    stats.Relayed,
			"uptime":     stats.Uptime.Round(time.Second).String(),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	}
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, log *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server started at %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownWindow)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server shutdown: %v", err)
		return err
	}
	log.Info("Server stopped")
	return nil
}
