// internal/hub/client.go
package hub

import (
	"time"

	"github.com/gorilla/websocket"
)

// Client is an observer following the relay feed over a websocket.
type Client struct {
	Addr        string
	Conn        *websocket.Conn
	Send        chan []byte
	ConnectedAt time.Time
}
