// Package errors defines the error kinds the bridge classifies failures into.
//
//   - ConfigError: a required setting is missing or invalid. Fatal at startup.
//   - ConnectionError: a transport handshake, timeout or network failure.
//     Logged and handed to the transport's reconnect supervisor.
//   - SendError: an outbound send failed on a connection believed live.
//     Logged and dropped.
//
// Malformed or unrecognized inbound packets are ignored by the decoders and
// never surface as errors.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Re-export standard library functions so callers only import this package.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)

// ErrNotConnected is returned when a send is attempted outside the Connected state.
var ErrNotConnected = errors.New("transport not connected")

// ErrChannelUnavailable is returned when the chat channel handle is not resolved.
var ErrChannelUnavailable = errors.New("target channel not available")

type ConfigError struct {
	Field   string
	Message string
}

func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ConnectionError describes a failed or lost transport session.
type ConnectionError struct {
	Op      string
	Host    string
	Port    int
	Timeout bool
	Err     error
}

// NewConnectionError wraps err and records whether it is timeout-flavoured.
func NewConnectionError(op, host string, port int, err error) *ConnectionError {
	return &ConnectionError{Op: op, Host: host, Port: port, Timeout: IsTimeout(err), Err: err}
}

func (e *ConnectionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Host != "" {
		fmt.Fprintf(&b, " %s:%d", e.Host, e.Port)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Diagnostics returns the checklist logged for timeout failures. It is empty
// for other failures.
func (e *ConnectionError) Diagnostics() []string {
	if !e.Timeout {
		return nil
	}
	return []string{
		fmt.Sprintf("check the server address is correct: %s", e.Host),
		fmt.Sprintf("check the port is correct: %d", e.Port),
		"check the server is online and accepts external connections",
		"check no firewall is blocking the port",
	}
}

type SendError struct {
	Target string
	Err    error
}

func NewSendError(target string, err error) *SendError {
	return &SendError{Target: target, Err: err}
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send to %s: %v", e.Target, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// IsTimeout reports whether err looks like a timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timed out") || strings.Contains(msg, "timeout")
}
