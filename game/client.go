package game

import (
	"errors"
	"io"
	"net"
	"strings"

	"golang.org/x/net/websocket"
)

// Client is one connected viewer of a session.
type Client interface {
	Send(v interface{}) error
	Close() error
	String() string
}

type wsClient struct {
	conn *websocket.Conn
	addr string
}

// NewWebsocketClient wraps a websocket connection; frames are JSON encoded.
func NewWebsocketClient(conn *websocket.Conn) Client {
	addr := "unknown"
	if conn.Request() != nil && conn.Request().RemoteAddr != "" {
		addr = conn.Request().RemoteAddr
	} else if conn.RemoteAddr() != nil {
		addr = conn.RemoteAddr().String()
	}
	return &wsClient{conn: conn, addr: addr}
}

func (c *wsClient) Send(v interface{}) error { return websocket.JSON.Send(c.conn, v) }
func (c *wsClient) Close() error             { return c.conn.Close() }
func (c *wsClient) String() string           { return c.addr }

// IsClosedError reports whether err means the peer is gone.
func IsClosedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset by peer") ||
		strings.Contains(errStr, "write: connection timed out")
}
