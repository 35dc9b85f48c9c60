// Package websocket carries session lifecycle events to subscribed clients
// over gorilla/websocket connections.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeBuffer  = 100
	writeTimeout = 5 * time.Second
)

// Connection wraps a websocket connection behind a single writer goroutine,
// so concurrent broadcasts never interleave frames on the wire.
type Connection struct {
	conn      *websocket.Conn
	writeCh   chan []byte
	identity  string
	role      string
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection wraps conn and starts its writer goroutine. identity is the
// subscriber's display name; role is "faculty" or "observer".
func NewConnection(conn *websocket.Conn, identity, role string) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		conn:     conn,
		writeCh:  make(chan []byte, writeBuffer),
		identity: identity,
		role:     role,
		ctx:      ctx,
		cancel:   cancel,
	}
	go c.writeLoop()
	return c
}

func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// WriteJSON queues v for delivery. It fails fast when the connection is
// closed or the write buffer stays full past the write timeout.
func (c *Connection) WriteJSON(v interface{}) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ErrInvalidJSON
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-time.After(writeTimeout):
		return ErrWriteTimeout
	case <-c.ctx.Done():
		return ErrConnectionClosed
	}
}

// Close shuts the connection down exactly once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// Identity returns the subscriber's display name.
func (c *Connection) Identity() string { return c.identity }

// Role returns the subscriber's role.
func (c *Connection) Role() string { return c.role }

// Done is closed when the connection shuts down.
func (c *Connection) Done() <-chan struct{} { return c.ctx.Done() }
