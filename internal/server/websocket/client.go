package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/stockguard/pkg/constants"
)

// Client is a Conn backed by a gorilla WebSocket connection.
type Client struct {
	id       string
	conn     *websocket.Conn
	registry *Registry
	logger   *zerolog.Logger

	// writeMu serializes data frames; gorilla allows one concurrent writer.
	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// NewClient wraps conn. The client is not registered until Serve is called.
func NewClient(conn *websocket.Conn, registry *Registry, logger *zerolog.Logger) *Client {
	return &Client{
		id:       uuid.NewString(),
		conn:     conn,
		registry: registry,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// ID implements Conn.
func (c *Client) ID() string {
	return c.id
}

// Send implements Conn. The write deadline is the earlier of the context
// deadline and constants.WriteWait from now.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	deadline := time.Now().Add(constants.WriteWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Close implements Conn.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(time.Second),
		)
		err = c.conn.Close()
	})
	return err
}

// Serve registers the client and blocks until the peer disconnects or ctx
// is cancelled. The client is unregistered and closed on return.
func (c *Client) Serve(ctx context.Context) {
	c.registry.Register(c)
	defer func() {
		c.registry.Unregister(c)
		_ = c.Close()
	}()

	go c.pingLoop(ctx)
	c.readLoop()
}

// readLoop discards inbound frames; it exists to process control frames and
// detect disconnects.
func (c *Client) readLoop() {
	c.conn.SetReadLimit(constants.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(constants.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(constants.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Str("client_id", c.id).Msg("WebSocket read error")
			}
			return
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(constants.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.Close()
			return
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(constants.WriteWait)); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}

var _ Conn = (*Client)(nil)
