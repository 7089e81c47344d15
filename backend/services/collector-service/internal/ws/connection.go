package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	readLimit   = 4096
	pongTimeout = 60 * time.Second
	sendBuffer  = 16
)

// Connection is one live feed subscriber. Incoming frames are read only to
// service control messages; rows flow server to client.
type Connection struct {
	id           string
	ws           *websocket.Conn
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	logger       *zap.Logger
	writeTimeout time.Duration
	pingInterval time.Duration
	onClose      func(id string)
}

// NewConnection builds connection wrapper.
func NewConnection(id string, ws *websocket.Conn, writeTimeout, pingInterval time.Duration, logger *zap.Logger, onClose func(string)) *Connection {
	return &Connection{
		id:           id,
		ws:           ws,
		send:         make(chan []byte, sendBuffer),
		done:         make(chan struct{}),
		logger:       logger,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		onClose:      onClose,
	}
}

// ID returns identifier.
func (c *Connection) ID() string {
	return c.id
}

// Start launches read/write pumps and blocks until the connection ends.
func (c *Connection) Start(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump()
}

func (c *Connection) readPump() {
	defer c.Close()
	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			c.logger.Debug("feed connection read closed", zap.String("conn_id", c.id), zap.Error(err))
			return
		}
	}
}

func (c *Connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			c.Close()
			return
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// Send enqueues a message; it is dropped when the subscriber is too slow.
func (c *Connection) Send(msg []byte) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		c.logger.Warn("dropping feed message, buffer full", zap.String("conn_id", c.id))
	}
}

func (c *Connection) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

// Close tears the connection down once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
		if c.onClose != nil {
			c.onClose(c.id)
		}
	})
}
