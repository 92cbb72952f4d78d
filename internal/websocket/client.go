package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/princekumarofficial/screencast-service/internal/types"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// dashboards never send payloads, only control frames
	maxInboundSize = 512

	sendBuffer = 64
)

// ErrSendBufferFull is returned when a slow dashboard cannot keep up.
var ErrSendBufferFull = errors.New("websocket send buffer full")

// Client is one open dashboard of an owner. Each queued clip event is
// written as its own text frame.
type Client struct {
	conn   *websocket.Conn
	events chan []byte
	userID string
	hub    *Hub
}

func NewClient(conn *websocket.Conn, userID string, hub *Hub) *Client {
	return &Client{
		conn:   conn,
		events: make(chan []byte, sendBuffer),
		userID: userID,
		hub:    hub,
	}
}

// UserID returns the owner this connection belongs to.
func (c *Client) UserID() string {
	return c.userID
}

// Start runs the read and write loops until the connection closes.
func (c *Client) Start() {
	go c.writeLoop()
	go c.readLoop()
}

// SendEvent queues event without blocking. The hub owns the queue and closes
// it on unregister.
func (c *Client) SendEvent(event *types.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case c.events <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// readLoop only keeps the read deadline moving and notices disconnects.
func (c *Client) readLoop() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("dashboard connection dropped",
					slog.String("user_id", c.userID),
					slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.events:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Warn("failed to deliver clip event",
					slog.String("user_id", c.userID),
					slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
