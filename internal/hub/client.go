package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ErrSendQueueFull is returned when a client's outbound buffer is full.
var ErrSendQueueFull = errors.New("client send queue full")

// ErrClientClosed is returned when sending to a client that has left.
var ErrClientClosed = errors.New("client closed")

// Client is one WebSocket connection attached to a presence room.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	id     string
	roomID string
	send   chan []byte

	mu     sync.Mutex
	closed bool
}

// NewClient wraps conn with a freshly generated participant id.
func NewClient(hub *Hub, conn *websocket.Conn, roomID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		id:     uuid.NewString(),
		roomID: roomID,
		send:   make(chan []byte, sendBufferSize),
	}
}

// Run starts the read and write pumps.
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// ID implements presence.Peer.
func (c *Client) ID() string { return c.id }

// RoomID is the room the client joined.
func (c *Client) RoomID() string { return c.roomID }

// Send implements presence.Peer. It never blocks; a full queue drops the frame
// for this client only.
func (c *Client) Send(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- message:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// CloseConn closes the underlying connection.
func (c *Client) CloseConn() { _ = c.conn.Close() }

func (c *Client) logCtx() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"user_id": c.id, "room_id": c.roomID})
}

// ReadPump moves frames from the connection to the hub. It runs in its own
// goroutine and unregisters the client when the connection ends.
func (c *Client) ReadPump() {
	defer func() {
		unregisterMsg := HubMessage{Type: "unregister", RoomID: c.roomID, Client: c}
		select {
		case c.hub.messageChan <- unregisterMsg:
		case <-time.After(1 * time.Second):
			c.logCtx().Warn("Timeout sending unregister message to Hub channel")
		}
		_ = c.conn.Close()
		c.logCtx().Info("readPump exited, unregistered client")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logCtx().WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				c.logCtx().Debug("WebSocket connection closed normally or read error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			c.logCtx().Debugf("Received non-text message type: %d", messageType)
			continue
		}

		select {
		case c.hub.messageChan <- HubMessage{Type: "message", RoomID: c.roomID, Client: c, RawData: message}:
		default:
			c.logCtx().Warn("Hub message channel full, dropping client message")
		}
	}
}

// WritePump moves frames from the send queue to the connection and keeps it
// alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		c.logCtx().Debug("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logCtx().WithError(err).Warn("Failed to write message to websocket")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logCtx().WithError(err).Warn("Failed to send ping message")
				return
			}
		}
	}
}
