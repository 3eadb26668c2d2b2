// Package client is the presence relay client: one outbound connection to one
// room, throttled cursor publishing and typed event subscription.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"thumbio/internal/geometry"
	"thumbio/internal/presence"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Defaults for cursor throttling and remote cursor expiry.
const (
	DefaultCursorInterval = 50 * time.Millisecond
	DefaultCursorDistance = 2.0
	DefaultStaleAfter     = 5 * time.Second
	DefaultPurgeEvery     = 1 * time.Second

	writeWait = 5 * time.Second
)

var ErrNotConnected = errors.New("presence client not connected")

// RemoteCursor is the last known cursor of another participant.
type RemoteCursor struct {
	UserID    string
	X, Y      float64
	Name      string
	Color     string
	UpdatedAt time.Time
}

// Client maintains at most one connection. It is safe for concurrent use.
type Client struct {
	url    string
	header http.Header
	dialer *websocket.Dialer

	interval   time.Duration
	distance   float64
	staleAfter time.Duration
	purgeEvery time.Duration
	now        func() time.Time

	mu         sync.Mutex
	conn       *websocket.Conn
	done       chan struct{}
	cancelDial context.CancelFunc // set while a dial is in flight
	handlers map[EventType]map[int]func(Event)
	nextID   int
	cursors  map[string]RemoteCursor
	self     *IdentityEvent
	sentAny  bool
	lastSent time.Time
	lastPos  geometry.Point

	writeMu sync.Mutex
	log     *logrus.Entry
}

// Option configures a Client.
type Option func(*Client)

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithHeader adds request headers to the handshake.
func WithHeader(h http.Header) Option {
	return func(c *Client) { c.header = h }
}

// WithClock overrides the time source used for throttling and expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithThrottle sets the minimum interval and canvas distance between two
// cursor frames.
func WithThrottle(interval time.Duration, distance float64) Option {
	return func(c *Client) {
		c.interval, c.distance = interval, distance
	}
}

// WithStaleTimeout sets how long a remote cursor lives without updates and
// how often expiry runs. purgeEvery <= 0 disables the background purge.
func WithStaleTimeout(staleAfter, purgeEvery time.Duration) Option {
	return func(c *Client) {
		c.staleAfter, c.purgeEvery = staleAfter, purgeEvery
	}
}

// New returns a disconnected client for the room at url
// (e.g. ws://host:8080/ws/room/lobby).
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		dialer:     websocket.DefaultDialer,
		interval:   DefaultCursorInterval,
		distance:   DefaultCursorDistance,
		staleAfter: DefaultStaleAfter,
		purgeEvery: DefaultPurgeEvery,
		now:        time.Now,
		handlers:   make(map[EventType]map[int]func(Event)),
		cursors:    make(map[string]RemoteCursor),
		log:        logrus.WithFields(logrus.Fields{"component": "presence_client", "url": url}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// On registers fn for events of type t and returns its unsubscribe function.
func (c *Client) On(t EventType, fn func(Event)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	if c.handlers[t] == nil {
		c.handlers[t] = make(map[int]func(Event))
	}
	c.handlers[t][id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers[t], id)
	}
}

// Subscribe registers a handler for the concrete event type T.
func Subscribe[T Event](c *Client, fn func(T)) func() {
	var zero T
	return c.On(zero.Type(), func(ev Event) {
		if typed, ok := ev.(T); ok {
			fn(typed)
		}
	})
}

// Connect dials the relay. It is a no-op when already connected or while
// another Connect is dialing. The lock is not held during the dial, so the
// rest of the client stays usable; Close aborts a dial in flight.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil || c.cancelDial != nil {
		c.mu.Unlock()
		return nil
	}
	dialCtx, cancel := context.WithCancel(ctx)
	c.cancelDial = cancel
	c.mu.Unlock()

	conn, resp, err := c.dialer.DialContext(dialCtx, c.url, c.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c.mu.Lock()
	c.cancelDial = nil
	if err == nil && dialCtx.Err() != nil {
		_ = conn.Close()
		err = dialCtx.Err()
	}
	cancel()
	if err != nil {
		c.mu.Unlock()
		err = fmt.Errorf("dial presence relay: %w", err)
		c.log.WithError(err).Warn("Presence client: connect failed")
		c.emit(ErrorEvent{Err: err})
		return err
	}
	done := make(chan struct{})
	c.conn, c.done = conn, done
	c.mu.Unlock()

	c.log.Info("Presence client: connected")
	c.emit(ConnectedEvent{})
	go c.readLoop(conn)
	if c.purgeEvery > 0 {
		go c.purgeLoop(done)
	}
	return nil
}

// Connected reports whether a connection is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close closes the connection, or aborts a dial in flight, and emits
// DisconnectedEvent when a connection was open. There is no automatic
// reconnect.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.cancelDial != nil {
		c.cancelDial()
	}
	c.mu.Unlock()

	conn := c.detach(nil)
	if conn == nil {
		return nil
	}
	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	c.writeMu.Unlock()
	err := conn.Close()
	c.log.Info("Presence client: closed")
	c.emit(DisconnectedEvent{})
	return err
}

// detach forgets conn (any conn when nil) and resets per-connection state.
func (c *Client) detach(only *websocket.Conn) *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn := c.conn
	if conn == nil || (only != nil && only != conn) {
		return nil
	}
	close(c.done)
	c.conn, c.done = nil, nil
	c.cursors = make(map[string]RemoteCursor)
	c.self = nil
	c.sentAny = false
	return conn
}

// SendCursor publishes the local cursor in canvas coordinates. Frames closer
// than the throttle interval or distance to the last sent one are skipped
// silently; the first cursor is always sent.
func (c *Client) SendCursor(x, y float64) error {
	if !geometry.IsFinite(x) || !geometry.IsFinite(y) {
		return errors.New("cursor position must be finite")
	}
	p := geometry.Point{X: x, Y: y}

	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	now := c.now()
	if c.sentAny && (now.Sub(c.lastSent) < c.interval || geometry.Distance(c.lastPos, p) < c.distance) {
		c.mu.Unlock()
		return nil
	}
	c.sentAny, c.lastSent, c.lastPos = true, now, p
	c.mu.Unlock()

	return c.write(conn, map[string]any{"type": presence.TypeCursor, "x": x, "y": y})
}

// LeaveCursor tells the room the local cursor left the canvas. The next
// SendCursor is not throttled.
func (c *Client) LeaveCursor() error {
	c.mu.Lock()
	conn := c.conn
	c.sentAny = false
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return c.write(conn, map[string]string{"type": presence.TypeCursorLeave})
}

// Identity returns the identity assigned by the relay, once received.
func (c *Client) Identity() (IdentityEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.self == nil {
		return IdentityEvent{}, false
	}
	return *c.self, true
}

// Cursors returns a copy of the remote cursors.
func (c *Client) Cursors() map[string]RemoteCursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]RemoteCursor, len(c.cursors))
	for id, rc := range c.cursors {
		out[id] = rc
	}
	return out
}

// PurgeStale drops remote cursors not refreshed within the stale timeout and
// emits a CursorLeaveEvent for each.
func (c *Client) PurgeStale() []string {
	c.mu.Lock()
	now := c.now()
	var stale []string
	for id, rc := range c.cursors {
		if now.Sub(rc.UpdatedAt) >= c.staleAfter {
			stale = append(stale, id)
			delete(c.cursors, id)
		}
	}
	c.mu.Unlock()

	for _, id := range stale {
		c.log.WithField("user_id", id).Debug("Presence client: purged stale cursor")
		c.emit(CursorLeaveEvent{UserID: id})
	}
	return stale
}

func (c *Client) write(conn *websocket.Conn, v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(v); err != nil {
		err = fmt.Errorf("write presence frame: %w", err)
		c.log.WithError(err).Warn("Presence client: send failed")
		c.emit(ErrorEvent{Err: err})
		return err
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.detach(conn) != nil {
				_ = conn.Close()
				c.log.WithError(err).Warn("Presence client: connection lost")
				c.emit(DisconnectedEvent{Err: err})
			}
			return
		}
		ev, err := decode(data)
		if err != nil {
			c.log.WithError(err).Warn("Presence client: dropping frame")
			continue
		}
		c.apply(ev)
		c.emit(ev)
	}
}

func (c *Client) purgeLoop(done <-chan struct{}) {
	ticker := time.NewTicker(c.purgeEvery)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.PurgeStale()
		}
	}
}

// apply updates local state from a server event before subscribers see it.
func (c *Client) apply(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	switch e := ev.(type) {
	case IdentityEvent:
		self := e
		c.self = &self
	case SyncEvent:
		c.cursors = make(map[string]RemoteCursor, len(e.Cursors))
		for id, ci := range e.Cursors {
			c.cursors[id] = RemoteCursor{UserID: id, X: ci.X, Y: ci.Y, Name: ci.Name, Color: ci.Color, UpdatedAt: now}
		}
	case CursorEvent:
		c.cursors[e.UserID] = RemoteCursor{UserID: e.UserID, X: e.X, Y: e.Y, Name: e.Name, Color: e.Color, UpdatedAt: now}
	case CursorLeaveEvent:
		delete(c.cursors, e.UserID)
	case UserLeftEvent:
		delete(c.cursors, e.UserID)
	}
}

func (c *Client) emit(ev Event) {
	c.mu.Lock()
	fns := make([]func(Event), 0, len(c.handlers[ev.Type()]))
	for _, fn := range c.handlers[ev.Type()] {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
