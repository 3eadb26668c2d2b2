// Package presence implements the per-room participant roster and cursor
// relay of the collaboration server.
package presence

import "encoding/json"

// Message types of the presence protocol.
const (
	TypeIdentity    = "identity"
	TypeSync        = "sync"
	TypeUserJoined  = "user-joined"
	TypeUserLeft    = "user-left"
	TypeCursor      = "cursor"
	TypeCursorLeave = "cursor-leave"
)

// UserInfo is a roster entry as sent in sync.
type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CursorInfo is a cursor entry as sent in sync.
type CursorInfo struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Name  string  `json:"name"`
	Color string  `json:"color"`
}

// IdentityMessage tells a newcomer who it is.
type IdentityMessage struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Color  string `json:"color"`
	Name   string `json:"name"`
}

// SyncMessage is the roster and cursor snapshot sent to a newcomer.
type SyncMessage struct {
	Type            string                `json:"type"`
	Users           map[string]UserInfo   `json:"users"`
	Cursors         map[string]CursorInfo `json:"cursors"`
	ConnectionCount int                   `json:"connectionCount"`
}

// UserJoinedMessage announces a newcomer to everyone else.
type UserJoinedMessage struct {
	Type            string `json:"type"`
	UserID          string `json:"userId"`
	Name            string `json:"name"`
	Color           string `json:"color"`
	ConnectionCount int    `json:"connectionCount"`
}

// UserLeftMessage announces a departure.
type UserLeftMessage struct {
	Type            string `json:"type"`
	UserID          string `json:"userId"`
	ConnectionCount int    `json:"connectionCount"`
}

// CursorMessage relays one participant's cursor position.
type CursorMessage struct {
	Type   string  `json:"type"`
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Name   string  `json:"name"`
	Color  string  `json:"color"`
}

// CursorLeaveMessage tells peers a cursor left the canvas.
type CursorLeaveMessage struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// inbound is any client frame. Coordinates stay raw so that non-numeric
// values can be told apart from a missing field.
type inbound struct {
	Type string          `json:"type"`
	X    json.RawMessage `json:"x"`
	Y    json.RawMessage `json:"y"`
}
