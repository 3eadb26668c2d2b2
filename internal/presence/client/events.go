package client

import (
	"encoding/json"
	"fmt"

	"thumbio/internal/presence"
)

// EventType names an event a subscriber can listen for.
type EventType string

const (
	EventIdentity     EventType = presence.TypeIdentity
	EventSync         EventType = presence.TypeSync
	EventCursor       EventType = presence.TypeCursor
	EventCursorLeave  EventType = presence.TypeCursorLeave
	EventUserJoined   EventType = presence.TypeUserJoined
	EventUserLeft     EventType = presence.TypeUserLeft
	EventConnected    EventType = "connected"
	EventDisconnected EventType = "disconnected"
	EventError        EventType = "error"
)

// Event is the sum of everything a Client emits.
type Event interface {
	Type() EventType
}

type IdentityEvent struct {
	UserID string
	Name   string
	Color  string
}

type SyncEvent struct {
	Users           map[string]presence.UserInfo
	Cursors         map[string]presence.CursorInfo
	ConnectionCount int
}

type CursorEvent struct {
	UserID string
	X, Y   float64
	Name   string
	Color  string
}

// CursorLeaveEvent is emitted for a relayed cursor-leave and also locally when
// a stale cursor is purged.
type CursorLeaveEvent struct {
	UserID string
}

type UserJoinedEvent struct {
	UserID          string
	Name            string
	Color           string
	ConnectionCount int
}

type UserLeftEvent struct {
	UserID          string
	ConnectionCount int
}

type ConnectedEvent struct{}

// DisconnectedEvent carries the read error when the connection dropped; Err is
// nil after Close.
type DisconnectedEvent struct {
	Err error
}

type ErrorEvent struct {
	Err error
}

func (IdentityEvent) Type() EventType     { return EventIdentity }
func (SyncEvent) Type() EventType         { return EventSync }
func (CursorEvent) Type() EventType       { return EventCursor }
func (CursorLeaveEvent) Type() EventType  { return EventCursorLeave }
func (UserJoinedEvent) Type() EventType   { return EventUserJoined }
func (UserLeftEvent) Type() EventType     { return EventUserLeft }
func (ConnectedEvent) Type() EventType    { return EventConnected }
func (DisconnectedEvent) Type() EventType { return EventDisconnected }
func (ErrorEvent) Type() EventType        { return EventError }

// decode turns a server frame into an Event.
func decode(data []byte) (Event, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch head.Type {
	case presence.TypeIdentity:
		var m presence.IdentityMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return IdentityEvent{UserID: m.UserID, Name: m.Name, Color: m.Color}, nil
	case presence.TypeSync:
		var m presence.SyncMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return SyncEvent{Users: m.Users, Cursors: m.Cursors, ConnectionCount: m.ConnectionCount}, nil
	case presence.TypeCursor:
		var m presence.CursorMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return CursorEvent{UserID: m.UserID, X: m.X, Y: m.Y, Name: m.Name, Color: m.Color}, nil
	case presence.TypeCursorLeave:
		var m presence.CursorLeaveMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return CursorLeaveEvent{UserID: m.UserID}, nil
	case presence.TypeUserJoined:
		var m presence.UserJoinedMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return UserJoinedEvent{UserID: m.UserID, Name: m.Name, Color: m.Color, ConnectionCount: m.ConnectionCount}, nil
	case presence.TypeUserLeft:
		var m presence.UserLeftMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return UserLeftEvent{UserID: m.UserID, ConnectionCount: m.ConnectionCount}, nil
	default:
		return nil, fmt.Errorf("unknown frame type %q", head.Type)
	}
}
