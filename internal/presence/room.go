package presence

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"thumbio/internal/geometry"

	"github.com/sirupsen/logrus"
)

// Peer is one connection in a room. Send must not block; a failure only
// affects that peer.
type Peer interface {
	ID() string
	Send(message []byte) error
}

// Cursor is a participant's last reported position.
type Cursor struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Timestamp time.Time `json:"timestamp"`
}

// Participant is one connection's identity within a room.
type Participant struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Cursor *Cursor `json:"cursor,omitempty"`
}

type member struct {
	peer        Peer
	participant Participant
	joined      int64
}

// Room is the roster and cursor state of one named room.
type Room struct {
	name     string
	mu       sync.RWMutex
	members  map[string]*member
	seq      int64
	identity IdentityFunc
	now      func() time.Time
	log      *logrus.Entry
}

// RoomOption configures a Room.
type RoomOption func(*Room)

// WithIdentity overrides name and colour generation.
func WithIdentity(fn IdentityFunc) RoomOption {
	return func(r *Room) {
		if fn != nil {
			r.identity = fn
		}
	}
}

// WithClock overrides the cursor timestamp source.
func WithClock(now func() time.Time) RoomOption {
	return func(r *Room) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRoom returns an empty room.
func NewRoom(name string, opts ...RoomOption) *Room {
	r := &Room{
		name:     name,
		members:  make(map[string]*member),
		identity: RandomIdentity(),
		now:      time.Now,
		log:      logrus.WithFields(logrus.Fields{"component": "presence_room", "room": name}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name is the room name.
func (r *Room) Name() string { return r.name }

// Len is the number of connected participants.
func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Roster returns a copy of the participants in join order.
func (r *Room) Roster() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ms := make([]*member, 0, len(r.members))
	for _, m := range r.members {
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].joined < ms[j].joined })
	out := make([]Participant, 0, len(ms))
	for _, m := range ms {
		out = append(out, copyParticipant(m.participant))
	}
	return out
}

// OnConnect registers peer, sends it identity and sync, and announces it to
// everyone else.
func (r *Room) OnConnect(peer Peer) Participant {
	name, color := r.identity()
	p := Participant{ID: peer.ID(), Name: name, Color: color}

	r.mu.Lock()
	r.seq++
	r.members[p.ID] = &member{peer: peer, participant: p, joined: r.seq}
	snapshot := SyncMessage{
		Type:            TypeSync,
		Users:           make(map[string]UserInfo, len(r.members)),
		Cursors:         make(map[string]CursorInfo),
		ConnectionCount: len(r.members),
	}
	for id, m := range r.members {
		if id == p.ID {
			continue
		}
		snapshot.Users[id] = UserInfo{ID: id, Name: m.participant.Name, Color: m.participant.Color}
		if c := m.participant.Cursor; c != nil {
			snapshot.Cursors[id] = CursorInfo{X: c.X, Y: c.Y, Name: m.participant.Name, Color: m.participant.Color}
		}
	}
	count := len(r.members)
	r.mu.Unlock()

	logCtx := r.log.WithFields(logrus.Fields{"user_id": p.ID, "name": p.Name, "connection_count": count})
	logCtx.Info("Presence: participant joined")

	r.sendTo(peer, IdentityMessage{Type: TypeIdentity, UserID: p.ID, Color: p.Color, Name: p.Name})
	r.sendTo(peer, snapshot)
	r.Broadcast(UserJoinedMessage{
		Type:            TypeUserJoined,
		UserID:          p.ID,
		Name:            p.Name,
		Color:           p.Color,
		ConnectionCount: count,
	}, p.ID)
	return p
}

// OnMessage handles one inbound frame from peerID. Malformed frames and
// invalid cursors are dropped.
func (r *Room) OnMessage(peerID string, payload []byte) {
	logCtx := r.log.WithField("user_id", peerID)

	var msg inbound
	if err := json.Unmarshal(payload, &msg); err != nil {
		logCtx.WithError(err).Warn("Presence: dropping malformed message")
		return
	}

	switch msg.Type {
	case TypeCursor:
		x, okX := finite(msg.X)
		y, okY := finite(msg.Y)
		if !okX || !okY {
			logCtx.Debug("Presence: dropping cursor with invalid coordinates")
			return
		}
		r.mu.Lock()
		m, ok := r.members[peerID]
		if !ok {
			r.mu.Unlock()
			return
		}
		m.participant.Cursor = &Cursor{X: x, Y: y, Timestamp: r.now()}
		out := CursorMessage{Type: TypeCursor, UserID: peerID, X: x, Y: y, Name: m.participant.Name, Color: m.participant.Color}
		r.mu.Unlock()
		r.Broadcast(out, peerID)

	case TypeCursorLeave:
		r.mu.Lock()
		m, ok := r.members[peerID]
		if ok {
			m.participant.Cursor = nil
		}
		r.mu.Unlock()
		if ok {
			r.Broadcast(CursorLeaveMessage{Type: TypeCursorLeave, UserID: peerID}, peerID)
		}

	default:
		logCtx.WithField("type", msg.Type).Warn("Presence: ignoring unknown message type")
	}
}

// OnDisconnect removes peerID and announces the departure. It reports
// whether the peer was a member.
func (r *Room) OnDisconnect(peerID string) bool {
	r.mu.Lock()
	_, ok := r.members[peerID]
	delete(r.members, peerID)
	count := len(r.members)
	r.mu.Unlock()
	if !ok {
		return false
	}
	r.log.WithFields(logrus.Fields{"user_id": peerID, "connection_count": count}).Info("Presence: participant left")
	r.Broadcast(UserLeftMessage{Type: TypeUserLeft, UserID: peerID, ConnectionCount: count}, peerID)
	return true
}

// Broadcast sends message to every member except excludeIDs. Recipients are
// snapshotted first so a concurrent disconnect cannot disturb delivery.
func (r *Room) Broadcast(message any, excludeIDs ...string) {
	data, err := json.Marshal(message)
	if err != nil {
		r.log.WithError(err).Error("Presence: failed to marshal broadcast")
		return
	}

	r.mu.RLock()
	recipients := make([]Peer, 0, len(r.members))
	for id, m := range r.members {
		if !contains(excludeIDs, id) {
			recipients = append(recipients, m.peer)
		}
	}
	r.mu.RUnlock()

	for _, p := range recipients {
		if err := p.Send(data); err != nil {
			r.log.WithError(err).WithField("receiver_user_id", p.ID()).Warn("Presence: send failed, skipping peer")
		}
	}
}

func (r *Room) sendTo(p Peer, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		r.log.WithError(err).Error("Presence: failed to marshal message")
		return
	}
	if err := p.Send(data); err != nil {
		r.log.WithError(err).WithField("receiver_user_id", p.ID()).Warn("Presence: send failed")
	}
}

func finite(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, geometry.IsFinite(v)
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func copyParticipant(p Participant) Participant {
	if p.Cursor != nil {
		c := *p.Cursor
		p.Cursor = &c
	}
	return p
}
