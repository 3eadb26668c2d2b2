// Package history is a bounded linear undo/redo stack of state snapshots.
package history

import "time"

// DefaultCapacity is the number of recorded actions kept by default.
const DefaultCapacity = 50

// Entry is one snapshot in the history.
type Entry[T any] struct {
	Label     string
	Snapshot  T
	Timestamp time.Time
}

// Stack stores deep copies of snapshots. Index 0 is the baseline state; each
// Record appends after the cursor and drops any redo entries.
type Stack[T any] struct {
	entries  []Entry[T]
	cursor   int
	capacity int
	clone    func(T) T
	now      func() time.Time
}

// Option configures a Stack.
type Option[T any] func(*Stack[T])

// WithCapacity sets how many recorded actions are kept.
func WithCapacity[T any](n int) Option[T] {
	return func(s *Stack[T]) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(s *Stack[T]) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a stack whose baseline is initial. clone must return a deep copy.
func New[T any](initial T, clone func(T) T, opts ...Option[T]) *Stack[T] {
	if clone == nil {
		panic("clone func cannot be nil for history Stack")
	}
	s := &Stack[T]{capacity: DefaultCapacity, clone: clone, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.entries = []Entry[T]{{Label: "initial", Snapshot: clone(initial), Timestamp: s.now()}}
	return s
}

// Record stores a copy of snapshot as the state after action label.
func (s *Stack[T]) Record(label string, snapshot T) {
	s.entries = append(s.entries[:s.cursor+1], Entry[T]{
		Label:     label,
		Snapshot:  s.clone(snapshot),
		Timestamp: s.now(),
	})
	if over := len(s.entries) - (s.capacity + 1); over > 0 {
		s.entries = append(s.entries[:0:0], s.entries[over:]...)
	}
	s.cursor = len(s.entries) - 1
}

// Undo steps back and returns the prior state. ok is false at the beginning.
func (s *Stack[T]) Undo() (snapshot T, ok bool) {
	if s.cursor == 0 {
		return snapshot, false
	}
	s.cursor--
	return s.clone(s.entries[s.cursor].Snapshot), true
}

// Redo steps forward and returns the next state. ok is false at the end.
func (s *Stack[T]) Redo() (snapshot T, ok bool) {
	if s.cursor >= len(s.entries)-1 {
		return snapshot, false
	}
	s.cursor++
	return s.clone(s.entries[s.cursor].Snapshot), true
}

// Reset discards everything and makes initial the new baseline.
func (s *Stack[T]) Reset(initial T) {
	s.entries = []Entry[T]{{Label: "initial", Snapshot: s.clone(initial), Timestamp: s.now()}}
	s.cursor = 0
}

// CanUndo reports whether Undo would move.
func (s *Stack[T]) CanUndo() bool { return s.cursor > 0 }

// CanRedo reports whether Redo would move.
func (s *Stack[T]) CanRedo() bool { return s.cursor < len(s.entries)-1 }

// Len is the number of recorded actions, baseline excluded.
func (s *Stack[T]) Len() int { return len(s.entries) - 1 }

// Labels lists the recorded action labels, oldest first.
func (s *Stack[T]) Labels() []string {
	out := make([]string, 0, len(s.entries)-1)
	for _, e := range s.entries[1:] {
		out = append(out, e.Label)
	}
	return out
}
