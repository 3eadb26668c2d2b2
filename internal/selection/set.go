// Package selection implements rectangle selection over thumbnails and labels.
package selection

import "sort"

// Set is a set of item identifiers.
type Set map[string]struct{}

// NewSet builds a set from ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Clone returns an independent copy. A nil set clones to an empty one.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// IDs returns the members in sorted order.
func (s Set) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Selection is the pair of disjoint selected-id sets the canvas keeps.
type Selection struct {
	Thumbnails Set
	Labels     Set
}

// Empty returns a selection with both sets allocated.
func Empty() Selection {
	return Selection{Thumbnails: Set{}, Labels: Set{}}
}

// Clone copies both sets.
func (s Selection) Clone() Selection {
	return Selection{Thumbnails: s.Thumbnails.Clone(), Labels: s.Labels.Clone()}
}

// Len is the total number of selected items.
func (s Selection) Len() int { return len(s.Thumbnails) + len(s.Labels) }
