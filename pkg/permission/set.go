package permission

import (
	"encoding/json"
	"slices"
	"strings"
)

// Set is a deduplicated collection of granted permissions.
// The zero value is an empty set ready to use; a Set is not safe for concurrent mutation.
type Set struct {
	items map[Permission]struct{}
}

// NewSet parses perms into a set.
func NewSet(perms ...string) (Set, error) {
	s := Set{items: make(map[Permission]struct{}, len(perms))}
	for _, raw := range perms {
		p, err := Parse(raw)
		if err != nil {
			return Set{}, err
		}
		s.items[p] = struct{}{}
	}
	return s, nil
}

// Add inserts permissions into the set.
func (s *Set) Add(perms ...Permission) {
	if s.items == nil {
		s.items = make(map[Permission]struct{}, len(perms))
	}
	for _, p := range perms {
		s.items[p] = struct{}{}
	}
}

// Union adds every permission of other into s.
func (s *Set) Union(other Set) {
	if len(other.items) == 0 {
		return
	}
	if s.items == nil {
		s.items = make(map[Permission]struct{}, len(other.items))
	}
	for p := range other.items {
		s.items[p] = struct{}{}
	}
}

// Contains reports whether p is literally present. It does not apply wildcards.
func (s Set) Contains(p Permission) bool {
	_, ok := s.items[p]
	return ok
}

// Grants reports whether some permission in the set satisfies requested.
// Only the four candidate grants can match, so the lookup is constant time.
func (s Set) Grants(requested Permission) bool {
	if len(s.items) == 0 {
		return false
	}
	candidates := [...]Permission{
		requested,
		{Namespace: requested.Namespace, Action: Wildcard},
		{Namespace: Wildcard, Action: requested.Action},
		All,
	}
	for _, c := range candidates {
		if _, ok := s.items[c]; ok {
			return true
		}
	}
	return false
}

// Allows parses requested and checks it against the set. Invalid input is denied.
func (s Set) Allows(requested string) bool {
	p, err := Parse(requested)
	if err != nil {
		return false
	}
	return s.Grants(p)
}

// Len returns the number of distinct permissions.
func (s Set) Len() int {
	return len(s.items)
}

// Strings returns the canonical permission strings sorted alphabetically.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s.items))
	for p := range s.items {
		out = append(out, p.String())
	}
	slices.Sort(out)
	return out
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	c := Set{items: make(map[Permission]struct{}, len(s.items))}
	for p := range s.items {
		c.items[p] = struct{}{}
	}
	return c
}

// String joins the sorted permissions with spaces.
func (s Set) String() string {
	return strings.Join(s.Strings(), " ")
}

// MarshalJSON encodes the set as a sorted array of strings.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON decodes an array of permission strings.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewSet(raw...)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
