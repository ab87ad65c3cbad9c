package permission

import (
	"fmt"
	"strings"
)

const (
	// Separator splits namespace and action.
	Separator = ":"

	// Wildcard matches any namespace or any action.
	Wildcard = "*"
)

// All is the permission that grants everything.
var All = Permission{Namespace: Wildcard, Action: Wildcard}

// Permission is an immutable namespace/action pair.
type Permission struct {
	Namespace string
	Action    string
}

// Parse validates and normalizes a permission string.
// Segments are lower-cased; each must be "*" or consist of [a-z0-9_.-].
func Parse(s string) (Permission, error) {
	ns, action, ok := strings.Cut(strings.TrimSpace(s), Separator)
	if !ok {
		return Permission{}, fmt.Errorf("%w: %q: missing %q separator", ErrInvalidPermission, s, Separator)
	}

	ns = strings.ToLower(ns)
	action = strings.ToLower(action)
	if !validSegment(ns) || !validSegment(action) {
		return Permission{}, fmt.Errorf("%w: %q", ErrInvalidPermission, s)
	}

	return Permission{Namespace: ns, Action: action}, nil
}

// MustParse is like Parse but panics on invalid input. Intended for constants.
func MustParse(s string) Permission {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func validSegment(seg string) bool {
	if seg == Wildcard {
		return true
	}
	if seg == "" {
		return false
	}
	for _, r := range seg {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
		default:
			return false
		}
	}
	return true
}

// String returns the canonical "<namespace>:<action>" form.
func (p Permission) String() string {
	return p.Namespace + Separator + p.Action
}

// IsWildcard reports whether either segment is a wildcard.
func (p Permission) IsWildcard() bool {
	return p.Namespace == Wildcard || p.Action == Wildcard
}

// Grants reports whether p, as a granted permission, satisfies requested.
func (p Permission) Grants(requested Permission) bool {
	return segmentMatches(p.Namespace, requested.Namespace) &&
		segmentMatches(p.Action, requested.Action)
}

func segmentMatches(granted, requested string) bool {
	return granted == Wildcard || granted == requested
}

// Matches reports whether the granted permission string satisfies the requested one.
// Invalid input on either side never matches.
func Matches(granted, requested string) bool {
	g, err := Parse(granted)
	if err != nil {
		return false
	}
	r, err := Parse(requested)
	if err != nil {
		return false
	}
	return g.Grants(r)
}

// Normalize parses every entry and returns canonical strings, deduplicated and sorted.
// The first invalid entry aborts with ErrInvalidPermission.
func Normalize(perms []string) ([]string, error) {
	set, err := NewSet(perms...)
	if err != nil {
		return nil, err
	}
	return set.Strings(), nil
}
