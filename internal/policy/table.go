// Package policy decides which roles may emit which event types.
package policy

import (
	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
)

// Table maps each role to its permitted event types. It is built once and
// never modified, so it is safe for concurrent use.
type Table struct {
	allowed map[domain.Role]map[domain.EventType]struct{}
}

// NewTable builds a table from event specifications. Every role in the
// catalog gets exactly one permitted set.
func NewTable(specs []domain.EventSpec) *Table {
	t := &Table{allowed: make(map[domain.Role]map[domain.EventType]struct{})}
	for _, r := range domain.Roles() {
		t.allowed[r] = make(map[domain.EventType]struct{})
	}
	for _, spec := range specs {
		set, ok := t.allowed[spec.Owner]
		if !ok {
			continue
		}
		set[spec.Type] = struct{}{}
	}
	return t
}

// Default returns the table for the built-in event catalog.
func Default() *Table {
	return NewTable(domain.Catalog())
}

// IsAllowed reports whether role may emit eventType. Unknown roles and
// event types outside the role's set are rejected.
func (t *Table) IsAllowed(role domain.Role, eventType domain.EventType) bool {
	set, ok := t.allowed[role]
	if !ok {
		return false
	}
	_, ok = set[eventType]
	return ok
}

// Knows reports whether role has an entry in the table.
func (t *Table) Knows(role domain.Role) bool {
	_, ok := t.allowed[role]
	return ok
}
