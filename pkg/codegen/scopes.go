package codegen

import "github.com/nightjar-mud/nightjar/pkg/value"

// Scope maps variable names to local slot indices. Scopes chain through
// their parent, and slot numbering continues across the chain so that a
// nested block's variables extend the enclosing frame instead of opening a
// new one.
type Scope struct {
	parent *Scope
	names  []*value.Symbol
}

// NewScope returns an empty top-level scope.
func NewScope() *Scope {
	return &Scope{}
}

// NewSubScope returns a scope whose slot numbering continues parent's.
func NewSubScope(parent *Scope) *Scope {
	return &Scope{parent: parent}
}

// Count returns the number of slots allocated by this scope and all of its
// parents.
func (s *Scope) Count() int {
	n := len(s.names)
	if s.parent != nil {
		n += s.parent.Count()
	}
	return n
}

// base returns the slot index of this scope's first variable.
func (s *Scope) base() int {
	if s.parent == nil {
		return 0
	}
	return s.parent.Count()
}

// Add allocates a slot for name and returns its index. Shadowing an outer
// binding is legal; the innermost one wins on lookup.
func (s *Scope) Add(name *value.Symbol) int {
	slot := s.base() + len(s.names)
	s.names = append(s.names, name)
	return slot
}

// Find resolves name to its slot, innermost scope first.
func (s *Scope) Find(name *value.Symbol) (int, bool) {
	for i := len(s.names) - 1; i >= 0; i-- {
		if s.names[i] == name {
			return s.base() + i, true
		}
	}
	if s.parent != nil {
		return s.parent.Find(name)
	}
	return 0, false
}
