package extract

import "fmt"

// ScopeKind selects how much of the registry an extraction pass covers.
type ScopeKind int

const (
	// ScopeSingleType covers exactly one named record type.
	ScopeSingleType ScopeKind = iota
	// ScopeModule covers every type the registry reports for a module.
	ScopeModule
	// ScopeAll covers every known type in the installation.
	ScopeAll
)

// Scope is an extraction target.
type Scope struct {
	Kind ScopeKind
	Name string // type or module name; empty for ScopeAll
}

// SingleType returns a scope covering one record type.
func SingleType(name string) Scope {
	return Scope{Kind: ScopeSingleType, Name: name}
}

// Module returns a scope covering every type in a module.
func Module(name string) Scope {
	return Scope{Kind: ScopeModule, Name: name}
}

// All returns a scope covering the whole installation.
func All() Scope {
	return Scope{Kind: ScopeAll}
}

func (s Scope) String() string {
	switch s.Kind {
	case ScopeSingleType:
		return fmt.Sprintf("type %q", s.Name)
	case ScopeModule:
		return fmt.Sprintf("module %q", s.Name)
	default:
		return "all types"
	}
}
