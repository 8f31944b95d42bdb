// Package registry provides read-only access to the schema registry:
// record-type definitions, their field lists, and the callable methods
// exported from type controllers and module-level hook files.
package registry

import (
	"errors"
	"fmt"
)

// FieldSpec describes a single field on a record type.
type FieldSpec struct {
	Name      string `json:"name"`                 // Field name as declared
	DataType  string `json:"data_type"`            // Registry field type (string, int, float, ...)
	System    bool   `json:"is_system,omitempty"`  // Managed by the registry (id, docstatus, ...)
	Auditable bool   `json:"is_auditable,omitempty"` // Audit trail field (creation, modified, owner, ...)
}

// MethodSpec describes one exported callable entry point. A method is
// uniquely identified by (OwnerType, Name).
type MethodSpec struct {
	OwnerType      string   `json:"owner_type"`
	Name           string   `json:"name"`
	ParameterNames []string `json:"parameter_names,omitempty"`
	SourceLocation string   `json:"source_location,omitempty"` // controller file or hook file
}

// TypeInfo identifies a record type and the module it belongs to.
type TypeInfo struct {
	Name   string `json:"name"`
	Module string `json:"module"`
}

// Reader is the capability consumed by the extractor. Implementations
// must be safe for concurrent use and must return copies, never views
// into internal state.
type Reader interface {
	// ListTypes returns every known type, or only the types belonging
	// to module when module is non-empty. An unknown module yields an
	// empty slice, not an error.
	ListTypes(module string) ([]TypeInfo, error)

	// GetFields returns the declared fields of a type in declaration
	// order. Returns *NotFoundError for unknown types.
	GetFields(typeName string) ([]FieldSpec, error)

	// GetMethods returns the callable methods attached to the type's
	// controller. Returns *NotFoundError for unknown types.
	GetMethods(typeName string) ([]MethodSpec, error)

	// GetHookMethods returns module-level hook-registered callables
	// across the whole installation, each carrying its declared owner.
	GetHookMethods() ([]MethodSpec, error)
}

// NotFoundError reports an unknown scope target (type or module).
type NotFoundError struct {
	Kind string // "type" or "module"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// IsNotFound reports whether err is (or wraps) a registry NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
