// Package extract walks the schema registry and produces, per owner
// type, the field list and the de-duplicated set of callable methods
// that endpoint generation consumes.
package extract

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/schemacat/schemacat/internal/registry"
)

// DefaultSkipTypes are infrastructure types that never get generated
// endpoints. The registry manages these itself and exposing them would
// only invite accidental writes.
var DefaultSkipTypes = []string{
	"Type Definition",
	"Field Definition",
	"Custom Field",
	"Property Setter",
	"User",
	"Role",
	"Permission",
	"Error Log",
	"Activity Log",
	"File",
	"Comment",
	"Version",
	"API Generator",
	"Sync Setting",
}

// OwnerMetadata is one extraction result: an owner type with its
// declared fields and discovered methods.
type OwnerMetadata struct {
	Owner   string
	Module  string
	Fields  []registry.FieldSpec
	Methods []registry.MethodSpec
}

// OwnerError records a per-owner extraction failure. Failures on one
// owner never abort extraction of the remaining scope.
type OwnerError struct {
	Owner string
	Err   error
}

func (e OwnerError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.Owner, e.Err)
}

// Result aggregates an extraction pass.
type Result struct {
	Owners []OwnerMetadata
	Errors []OwnerError
}

// Excluded is the field-filtering predicate: fields flagged system or
// auditable are kept for reference but never appear in generated
// request bodies.
func Excluded(f registry.FieldSpec) bool {
	return f.System || f.Auditable
}

// moduleChecker is the optional reader capability for distinguishing
// an empty module from one the scan never saw.
type moduleChecker interface {
	HasModule(module string) bool
}

// Extractor resolves an extraction scope against a registry Reader.
type Extractor struct {
	reader registry.Reader
	skip   map[string]struct{}
	logger *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSkipTypes replaces the default skip list.
func WithSkipTypes(names []string) Option {
	return func(e *Extractor) {
		e.skip = make(map[string]struct{}, len(names))
		for _, n := range names {
			e.skip[n] = struct{}{}
		}
	}
}

// WithLogger sets the logger used for per-owner failure reporting.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

// New creates an Extractor over reader with the default skip list.
func New(reader registry.Reader, opts ...Option) *Extractor {
	e := &Extractor{
		reader: reader,
		skip:   make(map[string]struct{}, len(DefaultSkipTypes)),
		logger: zap.NewNop(),
	}
	for _, n := range DefaultSkipTypes {
		e.skip[n] = struct{}{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract resolves scope into per-owner metadata. A SingleType scope
// fails with *registry.NotFoundError when the type is unknown; an
// empty module is a valid zero-owner result.
func (e *Extractor) Extract(scope Scope) (*Result, error) {
	res := &Result{}
	err := e.EachOwner(scope, func(om OwnerMetadata) error {
		res.Owners = append(res.Owners, om)
		return nil
	}, func(oe OwnerError) {
		res.Errors = append(res.Errors, oe)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// EachOwner streams extraction results to fn one owner at a time, so
// whole-installation scopes never materialize the full registry at
// once. Per-owner failures are routed to onErr and extraction
// continues; only scope resolution failures are returned.
func (e *Extractor) EachOwner(scope Scope, fn func(OwnerMetadata) error, onErr func(OwnerError)) error {
	hooks, err := e.reader.GetHookMethods()
	if err != nil {
		return fmt.Errorf("listing hook methods: %w", err)
	}
	hooksByOwner := make(map[string][]registry.MethodSpec)
	for _, m := range hooks {
		hooksByOwner[m.OwnerType] = append(hooksByOwner[m.OwnerType], m)
	}

	targets, err := e.resolveScope(scope)
	if err != nil {
		return err
	}

	for _, t := range targets {
		if _, skip := e.skip[t.Name]; skip {
			continue
		}
		om, err := e.extractOwner(t, hooksByOwner[t.Name])
		if err != nil {
			e.logger.Warn("owner extraction failed",
				zap.String("owner", t.Name),
				zap.Error(err))
			if onErr != nil {
				onErr(OwnerError{Owner: t.Name, Err: err})
			}
			continue
		}
		if err := fn(om); err != nil {
			return err
		}
	}
	return nil
}

// resolveScope turns a scope into the list of owner types it covers.
func (e *Extractor) resolveScope(scope Scope) ([]registry.TypeInfo, error) {
	switch scope.Kind {
	case ScopeSingleType:
		all, err := e.reader.ListTypes("")
		if err != nil {
			return nil, err
		}
		for _, t := range all {
			if t.Name == scope.Name {
				return []registry.TypeInfo{t}, nil
			}
		}
		return nil, &registry.NotFoundError{Kind: "type", Name: scope.Name}
	case ScopeModule:
		// An unknown module and an empty module both resolve to zero
		// owners; when the reader can tell them apart, flag the former.
		if mc, ok := e.reader.(moduleChecker); ok && !mc.HasModule(scope.Name) {
			e.logger.Warn("module not present in registry",
				zap.String("module", scope.Name))
		}
		return e.reader.ListTypes(scope.Name)
	default:
		return e.reader.ListTypes("")
	}
}

// extractOwner reads one owner's fields and merges its two method
// surfaces: controller methods and hook-registered callables declared
// for the same owner. A method found on both surfaces is reported
// once, keyed by (owner, name).
func (e *Extractor) extractOwner(t registry.TypeInfo, hooks []registry.MethodSpec) (OwnerMetadata, error) {
	fields, err := e.reader.GetFields(t.Name)
	if err != nil {
		return OwnerMetadata{}, err
	}
	controller, err := e.reader.GetMethods(t.Name)
	if err != nil {
		return OwnerMetadata{}, err
	}

	seen := make(map[string]struct{}, len(controller)+len(hooks))
	methods := make([]registry.MethodSpec, 0, len(controller)+len(hooks))
	for _, m := range controller {
		if _, dup := seen[m.Name]; dup {
			continue
		}
		seen[m.Name] = struct{}{}
		m.OwnerType = t.Name
		methods = append(methods, m)
	}
	for _, m := range hooks {
		if _, dup := seen[m.Name]; dup {
			continue
		}
		seen[m.Name] = struct{}{}
		methods = append(methods, m)
	}

	// Method order must not depend on which surface reported first.
	sort.Slice(methods, func(i, j int) bool { return methods[i].Name < methods[j].Name })

	return OwnerMetadata{
		Owner:   t.Name,
		Module:  t.Module,
		Fields:  fields,
		Methods: methods,
	}, nil
}
