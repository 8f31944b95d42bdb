package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Snapshot is the serialized registry index. It is produced by an
// ahead-of-time scan of the installation (controllers plus hook files)
// and loaded once at startup; method discovery never happens at
// runtime.
type Snapshot struct {
	Version     string       `json:"version"`
	Generated   time.Time    `json:"generated"`
	Types       []TypeEntry  `json:"types"`
	HookMethods []MethodSpec `json:"hook_methods,omitempty"`
}

// TypeEntry captures one record type in the snapshot.
type TypeEntry struct {
	Name    string       `json:"name"`
	Module  string       `json:"module"`
	Fields  []FieldSpec  `json:"fields"`
	Methods []MethodSpec `json:"methods,omitempty"`
}

// IndexReader is a Reader backed by a loaded Snapshot. Lookups go
// through indexes built once at load time.
type IndexReader struct {
	mu sync.RWMutex

	snapshot    *Snapshot
	typesByName map[string]*TypeEntry
	typesByMod  map[string][]*TypeEntry
}

// LoadIndex parses a snapshot from JSON and builds the lookup indexes.
func LoadIndex(data []byte) (*IndexReader, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal registry index: %w", err)
	}
	return NewIndexReader(&snap), nil
}

// LoadIndexFile reads and parses a snapshot file.
func LoadIndexFile(path string) (*IndexReader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry index %s: %w", path, err)
	}
	return LoadIndex(data)
}

// NewIndexReader builds a Reader over an in-memory snapshot.
func NewIndexReader(snap *Snapshot) *IndexReader {
	r := &IndexReader{
		snapshot:    snap,
		typesByName: make(map[string]*TypeEntry),
		typesByMod:  make(map[string][]*TypeEntry),
	}
	for i := range snap.Types {
		t := &snap.Types[i]
		r.typesByName[t.Name] = t
		r.typesByMod[t.Module] = append(r.typesByMod[t.Module], t)
	}
	return r
}

// ListTypes implements Reader.
func (r *IndexReader) ListTypes(module string) ([]TypeInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []*TypeEntry
	if module == "" {
		entries = make([]*TypeEntry, 0, len(r.snapshot.Types))
		for i := range r.snapshot.Types {
			entries = append(entries, &r.snapshot.Types[i])
		}
	} else {
		entries = r.typesByMod[module]
	}

	infos := make([]TypeInfo, 0, len(entries))
	for _, t := range entries {
		infos = append(infos, TypeInfo{Name: t.Name, Module: t.Module})
	}
	return infos, nil
}

// GetFields implements Reader. The returned slice is a copy in
// declaration order.
func (r *IndexReader) GetFields(typeName string) ([]FieldSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.typesByName[typeName]
	if !ok {
		return nil, &NotFoundError{Kind: "type", Name: typeName}
	}
	fields := make([]FieldSpec, len(t.Fields))
	copy(fields, t.Fields)
	return fields, nil
}

// GetMethods implements Reader.
func (r *IndexReader) GetMethods(typeName string) ([]MethodSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.typesByName[typeName]
	if !ok {
		return nil, &NotFoundError{Kind: "type", Name: typeName}
	}
	methods := make([]MethodSpec, len(t.Methods))
	copy(methods, t.Methods)
	return methods, nil
}

// GetHookMethods implements Reader.
func (r *IndexReader) GetHookMethods() ([]MethodSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	methods := make([]MethodSpec, len(r.snapshot.HookMethods))
	copy(methods, r.snapshot.HookMethods)
	return methods, nil
}

// HasModule reports whether the snapshot contains any type in module.
// Used by callers to distinguish an empty module (valid, zero result)
// from a module the scan never saw.
func (r *IndexReader) HasModule(module string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.typesByMod[module]
	return ok
}
