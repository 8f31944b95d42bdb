package registry

import "sync"

// MemoryReader is an in-memory Reader used in tests and for seeding
// small installations without a snapshot file.
type MemoryReader struct {
	mu    sync.RWMutex
	types map[string]*TypeEntry
	order []string // registration order, for stable ListTypes output
	hooks []MethodSpec
}

// NewMemoryReader creates an empty in-memory registry.
func NewMemoryReader() *MemoryReader {
	return &MemoryReader{types: make(map[string]*TypeEntry)}
}

// AddType registers a type with its fields and controller methods.
// Re-registering a name replaces the previous entry.
func (r *MemoryReader) AddType(name, module string, fields []FieldSpec, methods []MethodSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[name]; !exists {
		r.order = append(r.order, name)
	}
	r.types[name] = &TypeEntry{Name: name, Module: module, Fields: fields, Methods: methods}
}

// AddHookMethod registers a module-level hook callable.
func (r *MemoryReader) AddHookMethod(m MethodSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, m)
}

// ListTypes implements Reader.
func (r *MemoryReader) ListTypes(module string) ([]TypeInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var infos []TypeInfo
	for _, name := range r.order {
		t := r.types[name]
		if module != "" && t.Module != module {
			continue
		}
		infos = append(infos, TypeInfo{Name: t.Name, Module: t.Module})
	}
	return infos, nil
}

// GetFields implements Reader.
func (r *MemoryReader) GetFields(typeName string) ([]FieldSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[typeName]
	if !ok {
		return nil, &NotFoundError{Kind: "type", Name: typeName}
	}
	fields := make([]FieldSpec, len(t.Fields))
	copy(fields, t.Fields)
	return fields, nil
}

// GetMethods implements Reader.
func (r *MemoryReader) GetMethods(typeName string) ([]MethodSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[typeName]
	if !ok {
		return nil, &NotFoundError{Kind: "type", Name: typeName}
	}
	methods := make([]MethodSpec, len(t.Methods))
	copy(methods, t.Methods)
	return methods, nil
}

// HasModule reports whether any registered type belongs to module.
func (r *MemoryReader) HasModule(module string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.types {
		if t.Module == module {
			return true
		}
	}
	return false
}

// GetHookMethods implements Reader.
func (r *MemoryReader) GetHookMethods() ([]MethodSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hooks := make([]MethodSpec, len(r.hooks))
	copy(hooks, r.hooks)
	return hooks, nil
}
