package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/schemacat/schemacat/internal/descriptor"
	"github.com/schemacat/schemacat/internal/tree"
)

// MemoryStore is an in-memory Store used in tests and dry runs. It
// assigns UUID remote ids and counts mutating calls, which is how the
// idempotency tests verify that an unchanged canonical tree produces
// zero writes.
type MemoryStore struct {
	mu    sync.Mutex
	root  *memNode
	nodes map[string]*memNode

	// Hook, when set, runs before every mutating call and can inject
	// failures. op is one of create-folder, create-request,
	// update-request, delete-request, delete-folder.
	Hook func(op, name string) error

	mutations int
}

type memNode struct {
	id       string
	name     string
	kind     tree.Kind
	desc     *descriptor.Descriptor
	parent   *memNode
	children []*memNode
}

// NewMemoryStore creates an empty in-memory collection.
func NewMemoryStore() *MemoryStore {
	root := &memNode{id: uuid.NewString(), name: "", kind: tree.Folder}
	return &MemoryStore{
		root:  root,
		nodes: map[string]*memNode{root.id: root},
	}
}

// Mutations returns the number of mutating calls performed so far.
func (s *MemoryStore) Mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutations
}

// SeedFolder inserts a folder directly, bypassing the Store interface
// and the mutation counter. Empty parentID targets the root.
func (s *MemoryStore) SeedFolder(parentID, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent := s.resolve(parentID)
	node := &memNode{id: uuid.NewString(), name: name, kind: tree.Folder, parent: parent}
	parent.children = append(parent.children, node)
	s.nodes[node.id] = node
	return node.id
}

// SeedRequest inserts a request leaf directly. The hash is computed
// from the content, as a store without persisted hashes would.
func (s *MemoryStore) SeedRequest(parentID, name, verb, path, body string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent := s.resolve(parentID)
	node := &memNode{
		id:     uuid.NewString(),
		name:   name,
		kind:   tree.Leaf,
		parent: parent,
		desc: &descriptor.Descriptor{
			Verb:         verb,
			PathTemplate: path,
			ExampleBody:  body,
			ContentHash:  descriptor.Hash(verb, path, body),
		},
	}
	parent.children = append(parent.children, node)
	s.nodes[node.id] = node
	return node.id
}

func (s *MemoryStore) resolve(id string) *memNode {
	if id == "" {
		return s.root
	}
	return s.nodes[id]
}

// Ping implements Store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// FetchTree implements Store.
func (s *MemoryStore) FetchTree(ctx context.Context) (*tree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.export(s.root), nil
}

func (s *MemoryStore) export(n *memNode) *tree.Node {
	node := &tree.Node{Name: n.name, Kind: n.kind, RemoteID: n.id}
	if n.desc != nil {
		d := *n.desc
		node.Descriptor = &d
	}
	for _, c := range n.children {
		node.Children = append(node.Children, s.export(c))
	}
	return node
}

func (s *MemoryStore) mutate(op, name string) error {
	if s.Hook != nil {
		if err := s.Hook(op, name); err != nil {
			return err
		}
	}
	s.mutations++
	return nil
}

// CreateFolder implements Store.
func (s *MemoryStore) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutate("create-folder", name); err != nil {
		return "", err
	}
	parent := s.resolve(parentID)
	if parent == nil {
		return "", &APIError{Status: 404, Message: fmt.Sprintf("unknown parent %s", parentID)}
	}
	node := &memNode{id: uuid.NewString(), name: name, kind: tree.Folder, parent: parent}
	parent.children = append(parent.children, node)
	s.nodes[node.id] = node
	return node.id, nil
}

// CreateRequest implements Store.
func (s *MemoryStore) CreateRequest(ctx context.Context, parentID string, leaf *tree.Node) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutate("create-request", leaf.Name); err != nil {
		return "", err
	}
	parent := s.resolve(parentID)
	if parent == nil {
		return "", &APIError{Status: 404, Message: fmt.Sprintf("unknown parent %s", parentID)}
	}
	d := *leaf.Descriptor
	node := &memNode{id: uuid.NewString(), name: leaf.Name, kind: tree.Leaf, parent: parent, desc: &d}
	parent.children = append(parent.children, node)
	s.nodes[node.id] = node
	return node.id, nil
}

// UpdateRequest implements Store.
func (s *MemoryStore) UpdateRequest(ctx context.Context, id string, leaf *tree.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutate("update-request", leaf.Name); err != nil {
		return err
	}
	node, ok := s.nodes[id]
	if !ok || node.kind != tree.Leaf {
		return &APIError{Status: 404, Message: fmt.Sprintf("unknown request %s", id)}
	}
	d := *leaf.Descriptor
	node.desc = &d
	node.name = leaf.Name
	return nil
}

// DeleteRequest implements Store.
func (s *MemoryStore) DeleteRequest(ctx context.Context, id string) error {
	return s.delete(ctx, id, tree.Leaf, "delete-request")
}

// DeleteFolder implements Store. Non-empty folders are rejected.
func (s *MemoryStore) DeleteFolder(ctx context.Context, id string) error {
	return s.delete(ctx, id, tree.Folder, "delete-folder")
}

func (s *MemoryStore) delete(ctx context.Context, id string, kind tree.Kind, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.nodes[id]
	if !ok || node.kind != kind {
		return &APIError{Status: 404, Message: fmt.Sprintf("unknown node %s", id)}
	}
	// Rejections happen before the mutation is counted.
	if kind == tree.Folder && len(node.children) > 0 {
		return &APIError{Status: 409, Message: fmt.Sprintf("folder %s is not empty", node.name)}
	}
	if err := s.mutate(op, node.name); err != nil {
		return err
	}
	parent := node.parent
	for i, c := range parent.children {
		if c.id == id {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	delete(s.nodes, id)
	return nil
}
