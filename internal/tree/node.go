// Package tree models the hierarchical descriptor catalog: the
// locally-assembled canonical tree and the fetched remote tree share
// one node type.
package tree

import (
	"sort"

	"github.com/schemacat/schemacat/internal/descriptor"
)

// Kind distinguishes folders from leaf descriptors.
type Kind int

const (
	// Folder nodes carry children and no descriptor.
	Folder Kind = iota
	// Leaf nodes carry exactly one descriptor and no children.
	Leaf
)

func (k Kind) String() string {
	if k == Leaf {
		return "leaf"
	}
	return "folder"
}

// Node is one catalog entry. RemoteID is populated only on nodes
// matched to (or fetched from) the remote store; empty means pending
// creation.
type Node struct {
	Name       string
	Kind       Kind
	Children   []*Node
	Descriptor *descriptor.Descriptor
	RemoteID   string
}

// NewFolder creates an empty folder node.
func NewFolder(name string) *Node {
	return &Node{Name: name, Kind: Folder}
}

// NewLeaf creates a leaf node wrapping d, named after the descriptor.
func NewLeaf(d descriptor.Descriptor) *Node {
	return &Node{Name: d.Name(), Kind: Leaf, Descriptor: &d}
}

// Child returns the direct child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Add appends a child node.
func (n *Node) Add(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// SortChildren orders children lexicographically by name, recursively.
func (n *Node) SortChildren() {
	sort.Slice(n.Children, func(i, j int) bool {
		return n.Children[i].Name < n.Children[j].Name
	})
	for _, c := range n.Children {
		c.SortChildren()
	}
}

// Walk visits n and its descendants depth-first, parents before
// children. The walk stops when fn returns false for a subtree.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(0, fn)
}

func (n *Node) walk(depth int, fn func(node *Node, depth int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(depth+1, fn)
	}
}

// LeafCount returns the number of leaf descendants.
func (n *Node) LeafCount() int {
	count := 0
	n.Walk(func(node *Node, _ int) bool {
		if node.Kind == Leaf {
			count++
		}
		return true
	})
	return count
}
