// Package syncer reconciles the canonical descriptor tree against the
// remote collection store: it computes a minimal edit script by
// content-hash comparison and applies it with bounded concurrency,
// retry with backoff, and per-operation failure reporting.
package syncer

import (
	"github.com/schemacat/schemacat/internal/tree"
)

// OpKind is the type of one edit-script operation.
type OpKind int

const (
	// OpKeep marks an unchanged leaf; no remote call is made.
	OpKeep OpKind = iota
	// OpCreate creates a folder or leaf missing from the remote tree.
	OpCreate
	// OpUpdate replaces a remote leaf whose hash differs.
	OpUpdate
	// OpDelete removes a stale remote node.
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "keep"
	}
}

// Op is one edit-script operation. For creates, Node is the canonical
// node to materialize and Parent its canonical parent (nil when the
// parent is the root); the parent's remote id is resolved during
// apply, after the parent's own create has run. For updates and
// deletes, RemoteID addresses the existing remote node.
type Op struct {
	Kind     OpKind
	Node     *tree.Node
	Parent   *tree.Node
	RemoteID string
	Path     string // slash-joined tree path, for reporting
}

// Subtree is the unit of parallel application: one top-level folder's
// operations, applied strictly in order.
type Subtree struct {
	Name string
	Ops  []Op
}

// Conflict records a kind mismatch (folder vs leaf) at the same name.
// The subtree below it is skipped entirely, never overwritten.
type Conflict struct {
	Path          string
	CanonicalKind tree.Kind
	RemoteKind    tree.Kind
}

// Plan is the computed edit script, partitioned by top-level subtree
// so that no two workers touch overlapping remote nodes.
type Plan struct {
	Subtrees  []Subtree
	Ignored   []string // remote-only leaves preserved as manual content
	Conflicts []Conflict

	rootID    string
	folderIDs map[*tree.Node]string // canonical folder -> matched remote id
}

// Counts returns the number of operations per kind.
func (p *Plan) Counts() map[OpKind]int {
	counts := make(map[OpKind]int)
	for _, st := range p.Subtrees {
		for _, op := range st.Ops {
			counts[op.Kind]++
		}
	}
	return counts
}

// MutationCount returns the number of operations that require a
// remote call.
func (p *Plan) MutationCount() int {
	n := 0
	for _, st := range p.Subtrees {
		for _, op := range st.Ops {
			if op.Kind != OpKeep {
				n++
			}
		}
	}
	return n
}
