package syncer

import (
	"strings"

	"github.com/schemacat/schemacat/internal/tree"
)

// Diff walks the canonical and remote trees in lock-step by name and
// produces the edit script. The canonical tree is read-only; matched
// remote ids are tracked in the plan, never written back into it.
//
// Remote-only content is handled conservatively: folders are preserved
// unless they are empty after removing stale generated descendants,
// and leaves whose path does not start with a known owner-type segment
// are left untouched and reported as ignored.
func Diff(canonical, remote *tree.Node) *Plan {
	plan := &Plan{
		rootID:    remote.RemoteID,
		folderIDs: make(map[*tree.Node]string),
	}
	known := knownOwnerSegments(canonical)

	d := &differ{plan: plan, known: known}

	// Each top-level name, canonical or remote-only, becomes its own
	// subtree so apply can parallelize without overlapping nodes.
	seen := make(map[string]struct{})
	for _, cc := range canonical.Children {
		seen[cc.Name] = struct{}{}
		ops := d.diffChild(cc, remote.Child(cc.Name), nil, "/"+cc.Name)
		if len(ops) > 0 {
			plan.Subtrees = append(plan.Subtrees, Subtree{Name: cc.Name, Ops: ops})
		}
	}
	for _, rc := range remote.Children {
		if _, ok := seen[rc.Name]; ok {
			continue
		}
		ops := d.diffRemoteOnly(rc, "/"+rc.Name)
		if len(ops) > 0 {
			plan.Subtrees = append(plan.Subtrees, Subtree{Name: rc.Name, Ops: ops})
		}
	}

	return plan
}

type differ struct {
	plan  *Plan
	known map[string]struct{}
}

// diffChild reconciles one canonical node against its same-named
// remote counterpart (nil when absent).
func (d *differ) diffChild(canonical, remote *tree.Node, parent *tree.Node, path string) []Op {
	if remote == nil {
		return d.emitCreate(canonical, parent, path)
	}

	if canonical.Kind != remote.Kind {
		d.plan.Conflicts = append(d.plan.Conflicts, Conflict{
			Path:          path,
			CanonicalKind: canonical.Kind,
			RemoteKind:    remote.Kind,
		})
		return nil
	}

	if canonical.Kind == tree.Leaf {
		if canonical.Descriptor.ContentHash == remote.Descriptor.ContentHash {
			return []Op{{Kind: OpKeep, Node: canonical, RemoteID: remote.RemoteID, Path: path}}
		}
		return []Op{{Kind: OpUpdate, Node: canonical, RemoteID: remote.RemoteID, Path: path}}
	}

	// Matched folders are implicit containers: record the id mapping
	// and recurse, emitting nothing for the folder itself.
	d.plan.folderIDs[canonical] = remote.RemoteID

	var ops []Op
	seen := make(map[string]struct{})
	for _, cc := range canonical.Children {
		seen[cc.Name] = struct{}{}
		ops = append(ops, d.diffChild(cc, remote.Child(cc.Name), canonical, path+"/"+cc.Name)...)
	}
	for _, rc := range remote.Children {
		if _, ok := seen[rc.Name]; ok {
			continue
		}
		ops = append(ops, d.diffRemoteOnly(rc, path+"/"+rc.Name)...)
	}
	return ops
}

// emitCreate emits creates for a canonical-only subtree, parents
// before children.
func (d *differ) emitCreate(node, parent *tree.Node, path string) []Op {
	ops := []Op{{Kind: OpCreate, Node: node, Parent: parent, Path: path}}
	for _, c := range node.Children {
		ops = append(ops, d.emitCreate(c, node, path+"/"+c.Name)...)
	}
	return ops
}

// diffRemoteOnly handles a remote node with no canonical counterpart.
// Generated leaves are deleted; anything that looks hand-made is
// ignored. A folder is deleted only when nothing below it survives,
// with the folder delete emitted after its children's.
func (d *differ) diffRemoteOnly(node *tree.Node, path string) []Op {
	if node.Kind == tree.Leaf {
		if d.matchesConvention(node) {
			return []Op{{Kind: OpDelete, Node: node, RemoteID: node.RemoteID, Path: path}}
		}
		d.plan.Ignored = append(d.plan.Ignored, path)
		return nil
	}

	var ops []Op
	empty := true
	for _, c := range node.Children {
		childOps := d.diffRemoteOnly(c, path+"/"+c.Name)
		// A child survives when it produced no delete: either an
		// ignored leaf or a preserved folder.
		if len(childOps) == 0 {
			empty = false
		} else if c.Kind == tree.Folder && childOps[len(childOps)-1].Node != c {
			empty = false
		}
		ops = append(ops, childOps...)
	}
	if empty {
		ops = append(ops, Op{Kind: OpDelete, Node: node, RemoteID: node.RemoteID, Path: path})
	}
	return ops
}

// matchesConvention reports whether a remote-only leaf looks like one
// this engine generated: its path starts with a known owner-type
// segment under /api/resource/ or /api/method/.
func (d *differ) matchesConvention(leaf *tree.Node) bool {
	if leaf.Descriptor == nil {
		return false
	}
	segment := ownerSegment(leaf.Descriptor.PathTemplate)
	if segment == "" {
		return false
	}
	_, known := d.known[segment]
	return known
}

// knownOwnerSegments collects the owner-type path segments present in
// the canonical tree's leaves.
func knownOwnerSegments(canonical *tree.Node) map[string]struct{} {
	known := make(map[string]struct{})
	canonical.Walk(func(n *tree.Node, _ int) bool {
		if n.Kind == tree.Leaf && n.Descriptor != nil {
			if seg := ownerSegment(n.Descriptor.PathTemplate); seg != "" {
				known[seg] = struct{}{}
			}
		}
		return true
	})
	return known
}

// ownerSegment extracts the owner slug from a generated path template:
// /api/resource/<slug>[/...] or /api/method/<slug>.<name>.
func ownerSegment(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/resource/"):
		rest := strings.TrimPrefix(path, "/api/resource/")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			rest = rest[:i]
		}
		return rest
	case strings.HasPrefix(path, "/api/method/"):
		rest := strings.TrimPrefix(path, "/api/method/")
		if i := strings.IndexByte(rest, '.'); i >= 0 {
			return rest[:i]
		}
		return ""
	default:
		return ""
	}
}
