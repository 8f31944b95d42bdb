package syncer

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemacat/schemacat/internal/descriptor"
	"github.com/schemacat/schemacat/internal/registry"
	"github.com/schemacat/schemacat/internal/tree"
)

func invoiceOwner() tree.OwnerDescriptors {
	fields := []registry.FieldSpec{
		{Name: "name", DataType: "string", System: true},
		{Name: "amount", DataType: "currency"},
		{Name: "customer", DataType: "link"},
	}
	methods := []registry.MethodSpec{
		{OwnerType: "Invoice", Name: "calculate_discount", ParameterNames: []string{"discount_percent"}},
	}
	return tree.OwnerDescriptors{
		Owner:       "Invoice",
		Module:      "Accounts",
		Descriptors: descriptor.Build("Invoice", fields, methods),
	}
}

func canonicalTree(t *testing.T, owners ...tree.OwnerDescriptors) *tree.Node {
	t.Helper()
	root, err := tree.Assemble(owners, tree.FlatByType)
	require.NoError(t, err)
	return root
}

// mirror clones a canonical tree as if it had been fetched from the
// remote store, assigning fresh remote ids.
func mirror(n *tree.Node) *tree.Node {
	clone := &tree.Node{Name: n.Name, Kind: n.Kind, RemoteID: uuid.NewString()}
	if n.Descriptor != nil {
		d := *n.Descriptor
		clone.Descriptor = &d
	}
	for _, c := range n.Children {
		clone.Children = append(clone.Children, mirror(c))
	}
	return clone
}

func opKinds(st Subtree) []OpKind {
	kinds := make([]OpKind, 0, len(st.Ops))
	for _, op := range st.Ops {
		kinds = append(kinds, op.Kind)
	}
	return kinds
}

func TestDiffEmptyRemoteEmitsCreatesParentFirst(t *testing.T) {
	canonical := canonicalTree(t, invoiceOwner())
	remote := &tree.Node{Name: "", Kind: tree.Folder, RemoteID: "root"}

	plan := Diff(canonical, remote)
	require.Len(t, plan.Subtrees, 1)
	assert.Equal(t, "Invoice", plan.Subtrees[0].Name)

	ops := plan.Subtrees[0].Ops
	require.Len(t, ops, 7)
	assert.Equal(t, OpCreate, ops[0].Kind)
	assert.Equal(t, tree.Folder, ops[0].Node.Kind)
	assert.Nil(t, ops[0].Parent)
	for _, op := range ops[1:] {
		assert.Equal(t, OpCreate, op.Kind)
		assert.Equal(t, tree.Leaf, op.Node.Kind)
		assert.Same(t, ops[0].Node, op.Parent)
	}
	assert.Equal(t, 7, plan.MutationCount())
}

func TestDiffIdenticalTreesKeepsEverything(t *testing.T) {
	canonical := canonicalTree(t, invoiceOwner())
	remote := mirror(canonical)

	plan := Diff(canonical, remote)
	require.Len(t, plan.Subtrees, 1)
	for _, op := range plan.Subtrees[0].Ops {
		assert.Equal(t, OpKeep, op.Kind)
		assert.NotEmpty(t, op.RemoteID)
	}
	assert.Equal(t, 0, plan.MutationCount())
	assert.Empty(t, plan.Ignored)
	assert.Empty(t, plan.Conflicts)
}

func TestDiffChangedHashEmitsUpdate(t *testing.T) {
	canonical := canonicalTree(t, invoiceOwner())
	remote := mirror(canonical)
	stale := remote.Child("Invoice").Child("POST /api/resource/invoice")
	require.NotNil(t, stale)
	stale.Descriptor.ContentHash = "stale"

	plan := Diff(canonical, remote)
	counts := plan.Counts()
	assert.Equal(t, 1, counts[OpUpdate])
	assert.Equal(t, 6, counts[OpKeep])
	assert.Equal(t, 0, counts[OpCreate])
	assert.Equal(t, 0, counts[OpDelete])
}

func TestDiffPreservesManualRemoteContent(t *testing.T) {
	canonical := canonicalTree(t, invoiceOwner())
	remote := mirror(canonical)

	legacy := &tree.Node{Name: "LegacyStuff", Kind: tree.Folder, RemoteID: uuid.NewString()}
	legacy.Children = append(legacy.Children, &tree.Node{
		Name:     "CustomPing",
		Kind:     tree.Leaf,
		RemoteID: uuid.NewString(),
		Descriptor: &descriptor.Descriptor{
			Verb:         "GET",
			PathTemplate: "/ping",
			ContentHash:  descriptor.Hash("GET", "/ping", ""),
		},
	})
	remote.Children = append(remote.Children, legacy)

	plan := Diff(canonical, remote)
	assert.Equal(t, []string{"/LegacyStuff/CustomPing"}, plan.Ignored)
	assert.Equal(t, 0, plan.MutationCount())
	for _, st := range plan.Subtrees {
		assert.NotEqual(t, "LegacyStuff", st.Name)
	}
}

func TestDiffDeletesStaleGeneratedContent(t *testing.T) {
	canonical := canonicalTree(t, invoiceOwner())
	remote := mirror(canonical)

	// A leftover folder full of descriptors generated for a known type.
	stale := &tree.Node{Name: "Old Invoice API", Kind: tree.Folder, RemoteID: uuid.NewString()}
	stale.Children = append(stale.Children, &tree.Node{
		Name:     "GET invoice (legacy)",
		Kind:     tree.Leaf,
		RemoteID: uuid.NewString(),
		Descriptor: &descriptor.Descriptor{
			Verb:         "GET",
			PathTemplate: "/api/resource/invoice",
			ContentHash:  "whatever",
		},
	})
	remote.Children = append(remote.Children, stale)

	plan := Diff(canonical, remote)

	var staleSubtree *Subtree
	for i := range plan.Subtrees {
		if plan.Subtrees[i].Name == "Old Invoice API" {
			staleSubtree = &plan.Subtrees[i]
		}
	}
	require.NotNil(t, staleSubtree)
	assert.Equal(t, []OpKind{OpDelete, OpDelete}, opKinds(*staleSubtree))
	// Children are deleted before their containing folder.
	assert.Equal(t, tree.Leaf, staleSubtree.Ops[0].Node.Kind)
	assert.Equal(t, tree.Folder, staleSubtree.Ops[1].Node.Kind)
}

func TestDiffKeepsFolderWithSurvivingChildren(t *testing.T) {
	canonical := canonicalTree(t, invoiceOwner())
	remote := mirror(canonical)

	mixed := &tree.Node{Name: "Mixed", Kind: tree.Folder, RemoteID: uuid.NewString()}
	mixed.Children = append(mixed.Children,
		&tree.Node{
			Name:     "stale",
			Kind:     tree.Leaf,
			RemoteID: uuid.NewString(),
			Descriptor: &descriptor.Descriptor{
				Verb:         "DELETE",
				PathTemplate: "/api/resource/invoice/{id}",
				ContentHash:  "whatever",
			},
		},
		&tree.Node{
			Name:     "handmade",
			Kind:     tree.Leaf,
			RemoteID: uuid.NewString(),
			Descriptor: &descriptor.Descriptor{
				Verb:         "POST",
				PathTemplate: "/webhooks/payment",
				ContentHash:  "whatever",
			},
		})
	remote.Children = append(remote.Children, mixed)

	plan := Diff(canonical, remote)

	var mixedSubtree *Subtree
	for i := range plan.Subtrees {
		if plan.Subtrees[i].Name == "Mixed" {
			mixedSubtree = &plan.Subtrees[i]
		}
	}
	require.NotNil(t, mixedSubtree)
	// Only the stale leaf goes; the folder survives for the manual leaf.
	assert.Equal(t, []OpKind{OpDelete}, opKinds(*mixedSubtree))
	assert.Equal(t, tree.Leaf, mixedSubtree.Ops[0].Node.Kind)
	assert.Equal(t, []string{"/Mixed/handmade"}, plan.Ignored)
}

func TestDiffKindMismatchIsConflict(t *testing.T) {
	canonical := canonicalTree(t, invoiceOwner())
	remote := &tree.Node{Name: "", Kind: tree.Folder, RemoteID: "root"}
	remote.Children = append(remote.Children, &tree.Node{
		Name:     "Invoice",
		Kind:     tree.Leaf,
		RemoteID: uuid.NewString(),
		Descriptor: &descriptor.Descriptor{
			Verb:         "GET",
			PathTemplate: "/invoice",
			ContentHash:  "whatever",
		},
	})

	plan := Diff(canonical, remote)
	require.Len(t, plan.Conflicts, 1)
	assert.Equal(t, "/Invoice", plan.Conflicts[0].Path)
	assert.Equal(t, tree.Folder, plan.Conflicts[0].CanonicalKind)
	assert.Equal(t, tree.Leaf, plan.Conflicts[0].RemoteKind)
	assert.Empty(t, plan.Subtrees)
}

func TestDiffMethodLeafMatchesConvention(t *testing.T) {
	canonical := canonicalTree(t, invoiceOwner())
	remote := mirror(canonical)

	stray := &tree.Node{Name: "Strays", Kind: tree.Folder, RemoteID: uuid.NewString()}
	stray.Children = append(stray.Children, &tree.Node{
		Name:     "POST /api/method/invoice.old_method",
		Kind:     tree.Leaf,
		RemoteID: uuid.NewString(),
		Descriptor: &descriptor.Descriptor{
			Verb:         "POST",
			PathTemplate: "/api/method/invoice.old_method",
			ContentHash:  "whatever",
		},
	})
	remote.Children = append(remote.Children, stray)

	plan := Diff(canonical, remote)
	counts := plan.Counts()
	assert.Equal(t, 2, counts[OpDelete]) // the leaf and its emptied folder
	assert.Empty(t, plan.Ignored)
}
