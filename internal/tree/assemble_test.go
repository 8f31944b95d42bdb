package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemacat/schemacat/internal/descriptor"
)

func ownersFor(names ...string) []OwnerDescriptors {
	owners := make([]OwnerDescriptors, 0, len(names))
	for _, name := range names {
		owners = append(owners, OwnerDescriptors{
			Owner:       name,
			Module:      "Accounts",
			Descriptors: descriptor.Build(name, nil, nil),
		})
	}
	return owners
}

func childNames(n *Node) []string {
	names := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		names = append(names, c.Name)
	}
	return names
}

func TestAssembleFlatByType(t *testing.T) {
	root, err := Assemble(ownersFor("Invoice", "Customer"), FlatByType)
	require.NoError(t, err)

	assert.Equal(t, []string{"Customer", "Invoice"}, childNames(root))
	invoice := root.Child("Invoice")
	require.NotNil(t, invoice)
	assert.Equal(t, Folder, invoice.Kind)
	assert.Len(t, invoice.Children, 5)
	for _, leaf := range invoice.Children {
		assert.Equal(t, Leaf, leaf.Kind)
		require.NotNil(t, leaf.Descriptor)
	}
}

func TestAssembleByModule(t *testing.T) {
	owners := []OwnerDescriptors{
		{Owner: "Invoice", Module: "Accounts", Descriptors: descriptor.Build("Invoice", nil, nil)},
		{Owner: "Customer", Module: "Selling", Descriptors: descriptor.Build("Customer", nil, nil)},
		{Owner: "Scratch", Module: "", Descriptors: descriptor.Build("Scratch", nil, nil)},
	}

	root, err := Assemble(owners, ByModule)
	require.NoError(t, err)

	assert.Equal(t, []string{"Accounts", "Selling", "Uncategorized"}, childNames(root))
	accounts := root.Child("Accounts")
	require.NotNil(t, accounts)
	require.NotNil(t, accounts.Child("Invoice"))
	assert.Len(t, accounts.Child("Invoice").Children, 5)
}

func TestAssembleOrderIndependentOfInput(t *testing.T) {
	forward, err := Assemble(ownersFor("Alpha", "Beta", "Gamma"), FlatByType)
	require.NoError(t, err)
	reverse, err := Assemble(ownersFor("Gamma", "Beta", "Alpha"), FlatByType)
	require.NoError(t, err)

	assert.Equal(t, childNames(forward), childNames(reverse))
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, childNames(forward))
}

func TestAssembleLeavesSortedByName(t *testing.T) {
	root, err := Assemble(ownersFor("Invoice"), FlatByType)
	require.NoError(t, err)

	leaves := childNames(root.Child("Invoice"))
	assert.Equal(t, []string{
		"DELETE /api/resource/invoice/{id}",
		"GET /api/resource/invoice",
		"GET /api/resource/invoice/{id}",
		"POST /api/resource/invoice",
		"PUT /api/resource/invoice/{id}",
	}, leaves)
}

func TestAssembleRejectsDuplicateOwner(t *testing.T) {
	_, err := Assemble(ownersFor("Invoice", "Invoice"), FlatByType)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate owner type")
}

func TestAssembleRejectsDuplicatePath(t *testing.T) {
	d := descriptor.Build("Invoice", nil, nil)[0]
	_, err := Assemble([]OwnerDescriptors{
		{Owner: "Invoice", Descriptors: []descriptor.Descriptor{d, d}},
	}, FlatByType)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate path")
}

func TestWalkStopsWhenFnReturnsFalse(t *testing.T) {
	root, err := Assemble(ownersFor("Invoice", "Customer"), FlatByType)
	require.NoError(t, err)

	var visited []string
	root.Walk(func(n *Node, depth int) bool {
		visited = append(visited, n.Name)
		return depth == 0 // do not descend into owner folders
	})
	assert.Equal(t, []string{"", "Customer", "Invoice"}, visited)
}

func TestLeafCount(t *testing.T) {
	root, err := Assemble(ownersFor("Invoice", "Customer"), FlatByType)
	require.NoError(t, err)
	assert.Equal(t, 10, root.LeafCount())
}
