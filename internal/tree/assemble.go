package tree

import (
	"fmt"

	"github.com/schemacat/schemacat/internal/descriptor"
)

// Grouping selects the folder hierarchy shape.
type Grouping int

const (
	// FlatByType puts one folder per owner type directly under the root.
	FlatByType Grouping = iota
	// ByModule puts one folder per module under the root, each holding
	// one folder per owner type.
	ByModule
)

// OwnerDescriptors pairs an owner type with its built descriptor list.
type OwnerDescriptors struct {
	Owner       string
	Module      string
	Descriptors []descriptor.Descriptor
}

// Assemble groups per-owner descriptor lists into the canonical tree.
// Folder and leaf ordering is lexicographic by name regardless of
// input order, so structurally-identical input always yields a
// structurally-identical tree.
//
// Path templates must be unique within one owner; a collision is a
// builder bug and is reported rather than silently dropped.
func Assemble(owners []OwnerDescriptors, grouping Grouping) (*Node, error) {
	root := NewFolder("")

	for _, od := range owners {
		parent := root
		if grouping == ByModule {
			module := od.Module
			if module == "" {
				module = "Uncategorized"
			}
			if existing := root.Child(module); existing != nil {
				parent = existing
			} else {
				parent = root.Add(NewFolder(module))
			}
		}

		if parent.Child(od.Owner) != nil {
			return nil, fmt.Errorf("duplicate owner type %q in assembly input", od.Owner)
		}
		folder := parent.Add(NewFolder(od.Owner))

		seen := make(map[string]string, len(od.Descriptors))
		for _, d := range od.Descriptors {
			key := d.Verb + " " + d.PathTemplate
			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("duplicate path %q for owner %q", key, od.Owner)
			}
			seen[key] = d.ContentHash
			folder.Add(NewLeaf(d))
		}
	}

	root.SortChildren()
	return root, nil
}
