package descriptor

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/schemacat/schemacat/internal/registry"
)

// Slug derives the stable path segment for an owner type: lowercase,
// spaces collapsed to underscores, remaining reserved characters
// percent-escaped. The mapping must be identical on every run because
// it feeds content hashes.
func Slug(owner string) string {
	s := strings.ToLower(strings.TrimSpace(owner))
	s = strings.ReplaceAll(s, " ", "_")
	return url.PathEscape(s)
}

// Build produces the ordered descriptor list for one owner type: five
// CRUD descriptors in fixed order, then one POST descriptor per
// method in name order. Given identical input, two invocations return
// byte-identical descriptors including hashes.
func Build(owner string, fields []registry.FieldSpec, methods []registry.MethodSpec) []Descriptor {
	slug := Slug(owner)
	collection := "/api/resource/" + slug
	item := collection + "/{id}"
	body := recordBody(fields)

	descriptors := []Descriptor{
		newDescriptor("GET", collection, fmt.Sprintf("List %s records", owner), ""),
		newDescriptor("GET", item, fmt.Sprintf("Retrieve a %s record by id", owner), ""),
		newDescriptor("POST", collection, fmt.Sprintf("Create a %s record", owner), body),
		newDescriptor("PUT", item, fmt.Sprintf("Update a %s record", owner), body),
		newDescriptor("DELETE", item, fmt.Sprintf("Delete a %s record", owner), ""),
	}

	sorted := make([]registry.MethodSpec, len(methods))
	copy(sorted, methods)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, m := range sorted {
		path := "/api/method/" + slug + "." + url.PathEscape(m.Name)
		desc := fmt.Sprintf("Call %s.%s", owner, m.Name)
		if m.SourceLocation != "" {
			desc += " (" + m.SourceLocation + ")"
		}
		descriptors = append(descriptors, newDescriptor("POST", path, desc, methodBody(m.ParameterNames)))
	}

	return descriptors
}

func newDescriptor(verb, path, description, body string) Descriptor {
	return Descriptor{
		Verb:         verb,
		PathTemplate: path,
		Description:  description,
		ExampleBody:  body,
		ContentHash:  Hash(verb, path, body),
	}
}

// Name returns the display name for a descriptor, unique within its
// owning folder.
func (d Descriptor) Name() string {
	return d.Verb + " " + d.PathTemplate
}
