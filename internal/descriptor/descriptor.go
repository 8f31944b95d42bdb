// Package descriptor turns extracted owner metadata into the canonical
// endpoint descriptors that feed tree assembly and remote sync.
package descriptor

import (
	"crypto/sha256"
	"encoding/hex"
)

// Descriptor is a single generated API endpoint. ContentHash is a
// digest over (verb, path, example body); two descriptors are
// equivalent iff their hashes match.
type Descriptor struct {
	Verb         string `json:"verb"`
	PathTemplate string `json:"path_template"`
	Description  string `json:"description"`
	ExampleBody  string `json:"example_body,omitempty"` // canonical JSON, declaration order
	ContentHash  string `json:"content_hash"`
}

// Hash computes the descriptor digest. The encoding is fixed: verb,
// path and body joined by newlines, SHA-256, hex. Changing it
// invalidates every stored remote hash, so don't.
func Hash(verb, path, body string) string {
	h := sha256.New()
	h.Write([]byte(verb))
	h.Write([]byte{'\n'})
	h.Write([]byte(path))
	h.Write([]byte{'\n'})
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))
}
