package syncer

import (
	"fmt"

	"github.com/schemacat/schemacat/internal/tree"
)

// ConflictError reports a kind mismatch found during diffing. It is
// non-fatal to the run: the conflicting subtree is skipped and the
// conflict surfaces in the report.
type ConflictError struct {
	Path          string
	CanonicalKind tree.Kind
	RemoteKind    tree.Kind
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("kind conflict at %s: canonical is %s, remote is %s",
		e.Path, e.CanonicalKind, e.RemoteKind)
}

// RemoteApplyError is the terminal failure of one edit-script
// operation: either a non-transient rejection or a transient failure
// that exhausted its retry ceiling. It is recorded against the
// operation's subtree; the run continues with siblings.
type RemoteApplyError struct {
	Op       string
	Path     string
	Attempts int
	Err      error
}

func (e *RemoteApplyError) Error() string {
	return fmt.Sprintf("%s %s failed after %d attempt(s): %v", e.Op, e.Path, e.Attempts, e.Err)
}

func (e *RemoteApplyError) Unwrap() error { return e.Err }
