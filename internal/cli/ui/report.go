// Package ui renders run results for the terminal.
package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/schemacat/schemacat/internal/syncer"
)

// RenderReport writes a human-readable sync report. Every non-keep
// operation outcome is enumerated: failures with their error kind and
// message, skipped operations, ignored manual content, and conflicts.
func RenderReport(w io.Writer, report *syncer.Report) {
	header := color.New(color.Bold)
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	bad := color.New(color.FgRed)

	header.Fprintf(w, "Sync run %s\n", report.RunID)
	switch report.Status {
	case syncer.StatusSucceeded:
		ok.Fprintln(w, "  status: succeeded")
	default:
		warn.Fprintf(w, "  status: %s\n", report.Status)
	}

	fmt.Fprintf(w, "  created: %d  updated: %d  deleted: %d  kept: %d\n",
		report.Created, report.Updated, report.Deleted, report.Kept)
	fmt.Fprintf(w, "  duration: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(1e6))

	if len(report.Ignored) > 0 {
		warn.Fprintf(w, "  ignored manual content (%d):\n", len(report.Ignored))
		for _, path := range report.Ignored {
			fmt.Fprintf(w, "    %s\n", path)
		}
	}

	if len(report.ConflictPaths) > 0 {
		warn.Fprintf(w, "  conflicts (%d, subtrees skipped):\n", len(report.ConflictPaths))
		for _, path := range report.ConflictPaths {
			fmt.Fprintf(w, "    %s\n", path)
		}
	}

	if len(report.Failures) > 0 {
		bad.Fprintf(w, "  failures (%d):\n", len(report.Failures))
		for _, f := range report.Failures {
			fmt.Fprintf(w, "    %s %s [%s]: %s\n", f.Op, f.Path, f.ErrorKind, f.Message)
		}
	}

	if len(report.NotAttempted) > 0 {
		warn.Fprintf(w, "  not attempted (%d):\n", len(report.NotAttempted))
		for _, path := range report.NotAttempted {
			fmt.Fprintf(w, "    %s\n", path)
		}
	}
}

// RenderPlan writes a dry-run summary of an edit script.
func RenderPlan(w io.Writer, plan *syncer.Plan) {
	counts := plan.Counts()
	fmt.Fprintf(w, "planned operations: create=%d update=%d delete=%d keep=%d\n",
		counts[syncer.OpCreate], counts[syncer.OpUpdate], counts[syncer.OpDelete], counts[syncer.OpKeep])
	for _, st := range plan.Subtrees {
		for _, op := range st.Ops {
			if op.Kind == syncer.OpKeep {
				continue
			}
			fmt.Fprintf(w, "  %-6s %s\n", op.Kind, op.Path)
		}
	}
	for _, path := range plan.Ignored {
		fmt.Fprintf(w, "  %-6s %s\n", "ignore", path)
	}
	for _, c := range plan.Conflicts {
		fmt.Fprintf(w, "  %-6s %s (canonical %s, remote %s)\n", "skip", c.Path, c.CanonicalKind, c.RemoteKind)
	}
}
