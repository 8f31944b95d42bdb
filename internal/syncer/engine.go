package syncer

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/schemacat/schemacat/internal/remote"
	"github.com/schemacat/schemacat/internal/tree"
)

// DefaultConcurrency bounds how many top-level subtrees are applied in
// parallel. Kept low out of respect for remote rate limits.
const DefaultConcurrency = 4

// Engine drives a sync run: fetch the remote tree, diff it against the
// canonical tree, apply the edit script.
type Engine struct {
	store       remote.Store
	logger      *zap.Logger
	concurrency int
	retry       RetryConfig
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithConcurrency bounds the subtree worker pool.
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithRetryConfig overrides the retry/backoff settings.
func WithRetryConfig(cfg RetryConfig) EngineOption {
	return func(e *Engine) { e.retry = cfg }
}

// WithEngineLogger sets the engine logger.
func WithEngineLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates a sync engine over a remote store.
func NewEngine(store remote.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:       store,
		logger:      zap.NewNop(),
		concurrency: DefaultConcurrency,
		retry:       DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Plan fetches the remote tree and computes the edit script without
// applying it. An error fetching the root aborts: there is nothing to
// diff against.
func (e *Engine) Plan(ctx context.Context, canonical *tree.Node) (*Plan, error) {
	remoteRoot, err := e.store.FetchTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote tree: %w", err)
	}
	plan := Diff(canonical, remoteRoot)
	e.logger.Info("computed edit script",
		zap.Int("subtrees", len(plan.Subtrees)),
		zap.Int("mutations", plan.MutationCount()),
		zap.Int("ignored", len(plan.Ignored)),
		zap.Int("conflicts", len(plan.Conflicts)))
	return plan, nil
}

// Sync runs the full fetch/diff/apply cycle and returns the report.
// The canonical tree is treated as read-only throughout. Cancellation
// lets in-flight calls finish but dispatches nothing new; the run then
// reports which operations were not attempted.
func (e *Engine) Sync(ctx context.Context, canonical *tree.Node) (*Report, error) {
	plan, err := e.Plan(ctx, canonical)
	if err != nil {
		return nil, err
	}
	return e.Apply(ctx, plan), nil
}

// Apply executes a previously computed plan.
func (e *Engine) Apply(ctx context.Context, plan *Plan) *Report {
	report := newReport()
	report.Conflicts = len(plan.Conflicts)
	report.Ignored = append(report.Ignored, plan.Ignored...)
	for _, c := range plan.Conflicts {
		report.ConflictPaths = append(report.ConflictPaths, c.Path)
		e.logger.Warn("kind conflict, subtree skipped",
			zap.String("path", c.Path),
			zap.String("canonical", c.CanonicalKind.String()),
			zap.String("remote", c.RemoteKind.String()))
	}

	apply := &applier{
		engine:    e,
		plan:      plan,
		report:    report,
		folderIDs: make(map[*tree.Node]string, len(plan.folderIDs)),
	}
	for node, id := range plan.folderIDs {
		apply.folderIDs[node] = id
	}

	jobs := make(chan Subtree)
	var wg sync.WaitGroup
	workers := e.concurrency
	if workers > len(plan.Subtrees) {
		workers = len(plan.Subtrees)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for st := range jobs {
				apply.applySubtree(ctx, st)
			}
		}()
	}

dispatch:
	for _, st := range plan.Subtrees {
		select {
		case <-ctx.Done():
			apply.skipSubtree(st)
		case jobs <- st:
			continue dispatch
		}
	}
	close(jobs)
	wg.Wait()

	report.finish()
	e.logger.Info("sync run finished",
		zap.String("run_id", report.RunID),
		zap.String("status", string(report.Status)),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("deleted", report.Deleted),
		zap.Int("kept", report.Kept),
		zap.Int("failures", len(report.Failures)))
	return report
}

// applier holds the mutable state of one apply pass. folderIDs is
// written only under mu: created folder ids must be visible to later
// ops of the same subtree, and matched ids are shared read-mostly
// across subtrees.
type applier struct {
	engine *Engine
	plan   *Plan
	report *Report

	mu        sync.Mutex
	folderIDs map[*tree.Node]string
}

// applySubtree executes one subtree's operations strictly in order.
// The first terminal failure aborts the remainder of the subtree;
// siblings are unaffected.
func (a *applier) applySubtree(ctx context.Context, st Subtree) {
	for i, op := range st.Ops {
		if ctx.Err() != nil {
			a.skipOps(st.Ops[i:])
			return
		}
		if op.Kind == OpKeep {
			a.report.recordOp(OpKeep)
			continue
		}

		if err := a.applyOp(ctx, op); err != nil {
			// Only the run context decides "cancelled": an exhausted
			// per-call timeout is an exhausted transient, not a
			// cancellation.
			kind := "rejected"
			switch {
			case ctx.Err() != nil:
				kind = "cancelled"
			case remote.IsTransient(err):
				kind = "transient_exhausted"
			}
			a.report.recordFailure(Failure{
				Path:      op.Path,
				Op:        op.Kind.String(),
				ErrorKind: kind,
				Message:   err.Error(),
			})
			a.engine.logger.Warn("operation failed, aborting subtree",
				zap.String("subtree", st.Name),
				zap.String("op", op.Kind.String()),
				zap.String("path", op.Path),
				zap.Error(err))
			a.skipOps(st.Ops[i+1:])
			return
		}
		a.report.recordOp(op.Kind)
	}
}

// applyOp executes one operation with retry, wrapping terminal
// failures in RemoteApplyError.
func (a *applier) applyOp(ctx context.Context, op Op) error {
	attempts, err := withRetry(ctx, a.engine.retry, func() error {
		return a.callStore(ctx, op)
	})
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return &RemoteApplyError{Op: op.Kind.String(), Path: op.Path, Attempts: attempts, Err: err}
	}
	return nil
}

func (a *applier) callStore(ctx context.Context, op Op) error {
	switch op.Kind {
	case OpCreate:
		if op.Node.Kind == tree.Folder {
			id, err := a.engine.store.CreateFolder(ctx, a.parentID(op), op.Node.Name)
			if err != nil {
				return err
			}
			a.setFolderID(op.Node, id)
			return nil
		}
		_, err := a.engine.store.CreateRequest(ctx, a.parentID(op), op.Node)
		return err
	case OpUpdate:
		return a.engine.store.UpdateRequest(ctx, op.RemoteID, op.Node)
	case OpDelete:
		if op.Node.Kind == tree.Folder {
			return a.engine.store.DeleteFolder(ctx, op.RemoteID)
		}
		return a.engine.store.DeleteRequest(ctx, op.RemoteID)
	default:
		return nil
	}
}

// parentID resolves the remote id of a create's parent: the collection
// root, a folder matched during diff, or a folder created earlier in
// the same subtree.
func (a *applier) parentID(op Op) string {
	if op.Parent == nil {
		return a.plan.rootID
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.folderIDs[op.Parent]
}

func (a *applier) setFolderID(node *tree.Node, id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.folderIDs[node] = id
}

func (a *applier) skipSubtree(st Subtree) {
	a.skipOps(st.Ops)
}

func (a *applier) skipOps(ops []Op) {
	for _, op := range ops {
		if op.Kind == OpKeep {
			// Keeps need no call; count them even when the subtree is
			// cut short so the report still reflects the diff.
			a.report.recordOp(OpKeep)
			continue
		}
		a.report.recordNotAttempted(op.Path)
	}
}
