// Package app wires the extraction, build, assembly and sync stages
// into the invocation surface shared by the CLI and the hook server.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/schemacat/schemacat/internal/cli/config"
	"github.com/schemacat/schemacat/internal/descriptor"
	"github.com/schemacat/schemacat/internal/extract"
	"github.com/schemacat/schemacat/internal/registry"
	"github.com/schemacat/schemacat/internal/remote"
	"github.com/schemacat/schemacat/internal/store"
	"github.com/schemacat/schemacat/internal/syncer"
	"github.com/schemacat/schemacat/internal/tree"
)

// OwnerResult is the per-owner outcome of a generation pass.
type OwnerResult struct {
	Owner           string `json:"owner"`
	Module          string `json:"module"`
	DescriptorCount int    `json:"descriptor_count"`
	Error           string `json:"error,omitempty"`
}

// GenerateResult aggregates a generation pass: the canonical tree plus
// per-owner outcomes, including owners whose extraction failed.
type GenerateResult struct {
	Root     *tree.Node
	Owners   []OwnerResult
	Grouping tree.Grouping
}

// DescriptorCount returns the total number of generated descriptors.
func (g *GenerateResult) DescriptorCount() int {
	total := 0
	for _, o := range g.Owners {
		total += o.DescriptorCount
	}
	return total
}

// App is the composed application.
type App struct {
	config    *config.Config
	reader    registry.Reader
	extractor *extract.Extractor
	engine    *syncer.Engine
	remote    remote.Store
	records   *store.RecordStore // nil when the record store is disabled
	logger    *zap.Logger
}

// Option overrides a wired dependency, used in tests.
type Option func(*App)

// WithReader replaces the registry reader.
func WithReader(r registry.Reader) Option {
	return func(a *App) { a.reader = r }
}

// WithRemote replaces the remote store.
func WithRemote(s remote.Store) Option {
	return func(a *App) { a.remote = s }
}

// WithRecordStore replaces the generator-record store.
func WithRecordStore(s *store.RecordStore) Option {
	return func(a *App) { a.records = s }
}

// New builds the application from configuration.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{config: cfg, logger: logger}

	for _, opt := range opts {
		opt(a)
	}

	if a.reader == nil {
		reader, err := registry.LoadIndexFile(cfg.Registry.IndexPath)
		if err != nil {
			return nil, err
		}
		a.reader = reader
	}

	if a.remote == nil {
		a.remote = remote.NewClient(remote.ClientConfig{
			BaseURL:      cfg.Remote.BaseURL,
			APIKey:       cfg.Remote.APIKey,
			CollectionID: cfg.Remote.CollectionID,
			CallTimeout:  time.Duration(cfg.Remote.CallTimeoutSec) * time.Second,
		})
	}

	if a.records == nil && cfg.Store.Enabled {
		records, err := store.New(store.Config{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		a.records = records
	}

	extractOpts := []extract.Option{extract.WithLogger(logger)}
	if len(cfg.Registry.SkipTypes) > 0 {
		extractOpts = append(extractOpts, extract.WithSkipTypes(cfg.Registry.SkipTypes))
	}
	a.extractor = extract.New(a.reader, extractOpts...)

	a.engine = syncer.NewEngine(a.remote,
		syncer.WithConcurrency(cfg.Sync.Concurrency),
		syncer.WithRetryConfig(syncer.RetryConfig{
			MaxAttempts: cfg.Sync.MaxAttempts,
			BaseBackoff: time.Duration(cfg.Sync.BaseBackoffMS) * time.Millisecond,
		}),
		syncer.WithEngineLogger(logger))

	return a, nil
}

// Close releases held resources.
func (a *App) Close() error {
	if a.records != nil {
		return a.records.Close()
	}
	return nil
}

// Grouping returns the configured tree grouping.
func (a *App) Grouping() tree.Grouping {
	if a.config.Registry.Grouping == "module" {
		return tree.ByModule
	}
	return tree.FlatByType
}

// Generate runs extraction and descriptor building for scope and
// assembles the canonical tree. Re-invoking with unchanged registry
// state produces an identical tree. Per-owner failures are captured in
// the result; only scope resolution failures (unknown type) error out.
func (a *App) Generate(ctx context.Context, scope extract.Scope) (*GenerateResult, error) {
	result := &GenerateResult{Grouping: a.Grouping()}
	var owners []tree.OwnerDescriptors

	err := a.extractor.EachOwner(scope, func(om extract.OwnerMetadata) error {
		descriptors := descriptor.Build(om.Owner, om.Fields, om.Methods)
		owners = append(owners, tree.OwnerDescriptors{
			Owner:       om.Owner,
			Module:      om.Module,
			Descriptors: descriptors,
		})
		result.Owners = append(result.Owners, OwnerResult{
			Owner:           om.Owner,
			Module:          om.Module,
			DescriptorCount: len(descriptors),
		})
		a.recordGeneration(ctx, om, len(descriptors), nil)
		return nil
	}, func(oe extract.OwnerError) {
		result.Owners = append(result.Owners, OwnerResult{Owner: oe.Owner, Error: oe.Err.Error()})
		a.recordGeneration(ctx, extract.OwnerMetadata{Owner: oe.Owner}, 0, oe.Err)
	})
	if err != nil {
		return nil, err
	}

	root, err := tree.Assemble(owners, result.Grouping)
	if err != nil {
		return nil, fmt.Errorf("assembling descriptor tree: %w", err)
	}
	result.Root = root

	a.logger.Info("generation pass finished",
		zap.String("scope", scope.String()),
		zap.Int("owners", len(result.Owners)),
		zap.Int("descriptors", result.DescriptorCount()))
	return result, nil
}

func (a *App) recordGeneration(ctx context.Context, om extract.OwnerMetadata, count int, genErr error) {
	if a.records == nil {
		return
	}
	rec := store.GeneratorRecord{
		Owner:           om.Owner,
		Module:          om.Module,
		DescriptorCount: count,
		Status:          "active",
		GeneratedAt:     time.Now().UTC(),
	}
	if genErr != nil {
		rec.Status = "error"
		rec.Error = genErr.Error()
	}
	if err := a.records.SaveGeneratorRecord(ctx, rec); err != nil {
		a.logger.Warn("failed to persist generator record",
			zap.String("owner", om.Owner),
			zap.Error(err))
	}
}

// Sync applies the canonical tree to the remote store and persists the
// run record.
func (a *App) Sync(ctx context.Context, canonical *tree.Node) (*syncer.Report, error) {
	report, err := a.engine.Sync(ctx, canonical)
	if err != nil {
		return nil, err
	}
	if a.records != nil {
		if err := a.records.SaveRun(ctx, report); err != nil {
			a.logger.Warn("failed to persist run record", zap.Error(err))
		}
	}
	return report, nil
}

// Plan computes the edit script without applying it.
func (a *App) Plan(ctx context.Context, canonical *tree.Node) (*syncer.Plan, error) {
	return a.engine.Plan(ctx, canonical)
}

// Run performs the full generate-then-sync cycle for scope.
func (a *App) Run(ctx context.Context, scope extract.Scope) (*GenerateResult, *syncer.Report, error) {
	gen, err := a.Generate(ctx, scope)
	if err != nil {
		return nil, nil, err
	}
	report, err := a.Sync(ctx, gen.Root)
	if err != nil {
		return gen, nil, err
	}
	return gen, report, nil
}

// CheckRemote verifies the remote collection is reachable with the
// configured credentials.
func (a *App) CheckRemote(ctx context.Context) error {
	return a.remote.Ping(ctx)
}
