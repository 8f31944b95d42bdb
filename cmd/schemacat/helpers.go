package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/schemacat/schemacat/internal/app"
	"github.com/schemacat/schemacat/internal/cli/config"
	"github.com/schemacat/schemacat/internal/extract"
)

// newLogger builds the CLI logger. Verbose runs get development
// output; otherwise only warnings and above reach the terminal.
func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadApp loads configuration and composes the application.
func loadApp(logger *zap.Logger) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, logger)
}

// scopeFromFlags resolves the --type/--module/--all flags into an
// extraction scope; exactly one must be given.
func scopeFromFlags(typeName, moduleName string, all bool) (extract.Scope, error) {
	given := 0
	if typeName != "" {
		given++
	}
	if moduleName != "" {
		given++
	}
	if all {
		given++
	}
	if given != 1 {
		return extract.Scope{}, fmt.Errorf("specify exactly one of --type, --module, or --all")
	}

	switch {
	case typeName != "":
		return extract.SingleType(typeName), nil
	case moduleName != "":
		return extract.Module(moduleName), nil
	default:
		return extract.All(), nil
	}
}
