package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/schemacat/schemacat/internal/cli/config"
	"github.com/schemacat/schemacat/internal/extract"
	"github.com/schemacat/schemacat/internal/syncer"
	"github.com/schemacat/schemacat/internal/web"
)

var (
	serveAddr    string
	serveVerbose bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides hooks.addr)")
	serveCmd.Flags().BoolVar(&serveVerbose, "verbose", false, "Verbose logging")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve registry change hooks",
	Long: `Listen for registry mutation events and turn each one into a
generate-and-sync run scoped to the changed type or module.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(serveVerbose)
		defer logger.Sync()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		application, err := loadApp(logger)
		if err != nil {
			return err
		}
		defer application.Close()

		addr := cfg.Hooks.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		runner := web.RunnerFunc(func(ctx context.Context, scope extract.Scope) (*syncer.Report, error) {
			_, report, err := application.Run(ctx, scope)
			return report, err
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		server := web.NewServer(runner, logger)
		return server.ListenAndServe(ctx, addr)
	},
}
