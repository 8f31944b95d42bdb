package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemacat/schemacat/internal/cli/ui"
	"github.com/schemacat/schemacat/internal/syncer"
)

var (
	syncType    string
	syncModule  string
	syncAll     bool
	syncCheck   bool
	syncDryRun  bool
	syncVerbose bool
)

func init() {
	syncCmd.Flags().StringVar(&syncType, "type", "", "Sync a single record type")
	syncCmd.Flags().StringVar(&syncModule, "module", "", "Sync every type in a module")
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "Sync the whole installation")
	syncCmd.Flags().BoolVar(&syncCheck, "check", false, "Only validate the remote connection")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Compute the edit script without applying it")
	syncCmd.Flags().BoolVar(&syncVerbose, "verbose", false, "Verbose logging")
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Generate descriptors and reconcile the remote collection",
	Long: `Run the full cycle: extract metadata, build descriptors, diff the
canonical tree against the remote collection, and apply the minimal
edit script. Unchanged nodes are never re-uploaded; manually added
remote content is preserved and reported as ignored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(syncVerbose)
		defer logger.Sync()

		application, err := loadApp(logger)
		if err != nil {
			return err
		}
		defer application.Close()

		if syncCheck {
			if err := application.CheckRemote(cmd.Context()); err != nil {
				return fmt.Errorf("remote connection check failed: %w", err)
			}
			fmt.Println("remote connection ok")
			return nil
		}

		scope, err := scopeFromFlags(syncType, syncModule, syncAll)
		if err != nil {
			return err
		}

		gen, err := application.Generate(cmd.Context(), scope)
		if err != nil {
			return err
		}

		if syncDryRun {
			plan, err := application.Plan(cmd.Context(), gen.Root)
			if err != nil {
				return err
			}
			ui.RenderPlan(os.Stdout, plan)
			return nil
		}

		report, err := application.Sync(cmd.Context(), gen.Root)
		if err != nil {
			return err
		}

		ui.RenderReport(os.Stdout, report)
		if report.Status != syncer.StatusSucceeded {
			return fmt.Errorf("sync finished with status %s", report.Status)
		}
		return nil
	},
}
