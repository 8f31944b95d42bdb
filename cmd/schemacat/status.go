package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemacat/schemacat/internal/cli/config"
	"github.com/schemacat/schemacat/internal/cli/ui"
	"github.com/schemacat/schemacat/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show generator records and the last sync run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if !cfg.Store.Enabled {
			return fmt.Errorf("record store is disabled; enable store.enabled in schemacat.yml")
		}

		records, err := store.New(store.Config{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		if err != nil {
			return err
		}
		defer records.Close()

		ctx := context.Background()

		generators, err := records.GeneratorRecords(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("generator records: %d\n", len(generators))
		for _, g := range generators {
			if g.Status == "error" {
				fmt.Printf("  %s [%s] error: %s\n", g.Owner, g.Module, g.Error)
				continue
			}
			fmt.Printf("  %s [%s] %d descriptors, generated %s\n",
				g.Owner, g.Module, g.DescriptorCount, g.GeneratedAt.Format("2006-01-02 15:04:05"))
		}

		report, err := records.LastRun(ctx)
		if err != nil {
			if errors.Is(err, store.ErrNoRecord) {
				fmt.Println("no sync run recorded yet")
				return nil
			}
			return err
		}
		ui.RenderReport(os.Stdout, report)
		return nil
	},
}
