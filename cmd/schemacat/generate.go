package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	generateType    string
	generateModule  string
	generateAll     bool
	generateVerbose bool
)

func init() {
	generateCmd.Flags().StringVar(&generateType, "type", "", "Generate for a single record type")
	generateCmd.Flags().StringVar(&generateModule, "module", "", "Generate for every type in a module")
	generateCmd.Flags().BoolVar(&generateAll, "all", false, "Generate for the whole installation")
	generateCmd.Flags().BoolVar(&generateVerbose, "verbose", false, "Verbose logging")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate endpoint descriptors from the registry",
	Long: `Extract field and method metadata for the selected scope and build
the canonical descriptor tree, without touching the remote store.
An empty module is a valid zero-descriptor outcome, not an error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := scopeFromFlags(generateType, generateModule, generateAll)
		if err != nil {
			return err
		}

		logger := newLogger(generateVerbose)
		defer logger.Sync()

		application, err := loadApp(logger)
		if err != nil {
			return err
		}
		defer application.Close()

		result, err := application.Generate(cmd.Context(), scope)
		if err != nil {
			return err
		}

		bad := color.New(color.FgRed)
		for _, o := range result.Owners {
			if o.Error != "" {
				bad.Printf("  %s: %s\n", o.Owner, o.Error)
				continue
			}
			fmt.Printf("  %s: %d descriptors\n", o.Owner, o.DescriptorCount)
		}
		fmt.Printf("generated %d descriptors for %d owner type(s)\n",
			result.DescriptorCount(), len(result.Owners))
		return nil
	},
}
