package main

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

const configTemplate = `remote:
  base_url: %q
  api_key: %q
  collection_id: %q

sync:
  concurrency: 4
  max_attempts: 4
  base_backoff_ms: 250

registry:
  index_path: %q
  grouping: %q

store:
  enabled: false
  redis_addr: localhost:6379

hooks:
  addr: ":8184"
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a schemacat.yml interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat("schemacat.yml"); err == nil {
			return fmt.Errorf("schemacat.yml already exists")
		}

		var baseURL, apiKey, collectionID, indexPath, grouping string

		questions := []struct {
			prompt survey.Prompt
			target *string
		}{
			{&survey.Input{Message: "Remote collection store base URL:"}, &baseURL},
			{&survey.Password{Message: "Remote API key:"}, &apiKey},
			{&survey.Input{Message: "Collection id:"}, &collectionID},
			{&survey.Input{Message: "Registry index path:", Default: "registry-index.json"}, &indexPath},
		}
		for _, q := range questions {
			if err := survey.AskOne(q.prompt, q.target, survey.WithValidator(survey.Required)); err != nil {
				return err
			}
		}

		groupingPrompt := &survey.Select{
			Message: "Tree grouping:",
			Options: []string{"flat", "module"},
			Default: "flat",
		}
		if err := survey.AskOne(groupingPrompt, &grouping); err != nil {
			return err
		}

		content := fmt.Sprintf(configTemplate, baseURL, apiKey, collectionID, indexPath, grouping)
		if err := os.WriteFile("schemacat.yml", []byte(content), 0600); err != nil {
			return fmt.Errorf("failed to write schemacat.yml: %w", err)
		}

		fmt.Println("wrote schemacat.yml")
		return nil
	},
}
