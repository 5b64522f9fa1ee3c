package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/slacknotify/slacknotify/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration and an example recipe",
	RunE:  runOnboard,
}

const exampleRecipe = `# Example recipe. Send it with:
#   slacknotify send -c '#general' -r ~/.slacknotify/recipes/example.yaml
text: Deploy finished
steps:
  - header: Deploy finished
  - section:
      text: "*api* was deployed"
      fields:
        - markdown: "*Environment*\nproduction"
        - markdown: "*Version*\n1.0.0"
  - divider: true
  - context: Sent by slacknotify
`

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := resolvedConfigPath()

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Config already exists at %s\n", cfgPath)
		fmt.Printf("Press Enter to refresh (keep existing values) or Ctrl+C to cancel: ")
		fmt.Scanln()
		existing, loadErr := config.Load(cfgPath)
		if loadErr != nil {
			def := config.DefaultConfig()
			existing = &def
		}
		if err := config.Save(existing, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Config refreshed at %s\n", cfgPath)
	} else {
		cfg := config.DefaultConfig()
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}

	recipes := filepath.Join(config.DataDir(), "recipes")
	if err := os.MkdirAll(recipes, 0o755); err != nil {
		return fmt.Errorf("create recipes dir: %w", err)
	}
	example := filepath.Join(recipes, "example.yaml")
	if _, err := os.Stat(example); os.IsNotExist(err) {
		if err := os.WriteFile(example, []byte(exampleRecipe), 0o644); err != nil {
			return fmt.Errorf("write example recipe: %w", err)
		}
		fmt.Printf("  Created %s\n", example)
	}

	fmt.Printf("\n%s slacknotify is ready!\n\n", logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Add your bot token to %s (or export %s)\n", cfgPath, config.EnvToken)
	fmt.Println("     Create one at: https://api.slack.com/apps")
	fmt.Printf("  2. Send: slacknotify send -c '#general' -t \"Hello!\"\n")
	return nil
}
