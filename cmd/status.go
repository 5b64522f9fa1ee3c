package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/slacknotify/slacknotify/internal/config"
	"github.com/slacknotify/slacknotify/internal/shared/stringutils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show slacknotify status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := resolvedConfigPath()

	fmt.Printf("%s slacknotify Status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	fmt.Printf("Config:    %s %s\n", cfgPath, yesNo(statErr == nil))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	s := cfg.Slack
	fmt.Printf("Mode:      %s\n", s.Mode)
	switch s.Mode {
	case config.ModeWebhook:
		fmt.Printf("Webhook:   %s\n", tokenHint(s.WebhookURL))
	default:
		fmt.Printf("Token:     %s\n", tokenHint(s.Token))
	}
	if s.DefaultChannel != "" {
		fmt.Printf("Channel:   %s\n", s.DefaultChannel)
	} else {
		fmt.Println("Channel:   (not set)")
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Ready:     ✗ %v\n", err)
	} else {
		fmt.Println("Ready:     ✓")
	}

	fmt.Printf("\nSchedules: %d\n", len(cfg.Schedules))
	for _, sc := range cfg.Schedules {
		_, recipeErr := os.Stat(config.ResolvePath(sc.Recipe))
		fmt.Printf("  %-20s %-16s %s %s\n", stringutils.Truncate(sc.Name, 17), sc.Schedule,
			stringutils.Truncate(sc.Recipe, 30), yesNo(recipeErr == nil))
	}
	fmt.Printf("\nChecked at %s\n", time.Now().Format(time.RFC3339))
	return nil
}
