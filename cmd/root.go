// Package cmd implements the slacknotify CLI using cobra.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/slacknotify/slacknotify/internal/config"
	"github.com/slacknotify/slacknotify/internal/container"
)

const version = "0.1.0"
const logo = "📣"

var configPath string

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:           "slacknotify",
	Short:         logo + " slacknotify — compose and send Slack notifications",
	Long:          logo + " slacknotify — compose Block Kit messages and deliver them to Slack",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.slacknotify/config.json)")

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(scheduleCmd)
}

// buildContainer loads and validates the config and wires all services.
func buildContainer() (*container.Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return container.New(cfg, os.Stderr)
}
