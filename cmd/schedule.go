package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/slacknotify/slacknotify/internal/container"
	"github.com/slacknotify/slacknotify/internal/schedule"
	"github.com/slacknotify/slacknotify/internal/shared/stringutils"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run recurring notifications from the config",
}

func init() {
	scheduleCmd.AddCommand(scheduleRunCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleTriggerCmd)
}

// loadScheduler wires the container and registers every configured job.
func loadScheduler() (*container.Container, error) {
	c, err := buildContainer()
	if err != nil {
		return nil, err
	}
	jobs, err := schedule.JobsFromConfig(c.Config().Schedules)
	if err != nil {
		return nil, err
	}
	for _, job := range jobs {
		if err := c.Scheduler().Add(job); err != nil {
			return nil, err
		}
	}
	return c, nil
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Send scheduled notifications until interrupted",
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := loadScheduler()
		if err != nil {
			return err
		}
		if len(c.Config().Schedules) == 0 {
			fmt.Println("Warning: no schedules configured")
		}

		// Graceful shutdown context.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("%s Scheduler running. Press Ctrl+C to stop.\n", logo)
		if err := c.Scheduler().Start(ctx); err != nil {
			return err
		}
		fmt.Println("\nShutdown complete.")
		return nil
	},
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured schedules and their next run",
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := loadScheduler()
		if err != nil {
			return err
		}
		jobs := c.Scheduler().Jobs(time.Now())
		if len(jobs) == 0 {
			fmt.Println("No schedules configured.")
			return nil
		}
		fmt.Printf("%-20s %-16s %s\n", "Name", "Schedule", "Next run")
		fmt.Println(repeatStr("-", 60))
		for _, j := range jobs {
			fmt.Printf("%-20s %-16s %s\n", stringutils.Truncate(j.Name, 17), j.Schedule, j.Next.Format(time.RFC3339))
		}
		return nil
	},
}

var scheduleTriggerCmd = &cobra.Command{
	Use:   "trigger <name>",
	Short: "Send one scheduled notification now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadScheduler()
		if err != nil {
			return err
		}
		if err := c.Scheduler().RunNow(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Triggered %s\n", args[0])
		return nil
	},
}
