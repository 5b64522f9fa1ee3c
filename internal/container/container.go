// Package container wires slacknotify services using go.uber.org/dig.
package container

import (
	"fmt"
	"io"
	"log/slog"

	"go.uber.org/dig"

	"github.com/slacknotify/slacknotify/internal/config"
	"github.com/slacknotify/slacknotify/internal/notification"
	"github.com/slacknotify/slacknotify/internal/schedule"
	"github.com/slacknotify/slacknotify/internal/slackapi"
)

// Container holds the resolved service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	cfg       *config.Config
	log       *slog.Logger
	transport notification.Transport
	factory   notification.Factory
	scheduler *schedule.Service
}

func (c *Container) Config() *config.Config            { return c.cfg }
func (c *Container) Logger() *slog.Logger              { return c.log }
func (c *Container) Transport() notification.Transport { return c.transport }
func (c *Container) Scheduler() *schedule.Service      { return c.scheduler }

// Notification returns a fresh Notification aimed at the configured default channel.
func (c *Container) Notification() *notification.Notification { return c.factory() }

// Factory returns the notification factory, for concurrent senders.
func (c *Container) Factory() notification.Factory { return c.factory }

// logOutput is a named writer so dig can tell it apart from other writers.
type logOutput struct{ io.Writer }

// New builds and wires all services from cfg, logging to w.
func New(cfg *config.Config, w io.Writer) (*Container, error) {
	d := dig.New()

	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(func() logOutput { return logOutput{w} }); err != nil {
		return nil, err
	}
	if err := d.Provide(newLogger); err != nil {
		return nil, err
	}
	if err := d.Provide(newTransport); err != nil {
		return nil, err
	}
	if err := d.Provide(newFactory); err != nil {
		return nil, err
	}
	if err := d.Provide(newScheduler); err != nil {
		return nil, err
	}

	var result *Container
	err := d.Invoke(func(
		log *slog.Logger,
		transport notification.Transport,
		factory notification.Factory,
		scheduler *schedule.Service,
	) {
		result = &Container{
			cfg:       cfg,
			log:       log,
			transport: transport,
			factory:   factory,
			scheduler: scheduler,
		}
	})
	return result, err
}

func newLogger(cfg *config.Config, out logOutput) *slog.Logger {
	opts := &slog.HandlerOptions{Level: config.ParseLevel(cfg.Log.Level)}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

func newTransport(cfg *config.Config, log *slog.Logger) (notification.Transport, error) {
	switch cfg.Slack.Mode {
	case config.ModeAPI, "":
		return slackapi.New(slackapi.Params{
			Token:     cfg.Slack.Token,
			APIURL:    cfg.Slack.APIURL,
			RateLimit: cfg.Slack.RateLimit,
			Logger:    log,
		}), nil
	case config.ModeWebhook:
		return slackapi.NewWebhook(cfg.Slack.WebhookURL, log), nil
	}
	return nil, fmt.Errorf("unknown slack.mode %q", cfg.Slack.Mode)
}

func newFactory(cfg *config.Config, t notification.Transport, log *slog.Logger) notification.Factory {
	channel := cfg.Slack.DefaultChannel
	return func() *notification.Notification {
		return notification.New(t, log).To(channel)
	}
}

func newScheduler(f notification.Factory, log *slog.Logger) *schedule.Service {
	return schedule.NewService(f, log)
}
