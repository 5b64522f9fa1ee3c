// Package schedule sends recipe-driven notifications on cron schedules.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/slacknotify/slacknotify/internal/config"
	"github.com/slacknotify/slacknotify/internal/notification"
	"github.com/slacknotify/slacknotify/internal/recipe"
)

// ErrUnknownJob is returned by RunNow for a name that was never added.
var ErrUnknownJob = errors.New("unknown job")

// Job is one recurring notification.
type Job struct {
	Name     string
	Schedule string // 5-field cron expression or @descriptor
	Channel  string // overrides the recipe channel when set
	TZ       string
	Recipe   *recipe.Recipe
}

// JobStatus reports the outcome of the last run of a job.
type JobStatus struct {
	Name      string
	Schedule  string
	Next      time.Time
	LastRun   time.Time
	LastError string
}

type entry struct {
	job    Job
	sched  robfigcron.Schedule
	status JobStatus
}

// Service owns a robfig cron and the jobs registered on it.
type Service struct {
	factory notification.Factory
	log     *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	robfig  *robfigcron.Cron
}

var parser = robfigcron.NewParser(
	robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow | robfigcron.Descriptor,
)

// NewService creates a Service that builds each notification from factory.
func NewService(factory notification.Factory, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		factory: factory,
		log:     log,
		entries: make(map[string]*entry),
		robfig:  robfigcron.New(),
	}
}

// JobsFromConfig loads the recipe of every configured schedule.
func JobsFromConfig(cfgs []config.ScheduleConfig) ([]Job, error) {
	jobs := make([]Job, 0, len(cfgs))
	for _, c := range cfgs {
		r, err := recipe.Load(config.ResolvePath(c.Recipe))
		if err != nil {
			return nil, fmt.Errorf("schedule %q: %w", c.Name, err)
		}
		jobs = append(jobs, Job{Name: c.Name, Schedule: c.Schedule, Channel: c.Channel, TZ: c.TZ, Recipe: r})
	}
	return jobs, nil
}

// Add registers job. It must be called before Start.
func (s *Service) Add(job Job) error {
	if job.Name == "" {
		return errors.New("schedule: job name is required")
	}
	if job.Recipe == nil {
		return fmt.Errorf("schedule %q: recipe is required", job.Name)
	}
	sched, err := parser.Parse(job.Schedule)
	if err != nil {
		return fmt.Errorf("schedule %q: invalid expression %q: %w", job.Name, job.Schedule, err)
	}
	if job.TZ != "" {
		loc, err := time.LoadLocation(job.TZ)
		if err != nil {
			return fmt.Errorf("schedule %q: %w", job.Name, err)
		}
		sched = withLocation(sched, loc)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.entries[job.Name]; dup {
		return fmt.Errorf("schedule %q: duplicate job name", job.Name)
	}
	s.entries[job.Name] = &entry{
		job:    job,
		sched:  sched,
		status: JobStatus{Name: job.Name, Schedule: job.Schedule},
	}
	return nil
}

// Start arms every job and blocks until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	for _, e := range s.entries {
		name := e.job.Name
		s.robfig.Schedule(e.sched, robfigcron.FuncJob(func() { s.execute(ctx, name) }))
	}
	n := len(s.entries)
	s.mu.Unlock()

	s.robfig.Start()
	s.log.Info("schedule: started", "jobs", n)

	<-ctx.Done()

	<-s.robfig.Stop().Done()
	s.log.Info("schedule: stopped")
	return nil
}

// RunNow sends the named job immediately.
func (s *Service) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	_, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.execute(ctx, name)
}

func (s *Service) execute(ctx context.Context, name string) error {
	s.mu.Lock()
	job := s.entries[name].job
	s.mu.Unlock()

	start := time.Now()
	n := job.Recipe.Apply(s.factory())
	if job.Channel != "" {
		n.To(job.Channel)
	}
	_, err := n.Send(ctx)

	s.mu.Lock()
	e := s.entries[name]
	e.status.LastRun = start
	e.status.LastError = ""
	if err != nil {
		e.status.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("schedule: job failed", "name", name, "err", err)
		return err
	}
	s.log.Info("schedule: job sent", "name", name, "channel", n.Channel(), "took", time.Since(start))
	return nil
}

// Jobs returns the status of every job, sorted by name, with the next fire
// time computed from now.
func (s *Service) Jobs(now time.Time) []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobStatus, 0, len(s.entries))
	for _, e := range s.entries {
		st := e.status
		st.Next = e.sched.Next(now)
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type locSchedule struct {
	inner robfigcron.Schedule
	loc   *time.Location
}

func (l locSchedule) Next(t time.Time) time.Time {
	return l.inner.Next(t.In(l.loc))
}

// withLocation wraps a Schedule to always use a specific location.
func withLocation(s robfigcron.Schedule, loc *time.Location) robfigcron.Schedule {
	return locSchedule{inner: s, loc: loc}
}
