package gojob

import (
	"context"
	"fmt"
	"time"

	command "github.com/goliatone/go-command"
	gocron "github.com/goliatone/go-command/cron"
	"github.com/goliatone/go-deeplink/core"
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	JobIDJournalPrune      = "deeplink.journal.prune"
	ScheduleIDJournalPrune = "deeplink.journal.prune.schedule"

	journalPrunePath = "deeplink://journal/prune"

	defaultPruneTimeout     = time.Minute
	maxPruneInterval        = time.Hour
	minPruneInterval        = time.Second
	pruneIntervalDivisor    = 4
	pruneScheduleExpression = "@every %s"
)

// PruneSchedule returns the cron expression used for a retention window:
// every retention/4, clamped to [1s, 1h].
func PruneSchedule(retention time.Duration) string {
	interval := retention / pruneIntervalDivisor
	if interval > maxPruneInterval || interval <= 0 {
		interval = maxPruneInterval
	}
	if interval < minPruneInterval {
		interval = minPruneInterval
	}
	return fmt.Sprintf(pruneScheduleExpression, interval)
}

type PruneTaskOption func(*PruneTask)

func WithPruneLogger(logger core.Logger) PruneTaskOption {
	return func(t *PruneTask) {
		if logger != nil {
			t.logger = logger
		}
	}
}

func WithPruneClock(clock func() time.Time) PruneTaskOption {
	return func(t *PruneTask) {
		if clock != nil {
			t.clock = clock
		}
	}
}

func WithPruneTimeout(timeout time.Duration) PruneTaskOption {
	return func(t *PruneTask) {
		if timeout > 0 {
			t.timeout = timeout
		}
	}
}

// PruneTask is the go-job task that deletes journal records older than the
// retention window.
type PruneTask struct {
	journal   core.IngestionJournalPruner
	retention time.Duration
	schedule  string
	timeout   time.Duration
	logger    core.Logger
	clock     func() time.Time
}

func NewPruneTask(journal core.IngestionJournalPruner, retention time.Duration, opts ...PruneTaskOption) (*PruneTask, error) {
	if journal == nil {
		return nil, fmt.Errorf("gojob: journal pruner is required")
	}
	if retention <= 0 {
		return nil, fmt.Errorf("gojob: retention must be positive")
	}
	task := &PruneTask{
		journal:   journal,
		retention: retention,
		schedule:  PruneSchedule(retention),
		timeout:   defaultPruneTimeout,
		logger:    glog.Nop(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(task)
		}
	}
	return task, nil
}

func (t *PruneTask) GetID() string { return JobIDJournalPrune }

func (t *PruneTask) GetPath() string { return journalPrunePath }

func (t *PruneTask) GetEngine() job.Engine { return nil }

func (t *PruneTask) GetConfig() job.Config {
	return job.Config{Schedule: t.schedule, Timeout: t.timeout}
}

func (t *PruneTask) GetHandlerConfig() job.HandlerOptions {
	return job.HandlerOptions{
		HandlerConfig: command.HandlerConfig{
			Expression: t.schedule,
			Timeout:    t.timeout,
		},
	}
}

func (t *PruneTask) GetHandler() func() error {
	return func() error {
		return t.Execute(context.Background(), nil)
	}
}

// Execute prunes once. The execution message carries no parameters.
func (t *PruneTask) Execute(ctx context.Context, _ *job.ExecutionMessage) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cutoff := t.clock().Add(-t.retention)
	deleted, err := t.journal.Prune(ctx, cutoff)
	if err != nil {
		t.logger.Error("journal prune failed", "error", err, "cutoff", cutoff)
		return err
	}
	if deleted > 0 {
		t.logger.Info("journal pruned", "deleted", deleted, "cutoff", cutoff)
	}
	return nil
}

// PruneScheduler runs a PruneTask on a go-job CronManager backed by an
// in-memory task registry and a go-command cron scheduler.
type PruneScheduler struct {
	task     *PruneTask
	registry job.Registry
	cron     *gocron.Scheduler
	manager  *job.CronManager
}

func NewPruneScheduler(task *PruneTask) (*PruneScheduler, error) {
	if task == nil {
		return nil, fmt.Errorf("gojob: prune task is required")
	}
	registry := job.NewMemoryRegistry()
	if err := registry.Add(task); err != nil {
		return nil, fmt.Errorf("gojob: register prune task: %w", err)
	}
	logger := task.logger
	scheduler := gocron.NewScheduler(
		gocron.WithLogger(logger),
		gocron.WithErrorHandler(func(err error) {
			logger.Error("scheduled job failed", "job_id", JobIDJournalPrune, "error", err)
		}),
	)
	return &PruneScheduler{
		task:     task,
		registry: registry,
		cron:     scheduler,
		manager:  job.NewCronManager(registry, scheduler),
	}, nil
}

// Start registers the prune schedule and starts the cron loop.
func (s *PruneScheduler) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("gojob: prune scheduler is not configured")
	}
	if err := s.manager.Register(ctx, job.ScheduleDefinition{
		ID:         ScheduleIDJournalPrune,
		Expression: s.task.schedule,
		Message:    job.ExecutionMessage{JobID: JobIDJournalPrune},
	}); err != nil {
		return fmt.Errorf("gojob: register prune schedule: %w", err)
	}
	return s.cron.Start(ctx)
}

func (s *PruneScheduler) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.cron.Stop(ctx)
}

// Schedules lists the registered schedules.
func (s *PruneScheduler) Schedules() []job.ScheduleDefinition {
	if s == nil {
		return nil
	}
	return s.manager.List()
}

var _ job.Task = (*PruneTask)(nil)
