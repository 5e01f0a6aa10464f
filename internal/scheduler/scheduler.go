// Package scheduler drives the recurring billing background process: it
// materializes due plans into charges, flips overdue charges, and dispatches
// throttled due-soon reminders. Three independent fixed-interval tasks share
// one Scheduler; the per-item compare-and-set claims in locks.go are the only
// cross-run concurrency control.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AdrianEnev/Van-Manager/internal/clock"
	notificationdomain "github.com/AdrianEnev/Van-Manager/internal/notification/domain"
	obsmetrics "github.com/AdrianEnev/Van-Manager/internal/observability/metrics"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

const (
	jobMaterialize = "materialize_plans"
	jobOverdue     = "overdue_charges"
	jobReminder    = "due_soon_reminders"
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	NotificationSvc notificationdomain.Service
	GenID           *snowflake.Node
	Clock           clock.Clock
	Config          Config `optional:"true"`
}

type Scheduler struct {
	db              *gorm.DB
	log             *zap.Logger
	cfg             Config
	genID           *snowflake.Node
	clock           clock.Clock
	notificationSvc notificationdomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.NotificationSvc == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:              p.DB,
		log:             p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:             p.Config.withDefaults(),
		genID:           p.GenID,
		clock:           p.Clock,
		notificationSvc: p.NotificationSvc,
	}, nil
}

// runJob wraps a single job invocation with its run record, metrics, and the
// soft timeout. A deadline overrun is logged and swallowed; the next tick
// retries from scratch.
func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name)
	if owner {
		s.logJobStart(run)
	}
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(run)
	}
	if err == nil {
		return nil
	}

	schedMetrics.IncJobError(name)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}
	return err
}

// RunOnce runs all three jobs sequentially. Used by tests and one-shot
// operational runs; the live driver runs each job on its own ticker.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	err = errors.Join(err, s.runJob(parent, jobMaterialize, s.MaterializeJob))
	err = errors.Join(err, s.runJob(parent, jobOverdue, s.OverdueJob))
	err = errors.Join(err, s.runJob(parent, jobReminder, s.ReminderJob))
	return err
}

// Run starts the three repeating tasks and blocks until ctx is canceled.
// Cancellation stops future ticks and aborts an in-flight job at its next
// item boundary; the per-item transactions keep a partial run safe.
func (s *Scheduler) Run(ctx context.Context) {
	tasks := []struct {
		Name string
		Fn   func(context.Context) error
	}{
		{jobMaterialize, s.MaterializeJob},
		{jobOverdue, s.OverdueJob},
		{jobReminder, s.ReminderJob},
	}

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(name string, fn func(context.Context) error) {
			defer wg.Done()
			s.runTask(ctx, name, fn)
		}(task.Name, task.Fn)
	}
	wg.Wait()
}

// runTask waits out the warm-up delay, fires once, then ticks on the
// configured interval. An in-flight flag skips overlapping ticks; the
// per-item claims remain the safety net if a tick is skipped elsewhere.
func (s *Scheduler) runTask(ctx context.Context, name string, fn func(context.Context) error) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.WarmupDelay):
	}

	var inFlight atomic.Bool
	tick := func() {
		if !inFlight.CompareAndSwap(false, true) {
			s.log.Warn("previous tick still running, skipping",
				zap.String("job", name),
			)
			obsmetrics.Scheduler().IncTickSkipped(name)
			return
		}
		go func() {
			defer inFlight.Store(false)
			if err := s.runJob(ctx, name, fn); err != nil {
				s.log.Error("scheduler task run failed",
					zap.String("job", name),
					zap.Error(err),
				)
			}
		}()
	}

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}
