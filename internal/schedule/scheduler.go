package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Job is one periodic maintenance task. Run receives the scheduler's base
// context and must return once the context is done.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// CronScheduler runs jobs on standard five-field cron specs. A tick that
// fires while the previous run of the same job is still going is skipped, so
// a slow redrive pass never stacks up behind itself.
type CronScheduler struct {
	cron       *cron.Cron
	runTimeout time.Duration
	base       atomic.Pointer[context.Context]
}

// NewCronScheduler builds a scheduler whose job runs are each bounded by
// runTimeout; pass 0 for unbounded runs.
func NewCronScheduler(runTimeout time.Duration) *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{
		cron:       cron.New(cron.WithParser(parser)),
		runTimeout: runTimeout,
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	if _, err := c.cron.AddFunc(spec, c.runner(job, spec)); err != nil {
		return err
	}
	logutil.GetLogger(context.Background()).Info("job scheduled",
		zap.String("job", job.Name()), zap.String("spec", spec))
	return nil
}

// Start begins firing ticks. Jobs inherit ctx, so cancelling it interrupts
// in-flight runs.
func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.base.Store(&ctx)
	c.cron.Start()
}

// Stop halts scheduling and waits for running jobs to return.
func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

func (c *CronScheduler) runner(job Job, spec string) func() {
	var running atomic.Bool
	return func() {
		logger := logutil.GetLogger(context.Background()).With(
			zap.String("job", job.Name()),
			zap.String("spec", spec),
		)
		if !running.CompareAndSwap(false, true) {
			logger.Info("previous run still going, tick skipped")
			return
		}
		defer running.Store(false)

		ctx := context.Background()
		if base := c.base.Load(); base != nil {
			ctx = *base
		}
		cancel := context.CancelFunc(func() {})
		if c.runTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, c.runTimeout)
		}
		defer cancel()

		start := time.Now()
		err := job.Run(ctx)
		if err != nil {
			logger.Error("job run failed", zap.Error(err), zap.Duration("took", time.Since(start)))
			return
		}
		logger.Info("job run done", zap.Duration("took", time.Since(start)))
	}
}
