// Package jobs runs the periodic maintenance of the marketplace inside the API
// process.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/internal/metrics"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
)

const (
	JobExpirePurchases   = "expire_purchases"
	JobSyncAccounts      = "sync_stripe_accounts"
	JobRefreshCategories = "refresh_categories"

	jobTimeout = 2 * time.Minute
)

type PurchaseExpirer interface {
	ExpirePending(ctx context.Context) (int64, error)
}

type AccountSyncer interface {
	SyncIncompleteAccounts(ctx context.Context) (int, error)
}

type CategoryRefresher interface {
	RefreshCategories(ctx context.Context) error
}

type job struct {
	name string
	spec string
	run  func(ctx context.Context) (logrus.Fields, error)
}

// Scheduler owns the cron runner. Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron   *cron.Cron
	jobs   map[string]job
	logger *logrus.Logger
}

func New(logger *logrus.Logger, purchases PurchaseExpirer, accounts AccountSyncer, categories CategoryRefresher) (*Scheduler, error) {
	cl := cronLogger{logger}
	s := &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)), cron.WithLogger(cl)),
		jobs:   map[string]job{},
		logger: logger,
	}

	all := []job{
		{JobExpirePurchases, "@every 15m", func(ctx context.Context) (logrus.Fields, error) {
			n, err := purchases.ExpirePending(ctx)
			return logrus.Fields{"expired": n}, err
		}},
		{JobSyncAccounts, "@every 1h", func(ctx context.Context) (logrus.Fields, error) {
			n, err := accounts.SyncIncompleteAccounts(ctx)
			return logrus.Fields{"synced": n}, err
		}},
		{JobRefreshCategories, "@every 10m", func(ctx context.Context) (logrus.Fields, error) {
			return nil, categories.RefreshCategories(ctx)
		}},
	}
	for _, j := range all {
		name := j.name
		if _, err := s.cron.AddFunc(j.spec, func() { _ = s.Run(context.Background(), name) }); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", name, err)
		}
		s.jobs[name] = j
	}
	return s, nil
}

// Run executes one job synchronously, records the outcome and returns its error.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	fields, err := j.run(ctx)
	metrics.RecordJob(name, err)
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["job"] = name
	fields["took_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		helpers.LogError(s.logger, "job failed", err, fields)
		return err
	}
	helpers.LogInfo(s.logger, "job finished", fields)
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct{ l *logrus.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if c.l != nil {
		c.l.WithFields(kv(keysAndValues)).Debug("cron: " + msg)
	}
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	if c.l != nil {
		c.l.WithError(err).WithFields(kv(keysAndValues)).Error("cron: " + msg)
	}
}

func kv(pairs []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(pairs); i += 2 {
		f[fmt.Sprint(pairs[i])] = pairs[i+1]
	}
	return f
}
