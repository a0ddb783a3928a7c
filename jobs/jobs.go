// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper closes out subscriptions whose period has ended.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (renewed, expired int, err error)
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	log     *logrus.Logger
	now     func() time.Time
	timeout time.Duration
}

// New schedules the subscription sweep at spec. spec accepts the standard
// five-field syntax and descriptors such as "@every 1h"; an empty spec
// disables the job.
func New(spec string, sweeper Sweeper, log *logrus.Logger) (*Scheduler, error) {
	cl := cron.PrintfLogger(log)
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		sweeper: sweeper,
		log:     log,
		now:     time.Now,
		timeout: time.Minute,
	}
	if spec == "" {
		return s, nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.SweepOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("schedule subscription sweep %q: %w", spec, err)
	}
	return s, nil
}

// Jobs is the number of scheduled entries.
func (s *Scheduler) Jobs() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.WithField("jobs", s.Jobs()).Info("scheduler started")
}

// Stop stops scheduling and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out with a job still running")
	}
}

// SweepOnce runs one sweep and logs the outcome.
func (s *Scheduler) SweepOnce(ctx context.Context) (renewed, expired int, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	renewed, expired, err = s.sweeper.Sweep(ctx, s.now())
	entry := s.log.WithFields(logrus.Fields{
		"job":      "subscription_sweep",
		"renewed":  renewed,
		"expired":  expired,
		"duration": time.Since(start),
	})
	if err != nil {
		entry.WithError(err).Error("job failed")
		return 0, 0, err
	}
	entry.Debug("job finished")
	return renewed, expired, nil
}
