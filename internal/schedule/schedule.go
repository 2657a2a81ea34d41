// Package schedule drives periodic display refreshes.
package schedule

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/BeatGlow/rlcd"
	"github.com/BeatGlow/rlcd/internal/log"
)

// Refresher is the display being refreshed.
type Refresher interface {
	Refresh() error
}

// Scheduler refreshes a display every interval, and on request. A faulted
// display is no longer refreshed.
type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	id       cron.EntryID
	target   Refresher
	interval time.Duration
	faulted  bool
}

// New returns a scheduler for target. Intervals are rounded down to whole
// seconds, with a minimum of one second. An interval of zero (or less) means
// manual refreshes only.
func New(target Refresher, interval time.Duration) *Scheduler {
	logger := cronLogger{}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		target: target,
	}
	if interval > 0 {
		every := cron.Every(interval)
		s.interval = every.Delay
		s.id = s.cron.Schedule(every, cron.FuncJob(s.run))
	}
	return s
}

// Interval is the refresh period, zero for manual refreshes.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Next is the time of the next scheduled refresh, the zero time if there is none.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.id).Next
}

// Start the schedule in the background.
func (s *Scheduler) Start() {
	if s.interval > 0 {
		log.Info("starting refresh schedule", "interval", s.interval)
	}
	s.cron.Start()
}

// Stop the schedule, the returned context is done when a running refresh completed.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Trigger refreshes the display now.
func (s *Scheduler) Trigger() error {
	return s.refresh()
}

func (s *Scheduler) run() {
	if err := s.refresh(); err != nil && !errors.Is(err, rlcd.ErrFaulted) {
		log.Error("scheduled refresh failed", err)
	}
}

func (s *Scheduler) refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.faulted {
		return rlcd.ErrFaulted
	}

	start := time.Now()
	err := s.target.Refresh()
	if errors.Is(err, rlcd.ErrFaulted) {
		s.faulted = true
		if s.id != 0 {
			s.cron.Remove(s.id)
			s.id = 0
		}
		log.Error("display faulted, refresh schedule stopped", err)
		return err
	}
	if err == nil {
		log.Debug("refreshed", "took", time.Since(start))
	}
	return err
}

// cronLogger sends cron messages to the package logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	log.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	log.Error("cron: "+msg, err, keysAndValues...)
}
