package scheduler

import (
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Reloader re-reads an external source. FileStore implements it.
type Reloader interface {
	Reload() error
}

// Scheduler periodically resyncs the preference file so external edits are
// picked up where file watching is unavailable.
type Scheduler struct {
	scheduler *gocron.Scheduler
	reloader  Reloader
	interval  time.Duration
	log       *zap.SugaredLogger
}

// New creates a new Scheduler. An interval of zero disables it.
func New(reloader Reloader, interval time.Duration, log *zap.SugaredLogger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		reloader:  reloader,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the resync job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.log.Infow("preference resync disabled")
		return nil
	}
	if s.reloader == nil {
		return errors.New("scheduler: no reloader configured")
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.resync)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Infow("preference resync scheduled", "interval", s.interval.String())
	return nil
}

func (s *Scheduler) resync() {
	if err := s.reloader.Reload(); err != nil {
		s.log.Warnw("preference resync failed", "error", err)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil && s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}
