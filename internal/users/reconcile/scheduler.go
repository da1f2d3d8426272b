package reconcile

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// sweepTimeout bounds a single scheduled sweep
const sweepTimeout = 5 * time.Minute

type Scheduler struct {
	cron       *cron.Cron
	reconciler *Reconciler
	log        zerolog.Logger
}

func NewScheduler(reconciler *Reconciler, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		reconciler: reconciler,
		log:        log,
	}
}

// Start registers the sweep under the six-field cron spec and starts the
// scheduler. An empty spec leaves the scheduler idle.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		s.log.Info().Msg("reconcile schedule not set, sweep disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return err
	}

	s.log.Info().Str("schedule", spec).Msg("reconcile scheduler started")
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	ctx = s.log.WithContext(ctx)

	start := time.Now()
	res, err := s.reconciler.Run(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("reconcile sweep failed")
		return
	}

	s.log.Info().
		Int("scanned", res.Scanned).
		Int("repaired", res.Repaired).
		Int("removed", res.Removed).
		Dur("took", time.Since(start)).
		Msg("reconcile sweep completed")
}
