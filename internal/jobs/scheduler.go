package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sweeper drops idle client sessions. *session.Hub implements it.
type Sweeper interface {
	Sweep() int
	Len() int
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	spec    string
	log     zerolog.Logger
}

// NewScheduler runs the session sweep on spec, a six-field cron expression with seconds.
func NewScheduler(sweeper Sweeper, spec string, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:    c,
		sweeper: sweeper,
		spec:    spec,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if s.sweeper == nil || s.spec == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.sweepSessions); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits up to five seconds for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) sweepSessions() {
	removed := s.sweeper.Sweep()
	if removed > 0 {
		s.log.Info().Int("removed", removed).Int("live", s.sweeper.Len()).Msg("idle sessions swept")
	}
}
