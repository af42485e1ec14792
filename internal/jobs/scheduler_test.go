package jobs

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	sweeps atomic.Int32
}

func (c *countingSweeper) Sweep() int {
	c.sweeps.Add(1)
	return 1
}

func (c *countingSweeper) Len() int { return 0 }

func TestScheduler_RunsSweep(t *testing.T) {
	sw := &countingSweeper{}
	s := NewScheduler(sw, "* * * * * *", zerolog.Nop())
	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool { return sw.sweeps.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler(&countingSweeper{}, "not a cron spec", zerolog.Nop())
	require.Error(t, s.Start())
}

func TestScheduler_DisabledWithoutSpec(t *testing.T) {
	s := NewScheduler(&countingSweeper{}, "", zerolog.Nop())
	require.NoError(t, s.Start())
	s.Stop()
}
