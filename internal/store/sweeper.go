package store

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/poorehouse/twotruths/internal/logging"
)

// Sweeper periodically purges sessions idle past their TTL. Redis
// expires keys natively; the SQLite and memory layers need this sweep.
type Sweeper struct {
	c *cron.Cron
}

// NewSweeper schedules a purge on the given cron spec, e.g. "@every 1h".
func NewSweeper(st *Store, spec string) (*Sweeper, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := st.Purge(context.Background()); n > 0 {
			logging.Infof("store: swept %d expired sessions", n)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule sweep %q: %w", spec, err)
	}
	return &Sweeper{c: c}, nil
}

// Start begins the schedule in its own goroutine.
func (s *Sweeper) Start() {
	s.c.Start()
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	<-s.c.Stop().Done()
}
