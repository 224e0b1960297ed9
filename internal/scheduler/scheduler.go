package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/poorehouse/twotruths/internal/hub"
	"github.com/poorehouse/twotruths/internal/logging"
	"github.com/poorehouse/twotruths/internal/session"
	"github.com/poorehouse/twotruths/internal/types"
)

// roundSource is the single generator call the scheduler needs, kept
// as an interface so tests can substitute canned rounds.
type roundSource interface {
	Generate(ctx context.Context, sessionID string) (types.Round, error)
}

// Scheduler owns the request flag and the preload cache. One goroutine
// polls the flag; rounds are produced either inline on a request tick
// or ahead of time in a preload goroutine, so a trigger that finds the
// cache warm answers without waiting on the model.
type Scheduler struct {
	gen      roundSource
	hub      *hub.Hub
	session  *session.Manager
	interval time.Duration

	mu        sync.Mutex
	requested bool

	preloadMu  sync.Mutex
	preloaded  types.Round
	preloading bool
}

func New(gen roundSource, h *hub.Hub, sess *session.Manager, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Scheduler{gen: gen, hub: h, session: sess, interval: interval}
}

// TryRequest marks a round as wanted. It reports false when a request
// is already pending, which the trigger endpoint turns into a 202.
func (s *Scheduler) TryRequest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requested {
		return false
	}
	s.requested = true
	return true
}

func (s *Scheduler) pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requested
}

func (s *Scheduler) clearRequest() {
	s.mu.Lock()
	s.requested = false
	s.mu.Unlock()
}

// Run polls until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	logging.Infof("scheduler: starting, polling every %s", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Infof("scheduler: stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick serves one pending request, or tops up the preload cache when
// idle.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.pending() {
		if s.shouldPreload() {
			go s.preload(ctx)
		}
		return
	}
	// The flag stays up until the round (or error) has gone out, so
	// repeat triggers during generation collapse into this one.
	defer s.clearRequest()

	round, ok := s.takePreloaded()
	if !ok || len(round) == 0 {
		var err error
		round, err = s.gen.Generate(ctx, s.session.ID())
		if err != nil {
			logging.Errorf("scheduler: round generation failed: %v", err)
			s.hub.PublishError(err.Error())
			return
		}
	}

	s.hub.Publish("new_round", types.RoundPayload{Statements: round})

	if s.shouldPreload() {
		go s.preload(ctx)
	}
}

// shouldPreload reports whether the cache is empty and nobody is
// filling it.
func (s *Scheduler) shouldPreload() bool {
	s.preloadMu.Lock()
	defer s.preloadMu.Unlock()
	return s.preloaded == nil && !s.preloading
}

func (s *Scheduler) takePreloaded() (types.Round, bool) {
	s.preloadMu.Lock()
	defer s.preloadMu.Unlock()
	round := s.preloaded
	s.preloaded = nil
	return round, round != nil
}

// preload generates the next round ahead of a request. Only successes
// are cached: a failed preload leaves the cache empty, so the next
// request generates inline and reports its own error to clients.
func (s *Scheduler) preload(ctx context.Context) {
	s.preloadMu.Lock()
	if s.preloading || s.preloaded != nil {
		s.preloadMu.Unlock()
		return
	}
	s.preloading = true
	s.preloadMu.Unlock()

	defer func() {
		s.preloadMu.Lock()
		s.preloading = false
		s.preloadMu.Unlock()
	}()

	round, err := s.gen.Generate(ctx, s.session.ID())
	if err != nil {
		logging.Errorf("scheduler: preload failed: %v", err)
		return
	}

	s.preloadMu.Lock()
	s.preloaded = round
	s.preloadMu.Unlock()
	logging.Debugf("scheduler: next round preloaded")
}
