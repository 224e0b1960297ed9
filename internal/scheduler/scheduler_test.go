package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poorehouse/twotruths/internal/hub"
	"github.com/poorehouse/twotruths/internal/session"
	"github.com/poorehouse/twotruths/internal/types"
)

// fakeSource returns a fixed round or error and counts calls.
type fakeSource struct {
	mu    sync.Mutex
	calls int
	round types.Round
	err   error
}

func (f *fakeSource) Generate(ctx context.Context, sessionID string) (types.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.round, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// seqSource numbers each generated round so tests can tell a cached
// round from a freshly generated one.
type seqSource struct {
	mu    sync.Mutex
	calls int
}

func (f *seqSource) Generate(ctx context.Context, sessionID string) (types.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return types.Round{{Text: fmt.Sprintf("round %d", f.calls)}}, nil
}

func (f *seqSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testRound() types.Round {
	return types.Round{
		{Text: "truth one"},
		{Text: "the lie", IsLie: true},
		{Text: "truth two"},
	}
}

func newTestScheduler(src roundSource) (*Scheduler, *hub.Hub) {
	h := hub.New()
	return New(src, h, session.NewManager(), time.Millisecond), h
}

func TestTryRequestCollapsesDuplicates(t *testing.T) {
	s, _ := newTestScheduler(&fakeSource{round: testRound()})

	if !s.TryRequest() {
		t.Fatal("first request should be accepted")
	}
	if s.TryRequest() {
		t.Fatal("second request should be rejected while one is pending")
	}
	s.clearRequest()
	if !s.TryRequest() {
		t.Fatal("request after clear should be accepted")
	}
}

func TestTickPublishesRound(t *testing.T) {
	src := &fakeSource{round: testRound()}
	s, h := newTestScheduler(src)
	_, events := h.Subscribe()

	s.TryRequest()
	s.tick(context.Background())

	select {
	case frame := <-events:
		var evt types.Event
		if err := json.Unmarshal(frame, &evt); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		if evt.Type != "new_round" {
			t.Errorf("expected new_round event, got %q", evt.Type)
		}
		if !strings.Contains(string(frame), "the lie") {
			t.Errorf("round payload missing from frame: %s", frame)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no event published")
	}

	if s.pending() {
		t.Error("request flag should clear after publishing")
	}
}

func TestTickServesFromPreloadCache(t *testing.T) {
	src := &seqSource{}
	s, h := newTestScheduler(src)

	s.preload(context.Background())
	if got := src.callCount(); got != 1 {
		t.Fatalf("expected one preload generation, got %d", got)
	}

	_, events := h.Subscribe()
	s.TryRequest()
	s.tick(context.Background())

	select {
	case frame := <-events:
		// An inline generation would have produced "round 2".
		if !strings.Contains(string(frame), "round 1") {
			t.Errorf("expected the cached round, got %s", frame)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no event published")
	}
}

func TestTickReportsGenerationError(t *testing.T) {
	src := &fakeSource{err: errors.New("model exploded")}
	s, h := newTestScheduler(src)
	_, events := h.Subscribe()

	s.TryRequest()
	s.tick(context.Background())

	select {
	case frame := <-events:
		var evt types.Event
		if err := json.Unmarshal(frame, &evt); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		if evt.Type != "error" {
			t.Errorf("expected error event, got %q", evt.Type)
		}
		if evt.Message != "model exploded" {
			t.Errorf("unexpected message %q", evt.Message)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no error event published")
	}

	if s.pending() {
		t.Error("request flag should clear after an error")
	}
}

func TestPreloadCachesOnlySuccess(t *testing.T) {
	s, _ := newTestScheduler(&fakeSource{err: errors.New("boom")})

	s.preload(context.Background())

	if _, ok := s.takePreloaded(); ok {
		t.Error("failed preload must not cache a round")
	}
}

func TestPreloadSkipsWhenCacheWarm(t *testing.T) {
	src := &seqSource{}
	s, _ := newTestScheduler(src)

	s.preload(context.Background())
	s.preload(context.Background())

	if got := src.callCount(); got != 1 {
		t.Errorf("expected one generation, got %d", got)
	}
	if round, ok := s.takePreloaded(); !ok || round[0].Text != "round 1" {
		t.Errorf("unexpected cached round %+v", round)
	}
}

func TestIdleTickFillsPreloadCache(t *testing.T) {
	src := &seqSource{}
	s, _ := newTestScheduler(src)

	s.tick(context.Background())

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := s.takePreloaded(); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("idle tick should fill the preload cache")
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newTestScheduler(&fakeSource{round: testRound()})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
