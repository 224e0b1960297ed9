package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/poorehouse/twotruths/internal/types"
)

func newTestSQLite(t *testing.T, opts Options) *SQLiteBackend {
	t.Helper()
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "test.db"), opts)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLite(t, Options{})

	if err := b.Append(ctx, "s1", testRound("r1")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := b.Append(ctx, "s1", testRound("r2")); err != nil {
		t.Fatalf("append: %v", err)
	}

	h, err := b.History(ctx, "s1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if h.RoundCount != 2 {
		t.Errorf("expected count 2, got %d", h.RoundCount)
	}
	if len(h.Rounds) != 2 || h.Rounds[0][0].Text != "r2 truth one" {
		t.Errorf("expected newest round first, got %+v", h.Rounds)
	}

	cleared, err := b.Reset(ctx, "s1")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if cleared != 2 {
		t.Errorf("expected 2 cleared rounds, got %d", cleared)
	}

	h, _ = b.History(ctx, "s1")
	if h.RoundCount != 0 || len(h.Rounds) != 0 {
		t.Errorf("expected empty history after reset, got count=%d rounds=%d", h.RoundCount, len(h.Rounds))
	}

	// Same id keeps working
	if err := b.Append(ctx, "s1", testRound("r3")); err != nil {
		t.Fatalf("append after reset: %v", err)
	}
	if h, _ := b.History(ctx, "s1"); h.RoundCount != 1 {
		t.Errorf("expected count 1 after post-reset append, got %d", h.RoundCount)
	}
}

func TestSQLiteRetentionCap(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLite(t, Options{MaxRounds: 5})

	for i := 1; i <= 8; i++ {
		if err := b.Append(ctx, "s1", testRound(fmt.Sprintf("r%d", i))); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	h, _ := b.History(ctx, "s1")
	if h.RoundCount != 8 {
		t.Errorf("count should keep going past the cap, got %d", h.RoundCount)
	}
	if len(h.Rounds) != 5 {
		t.Fatalf("expected 5 retained rounds, got %d", len(h.Rounds))
	}
	if h.Rounds[0][0].Text != "r8 truth one" {
		t.Errorf("expected newest retained round r8, got %q", h.Rounds[0][0].Text)
	}
}

func TestSQLiteLogTrim(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLite(t, Options{MaxRounds: 3})

	for i := 1; i <= 5; i++ {
		if err := b.LogPrompt(ctx, "s1", types.PromptLog{RoundNumber: i, FullPrompt: "p"}); err != nil {
			t.Fatalf("log prompt %d: %v", i, err)
		}
	}

	prompts, err := b.Prompts(ctx, "s1")
	if err != nil {
		t.Fatalf("prompts: %v", err)
	}
	if len(prompts) != 3 {
		t.Fatalf("expected 3 retained prompts, got %d", len(prompts))
	}
	if prompts[0].RoundNumber != 5 {
		t.Errorf("expected newest prompt first, got round %d", prompts[0].RoundNumber)
	}
}

func TestSQLitePurge(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLite(t, Options{TTL: 10 * time.Millisecond})

	if err := b.Append(ctx, "stale", testRound("old")); err != nil {
		t.Fatalf("append: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if err := b.Append(ctx, "fresh", testRound("new")); err != nil {
		t.Fatalf("append: %v", err)
	}

	removed, err := b.Purge(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 purged session, got %d", removed)
	}

	if h, _ := b.History(ctx, "fresh"); h.RoundCount != 1 {
		t.Errorf("fresh session lost its history: count=%d", h.RoundCount)
	}
	if h, _ := b.History(ctx, "stale"); h.RoundCount != 0 {
		t.Errorf("stale session should restart at zero, got %d", h.RoundCount)
	}
}
