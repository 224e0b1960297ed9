package store

import (
	"context"

	"github.com/poorehouse/twotruths/internal/config"
	"github.com/poorehouse/twotruths/internal/logging"
	"github.com/poorehouse/twotruths/internal/types"
)

// Store fronts a durable backend with an in-memory fallback. Callers
// never see a storage error: any durable-backend failure is logged and
// the operation is retried against process memory, so the game keeps
// running when Redis or the database goes away.
type Store struct {
	backend    Backend
	fallback   *MemoryBackend
	persistent bool
}

// New builds the store named by cfg.Backend. A durable backend that
// cannot be reached at startup degrades to memory-only mode rather
// than failing the server.
func New(cfg config.StoreConfig) *Store {
	opts := Options{MaxRounds: cfg.MaxRounds, TTL: cfg.TTL()}

	switch cfg.Backend {
	case "redis", "":
		b, err := NewRedisBackend(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts)
		if err != nil {
			logging.Warnf("store: redis unavailable, using in-memory history: %v", err)
			break
		}
		logging.Infof("store: connected to redis at %s", cfg.RedisAddr)
		return &Store{backend: b, fallback: NewMemoryBackend(opts), persistent: true}
	case "sqlite":
		b, err := NewSQLiteBackend(cfg.SQLitePath, opts)
		if err != nil {
			logging.Warnf("store: sqlite unavailable, using in-memory history: %v", err)
			break
		}
		return &Store{backend: b, fallback: NewMemoryBackend(opts), persistent: true}
	case "memory":
	default:
		logging.Warnf("store: unknown backend %q, using in-memory history", cfg.Backend)
	}

	return &Store{fallback: NewMemoryBackend(opts), persistent: false}
}

// newWithBackend wires an explicit backend pair, for tests.
func newWithBackend(b Backend, opts Options) *Store {
	return &Store{backend: b, fallback: NewMemoryBackend(opts), persistent: b != nil}
}

// Persistent reports whether a durable backend answered at startup.
func (s *Store) Persistent() bool {
	return s.persistent
}

// History never fails: a broken durable backend degrades to whatever
// memory has, which may be an empty record.
func (s *Store) History(ctx context.Context, sessionID string) types.History {
	if s.backend != nil {
		h, err := s.backend.History(ctx, sessionID)
		if err == nil {
			return h
		}
		logging.Errorf("store: history read failed, serving from memory: %v", err)
	}
	h, _ := s.fallback.History(ctx, sessionID)
	return h
}

func (s *Store) Append(ctx context.Context, sessionID string, round types.Round) {
	if s.backend != nil {
		err := s.backend.Append(ctx, sessionID, round)
		if err == nil {
			return
		}
		logging.Errorf("store: append failed, recording in memory: %v", err)
	}
	_ = s.fallback.Append(ctx, sessionID, round)
}

func (s *Store) Reset(ctx context.Context, sessionID string) int {
	if s.backend != nil {
		n, err := s.backend.Reset(ctx, sessionID)
		if err == nil {
			// Drop any shadow copy accumulated during outages too.
			_, _ = s.fallback.Reset(ctx, sessionID)
			return n
		}
		logging.Errorf("store: reset failed, clearing memory only: %v", err)
	}
	n, _ := s.fallback.Reset(ctx, sessionID)
	return n
}

// LogPrompt records a prompt. Log failures must never fail generation,
// so errors stop here.
func (s *Store) LogPrompt(ctx context.Context, sessionID string, entry types.PromptLog) {
	if s.backend != nil {
		err := s.backend.LogPrompt(ctx, sessionID, entry)
		if err == nil {
			return
		}
		logging.Errorf("store: prompt log failed, recording in memory: %v", err)
	}
	_ = s.fallback.LogPrompt(ctx, sessionID, entry)
}

// LogResponse records a raw model response, same failure rules as
// LogPrompt.
func (s *Store) LogResponse(ctx context.Context, sessionID string, entry types.ResponseLog) {
	if s.backend != nil {
		err := s.backend.LogResponse(ctx, sessionID, entry)
		if err == nil {
			return
		}
		logging.Errorf("store: response log failed, recording in memory: %v", err)
	}
	_ = s.fallback.LogResponse(ctx, sessionID, entry)
}

func (s *Store) Prompts(ctx context.Context, sessionID string) []types.PromptLog {
	if s.backend != nil {
		entries, err := s.backend.Prompts(ctx, sessionID)
		if err == nil {
			return entries
		}
		logging.Errorf("store: prompt read failed, serving from memory: %v", err)
	}
	entries, _ := s.fallback.Prompts(ctx, sessionID)
	return entries
}

func (s *Store) Responses(ctx context.Context, sessionID string) []types.ResponseLog {
	if s.backend != nil {
		entries, err := s.backend.Responses(ctx, sessionID)
		if err == nil {
			return entries
		}
		logging.Errorf("store: response read failed, serving from memory: %v", err)
	}
	entries, _ := s.fallback.Responses(ctx, sessionID)
	return entries
}

// Purge drops expired sessions from both layers and reports the total.
func (s *Store) Purge(ctx context.Context) int {
	total := 0
	if s.backend != nil {
		n, err := s.backend.Purge(ctx)
		if err != nil {
			logging.Errorf("store: purge failed: %v", err)
		}
		total += n
	}
	n, _ := s.fallback.Purge(ctx)
	return total + n
}

func (s *Store) Close() error {
	if s.backend != nil {
		return s.backend.Close()
	}
	return nil
}
