package store

import (
	"context"
	"sync"
	"time"

	"github.com/poorehouse/twotruths/internal/types"
)

// MemoryBackend keeps session records in process memory. It backs the
// memory store mode and doubles as the fallback when a durable backend
// stops answering.
type MemoryBackend struct {
	mu       sync.Mutex
	opts     Options
	sessions map[string]*memSession
}

type memSession struct {
	roundCount int
	rounds     []types.Round
	prompts    []types.PromptLog
	responses  []types.ResponseLog
	touched    time.Time
}

func NewMemoryBackend(opts Options) *MemoryBackend {
	return &MemoryBackend{
		opts:     opts.withDefaults(),
		sessions: make(map[string]*memSession),
	}
}

// session returns the record for id, creating it on first touch.
// Callers must hold mu.
func (m *MemoryBackend) session(id string) *memSession {
	s, ok := m.sessions[id]
	if !ok {
		s = &memSession{}
		m.sessions[id] = s
	}
	s.touched = time.Now()
	return s
}

func (m *MemoryBackend) History(ctx context.Context, sessionID string) (types.History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	rounds := make([]types.Round, len(s.rounds))
	copy(rounds, s.rounds)
	return types.History{RoundCount: s.roundCount, Rounds: rounds}, nil
}

func (m *MemoryBackend) Append(ctx context.Context, sessionID string, round types.Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	s.roundCount++
	s.rounds = append([]types.Round{round}, s.rounds...)
	if len(s.rounds) > m.opts.MaxRounds {
		s.rounds = s.rounds[:m.opts.MaxRounds]
	}
	return nil
}

func (m *MemoryBackend) Reset(ctx context.Context, sessionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	cleared := s.roundCount
	*s = memSession{touched: time.Now()}
	return cleared, nil
}

func (m *MemoryBackend) LogPrompt(ctx context.Context, sessionID string, entry types.PromptLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	s.prompts = append([]types.PromptLog{entry}, s.prompts...)
	if len(s.prompts) > m.opts.MaxRounds {
		s.prompts = s.prompts[:m.opts.MaxRounds]
	}
	return nil
}

func (m *MemoryBackend) LogResponse(ctx context.Context, sessionID string, entry types.ResponseLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	s.responses = append([]types.ResponseLog{entry}, s.responses...)
	if len(s.responses) > m.opts.MaxRounds {
		s.responses = s.responses[:m.opts.MaxRounds]
	}
	return nil
}

func (m *MemoryBackend) Prompts(ctx context.Context, sessionID string) ([]types.PromptLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	out := make([]types.PromptLog, len(s.prompts))
	copy(out, s.prompts)
	return out, nil
}

func (m *MemoryBackend) Responses(ctx context.Context, sessionID string) ([]types.ResponseLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	out := make([]types.ResponseLog, len(s.responses))
	copy(out, s.responses)
	return out, nil
}

func (m *MemoryBackend) Purge(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-m.opts.TTL)
	removed := 0
	for id, s := range m.sessions {
		if s.touched.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryBackend) Close() error { return nil }
