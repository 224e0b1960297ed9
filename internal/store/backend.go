package store

import (
	"context"
	"time"

	"github.com/poorehouse/twotruths/internal/types"
)

// Backend persists per-session round history plus the prompt/response
// side logs. Implementations keep at most Options.MaxRounds entries per
// list and expire idle sessions after Options.TTL.
type Backend interface {
	// History returns the session's record, creating an empty one with
	// a zero count if the session has never been seen.
	History(ctx context.Context, sessionID string) (types.History, error)

	// Append records a round as the newest entry and bumps the count.
	Append(ctx context.Context, sessionID string, round types.Round) error

	// Reset clears all records for the session and reports how many
	// rounds were dropped. The session keeps its id and restarts at
	// count zero.
	Reset(ctx context.Context, sessionID string) (int, error)

	LogPrompt(ctx context.Context, sessionID string, entry types.PromptLog) error
	LogResponse(ctx context.Context, sessionID string, entry types.ResponseLog) error
	Prompts(ctx context.Context, sessionID string) ([]types.PromptLog, error)
	Responses(ctx context.Context, sessionID string) ([]types.ResponseLog, error)

	// Purge drops sessions idle past their TTL and reports how many
	// were removed. Backends that expire natively may return 0.
	Purge(ctx context.Context) (int, error)

	Close() error
}

// Options bound every backend's retention behavior.
type Options struct {
	// MaxRounds caps each session's stored rounds, prompts, and
	// responses. Older entries fall off; the round counter keeps going.
	MaxRounds int

	// TTL is how long an untouched session survives.
	TTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxRounds <= 0 {
		o.MaxRounds = 100
	}
	if o.TTL <= 0 {
		o.TTL = 30 * 24 * time.Hour
	}
	return o
}
