package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/poorehouse/twotruths/internal/logging"
	"github.com/poorehouse/twotruths/internal/store"
	"github.com/poorehouse/twotruths/internal/types"
)

// completionTimeout bounds a single model call.
const completionTimeout = 30 * time.Second

// Generator turns session history into the next round with one model
// call. It owns prompt construction, response parsing, and the audit
// logs around both.
type Generator struct {
	model  Model // nil when no provider is configured
	store  *store.Store
	window int

	mu     sync.RWMutex
	prompt string
}

func New(model Model, st *store.Store, basePrompt string, window int) *Generator {
	return &Generator{
		model:  model,
		store:  st,
		window: window,
		prompt: basePrompt,
	}
}

// SetPrompt swaps the base prompt. Config hot reload calls this, so
// the next round picks up edited instructions without a restart.
func (g *Generator) SetPrompt(p string) {
	g.mu.Lock()
	g.prompt = p
	g.mu.Unlock()
}

func (g *Generator) basePrompt() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.prompt
}

// Generate produces, records, and returns the session's next round.
// Failures come back as *Error carrying a player-facing message.
func (g *Generator) Generate(ctx context.Context, sessionID string) (types.Round, error) {
	if g.model == nil {
		return nil, errNotConfigured()
	}
	base := g.basePrompt()
	if strings.TrimSpace(base) == "" {
		return nil, errNoPrompt()
	}

	history := g.store.History(ctx, sessionID)
	p := BuildPrompt(base, history, g.window)

	g.store.LogPrompt(ctx, sessionID, types.PromptLog{
		RoundNumber:    p.RoundNumber,
		Prompt:         p.Base,
		HistoryContext: p.HistoryText,
		FullPrompt:     p.Full,
		IsEasterEggSet: p.EasterEgg,
		Timestamp:      time.Now().UTC(),
	})

	cctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	logging.Infof("generating round %d for session %s via %s", p.RoundNumber, sessionID, g.model.Name())
	text, err := g.model.Complete(cctx, p.Full)
	if err != nil {
		return nil, err
	}

	g.store.LogResponse(ctx, sessionID, types.ResponseLog{
		RoundNumber: p.RoundNumber,
		Response:    text,
		Timestamp:   time.Now().UTC(),
	})

	round, err := ParseRound(text)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			logging.Errorf("round %d unparseable, raw response: %s", p.RoundNumber, perr.Raw)
		}
		return nil, err
	}

	g.store.Append(ctx, sessionID, round)
	logging.Debugf("round %d topics: %s", p.RoundNumber, topicFingerprint(round))
	return round, nil
}

// topicFingerprint is a debug aid: the first three words of each
// statement, enough to eyeball repeats without dumping whole rounds.
func topicFingerprint(round types.Round) string {
	topics := make([]string, 0, len(round))
	for _, stmt := range round {
		words := strings.Fields(stmt.Text)
		if len(words) > 3 {
			words = words[:3]
		}
		topics = append(topics, strings.Join(words, " ")+"...")
	}
	return strings.Join(topics, " | ")
}
