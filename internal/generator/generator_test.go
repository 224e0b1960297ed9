package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poorehouse/twotruths/internal/config"
	"github.com/poorehouse/twotruths/internal/store"
)

const testPrompt = "Generate three statements."

const goodResponse = "```json\n{\"statements\": [" +
	"{\"text\": \"honey never spoils\", \"isLie\": false}," +
	"{\"text\": \"goldfish have three-second memories\", \"isLie\": true, \"explanation\": \"months, actually\"}," +
	"{\"text\": \"octopuses have three hearts\", \"isLie\": false}]}\n```"

// fakeModel returns canned text or a canned error and remembers the
// last prompt it saw.
type fakeModel struct {
	text       string
	err        error
	lastPrompt string
}

func (m *fakeModel) Name() string { return "fake" }

func (m *fakeModel) Complete(ctx context.Context, prompt string) (string, error) {
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func memStore() *store.Store {
	return store.New(config.StoreConfig{Backend: "memory"})
}

func TestGenerateNilModel(t *testing.T) {
	g := New(nil, memStore(), testPrompt, 0)

	_, err := g.Generate(context.Background(), "s1")
	if err == nil {
		t.Fatal("expected error with no model")
	}
	if !strings.Contains(err.Error(), "Model client not initialized") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestGenerateEmptyPrompt(t *testing.T) {
	g := New(&fakeModel{text: goodResponse}, memStore(), "", 0)

	_, err := g.Generate(context.Background(), "s1")
	if err == nil {
		t.Fatal("expected error with no prompt")
	}
	if !strings.Contains(err.Error(), "Game prompt not loaded") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestGenerateSuccess(t *testing.T) {
	st := memStore()
	model := &fakeModel{text: goodResponse}
	g := New(model, st, testPrompt, 0)

	ctx := context.Background()
	round, err := g.Generate(ctx, "s1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(round) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(round))
	}

	history := st.History(ctx, "s1")
	if history.RoundCount != 1 || len(history.Rounds) != 1 {
		t.Errorf("round not recorded: count=%d rounds=%d", history.RoundCount, len(history.Rounds))
	}

	prompts := st.Prompts(ctx, "s1")
	if len(prompts) != 1 || prompts[0].RoundNumber != 1 {
		t.Fatalf("unexpected prompt log %+v", prompts)
	}
	if prompts[0].FullPrompt != model.lastPrompt {
		t.Error("prompt log should record exactly what was sent")
	}

	responses := st.Responses(ctx, "s1")
	if len(responses) != 1 || responses[0].Response != goodResponse {
		t.Fatalf("unexpected response log %+v", responses)
	}
}

func TestGenerateModelErrorPassesThrough(t *testing.T) {
	st := memStore()
	g := New(&fakeModel{err: statusError(401, errors.New("bad key"))}, st, testPrompt, 0)

	_, err := g.Generate(context.Background(), "s1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "API Authentication Error") {
		t.Errorf("unexpected message %q", err.Error())
	}
	// A failed call must not advance the game.
	if h := st.History(context.Background(), "s1"); h.RoundCount != 0 {
		t.Errorf("history advanced on failure: count=%d", h.RoundCount)
	}
}

func TestGenerateUnparseableResponse(t *testing.T) {
	st := memStore()
	g := New(&fakeModel{text: "I cannot do that."}, st, testPrompt, 0)

	ctx := context.Background()
	_, err := g.Generate(ctx, "s1")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "Failed to parse response from LLM") {
		t.Errorf("unexpected message %q", err.Error())
	}

	// The raw response is still logged for debugging.
	responses := st.Responses(ctx, "s1")
	if len(responses) != 1 || responses[0].Response != "I cannot do that." {
		t.Fatalf("unexpected response log %+v", responses)
	}
	if h := st.History(ctx, "s1"); h.RoundCount != 0 {
		t.Errorf("history advanced on parse failure: count=%d", h.RoundCount)
	}
}

func TestSetPromptTakesEffect(t *testing.T) {
	model := &fakeModel{text: goodResponse}
	g := New(model, memStore(), "old instructions", 0)

	g.SetPrompt("new instructions")
	if _, err := g.Generate(context.Background(), "s1"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(model.lastPrompt, "new instructions") {
		t.Errorf("prompt swap not applied: %q", model.lastPrompt)
	}
	if strings.Contains(model.lastPrompt, "old instructions") {
		t.Errorf("old prompt leaked: %q", model.lastPrompt)
	}
}
