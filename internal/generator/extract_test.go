package generator

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractPayloadPrefersLastFencedBlock(t *testing.T) {
	text := "Here's a draft:\n```json\n{\"statements\": []}\n```\nActually, final answer:\n```json\n{\"statements\": [{\"text\": \"final\"}]}\n```"
	got := ExtractPayload(text)
	if !strings.Contains(got, "final") {
		t.Errorf("expected last fenced block, got %q", got)
	}
}

func TestExtractPayloadFenceWithoutLanguageTag(t *testing.T) {
	got := ExtractPayload("```\n{\"statements\": []}\n```")
	if got != `{"statements": []}` {
		t.Errorf("unexpected payload %q", got)
	}
}

func TestExtractPayloadBraceSpanFallback(t *testing.T) {
	text := `Sure! {"statements": [{"text": "hi"}]} Hope that helps.`
	got := ExtractPayload(text)
	if got != `{"statements": [{"text": "hi"}]}` {
		t.Errorf("unexpected payload %q", got)
	}
}

func TestExtractPayloadPassesThroughPlainText(t *testing.T) {
	text := "no json anywhere"
	if got := ExtractPayload(text); got != text {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestParseRound(t *testing.T) {
	text := "```json\n{\"statements\": [" +
		"{\"text\": \"a\", \"isLie\": false}," +
		"{\"text\": \"b\", \"isLie\": true, \"explanation\": \"made up\"}," +
		"{\"text\": \"c\", \"isLie\": false}]}\n```"

	round, err := ParseRound(text)
	if err != nil {
		t.Fatalf("ParseRound failed: %v", err)
	}
	if len(round) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(round))
	}
	if !round[1].IsLie || round[1].Explanation != "made up" {
		t.Errorf("lie statement mangled: %+v", round[1])
	}
}

func TestParseRoundRepairsEscapedQuotes(t *testing.T) {
	text := "```json\n" + `{\"statements\": [{\"text\": \"a\", \"isLie\": true}]}` + "\n```"

	round, err := ParseRound(text)
	if err != nil {
		t.Fatalf("ParseRound failed: %v", err)
	}
	if len(round) != 1 || round[0].Text != "a" {
		t.Errorf("unexpected round %+v", round)
	}
}

func TestParseRoundRejectsEmptyStatements(t *testing.T) {
	_, err := ParseRound(`{"statements": []}`)
	if err == nil {
		t.Fatal("expected error for empty statements")
	}
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if gerr.Kind != KindParse {
		t.Errorf("expected parse kind, got %v", gerr.Kind)
	}
}

func TestParseRoundErrorCarriesRawText(t *testing.T) {
	text := "the model rambled and never produced json"

	_, err := ParseRound(text)
	if err == nil {
		t.Fatal("expected error")
	}
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if gerr.Raw != text {
		t.Errorf("raw text not preserved: %q", gerr.Raw)
	}
	if !strings.Contains(gerr.Message, "Failed to parse response from LLM") {
		t.Errorf("unexpected message %q", gerr.Message)
	}
}
