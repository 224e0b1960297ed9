package generator

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/poorehouse/twotruths/internal/types"
)

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?(.*?)```")

// ExtractPayload pulls the most likely JSON document out of free-form
// model text. Fenced code blocks win (the last one, since models often
// restate their answer); otherwise the outermost brace span; otherwise
// the text as-is.
func ExtractPayload(text string) string {
	if blocks := fencedBlockRe.FindAllStringSubmatch(text, -1); len(blocks) > 0 {
		return strings.TrimSpace(blocks[len(blocks)-1][1])
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// roundDocument is the JSON shape the prompt asks the model to produce.
type roundDocument struct {
	Statements []types.Statement `json:"statements"`
}

// ParseRound turns raw model output into a Round. One repair pass
// handles the escaped-quote artifact some models emit inside fenced
// blocks. The returned error carries the full raw text.
func ParseRound(text string) (types.Round, error) {
	raw := ExtractPayload(text)

	var doc roundDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		cleaned := strings.ReplaceAll(strings.TrimSpace(raw), `\"`, `"`)
		if err2 := json.Unmarshal([]byte(cleaned), &doc); err2 != nil {
			return nil, parseError(text, err2)
		}
	}

	if len(doc.Statements) == 0 {
		return nil, parseError(text, errors.New("response has no statements"))
	}
	return types.Round(doc.Statements), nil
}
