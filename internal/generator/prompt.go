package generator

import (
	"fmt"
	"strings"

	"github.com/poorehouse/twotruths/internal/types"
)

// defaultPromptWindow caps how many past rounds get quoted back to the
// model. More than this bloats the prompt without improving variety.
const defaultPromptWindow = 15

// Prompt bundles everything sent to the model for one round, split so
// the prompt log can record the pieces separately.
type Prompt struct {
	Full        string
	Base        string
	HistoryText string
	RoundNumber int
	EasterEgg   bool
}

// BuildPrompt renders the instruction payload for the next round. The
// round number is history count plus one; every third round asks for
// the easter egg.
func BuildPrompt(base string, history types.History, window int) Prompt {
	if window <= 0 {
		window = defaultPromptWindow
	}

	roundNumber := history.RoundCount + 1
	easterEgg := roundNumber%3 == 0

	var historyText string
	if len(history.Rounds) > 0 {
		recent := history.Rounds
		if len(recent) > window {
			recent = recent[:window]
		}

		var b strings.Builder
		b.WriteString("Here are the previous statements used in this session:\n")
		for i, round := range recent {
			// Labels are anchored to the total count so they stay
			// stable as old rounds fall off the retention window.
			idx := history.RoundCount - len(recent) + i + 1
			fmt.Fprintf(&b, "Round %d:\n", idx)
			for _, stmt := range round {
				label := "TRUTH"
				if stmt.IsLie {
					label = "LIE"
				}
				fmt.Fprintf(&b, "- %s: %s\n", label, stmt.Text)
			}
		}
		fmt.Fprintf(&b, "\nIMPORTANT: You've now seen %d previous rounds. Please generate completely new statements that don't overlap with ANY previous topics or facts.", len(recent))
		historyText = b.String()
	}

	eggText := ""
	if easterEgg {
		eggText = fmt.Sprintf("\n\nIMPORTANT: This is set number %d, which is divisible by 3. PLEASE INCLUDE AN EASTER EGG about Erin and John Poore as described in instruction #7.", roundNumber)
	}

	full := fmt.Sprintf("%s\n\nThis is round %d.%s", base, roundNumber, eggText)
	if historyText != "" {
		full = fmt.Sprintf("%s\n\n%s\n\nIMPORTANT: DO NOT repeat any of the facts or topics above. This is round %d, so ensure complete variety.%s", base, historyText, roundNumber, eggText)
	}

	return Prompt{
		Full:        full,
		Base:        base,
		HistoryText: historyText,
		RoundNumber: roundNumber,
		EasterEgg:   easterEgg,
	}
}
