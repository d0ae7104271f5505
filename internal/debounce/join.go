package debounce

import (
	"strings"

	"github.com/nextlevelbuilder/turngate/internal/bus"
)

// terminalPunctuation marks a fragment as already sentence-ended, so no
// period is appended. Spanish inverted marks are included because a
// fragment like "¿como estas?" may arrive split as "¿como estas" + "?".
var terminalPunctuation = []string{".", "?", "!", "¿", "¡"}

// JoinTurn builds the turn text from drained messages: blank fragments are
// dropped, a fragment without terminal punctuation gets a trailing period,
// and fragments are joined with single spaces. Callers pass messages
// already sorted by arrival.
func JoinTurn(msgs []bus.InboundMessage) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		if !hasTerminalPunctuation(text) {
			text += "."
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

func hasTerminalPunctuation(text string) bool {
	for _, p := range terminalPunctuation {
		if strings.HasSuffix(text, p) {
			return true
		}
	}
	return false
}
