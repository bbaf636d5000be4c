package orchestrator

import (
	"strings"

	"github.com/amos-fernandes/lm-council/core/turn"
)

// BuildPrompt reduces an ordered turn history to the single prompt string
// sent to the council. Only user turns contribute; council turns are
// excluded so the models' cross-turn memory is the user's own prior
// messages, never other models' answers. This is a deliberate
// simplification and must be preserved exactly.
func BuildPrompt(history []turn.Turn) string {
	var b strings.Builder
	for _, t := range history {
		if t.Role != turn.RoleUser {
			continue
		}
		b.WriteString("User: ")
		b.WriteString(t.Content)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}
