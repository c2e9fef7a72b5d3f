package conversation

import (
	"strings"

	"github.com/kbaah7/ultrascan-agent/internal/domain"
)

// BuildWindow produces the exact ordered message list for the next chat
// call: one freshly synthesized system message followed by a bounded tail of
// the conversation. The seeded greeting (an assistant message at position
// zero) and blank entries never make it into the window, so the result has
// at most window+1 entries and its tail consists of real user/assistant
// turns only.
func BuildWindow(history []*domain.Message, diag *DiagnosisContext, window int) []domain.Message {
	if window < 0 {
		window = 0
	}

	out := make([]domain.Message, 0, window+1)
	out = append(out, domain.Message{
		Role:    domain.RoleSystem,
		Content: buildSystemPrompt(diag),
	})

	filtered := make([]*domain.Message, 0, len(history))
	for i, m := range history {
		if i == 0 && m.Role == domain.RoleAssistant {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		filtered = append(filtered, m)
	}
	if len(filtered) > window {
		filtered = filtered[len(filtered)-window:]
	}

	for _, m := range filtered {
		out = append(out, domain.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
