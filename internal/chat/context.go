// Package chat orchestrates one user turn: sanitize, plan, validate,
// execute, normalize, answer — with confidence-gated fallbacks at every
// branch. It owns no transport; surfaces (HTTP, MCP, CLI) call into it.
package chat

import (
	"strings"

	"github.com/tabletalk/tabletalk/internal/model"
)

const (
	// contextTurns is how many trailing turns (4 exchanges) feed context
	// resolution for follow-up questions.
	contextTurns = 8

	// Assistant turns carry the retrieved content that follow-ups reference,
	// so they get more room than user turns.
	maxUserTurnLen      = 200
	maxAssistantTurnLen = 500
)

// followUpRules is the explicit decision procedure handed to the planner so
// follow-up resolution is a documented contract rather than model judgment.
const followUpRules = `FOLLOW-UP DECISION RULES:
1. Pronouns (them/they/it/those/these/their) or relative quantifiers
   (each/all of them/others/same) mean FOLLOW-UP: resolve the referents from
   the most recent Assistant turn's listed entities.
2. A complete, self-contained question naming entities or tables absent from
   recent history is a NEW question: ignore the history when building the query.
3. A short reply of 1-3 words (e.g. "yes", "sure") after the Assistant asked a
   question is ambiguous: set confidence to 0.2 or lower and ask for
   clarification instead of guessing.
4. When still in doubt, treat the question as NEW. Never scope a query to
   stale entities on a hunch.`

// BuildContext derives the bounded, role-tagged conversation slice used to
// disambiguate pronouns and follow-ups. A history shorter than two turns
// produces nothing: a fresh question needs no resolution aid.
func BuildContext(history []model.Turn) string {
	if len(history) < 2 {
		return ""
	}

	recent := history
	if len(recent) > contextTurns {
		recent = recent[len(recent)-contextTurns:]
	}

	var b strings.Builder
	b.WriteString("CONVERSATION HISTORY (for context resolution):\n")
	for _, turn := range recent {
		limit := maxUserTurnLen
		label := "User"
		if turn.Role == model.RoleAssistant {
			limit = maxAssistantTurnLen
			label = "Assistant"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(truncate(turn.Text, limit))
		b.WriteString("\n\n")
	}
	b.WriteString(followUpRules)
	b.WriteString("\n")
	return b.String()
}

// truncate limits s to limit characters, not bytes, so a multibyte rune at
// the boundary is dropped whole instead of being split.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
