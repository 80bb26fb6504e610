package llm

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// maxEnumeratedRows caps how many rows an exhaustive "show all" answer may
// enumerate before switching to a summarizing reply.
const maxEnumeratedRows = 50

// showAllMarkers are question fragments that signal the user wants every
// matching row named, not a summary. "all" is matched as a whole word so
// "small" or "tallest" do not trigger it.
var (
	showAllMarkers = []string{"list", "show all", "give all", "what are"}
	allWordRe      = regexp.MustCompile(`\ball\b`)
)

const answerSystemPrompt = `You turn database query results into a conversational answer.

Rules:
- Answer the user's question directly using only the rows provided.
- Plain prose or a simple numbered list. Never use pipe characters, brackets,
  parentheses around rows, or any table-like notation.
- Do not mention SQL, queries, databases, or how the data was retrieved.
- Do not invent values that are not in the rows.`

// AnswerInput carries one answer-compilation call.
type AnswerInput struct {
	Question  string
	Rows      [][]string
	Directive string
}

// Answerer compiles normalized result rows into the final reply text.
type Answerer struct {
	client Client
	logger *slog.Logger
}

// NewAnswerer wires an answer compiler over the given completion client.
func NewAnswerer(client Client, logger *slog.Logger) *Answerer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Answerer{client: client, logger: logger}
}

// Compose produces the user-facing answer for the given rows.
func (a *Answerer) Compose(ctx context.Context, in AnswerInput) (string, error) {
	var user strings.Builder
	fmt.Fprintf(&user, "Question: %s\n\nResults (%d rows):\n", in.Question, len(in.Rows))
	for _, row := range in.Rows {
		user.WriteString(strings.Join(row, ", "))
		user.WriteString("\n")
	}

	if wantsFullListing(in.Question) && len(in.Rows) <= maxEnumeratedRows {
		user.WriteString("\nThe user asked for a complete listing. Name every result; do not summarize or truncate.")
	} else if len(in.Rows) > maxEnumeratedRows {
		user.WriteString("\nThere are many results. Summarize them and mention the total count instead of naming each one.")
	}
	if in.Directive != "" {
		user.WriteString("\nSTANDING INSTRUCTION: ")
		user.WriteString(in.Directive)
	}

	reply, err := a.client.Complete(ctx, []Message{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: user.String()},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// wantsFullListing detects questions that expect exhaustive enumeration.
func wantsFullListing(question string) bool {
	lower := strings.ToLower(question)
	for _, m := range showAllMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return allWordRe.MatchString(lower)
}
