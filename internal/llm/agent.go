package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/tabletalk/tabletalk/internal/guard"
	"github.com/tabletalk/tabletalk/internal/model"
	"github.com/tabletalk/tabletalk/internal/result"
)

// maxAgentSteps bounds the query/answer loop so a confused model cannot spin
// indefinitely.
const maxAgentSteps = 10

const agentSystemPrompt = `You are a careful database analyst working step by step.

You may only read data. Every SQL statement you propose is checked and rejected
unless it is a plain SELECT.

Respond with exactly one JSON object per turn:
  {"action": "query", "sql": "<one SELECT statement>"}  to run a query, or
  {"action": "answer", "text": "<final answer for the user>"}  when done.

Rules:
- One query per turn. Use the observation from each query to decide the next step.
- If a query fails, adjust it from the error message instead of repeating it.
- The final answer is plain prose with no SQL, pipes, or bracket notation.
- Respond with the JSON object alone, no surrounding text.`

// agentAction is the wire form of one agent decision.
type agentAction struct {
	Action string `json:"action"`
	SQL    string `json:"sql,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Executor runs validated read-only statements for the agent.
type Executor interface {
	Query(ctx context.Context, sql string) (*model.RawRows, error)
}

// Agent answers a question by iterating queries against the live connection.
// It is the fallback path when single-shot planning failed, so it works from
// observations rather than trusting one upfront plan.
type Agent struct {
	client     Client
	exec       Executor
	schemaText string
	logger     *slog.Logger
}

// NewAgent wires an agent over the completion client and executor.
func NewAgent(client Client, exec Executor, schemaText string, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{client: client, exec: exec, schemaText: schemaText, logger: logger}
}

// Solve runs the query/answer loop until the model produces a final answer
// or the step budget runs out.
func (a *Agent) Solve(ctx context.Context, question string) (string, error) {
	messages := []Message{
		{Role: "system", Content: agentSystemPrompt},
		{Role: "user", Content: a.schemaText + "\n\nQuestion: " + question},
	}

	for step := 1; step <= maxAgentSteps; step++ {
		reply, err := a.client.Complete(ctx, messages)
		if err != nil {
			return "", fmt.Errorf("agent step %d: %w", step, err)
		}
		messages = append(messages, Message{Role: "assistant", Content: reply})

		action, err := parseAction(reply)
		if err != nil {
			a.logger.Warn("agent produced unparsable action", "step", step)
			messages = append(messages, Message{Role: "user",
				Content: "Observation: that was not a valid JSON action. Reply with one JSON object only."})
			continue
		}

		switch action.Action {
		case "answer":
			text := strings.TrimSpace(action.Text)
			if text == "" {
				return "", fmt.Errorf("agent returned an empty answer")
			}
			return text, nil
		case "query":
			messages = append(messages, Message{Role: "user",
				Content: "Observation: " + a.observe(ctx, action.SQL)})
		default:
			messages = append(messages, Message{Role: "user",
				Content: fmt.Sprintf("Observation: unknown action %q. Use \"query\" or \"answer\".", action.Action)})
		}
	}

	return "", fmt.Errorf("agent exhausted %d steps without an answer", maxAgentSteps)
}

// observe validates and runs one proposed statement and renders the outcome
// as the next observation.
func (a *Agent) observe(ctx context.Context, sql string) string {
	if verdict := guard.Validate(sql); !verdict.Accepted {
		a.logger.Warn("agent query rejected", "reason", verdict.Reason)
		return "query rejected: " + verdict.Reason
	}

	rows, err := a.exec.Query(ctx, sql)
	if err != nil {
		return "query failed: " + err.Error()
	}
	if rows.Empty() {
		return "the query returned no rows"
	}

	text := result.Normalize(result.FromRows(rows)).Text()
	const maxObservation = 4000
	if len(text) > maxObservation {
		cut := maxObservation
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "\n(truncated)"
	}
	return text
}

func parseAction(reply string) (agentAction, error) {
	match := jsonObjectRe.FindString(reply)
	if match == "" {
		return agentAction{}, fmt.Errorf("no JSON object in reply")
	}
	var action agentAction
	if err := json.Unmarshal([]byte(match), &action); err != nil {
		return agentAction{}, err
	}
	return action, nil
}
