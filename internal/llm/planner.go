package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tabletalk/tabletalk/internal/model"
)

// jsonObjectRe extracts the first JSON object from a completion that may be
// wrapped in prose or a code fence.
var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

const plannerSystemPrompt = `You are a SQL query planner for a read-only database assistant.

Given the database schema and a user question, respond with exactly one JSON object:
{
  "sql_query": "<a single SELECT statement, or empty string>",
  "reasoning": "<one or two sentences explaining the query or why none was produced>",
  "confidence": <number between 0.0 and 1.0>,
  "tables_used": ["<table>", ...]
}

Rules:
- Only SELECT statements. If the question asks to add, change, or remove data,
  set sql_query to "", confidence to 0.0, and explain in reasoning.
- If the question cannot be answered from the schema, set confidence to 0.0
  with an empty sql_query and say what is missing.
- Use only tables and columns that appear in the schema.
- Quote identifiers only when required by the dialect.
- Respond with the JSON object alone, no surrounding text.`

// PlanInput carries everything one planning call depends on.
type PlanInput struct {
	Question     string
	SchemaText   string
	ContextBlock string
	Directive    string
}

// Planner turns a question plus schema into a confidence-scored query plan.
type Planner struct {
	client Client
	logger *slog.Logger
}

// NewPlanner wires a planner over the given completion client.
func NewPlanner(client Client, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{client: client, logger: logger}
}

// Plan asks the model for a query plan. Malformed model output is not an
// error at this boundary: it degrades to a zero-confidence plan so the
// caller's clarification path handles it.
func (p *Planner) Plan(ctx context.Context, in PlanInput) (model.QueryPlan, error) {
	var user strings.Builder
	user.WriteString(in.SchemaText)
	if in.ContextBlock != "" {
		user.WriteString("\n\n")
		user.WriteString(in.ContextBlock)
	}
	if in.Directive != "" {
		user.WriteString("\n\nSTANDING INSTRUCTION: ")
		user.WriteString(in.Directive)
	}
	user.WriteString("\n\nQuestion: ")
	user.WriteString(in.Question)

	reply, err := p.client.Complete(ctx, []Message{
		{Role: "system", Content: plannerSystemPrompt},
		{Role: "user", Content: user.String()},
	})
	if err != nil {
		return model.QueryPlan{}, err
	}

	plan, ok := parsePlan(reply)
	if !ok {
		p.logger.Warn("planner reply carried no parsable plan", "reply_len", len(reply))
		return model.QueryPlan{
			Reasoning: "I could not work out what to look for from that question.",
		}, nil
	}
	return plan, nil
}

// parsePlan extracts and sanity-checks the plan JSON from a model reply.
func parsePlan(reply string) (model.QueryPlan, bool) {
	match := jsonObjectRe.FindString(reply)
	if match == "" {
		return model.QueryPlan{}, false
	}

	var plan model.QueryPlan
	if err := json.Unmarshal([]byte(match), &plan); err != nil {
		return model.QueryPlan{}, false
	}

	if plan.Confidence < 0 {
		plan.Confidence = 0
	}
	if plan.Confidence > 1 {
		plan.Confidence = 1
	}
	plan.Query = strings.TrimSpace(plan.Query)
	// A plan with no confidence carries no query, whatever the model said.
	if plan.Confidence == 0 {
		plan.Query = ""
	}
	return plan, true
}
