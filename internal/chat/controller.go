package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tabletalk/tabletalk/internal/guard"
	"github.com/tabletalk/tabletalk/internal/model"
	"github.com/tabletalk/tabletalk/internal/result"
)

// confidenceThreshold is the minimum planner confidence required before a
// validated query is executed.
const confidenceThreshold = 0.4

// Planner maps a sanitized question plus conversation context into a
// candidate query plan. Implementations must not panic; an error here is
// converted to a zero-confidence plan, never surfaced to the user directly.
type Planner interface {
	Plan(ctx context.Context, req PlanRequest) (model.QueryPlan, error)
}

// PlanRequest carries the inputs for one planning call.
type PlanRequest struct {
	Question     string
	ContextBlock string
	Directive    string
}

// AnswerCompiler turns normalized rows into the final natural-language answer.
type AnswerCompiler interface {
	Compose(ctx context.Context, req AnswerRequest) (string, error)
}

// AnswerRequest carries the inputs for one answer-compilation call.
type AnswerRequest struct {
	Question  string
	Rows      [][]string
	Directive string
}

// Executor runs an accepted read-only query against the live connection.
type Executor interface {
	Query(ctx context.Context, sql string) (*model.RawRows, error)
}

// Agent is the secondary, more autonomous collaborator used when primary
// execution fails. Its output is re-scanned before it reaches the user.
type Agent interface {
	Solve(ctx context.Context, question string) (string, error)
}

// User-facing copy for every terminal branch. Security rejections are framed
// distinctly from clarification requests so "refused" reads differently from
// "misunderstood".
const (
	msgNoResults = "I couldn't find any results matching your query. Could you try rephrasing or asking something else?"

	msgVague = "I'm not quite sure what you're asking for. Could you please provide more details or rephrase your question?"

	msgApology = "I'm having trouble answering that right now. Could you try rephrasing your question?"

	msgSecurityAlert = "Security alert: data modification queries cannot be executed. This assistant is read-only."
)

// modificationIntentWords picks the read-only notice over a generic
// clarification when the planner's reasoning signals a write attempt. This is
// a UX nicety, not a security boundary; the validator remains the gate.
var modificationIntentWords = []string{"modify", "update", "delete", "insert", "change", "remove"}

// jargonRewriter converts planner-internal phrasing into user-facing words
// before reasoning text is echoed in a clarification request.
var jargonRewriter = strings.NewReplacer(
	"SQL query", "search",
	"database query", "information",
	"generate", "find",
)

// Controller sequences one user turn through the pipeline. It never panics
// or returns an error across its boundary: every exit path is user-facing
// text.
type Controller struct {
	planner    Planner
	answers    AnswerCompiler
	exec       Executor
	agent      Agent
	logger     *slog.Logger
	strategies []strategy
}

// strategy is one stop in the ordered response chain. The first strategy
// whose capability check passes handles the turn.
type strategy struct {
	name    string
	applies func(*turnState) bool
	run     func(context.Context, *turnState) string
}

type turnState struct {
	question   string
	context    string
	directive  string
	plan       model.QueryPlan
	validation model.ValidationResult
}

// NewController wires a controller from its collaborators. agent may be nil,
// in which case execution failures go straight to the apology path.
func NewController(planner Planner, answers AnswerCompiler, exec Executor, agent Agent, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		planner: planner,
		answers: answers,
		exec:    exec,
		agent:   agent,
		logger:  logger,
	}
	c.strategies = []strategy{
		{
			name:    "security_notice",
			applies: func(t *turnState) bool { return t.plan.Query != "" && !t.validation.Accepted },
			run:     c.securityNotice,
		},
		{
			name: "read_only_notice",
			applies: func(t *turnState) bool {
				return t.plan.Confidence == 0 && hasModificationIntent(t.plan.Reasoning)
			},
			run: c.readOnlyNotice,
		},
		{
			name:    "clarification",
			applies: func(t *turnState) bool { return t.plan.Confidence == 0 },
			run:     c.clarification,
		},
		{
			name:    "low_confidence",
			applies: func(t *turnState) bool { return t.plan.Confidence <= confidenceThreshold },
			run:     func(context.Context, *turnState) string { return msgVague },
		},
		{
			name:    "execute",
			applies: func(t *turnState) bool { return t.plan.Query != "" },
			run:     c.execute,
		},
	}
	return c
}

// Respond processes one user turn end to end and returns the assistant's
// reply. history is the conversation so far, excluding the current message.
func (c *Controller) Respond(ctx context.Context, history []model.Turn, directive, message string) string {
	t := &turnState{
		question:  guard.Sanitize(message),
		context:   BuildContext(history),
		directive: directive,
	}

	plan, err := c.planner.Plan(ctx, PlanRequest{
		Question:     t.question,
		ContextBlock: t.context,
		Directive:    directive,
	})
	if err != nil {
		c.logger.Warn("planner failed", "error", err)
		plan = model.QueryPlan{Reasoning: err.Error()}
	}

	// A zero-confidence plan never carries a query; discard rather than trust.
	if plan.Confidence == 0 && plan.Query != "" {
		c.logger.Warn("discarding query from zero-confidence plan", "query", plan.Query)
		plan.Query = ""
	}
	t.plan = plan

	if t.plan.Query != "" {
		t.validation = guard.Validate(t.plan.Query)
	} else {
		t.validation = model.ValidationResult{Accepted: true}
	}

	c.logger.Info("turn planned",
		"confidence", t.plan.Confidence,
		"has_query", t.plan.Query != "",
		"accepted", t.validation.Accepted,
		"tables", strings.Join(t.plan.TablesUsed, ","),
	)

	for _, s := range c.strategies {
		if s.applies(t) {
			c.logger.Debug("strategy selected", "strategy", s.name)
			return s.run(ctx, t)
		}
	}
	return msgVague
}

func (c *Controller) securityNotice(_ context.Context, t *turnState) string {
	return "Security notice: " + t.validation.Reason +
		".\n\nI can only help you retrieve and analyze data, not modify it. " +
		"Please ask a question about viewing or analyzing your data."
}

func (c *Controller) readOnlyNotice(_ context.Context, t *turnState) string {
	reply := "Security notice: this assistant is read-only and cannot modify database contents."
	if r := strings.TrimSpace(t.plan.Reasoning); r != "" {
		reply += "\n\n" + r
	}
	return reply + "\n\nI can help you view and analyze data. What would you like to know?"
}

func (c *Controller) clarification(_ context.Context, t *turnState) string {
	reason := strings.TrimSpace(jargonRewriter.Replace(t.plan.Reasoning))
	if reason == "" {
		return msgVague
	}
	return "I need a bit more information. " + reason + "\n\nWhat would you like to know?"
}

func (c *Controller) execute(ctx context.Context, t *turnState) string {
	rows, err := c.exec.Query(ctx, t.plan.Query)
	if err != nil {
		c.logger.Warn("execution failed, invoking fallback", "error", err)
		return c.fallback(ctx, t)
	}

	if rows.Empty() {
		return msgNoResults
	}

	normalized := result.Normalize(result.FromRows(rows))
	if normalized.Empty() {
		return msgNoResults
	}

	answer, err := c.answers.Compose(ctx, AnswerRequest{
		Question:  t.question,
		Rows:      normalized.Rows,
		Directive: t.directive,
	})
	if err != nil || strings.TrimSpace(answer) == "" {
		c.logger.Warn("answer compilation failed", "error", err)
		return "Here are the results:\n\n" + normalized.Text()
	}
	return answer
}

// fallback hands the turn to the autonomous agent with an explicit read-only
// framing, then re-checks its output before trusting it.
func (c *Controller) fallback(ctx context.Context, t *turnState) string {
	if c.agent == nil {
		return msgApology
	}

	out, err := c.agent.Solve(ctx, "[READ-ONLY MODE] "+t.question+". Only generate SELECT queries.")
	if err != nil || strings.TrimSpace(out) == "" {
		c.logger.Warn("fallback agent failed", "error", err)
		return msgApology
	}

	if result.HasArtifacts(out) {
		out = result.CleanText(out)
	}
	if guard.ContainsMutatingKeyword(out) {
		c.logger.Warn("fallback output mentioned a mutating statement, suppressing")
		return msgSecurityAlert
	}
	return out
}

func hasModificationIntent(reasoning string) bool {
	lower := strings.ToLower(reasoning)
	for _, w := range modificationIntentWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
