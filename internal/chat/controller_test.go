package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/tabletalk/tabletalk/internal/model"
)

type stubPlanner struct {
	plan model.QueryPlan
	err  error
	got  PlanRequest
}

func (s *stubPlanner) Plan(_ context.Context, req PlanRequest) (model.QueryPlan, error) {
	s.got = req
	return s.plan, s.err
}

type stubAnswerer struct {
	answer string
	err    error
	got    AnswerRequest
}

func (s *stubAnswerer) Compose(_ context.Context, req AnswerRequest) (string, error) {
	s.got = req
	return s.answer, s.err
}

type stubExecutor struct {
	rows  *model.RawRows
	err   error
	calls int
	sql   string
}

func (s *stubExecutor) Query(_ context.Context, sql string) (*model.RawRows, error) {
	s.calls++
	s.sql = sql
	return s.rows, s.err
}

type stubAgent struct {
	reply string
	err   error
	calls int
	got   string
}

func (s *stubAgent) Solve(_ context.Context, question string) (string, error) {
	s.calls++
	s.got = question
	return s.reply, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRespondExecutesConfidentPlan(t *testing.T) {
	planner := &stubPlanner{plan: model.QueryPlan{
		Query:      "SELECT title FROM film LIMIT 5",
		Reasoning:  "listing films",
		Confidence: 0.9,
	}}
	exec := &stubExecutor{rows: &model.RawRows{
		Columns: []string{"title"},
		Rows:    [][]any{{"ACADEMY DINOSAUR"}, {"ACE GOLDFINGER"}},
	}}
	answers := &stubAnswerer{answer: "The films are Academy Dinosaur and Ace Goldfinger."}

	c := NewController(planner, answers, exec, nil, quietLogger())
	reply := c.Respond(context.Background(), nil, "", "show me some films")

	if reply != answers.answer {
		t.Fatalf("reply = %q, want answer text", reply)
	}
	if exec.calls != 1 || exec.sql != planner.plan.Query {
		t.Fatalf("executor got %d calls with %q", exec.calls, exec.sql)
	}
	if len(answers.got.Rows) != 2 {
		t.Fatalf("answerer saw %d rows, want 2", len(answers.got.Rows))
	}
}

func TestRespondRejectsMutatingPlan(t *testing.T) {
	planner := &stubPlanner{plan: model.QueryPlan{
		Query:      "DELETE FROM customer WHERE customer_id = 1",
		Reasoning:  "removing the customer",
		Confidence: 0.95,
	}}
	exec := &stubExecutor{}

	c := NewController(planner, &stubAnswerer{}, exec, nil, quietLogger())
	reply := c.Respond(context.Background(), nil, "", "delete customer 1")

	if !strings.HasPrefix(reply, "Security notice:") {
		t.Fatalf("reply = %q, want security notice", reply)
	}
	if exec.calls != 0 {
		t.Fatal("rejected query must never reach the executor")
	}
}

func TestRespondZeroConfidenceWithModificationIntent(t *testing.T) {
	planner := &stubPlanner{plan: model.QueryPlan{
		Reasoning:  "The user wants to update a record, which is not allowed.",
		Confidence: 0,
	}}

	c := NewController(planner, &stubAnswerer{}, &stubExecutor{}, nil, quietLogger())
	reply := c.Respond(context.Background(), nil, "", "change the rental rate")

	if !strings.Contains(reply, "read-only") {
		t.Fatalf("reply = %q, want read-only notice", reply)
	}
}

func TestRespondZeroConfidenceClarifies(t *testing.T) {
	planner := &stubPlanner{plan: model.QueryPlan{
		Reasoning:  "I cannot generate a SQL query from this.",
		Confidence: 0,
	}}

	c := NewController(planner, &stubAnswerer{}, &stubExecutor{}, nil, quietLogger())
	reply := c.Respond(context.Background(), nil, "", "hmm")

	if strings.Contains(reply, "SQL") {
		t.Fatalf("reply %q leaks internal jargon", reply)
	}
	if !strings.Contains(reply, "find a search") {
		t.Fatalf("reply = %q, want rewritten reasoning", reply)
	}
}

func TestRespondDiscardsQueryFromZeroConfidencePlan(t *testing.T) {
	planner := &stubPlanner{plan: model.QueryPlan{
		Query:      "SELECT 1",
		Confidence: 0,
	}}
	exec := &stubExecutor{}

	c := NewController(planner, &stubAnswerer{}, exec, nil, quietLogger())
	reply := c.Respond(context.Background(), nil, "", "anything")

	if exec.calls != 0 {
		t.Fatal("zero-confidence query must be discarded, not executed")
	}
	if reply != msgVague {
		t.Fatalf("reply = %q, want generic clarification", reply)
	}
}

func TestRespondLowConfidenceAsksToRephrase(t *testing.T) {
	planner := &stubPlanner{plan: model.QueryPlan{
		Query:      "SELECT title FROM film",
		Confidence: 0.3,
	}}
	exec := &stubExecutor{}

	c := NewController(planner, &stubAnswerer{}, exec, nil, quietLogger())
	reply := c.Respond(context.Background(), nil, "", "stuff")

	if reply != msgVague {
		t.Fatalf("reply = %q, want %q", reply, msgVague)
	}
	if exec.calls != 0 {
		t.Fatal("low-confidence query must not execute")
	}
}

func TestRespondEmptyResultSkipsFallback(t *testing.T) {
	planner := &stubPlanner{plan: model.QueryPlan{
		Query:      "SELECT title FROM film WHERE title = 'NOPE'",
		Confidence: 0.8,
	}}
	exec := &stubExecutor{rows: &model.RawRows{Columns: []string{"title"}}}
	agent := &stubAgent{reply: "should not be used"}

	c := NewController(planner, &stubAnswerer{}, exec, agent, quietLogger())
	reply := c.Respond(context.Background(), nil, "", "find the film NOPE")

	if reply != msgNoResults {
		t.Fatalf("reply = %q, want no-results message", reply)
	}
	if agent.calls != 0 {
		t.Fatal("empty results must not trigger the fallback agent")
	}
}

func TestRespondExecutionErrorUsesFallback(t *testing.T) {
	planner := &stubPlanner{plan: model.QueryPlan{
		Query:      "SELECT missing FROM film",
		Confidence: 0.8,
	}}
	exec := &stubExecutor{err: errors.New("column missing does not exist")}
	agent := &stubAgent{reply: "There are 1000 films in the catalog."}

	c := NewController(planner, &stubAnswerer{}, exec, agent, quietLogger())
	reply := c.Respond(context.Background(), nil, "", "how many films are there")

	if reply != agent.reply {
		t.Fatalf("reply = %q, want agent reply", reply)
	}
	if !strings.HasPrefix(agent.got, "[READ-ONLY MODE] ") {
		t.Fatalf("agent prompt %q missing read-only framing", agent.got)
	}
}

func TestRespondFallbackOutputRescanned(t *testing.T) {
	planner := &stubPlanner{plan: model.QueryPlan{
		Query:      "SELECT 1",
		Confidence: 0.8,
	}}
	exec := &stubExecutor{err: errors.New("boom")}

	tests := []struct {
		name  string
		agent *stubAgent
		want  string
	}{
		{
			name:  "mutating statement suppressed",
			agent: &stubAgent{reply: "You could run DELETE FROM film to clear the table."},
			want:  msgSecurityAlert,
		},
		{
			name:  "artifacts cleaned",
			agent: &stubAgent{reply: "The totals were Decimal('4.99') and Decimal('2.99')"},
			want:  "The totals were 4.99 and 2.99",
		},
		{
			name:  "agent error becomes apology",
			agent: &stubAgent{err: errors.New("llm timeout")},
			want:  msgApology,
		},
		{
			name:  "empty agent reply becomes apology",
			agent: &stubAgent{reply: "   "},
			want:  msgApology,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewController(planner, &stubAnswerer{}, exec, tc.agent, quietLogger())
			got := c.Respond(context.Background(), nil, "", "anything")
			if got != tc.want {
				t.Fatalf("reply = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRespondSanitizesBeforePlanning(t *testing.T) {
	planner := &stubPlanner{plan: model.QueryPlan{Confidence: 0}}

	c := NewController(planner, &stubAnswerer{}, &stubExecutor{}, nil, quietLogger())
	c.Respond(context.Background(), nil, "", "show films; DROP TABLE film --")

	if strings.Contains(planner.got.Question, "DROP") {
		t.Fatalf("planner saw unsanitized question %q", planner.got.Question)
	}
	if strings.Contains(planner.got.Question, "--") {
		t.Fatalf("planner saw trailing comment in %q", planner.got.Question)
	}
}

func TestRespondAnswerFailureFallsBackToRawText(t *testing.T) {
	planner := &stubPlanner{plan: model.QueryPlan{
		Query:      "SELECT name FROM category",
		Confidence: 0.9,
	}}
	exec := &stubExecutor{rows: &model.RawRows{
		Columns: []string{"name"},
		Rows:    [][]any{{"HORROR"}, {"ACTION"}},
	}}
	answers := &stubAnswerer{err: errors.New("llm unavailable")}

	c := NewController(planner, answers, exec, nil, quietLogger())
	reply := c.Respond(context.Background(), nil, "", "what categories exist")

	if !strings.Contains(reply, "Horror") || !strings.Contains(reply, "Action") {
		t.Fatalf("reply = %q, want normalized rows", reply)
	}
}
