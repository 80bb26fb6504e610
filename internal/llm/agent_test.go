package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/tabletalk/tabletalk/internal/model"
)

type fakeExecutor struct {
	rows map[string]*model.RawRows
	errs map[string]error
	seen []string
}

func (f *fakeExecutor) Query(_ context.Context, sql string) (*model.RawRows, error) {
	f.seen = append(f.seen, sql)
	if err := f.errs[sql]; err != nil {
		return nil, err
	}
	return f.rows[sql], nil
}

func TestAgentQueriesThenAnswers(t *testing.T) {
	const q = "SELECT count(*) FROM film"
	client := &scriptedClient{replies: []string{
		`{"action": "query", "sql": "` + q + `"}`,
		`{"action": "answer", "text": "There are 1000 films."}`,
	}}
	exec := &fakeExecutor{rows: map[string]*model.RawRows{
		q: {Columns: []string{"count"}, Rows: [][]any{{int64(1000)}}},
	}}

	a := NewAgent(client, exec, "DATABASE SCHEMA:\nTable: film", quietLogger())
	answer, err := a.Solve(context.Background(), "how many films are there")
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if answer != "There are 1000 films." {
		t.Fatalf("answer = %q", answer)
	}

	// The query result must have been observable on the second turn.
	last := client.prompts[1]
	if !strings.Contains(last[len(last)-1].Content, "1000") {
		t.Fatalf("observation missing result: %q", last[len(last)-1].Content)
	}
}

func TestAgentRejectsMutatingQueryWithoutExecuting(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"action": "query", "sql": "DELETE FROM film"}`,
		`{"action": "answer", "text": "I can only read data."}`,
	}}
	exec := &fakeExecutor{}

	a := NewAgent(client, exec, "", quietLogger())
	if _, err := a.Solve(context.Background(), "clear the films"); err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if len(exec.seen) != 0 {
		t.Fatalf("rejected statement reached the executor: %v", exec.seen)
	}
	obs := client.prompts[1]
	if !strings.Contains(obs[len(obs)-1].Content, "query rejected") {
		t.Fatalf("observation = %q, want rejection", obs[len(obs)-1].Content)
	}
}

func TestAgentRecoversFromFailedQuery(t *testing.T) {
	const bad = "SELECT missing FROM film"
	const good = "SELECT title FROM film LIMIT 1"
	client := &scriptedClient{replies: []string{
		`{"action": "query", "sql": "` + bad + `"}`,
		`{"action": "query", "sql": "` + good + `"}`,
		`{"action": "answer", "text": "The first film is Academy Dinosaur."}`,
	}}
	exec := &fakeExecutor{
		errs: map[string]error{bad: errors.New(`column "missing" does not exist`)},
		rows: map[string]*model.RawRows{
			good: {Columns: []string{"title"}, Rows: [][]any{{"ACADEMY DINOSAUR"}}},
		},
	}

	a := NewAgent(client, exec, "", quietLogger())
	answer, err := a.Solve(context.Background(), "name a film")
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !strings.Contains(answer, "Academy Dinosaur") {
		t.Fatalf("answer = %q", answer)
	}
}

func TestAgentStepBudget(t *testing.T) {
	replies := make([]string, maxAgentSteps+2)
	for i := range replies {
		replies[i] = `{"action": "query", "sql": "SELECT 1"}`
	}
	client := &scriptedClient{replies: replies}
	exec := &fakeExecutor{rows: map[string]*model.RawRows{
		"SELECT 1": {Columns: []string{"?"}, Rows: [][]any{{int64(1)}}},
	}}

	a := NewAgent(client, exec, "", quietLogger())
	if _, err := a.Solve(context.Background(), "loop forever"); err == nil {
		t.Fatal("expected step budget error")
	}
	if client.calls != maxAgentSteps {
		t.Fatalf("client called %d times, want %d", client.calls, maxAgentSteps)
	}
}

func TestAgentObservationTruncatesOnRuneBoundary(t *testing.T) {
	const q = "SELECT description FROM film"
	exec := &fakeExecutor{rows: map[string]*model.RawRows{
		q: {Columns: []string{"description"}, Rows: [][]any{{strings.Repeat("界", 2000)}}},
	}}

	a := NewAgent(&scriptedClient{}, exec, "", quietLogger())
	obs := a.observe(context.Background(), q)

	if !utf8.ValidString(obs) {
		t.Fatal("observation contains invalid UTF-8 after truncation")
	}
	if !strings.HasSuffix(obs, "\n(truncated)") {
		t.Fatalf("oversized observation not truncated: %d bytes", len(obs))
	}
}

func TestAgentUnparsableActionGetsCorrected(t *testing.T) {
	client := &scriptedClient{replies: []string{
		"let me think about that",
		`{"action": "answer", "text": "Done."}`,
	}}

	a := NewAgent(client, &fakeExecutor{}, "", quietLogger())
	answer, err := a.Solve(context.Background(), "q")
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if answer != "Done." {
		t.Fatalf("answer = %q", answer)
	}
}
