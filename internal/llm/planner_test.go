package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// scriptedClient replays canned completions in order.
type scriptedClient struct {
	replies []string
	err     error
	calls   int
	prompts [][]Message
}

func (s *scriptedClient) Complete(_ context.Context, messages []Message) (string, error) {
	s.prompts = append(s.prompts, messages)
	if s.err != nil {
		return "", s.err
	}
	if s.calls >= len(s.replies) {
		return "", errors.New("scripted client exhausted")
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, nil
}

func TestPlannerParsesWellFormedPlan(t *testing.T) {
	client := &scriptedClient{replies: []string{
		"Here is the plan:\n" +
			`{"sql_query": "SELECT title FROM film LIMIT 5", "reasoning": "listing films", "confidence": 0.9, "tables_used": ["film"]}`,
	}}
	p := NewPlanner(client, quietLogger())

	plan, err := p.Plan(context.Background(), PlanInput{
		Question:   "show me five films",
		SchemaText: "DATABASE SCHEMA:\nTable: film",
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Query != "SELECT title FROM film LIMIT 5" {
		t.Fatalf("plan.Query = %q", plan.Query)
	}
	if plan.Confidence != 0.9 {
		t.Fatalf("plan.Confidence = %v", plan.Confidence)
	}
	if len(plan.TablesUsed) != 1 || plan.TablesUsed[0] != "film" {
		t.Fatalf("plan.TablesUsed = %v", plan.TablesUsed)
	}
}

func TestPlannerMalformedReplyDegradesToZeroConfidence(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no json at all", "I think you want films?"},
		{"broken json", `{"sql_query": "SELECT 1", "confidence": }`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPlanner(&scriptedClient{replies: []string{tc.reply}}, quietLogger())
			plan, err := p.Plan(context.Background(), PlanInput{Question: "films?"})
			if err != nil {
				t.Fatalf("Plan: %v", err)
			}
			if plan.Confidence != 0 || plan.Query != "" {
				t.Fatalf("degraded plan = %+v, want zero confidence and no query", plan)
			}
			if plan.Reasoning == "" {
				t.Fatal("degraded plan carries no reasoning")
			}
		})
	}
}

func TestPlannerClampsConfidenceAndDropsZeroConfidenceQuery(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantConf  float64
		wantQuery string
	}{
		{
			name:     "confidence above one",
			reply:    `{"sql_query": "SELECT 1", "confidence": 1.7}`,
			wantConf: 1, wantQuery: "SELECT 1",
		},
		{
			name:     "negative confidence discards query",
			reply:    `{"sql_query": "SELECT 1", "confidence": -0.2}`,
			wantConf: 0, wantQuery: "",
		},
		{
			name:     "zero confidence discards query",
			reply:    `{"sql_query": "SELECT 1", "confidence": 0}`,
			wantConf: 0, wantQuery: "",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPlanner(&scriptedClient{replies: []string{tc.reply}}, quietLogger())
			plan, err := p.Plan(context.Background(), PlanInput{Question: "q"})
			if err != nil {
				t.Fatalf("Plan: %v", err)
			}
			if plan.Confidence != tc.wantConf || plan.Query != tc.wantQuery {
				t.Fatalf("plan = %+v, want confidence %v query %q", plan, tc.wantConf, tc.wantQuery)
			}
		})
	}
}

func TestPlannerPromptCarriesContextAndDirective(t *testing.T) {
	client := &scriptedClient{replies: []string{`{"confidence": 0, "reasoning": "unclear"}`}}
	p := NewPlanner(client, quietLogger())

	_, err := p.Plan(context.Background(), PlanInput{
		Question:     "what about them",
		SchemaText:   "DATABASE SCHEMA:",
		ContextBlock: "CONVERSATION HISTORY (for context resolution):\nUser: list actors",
		Directive:    "answer briefly",
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	user := client.prompts[0][1].Content
	for _, want := range []string{"CONVERSATION HISTORY", "STANDING INSTRUCTION: answer briefly", "Question: what about them"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
}

func TestPlannerClientErrorPropagates(t *testing.T) {
	p := NewPlanner(&scriptedClient{err: errors.New("connection refused")}, quietLogger())
	if _, err := p.Plan(context.Background(), PlanInput{Question: "q"}); err == nil {
		t.Fatal("expected client error to propagate")
	}
}
