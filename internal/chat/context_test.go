package chat

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/tabletalk/tabletalk/internal/model"
)

func TestBuildContextNeedsTwoTurns(t *testing.T) {
	if got := BuildContext(nil); got != "" {
		t.Fatalf("empty history produced %q", got)
	}
	one := []model.Turn{{Role: model.RoleUser, Text: "hello"}}
	if got := BuildContext(one); got != "" {
		t.Fatalf("single-turn history produced %q", got)
	}
}

func TestBuildContextWindowsLastEightTurns(t *testing.T) {
	history := make([]model.Turn, 0, 12)
	for i := 0; i < 6; i++ {
		history = append(history,
			model.Turn{Role: model.RoleUser, Text: "question"},
			model.Turn{Role: model.RoleAssistant, Text: "answer"},
		)
	}
	got := BuildContext(history)

	users := strings.Count(got, "User: ")
	assistants := strings.Count(got, "Assistant: ")
	if users+assistants != 8 {
		t.Fatalf("window carried %d turns, want 8", users+assistants)
	}
}

func TestBuildContextTruncatesLongTurns(t *testing.T) {
	longUser := strings.Repeat("u", 300)
	longAssistant := strings.Repeat("a", 700)
	got := BuildContext([]model.Turn{
		{Role: model.RoleUser, Text: longUser},
		{Role: model.RoleAssistant, Text: longAssistant},
	})

	if !strings.Contains(got, "User: "+strings.Repeat("u", 200)+"...") {
		t.Fatal("user turn not truncated at 200 characters")
	}
	if strings.Contains(got, strings.Repeat("u", 201)) {
		t.Fatal("user turn exceeds 200 characters")
	}
	if !strings.Contains(got, "Assistant: "+strings.Repeat("a", 500)+"...") {
		t.Fatal("assistant turn not truncated at 500 characters")
	}
}

func TestBuildContextTruncatesMultibyteTurns(t *testing.T) {
	longUser := strings.Repeat("界", 300)
	got := BuildContext([]model.Turn{
		{Role: model.RoleUser, Text: longUser},
		{Role: model.RoleAssistant, Text: "ok"},
	})

	if !utf8.ValidString(got) {
		t.Fatal("context block contains invalid UTF-8 after truncation")
	}
	if !strings.Contains(got, "User: "+strings.Repeat("界", 200)+"...") {
		t.Fatal("user turn not truncated at 200 characters")
	}
	if strings.Contains(got, strings.Repeat("界", 201)) {
		t.Fatal("user turn exceeds 200 characters")
	}
}

func TestBuildContextCarriesDecisionRules(t *testing.T) {
	got := BuildContext([]model.Turn{
		{Role: model.RoleUser, Text: "list the customers"},
		{Role: model.RoleAssistant, Text: "Mary Smith and Patricia Johnson"},
	})

	if !strings.HasPrefix(got, "CONVERSATION HISTORY") {
		t.Fatalf("context starts with %q", got[:40])
	}
	if !strings.Contains(got, "FOLLOW-UP DECISION RULES:") {
		t.Fatal("decision rules missing from context block")
	}
}
