package session

import (
	"sync"
	"testing"

	"github.com/tabletalk/tabletalk/internal/model"
)

func TestManagerLifecycle(t *testing.T) {
	m := NewManager()

	conv := m.Create()
	if conv.ID == "" {
		t.Fatal("conversation created without an ID")
	}

	got, err := m.Get(conv.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != conv {
		t.Fatal("Get returned a different conversation")
	}

	m.Delete(conv.ID)
	if _, err := m.Get(conv.ID); err != ErrNotFound {
		t.Fatalf("Get after Delete: %v, want ErrNotFound", err)
	}
	m.Delete(conv.ID) // idempotent
}

func TestConversationHistoryIsCopied(t *testing.T) {
	conv := NewManager().Create()
	conv.AppendTurn(model.RoleUser, "how many films are there")
	conv.AppendTurn(model.RoleAssistant, "There are 1000 films.")

	history := conv.History()
	history[0].Text = "mutated"

	if conv.History()[0].Text != "how many films are there" {
		t.Fatal("History returned a live reference")
	}
}

func TestConversationClearHistoryKeepsDirective(t *testing.T) {
	conv := NewManager().Create()
	conv.SetDirective("answer in one sentence")
	conv.AppendTurn(model.RoleUser, "hello")

	conv.ClearHistory()

	if len(conv.History()) != 0 {
		t.Fatal("history not cleared")
	}
	if conv.Directive() != "answer in one sentence" {
		t.Fatal("directive lost on history clear")
	}
}

func TestSetConnectionInvalidatesSchema(t *testing.T) {
	conv := NewManager().Create()
	conv.SetConnection("postgres", "pagila")
	conv.SetSchema(nil)

	driver, database := conv.Connection()
	if driver != "postgres" || database != "pagila" {
		t.Fatalf("Connection() = %q, %q", driver, database)
	}

	conv.SetConnection("sqlite", "chinook.db")
	if conv.Schema() != nil {
		t.Fatal("schema cache survived a reconnect")
	}
}

func TestConversationConcurrentAppends(t *testing.T) {
	conv := NewManager().Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv.AppendTurn(model.RoleUser, "q")
		}()
	}
	wg.Wait()

	if got := len(conv.History()); got != 50 {
		t.Fatalf("history length = %d, want 50", got)
	}
}
