package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"chatledger/pkg/models"
	"chatledger/pkg/store"
)

func viewTexts(t *testing.T, dir *Directory, chatID string) []string {
	t.Helper()
	entries, err := dir.View(chatID)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Text)
	}
	return out
}

func TestSubmitResolvesReply(t *testing.T) {
	dir, _ := newTestDirectory(t)
	c, _ := dir.CreateChat("", "t")

	orc := NewOrchestrator(dir, GeneratorFunc(func(ctx context.Context, text string, history []models.Entry) (string, error) {
		return "echo: " + text, nil
	}), OrchestratorConfig{})

	m, err := orc.Submit(context.Background(), c.ID, "hello")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	orc.Drain()

	r, ok := dir.Overlay().Get(c.ID, m.ID)
	if !ok {
		t.Fatalf("no reply in overlay")
	}
	if r.Text != "echo: hello" || r.Sender != models.SenderAI || r.ReplyTo != m.ID {
		t.Fatalf("unexpected reply: %+v", r)
	}
	texts := viewTexts(t, dir, c.ID)
	if len(texts) != 2 || texts[0] != "hello" || texts[1] != "echo: hello" {
		t.Fatalf("unexpected view: %v", texts)
	}
}

// TestSubmitFailureBecomesPlaceholder: a generator error never surfaces
// to the caller; it becomes a visible failure entry in the view.
func TestSubmitFailureBecomesPlaceholder(t *testing.T) {
	dir, _ := newTestDirectory(t)
	c, _ := dir.CreateChat("", "t")

	orc := NewOrchestrator(dir, GeneratorFunc(func(ctx context.Context, text string, history []models.Entry) (string, error) {
		return "", errors.New("provider down")
	}), OrchestratorConfig{})

	m, err := orc.Submit(context.Background(), c.ID, "hello")
	if err != nil {
		t.Fatalf("Submit must not surface generator errors: %v", err)
	}
	orc.Drain()

	r, ok := dir.Overlay().Get(c.ID, m.ID)
	if !ok {
		t.Fatalf("no failure placeholder in overlay")
	}
	if r.Text != DefaultFailureText {
		t.Fatalf("placeholder text = %q; want %q", r.Text, DefaultFailureText)
	}
}

// TestSubmitTimeoutBecomesPlaceholder: a generator that outlives the
// timeout is cut off and converted to the failure placeholder.
func TestSubmitTimeoutBecomesPlaceholder(t *testing.T) {
	dir, _ := newTestDirectory(t)
	c, _ := dir.CreateChat("", "t")

	orc := NewOrchestrator(dir, GeneratorFunc(func(ctx context.Context, text string, history []models.Entry) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), OrchestratorConfig{Timeout: 20 * time.Millisecond, FailureText: "timed out"})

	m, err := orc.Submit(context.Background(), c.ID, "hello")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	orc.Drain()

	r, ok := dir.Overlay().Get(c.ID, m.ID)
	if !ok || r.Text != "timed out" {
		t.Fatalf("expected timeout placeholder; got %+v ok=%v", r, ok)
	}
}

// TestAwaitingVisibleWhileInFlight: a pending request is observable via
// Awaiting without any placeholder in the overlay, and disappears once
// resolved.
func TestAwaitingVisibleWhileInFlight(t *testing.T) {
	dir, _ := newTestDirectory(t)
	c, _ := dir.CreateChat("", "t")

	gate := make(chan struct{})
	orc := NewOrchestrator(dir, GeneratorFunc(func(ctx context.Context, text string, history []models.Entry) (string, error) {
		<-gate
		return "done", nil
	}), OrchestratorConfig{})

	m, err := orc.Submit(context.Background(), c.ID, "hello")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	awaiting := orc.Awaiting(c.ID)
	if len(awaiting) != 1 || awaiting[0] != m.ID {
		t.Fatalf("awaiting = %v; want [%s]", awaiting, m.ID)
	}
	if dir.Overlay().Len() != 0 {
		t.Fatalf("pending request leaked a placeholder into the overlay")
	}
	// the durable message is already visible while the reply is pending
	if texts := viewTexts(t, dir, c.ID); len(texts) != 1 || texts[0] != "hello" {
		t.Fatalf("unexpected pending view: %v", texts)
	}

	close(gate)
	orc.Drain()
	if len(orc.Awaiting(c.ID)) != 0 {
		t.Fatalf("awaiting not cleared after resolution")
	}
	if _, ok := dir.Overlay().Get(c.ID, m.ID); !ok {
		t.Fatalf("resolved reply missing")
	}
}

// TestReplyDroppedWhenChatDeletedMidFlight: deleting the chat while a
// reply is in flight drops the reply instead of resurrecting the chat.
func TestReplyDroppedWhenChatDeletedMidFlight(t *testing.T) {
	dir, _ := newTestDirectory(t)
	c, _ := dir.CreateChat("", "t")

	gate := make(chan struct{})
	orc := NewOrchestrator(dir, GeneratorFunc(func(ctx context.Context, text string, history []models.Entry) (string, error) {
		<-gate
		return "late", nil
	}), OrchestratorConfig{})

	m, err := orc.Submit(context.Background(), c.ID, "hello")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := dir.DeleteChat(c.ID); err != nil {
		t.Fatalf("DeleteChat: %v", err)
	}
	close(gate)
	orc.Drain()

	if dir.Overlay().Len() != 0 {
		t.Fatalf("late reply resurrected deleted chat state")
	}
	if _, ok := dir.Overlay().Get(c.ID, m.ID); ok {
		t.Fatalf("reply present for deleted chat")
	}
}

// TestHistoryWindowLimit: the generator sees at most the configured
// number of trailing entries, newest last, including the new message.
func TestHistoryWindowLimit(t *testing.T) {
	dir, _ := newTestDirectory(t)
	c, _ := dir.CreateChat("", "t")
	for _, txt := range []string{"one", "two", "three", "four"} {
		if _, err := dir.AppendUserMessage(c.ID, txt); err != nil {
			t.Fatalf("AppendUserMessage: %v", err)
		}
	}

	var got []string
	orc := NewOrchestrator(dir, GeneratorFunc(func(ctx context.Context, text string, history []models.Entry) (string, error) {
		for _, e := range history {
			got = append(got, e.Text)
		}
		return "ok", nil
	}), OrchestratorConfig{HistoryWindow: 3})

	if _, err := orc.Submit(context.Background(), c.ID, "five"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	orc.Drain()

	want := []string{"three", "four", "five"}
	if len(got) != len(want) {
		t.Fatalf("history = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("history[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestSubmitToMissingChat(t *testing.T) {
	dir, _ := newTestDirectory(t)
	orc := NewOrchestrator(dir, GeneratorFunc(func(ctx context.Context, text string, history []models.Entry) (string, error) {
		return "never", nil
	}), OrchestratorConfig{})
	if _, err := orc.Submit(context.Background(), "chat-ghost", "hi"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound; got %v", err)
	}
}

// TestRestartDropsRepliesKeepsLedger simulates a process restart:
// reopen the database on the same path with a fresh overlay and expect
// only the user messages back.
func TestRestartDropsRepliesKeepsLedger(t *testing.T) {
	dbDir := t.TempDir()
	st, err := store.Open(dbDir)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	dir, err := NewDirectory(st, NewOverlay())
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}
	orc := NewOrchestrator(dir, GeneratorFunc(func(ctx context.Context, text string, history []models.Entry) (string, error) {
		return "answer", nil
	}), OrchestratorConfig{})

	c, _ := dir.CreateChat("", "t")
	if _, err := orc.Submit(context.Background(), c.ID, "question"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	orc.Drain()
	if texts := viewTexts(t, dir, c.ID); len(texts) != 2 {
		t.Fatalf("expected message and reply before restart; got %v", texts)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st2, err := store.Open(dbDir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()
	dir2, err := NewDirectory(st2, NewOverlay())
	if err != nil {
		t.Fatalf("NewDirectory after reopen: %v", err)
	}

	texts := viewTexts(t, dir2, c.ID)
	if len(texts) != 1 || texts[0] != "question" {
		t.Fatalf("after restart want only the user message; got %v", texts)
	}
	active, ok, err := dir2.ActiveChat()
	if err != nil {
		t.Fatalf("ActiveChat after restart: %v", err)
	}
	if !ok || active.ID != c.ID {
		t.Fatalf("active pointer lost across restart; got %+v ok=%v", active, ok)
	}
}
