package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/149189/NexTalk/internal/brain"
	"github.com/149189/NexTalk/internal/memory"
	"github.com/149189/NexTalk/internal/session"
)

type stubGenerator struct {
	reply string
	err   error
	block bool
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, _ brain.Request) (brain.Response, error) {
	g.calls++
	if g.block {
		<-ctx.Done()
		return brain.Response{}, ctx.Err()
	}
	if g.err != nil {
		return brain.Response{}, g.err
	}
	return brain.Response{Text: g.reply}, nil
}

type flakyStore struct {
	session.Store
	failNextAppend int
}

func (s *flakyStore) Append(ctx context.Context, sessionID, role, text string) (session.Turn, error) {
	if role == session.RoleAssistant && s.failNextAppend > 0 {
		s.failNextAppend--
		return session.Turn{}, session.ErrUnavailable
	}
	return s.Store.Append(ctx, sessionID, role, text)
}

func newTestOrchestrator(sessions session.Store, gen brain.Generator, timeout time.Duration) *Orchestrator {
	assembler := NewAssembler(sessions, memory.NewInMemoryStore(), 20, 5)
	return NewOrchestrator(sessions, assembler, gen, timeout, nil, zerolog.Nop())
}

func TestHandleTurnHappyPath(t *testing.T) {
	sessions := session.NewInMemoryStore()
	o := newTestOrchestrator(sessions, &stubGenerator{reply: "Nice to meet you, Ada!"}, time.Second)

	result, err := o.HandleTurn(context.Background(), "s1", "my name is Ada", "u1")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if result.Degraded {
		t.Fatalf("Degraded = true, want false")
	}
	if result.ReplyText != "Nice to meet you, Ada!" {
		t.Fatalf("ReplyText = %q", result.ReplyText)
	}
	if !result.Suggestion.Suggest || result.Suggestion.ExampleSave != "name: Ada" {
		t.Fatalf("Suggestion = %+v, want a name suggestion", result.Suggestion)
	}

	turns, err := sessions.ReadRecent(context.Background(), "s1", 10)
	if err != nil {
		t.Fatalf("ReadRecent() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want user+assistant pair", len(turns))
	}
	if turns[0].Role != session.RoleUser || turns[1].Role != session.RoleAssistant {
		t.Fatalf("unexpected roles: %q, %q", turns[0].Role, turns[1].Role)
	}
}

func TestHandleTurnRejectsEmptyMessage(t *testing.T) {
	sessions := session.NewInMemoryStore()
	o := newTestOrchestrator(sessions, &stubGenerator{reply: "hi"}, time.Second)

	_, err := o.HandleTurn(context.Background(), "s1", "   ", "")
	if !errors.Is(err, session.ErrInvalidArgument) {
		t.Fatalf("HandleTurn() error = %v, want ErrInvalidArgument", err)
	}

	turns, _ := sessions.ReadRecent(context.Background(), "s1", 10)
	if len(turns) != 0 {
		t.Fatalf("len(turns) = %d, want 0 (no partial append)", len(turns))
	}
}

func TestHandleTurnGeneratorTimeoutDegrades(t *testing.T) {
	sessions := session.NewInMemoryStore()
	o := newTestOrchestrator(sessions, &stubGenerator{block: true}, 20*time.Millisecond)

	result, err := o.HandleTurn(context.Background(), "s1", "my favorite color is blue", "")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if !result.Degraded {
		t.Fatalf("Degraded = false, want true")
	}
	if result.ReplyText != DegradedReply {
		t.Fatalf("ReplyText = %q, want the fixed degraded reply", result.ReplyText)
	}
	if result.Suggestion.Suggest {
		t.Fatalf("Suggestion.Suggest = true on a degraded turn, want false")
	}

	// The pair is still appended: exactly one user and one assistant turn.
	turns, err := sessions.ReadRecent(context.Background(), "s1", 10)
	if err != nil {
		t.Fatalf("ReadRecent() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[1].Role != session.RoleAssistant || turns[1].Text != DegradedReply {
		t.Fatalf("assistant turn = %+v, want degraded text", turns[1])
	}
}

func TestHandleTurnGeneratorErrorDegrades(t *testing.T) {
	sessions := session.NewInMemoryStore()
	o := newTestOrchestrator(sessions, &stubGenerator{err: brain.ErrGeneratorFailure}, time.Second)

	result, err := o.HandleTurn(context.Background(), "s1", "hello", "")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if !result.Degraded || result.ReplyText != DegradedReply {
		t.Fatalf("result = %+v, want degraded reply", result)
	}
}

func TestHandleTurnRetriesAssistantAppendOnce(t *testing.T) {
	inner := session.NewInMemoryStore()
	flaky := &flakyStore{Store: inner, failNextAppend: 1}
	o := newTestOrchestrator(flaky, &stubGenerator{reply: "hello!"}, time.Second)

	result, err := o.HandleTurn(context.Background(), "s1", "hi", "")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v, want retry to recover", err)
	}
	if result.ReplyText != "hello!" {
		t.Fatalf("ReplyText = %q", result.ReplyText)
	}

	turns, _ := inner.ReadRecent(context.Background(), "s1", 10)
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2 after retry", len(turns))
	}
}

func TestHandleTurnSurfacesPersistentAppendFailure(t *testing.T) {
	inner := session.NewInMemoryStore()
	flaky := &flakyStore{Store: inner, failNextAppend: 2}
	o := newTestOrchestrator(flaky, &stubGenerator{reply: "hello!"}, time.Second)

	_, err := o.HandleTurn(context.Background(), "s1", "hi", "")
	if !errors.Is(err, session.ErrUnavailable) {
		t.Fatalf("HandleTurn() error = %v, want ErrUnavailable", err)
	}
}

func TestHandleTurnCancellationStillCompletesAppendPair(t *testing.T) {
	sessions := session.NewInMemoryStore()
	gen := &stubGenerator{block: true}
	o := newTestOrchestrator(sessions, gen, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	result, err := o.HandleTurn(ctx, "s1", "hello", "")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if !result.Degraded {
		t.Fatalf("Degraded = false after cancellation, want true")
	}

	turns, err := sessions.ReadRecent(context.Background(), "s1", 10)
	if err != nil {
		t.Fatalf("ReadRecent() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want no orphaned user turn", len(turns))
	}
}

func TestHandleTurnPassesMemoriesToGenerator(t *testing.T) {
	sessions := session.NewInMemoryStore()
	memories := memory.NewInMemoryStore()
	if _, err := memories.Create(context.Background(), "u1", "preference", "favorite color: blue", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	assembler := NewAssembler(sessions, memories, 20, 5)
	o := NewOrchestrator(sessions, assembler, brain.NewMockGenerator(), time.Second, nil, zerolog.Nop())

	result, err := o.HandleTurn(context.Background(), "s1", "what is my favorite color?", "u1")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if !strings.Contains(result.ReplyText, "favorite color: blue") {
		t.Fatalf("ReplyText = %q, want the mock to see the memory", result.ReplyText)
	}
}
