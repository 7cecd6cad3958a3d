package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestAppendAssignsContiguousIndexes(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		turn, err := s.Append(ctx, "s1", RoleUser, fmt.Sprintf("message %d", i))
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if turn.SequenceIndex != int64(i)+1 {
			t.Fatalf("SequenceIndex = %d, want %d", turn.SequenceIndex, i+1)
		}
	}

	turns, err := s.ReadRecent(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("ReadRecent() error = %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("len(turns) = %d, want 3", len(turns))
	}
	for i := 1; i < len(turns); i++ {
		if turns[i].SequenceIndex != turns[i-1].SequenceIndex+1 {
			t.Fatalf("gap between %d and %d", turns[i-1].SequenceIndex, turns[i].SequenceIndex)
		}
		if turns[i].Timestamp.Before(turns[i-1].Timestamp) {
			t.Fatalf("timestamps not monotonic: %v before %v", turns[i].Timestamp, turns[i-1].Timestamp)
		}
	}
}

func TestAppendRejectsEmptyUserText(t *testing.T) {
	s := NewInMemoryStore()
	if _, err := s.Append(context.Background(), "s1", RoleUser, ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Append() error = %v, want ErrInvalidArgument", err)
	}
	if _, err := s.Append(context.Background(), "s1", "narrator", "hi"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Append() unknown role error = %v, want ErrInvalidArgument", err)
	}
}

func TestReadRecentUnknownSessionIsEmpty(t *testing.T) {
	s := NewInMemoryStore()
	turns, err := s.ReadRecent(context.Background(), "nope", 5)
	if err != nil {
		t.Fatalf("ReadRecent() error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("len(turns) = %d, want 0", len(turns))
	}
}

func TestReadRecentReturnsWindowedTail(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		if _, err := s.Append(ctx, "s1", RoleUser, fmt.Sprintf("m%d", i)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	turns, err := s.ReadRecent(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("ReadRecent() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[0].Text != "m4" || turns[1].Text != "m5" {
		t.Fatalf("unexpected window: %q, %q", turns[0].Text, turns[1].Text)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	if _, err := s.Append(ctx, "s1", RoleUser, "hello"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := s.Clear(ctx, "s1"); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
	}
	if err := s.Clear(ctx, "never-existed"); err != nil {
		t.Fatalf("Clear() unknown session error = %v", err)
	}

	turns, err := s.ReadRecent(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("ReadRecent() error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("len(turns) = %d after clear, want 0", len(turns))
	}
}

func TestConcurrentAppendsStayGapFree(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	const n = 50

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			if _, err := s.Append(ctx, "s1", RoleUser, fmt.Sprintf("m%d", i)); err != nil {
				t.Errorf("Append() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	turns, err := s.ReadRecent(ctx, "s1", n)
	if err != nil {
		t.Fatalf("ReadRecent() error = %v", err)
	}
	if len(turns) != n {
		t.Fatalf("len(turns) = %d, want %d", len(turns), n)
	}
	seen := make(map[int64]bool, n)
	for _, turn := range turns {
		if seen[turn.SequenceIndex] {
			t.Fatalf("duplicate sequence index %d", turn.SequenceIndex)
		}
		seen[turn.SequenceIndex] = true
	}
	for i := int64(1); i <= n; i++ {
		if !seen[i] {
			t.Fatalf("missing sequence index %d", i)
		}
	}
}
