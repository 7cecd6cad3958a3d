package brain

import (
	"context"
	"fmt"
	"strings"
)

// MockGenerator provides deterministic local replies when no real generator
// is configured.
type MockGenerator struct{}

func NewMockGenerator() *MockGenerator { return &MockGenerator{} }

func (g *MockGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	default:
	}

	return Response{Text: buildMockReply(req)}, nil
}

func buildMockReply(req Request) string {
	base := strings.TrimSpace(req.InputText)
	if base == "" {
		base = "I am listening."
	}

	if len(req.Memories) == 0 {
		return fmt.Sprintf("I heard you: %s", base)
	}

	last := strings.TrimSpace(req.Memories[len(req.Memories)-1])
	if last == "" {
		return fmt.Sprintf("I heard you: %s", base)
	}

	return fmt.Sprintf("I heard you: %s\nI also remember: %s", base, last)
}
