package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrGeneratorFailure reports that the external generator misbehaved. The
// orchestrator absorbs it into the degraded-reply path; it is never a hard
// failure for the turn.
var ErrGeneratorFailure = errors.New("generator failure")

// PromptTurn is one transcript line handed to the generator.
type PromptTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Request is the normalized request sent to a generator backend. InputText
// is the latest user message; History already includes it as its last turn.
type Request struct {
	SessionID     string       `json:"session_id"`
	UserProfileID string       `json:"user_profile_id,omitempty"`
	InputText     string       `json:"input_text"`
	Memories      []string     `json:"memories,omitempty"`
	History       []PromptTurn `json:"history,omitempty"`
}

// Response is the complete generated reply. Generators return the full
// text as a single value; incremental delivery is a transport concern.
type Response struct {
	Text string `json:"text"`
}

// Generator produces a reply from assembled context.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Config controls generator construction.
type Config struct {
	Mode         string
	HTTPURL      string
	OpenAIAPIKey string
	OpenAIModel  string
}

// NewGenerator selects a backend by mode. In auto mode the first configured
// backend wins: openai, then http, then the deterministic mock.
func NewGenerator(cfg Config) (Generator, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
			return NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
		}
		if strings.TrimSpace(cfg.HTTPURL) != "" {
			return NewHTTPGenerator(cfg.HTTPURL), nil
		}
		return NewMockGenerator(), nil
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return nil, errors.New("OPENAI_API_KEY is required for openai mode")
		}
		return NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	case "http":
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, errors.New("generator HTTP url is required for http mode")
		}
		return NewHTTPGenerator(cfg.HTTPURL), nil
	case "mock":
		return NewMockGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported generator mode %q", cfg.Mode)
	}
}
