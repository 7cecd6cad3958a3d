package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/149189/NexTalk/internal/brain"
	"github.com/149189/NexTalk/internal/observability"
	"github.com/149189/NexTalk/internal/session"
)

// DegradedReply is the fixed fallback used when the generator fails or
// times out. The turn still completes and stays in the transcript.
const DegradedReply = "I'm having trouble responding right now. Let's try again in a moment."

// Orchestrator sequences one chat turn: append the user message, assemble
// context, generate under a timeout, append the reply, extract a save
// suggestion. It owns no durable state of its own.
type Orchestrator struct {
	sessions         session.Store
	assembler        *Assembler
	generator        brain.Generator
	generatorTimeout time.Duration
	metrics          *observability.Metrics
	log              zerolog.Logger
}

func NewOrchestrator(
	sessions session.Store,
	assembler *Assembler,
	generator brain.Generator,
	generatorTimeout time.Duration,
	metrics *observability.Metrics,
	log zerolog.Logger,
) *Orchestrator {
	if generatorTimeout <= 0 {
		generatorTimeout = 10 * time.Second
	}
	return &Orchestrator{
		sessions:         sessions,
		assembler:        assembler,
		generator:        generator,
		generatorTimeout: generatorTimeout,
		metrics:          metrics,
		log:              log,
	}
}

// HandleTurn runs one full turn and returns the reply plus an optional save
// suggestion. Generator failure is absorbed into the degraded reply; only
// invalid input and session-store failure surface as errors.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, userText, userProfileID string) (TurnResult, error) {
	if sessionID == "" || strings.TrimSpace(userText) == "" {
		o.metrics.ObserveTurn("invalid", 0)
		return TurnResult{}, fmt.Errorf("%w: session id and message are required", session.ErrInvalidArgument)
	}

	turnStart := time.Now()

	stageStart := time.Now()
	if _, err := o.sessions.Append(ctx, sessionID, session.RoleUser, userText); err != nil {
		// Without a recorded user message the turn cannot proceed.
		o.metrics.ObserveStoreError("session", "append")
		o.metrics.ObserveTurn("error", time.Since(turnStart))
		return TurnResult{}, fmt.Errorf("append user turn: %w", err)
	}
	o.metrics.ObserveTurnStage("append_user", time.Since(stageStart))

	stageStart = time.Now()
	assembled, err := o.assembler.Assemble(ctx, sessionID, userProfileID)
	if err != nil {
		// Losing context is bounded damage; losing the turn is not. Reply
		// from an empty context rather than aborting.
		o.log.Warn().Err(err).Str("session_id", sessionID).Msg("context assembly failed, replying without context")
		assembled = Context{}
	}
	o.metrics.ObserveTurnStage("assemble", time.Since(stageStart))

	stageStart = time.Now()
	genCtx, cancel := context.WithTimeout(ctx, o.generatorTimeout)
	resp, genErr := o.generator.Generate(genCtx, buildRequest(sessionID, userProfileID, userText, assembled))
	cancel()
	o.metrics.ObserveGeneratorLatency(time.Since(stageStart))
	o.metrics.ObserveTurnStage("generate", time.Since(stageStart))

	reply := strings.TrimSpace(resp.Text)
	degraded := genErr != nil || reply == ""
	if degraded {
		reply = DegradedReply
		o.log.Warn().Err(genErr).Str("session_id", sessionID).Msg("generator failed, using degraded reply")
	}

	// The append pair must complete even if the client has gone away, or a
	// user turn would sit in the log with no assistant counterpart.
	appendCtx := context.WithoutCancel(ctx)
	stageStart = time.Now()
	if err := o.appendAssistant(appendCtx, sessionID, reply); err != nil {
		o.metrics.ObserveStoreError("session", "append")
		o.metrics.ObserveTurn("error", time.Since(turnStart))
		return TurnResult{}, fmt.Errorf("append assistant turn: %w", err)
	}
	o.metrics.ObserveTurnStage("append_assistant", time.Since(stageStart))

	result := TurnResult{ReplyText: reply, Degraded: degraded, Suggestion: SaveSuggestion{}}
	if !degraded {
		stageStart = time.Now()
		result.Suggestion = Extract(userText, reply)
		o.metrics.ObserveTurnStage("extract", time.Since(stageStart))
		o.metrics.ObserveSuggestion(result.Suggestion.Suggest)
	}

	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	o.metrics.ObserveTurn(outcome, time.Since(turnStart))
	o.metrics.ObserveTurnStage("turn_total", time.Since(turnStart))

	return result, nil
}

// appendAssistant retries once on store failure: losing the reply after it
// has already been shown to the user would corrupt later context assembly.
func (o *Orchestrator) appendAssistant(ctx context.Context, sessionID, reply string) error {
	_, err := o.sessions.Append(ctx, sessionID, session.RoleAssistant, reply)
	if err == nil {
		return nil
	}
	o.log.Warn().Err(err).Str("session_id", sessionID).Msg("assistant append failed, retrying once")
	if _, retryErr := o.sessions.Append(ctx, sessionID, session.RoleAssistant, reply); retryErr != nil {
		return retryErr
	}
	return nil
}

func buildRequest(sessionID, userProfileID, userText string, assembled Context) brain.Request {
	req := brain.Request{
		SessionID:     sessionID,
		UserProfileID: userProfileID,
		InputText:     userText,
	}
	for _, r := range assembled.RelevantMemories {
		req.Memories = append(req.Memories, r.Content)
	}
	for _, t := range assembled.RecentTurns {
		req.History = append(req.History, brain.PromptTurn{Role: t.Role, Text: t.Text})
	}
	return req
}
