package chat

import (
	"github.com/149189/NexTalk/internal/memory"
	"github.com/149189/NexTalk/internal/session"
)

// Context is the bounded bundle handed to the generator for one turn:
// the recent transcript plus the user facts ranked most relevant to it.
type Context struct {
	RecentTurns      []session.Turn  `json:"recent_turns"`
	RelevantMemories []memory.Record `json:"relevant_memories"`
}

// SaveSuggestion is an ephemeral recommendation to promote a fact from a
// turn into long-term memory. It is never persisted by the core; the caller
// decides whether to turn it into a memory record.
type SaveSuggestion struct {
	Suggest     bool    `json:"suggest"`
	ExampleSave string  `json:"example_save"`
	MemType     string  `json:"mem_type,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// TurnResult is the outcome of one orchestrated chat turn.
type TurnResult struct {
	ReplyText  string         `json:"reply"`
	Degraded   bool           `json:"degraded"`
	Suggestion SaveSuggestion `json:"save_suggestion"`
}
