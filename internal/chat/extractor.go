package chat

import (
	"fmt"
	"regexp"
	"strings"
)

// VagueConfidence is the score assigned to the loosest pattern class.
// Anything above it came from a specific, high-signal pattern.
const VagueConfidence = 0.5

// extractRule pairs a statement pattern with the memory category and
// confidence it implies. Rules are evaluated in priority order and the
// first match wins, so specific classes shadow vague ones.
type extractRule struct {
	pattern    *regexp.Regexp
	memType    string
	confidence float64
	normalize  func(groups []string) string
}

// The confidence values are tunables, not a contract: they only need to
// keep the specific classes above VagueConfidence.
var extractRules = []extractRule{
	{
		pattern:    regexp.MustCompile(`(?i)\bmy name is\s+([\p{L}][\p{L}'-]*)`),
		memType:    "identity",
		confidence: 0.9,
		normalize:  func(g []string) string { return fmt.Sprintf("name: %s", g[1]) },
	},
	{
		pattern:    regexp.MustCompile(`(?i)\bcall me\s+([\p{L}][\p{L}'-]*)`),
		memType:    "identity",
		confidence: 0.9,
		normalize:  func(g []string) string { return fmt.Sprintf("name: %s", g[1]) },
	},
	{
		pattern:    regexp.MustCompile(`(?i)\bmy favou?rite\s+([\p{L}\p{N} ]+?)\s+is\s+([^.!?;,]+)`),
		memType:    "preference",
		confidence: 0.9,
		normalize:  func(g []string) string { return lowered("favorite %s: %s", g[1], g[2]) },
	},
	{
		pattern:    regexp.MustCompile(`(?i)\bi live in\s+([^.!?;,]+)`),
		memType:    "fact",
		confidence: 0.85,
		normalize:  func(g []string) string { return fmt.Sprintf("lives in: %s", g[1]) },
	},
	{
		pattern:    regexp.MustCompile(`(?i)\bi(?:'m| am)\s+from\s+([^.!?;,]+)`),
		memType:    "fact",
		confidence: 0.85,
		normalize:  func(g []string) string { return fmt.Sprintf("from: %s", g[1]) },
	},
	{
		pattern:    regexp.MustCompile(`(?i)\bi prefer\s+([^.!?;,]+)`),
		memType:    "preference",
		confidence: 0.6,
		normalize:  func(g []string) string { return lowered("prefers: %s", g[1]) },
	},
	{
		pattern:    regexp.MustCompile(`(?i)\bi (?:like|love|enjoy)\s+([^.!?;,]+)`),
		memType:    "preference",
		confidence: VagueConfidence,
		normalize:  func(g []string) string { return lowered("likes: %s", g[1]) },
	},
}

func lowered(format string, args ...any) string {
	out := make([]any, len(args))
	for i, a := range args {
		if s, ok := a.(string); ok {
			out[i] = strings.ToLower(s)
			continue
		}
		out[i] = a
	}
	return fmt.Sprintf(format, out...)
}

// Extract inspects a completed turn and proposes at most one fact worth
// remembering. It is a pure function of its two inputs: no store access,
// no randomness, so it is testable in isolation from the orchestrator.
// The assistant reply is part of the contract but carries no signal today;
// facts are only ever asserted by the user.
func Extract(userText, assistantText string) SaveSuggestion {
	_ = assistantText

	for _, rule := range extractRules {
		groups := rule.pattern.FindStringSubmatch(userText)
		if groups == nil {
			continue
		}
		save := strings.TrimSpace(rule.normalize(groups))
		if save == "" {
			continue
		}
		return SaveSuggestion{
			Suggest:     true,
			ExampleSave: save,
			MemType:     rule.memType,
			Confidence:  rule.confidence,
		}
	}
	return SaveSuggestion{}
}
