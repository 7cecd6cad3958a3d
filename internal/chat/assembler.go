package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/149189/NexTalk/internal/memory"
	"github.com/149189/NexTalk/internal/session"
)

// Assembler builds the bounded context for a turn: a recency window over the
// session transcript and the top-K long-term facts ranked by lexical overlap
// with it. Assemble is read-only and safe to call concurrently.
type Assembler struct {
	sessions session.Store
	memories memory.Store
	window   int
	topK     int
}

func NewAssembler(sessions session.Store, memories memory.Store, window, topK int) *Assembler {
	if window <= 0 {
		window = 20
	}
	if topK <= 0 {
		topK = 5
	}
	return &Assembler{
		sessions: sessions,
		memories: memories,
		window:   window,
		topK:     topK,
	}
}

func (a *Assembler) Assemble(ctx context.Context, sessionID, userProfileID string) (Context, error) {
	turns, err := a.sessions.ReadRecent(ctx, sessionID, a.window)
	if err != nil {
		return Context{}, fmt.Errorf("read recent turns: %w", err)
	}

	out := Context{RecentTurns: turns, RelevantMemories: []memory.Record{}}
	// Memory is never assembled without an explicit profile id, so context
	// cannot leak across users.
	if userProfileID == "" {
		return out, nil
	}

	records, err := a.memories.List(ctx, userProfileID)
	if err != nil {
		return Context{}, fmt.Errorf("list memories: %w", err)
	}
	out.RelevantMemories = rankMemories(records, turns, a.topK)
	return out, nil
}

type scoredRecord struct {
	record memory.Record
	score  int
}

// rankMemories orders records by token overlap with the recent transcript,
// breaking ties by creation time descending, and truncates to topK. Lexical
// overlap is a deliberate simplicity/latency trade-off; a smarter ranker can
// replace this behind the same Assemble signature.
func rankMemories(records []memory.Record, turns []session.Turn, topK int) []memory.Record {
	if len(records) == 0 {
		return []memory.Record{}
	}

	var transcript strings.Builder
	for _, t := range turns {
		transcript.WriteString(t.Text)
		transcript.WriteByte(' ')
	}
	vocab := tokenize(transcript.String())

	scored := make([]scoredRecord, 0, len(records))
	for _, r := range records {
		score := 0
		for token := range tokenize(r.Content) {
			if _, ok := vocab[token]; ok {
				score++
			}
		}
		scored = append(scored, scoredRecord{record: r, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].record.CreatedAt.After(scored[j].record.CreatedAt)
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	out := make([]memory.Record, 0, topK)
	for _, s := range scored[:topK] {
		out = append(out, s.record)
	}
	return out
}

// tokenize lowercases and splits on non-alphanumeric runes, dropping tokens
// too short to carry signal.
func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f) < 3 {
			continue
		}
		set[f] = struct{}{}
	}
	return set
}
