package chat

import (
	"strings"
	"testing"
)

func TestExtractFavoritePattern(t *testing.T) {
	got := Extract("My favorite color is blue", "Noted!")
	if !got.Suggest {
		t.Fatalf("Suggest = false, want true")
	}
	if !strings.Contains(got.ExampleSave, "blue") {
		t.Fatalf("ExampleSave = %q, want it to contain %q", got.ExampleSave, "blue")
	}
	if got.ExampleSave != "favorite color: blue" {
		t.Fatalf("ExampleSave = %q, want %q", got.ExampleSave, "favorite color: blue")
	}
	if got.MemType != "preference" {
		t.Fatalf("MemType = %q, want %q", got.MemType, "preference")
	}
	if got.Confidence <= VagueConfidence {
		t.Fatalf("Confidence = %v, want above vague threshold %v", got.Confidence, VagueConfidence)
	}
}

func TestExtractNoPattern(t *testing.T) {
	got := Extract("How's the weather?", "It's sunny.")
	if got.Suggest {
		t.Fatalf("Suggest = true, want false")
	}
	if got.Confidence != 0 {
		t.Fatalf("Confidence = %v, want 0", got.Confidence)
	}
	if got.ExampleSave != "" {
		t.Fatalf("ExampleSave = %q, want empty", got.ExampleSave)
	}
}

func TestExtractRuleClasses(t *testing.T) {
	cases := []struct {
		name     string
		userText string
		wantSave string
		wantType string
		wantConf float64
	}{
		{"name", "Hi, my name is Ada.", "name: Ada", "identity", 0.9},
		{"call me", "Please call me Grace", "name: Grace", "identity", 0.9},
		{"favorite mixed case", "My Favourite Tea Is oolong", "favorite tea: oolong", "preference", 0.9},
		{"live in", "I live in Turin, by the river", "lives in: Turin", "fact", 0.85},
		{"from", "I'm from Nairobi", "from: Nairobi", "fact", 0.85},
		{"prefer", "I prefer window seats", "prefers: window seats", "preference", 0.6},
		{"like", "I like hiking on weekends.", "likes: hiking on weekends", "preference", VagueConfidence},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Extract(tc.userText, "ok")
			if !got.Suggest {
				t.Fatalf("Suggest = false for %q", tc.userText)
			}
			if got.ExampleSave != tc.wantSave {
				t.Fatalf("ExampleSave = %q, want %q", got.ExampleSave, tc.wantSave)
			}
			if got.MemType != tc.wantType {
				t.Fatalf("MemType = %q, want %q", got.MemType, tc.wantType)
			}
			if got.Confidence != tc.wantConf {
				t.Fatalf("Confidence = %v, want %v", got.Confidence, tc.wantConf)
			}
		})
	}
}

func TestExtractSpecificShadowsVague(t *testing.T) {
	// Both "my favorite" and "i like" match; priority order keeps the
	// specific class on top.
	got := Extract("I like tea but my favorite drink is coffee", "ok")
	if got.ExampleSave != "favorite drink: coffee" {
		t.Fatalf("ExampleSave = %q, want the favorite rule to win", got.ExampleSave)
	}
	if got.Confidence <= VagueConfidence {
		t.Fatalf("Confidence = %v, want above vague threshold", got.Confidence)
	}
}

func TestExtractIsPure(t *testing.T) {
	first := Extract("my name is Ada", "")
	second := Extract("my name is Ada", "completely different assistant text")
	if first != second {
		t.Fatalf("Extract not pure: %+v vs %+v", first, second)
	}
}
