package widget

import "testing"

func TestResolveKnownNames(t *testing.T) {
	cases := map[string]string{
		"VocabGrid":        "vocab-grid",
		"vocab-grid":       "vocab-grid",
		"vocab_grid":       "vocab-grid",
		"SentenceCard":     "sentence-card",
		"ProgressSummary":  "progress-summary",
		"dialogue-player":  "dialogue-player",
		"ClozeQuiz":        "cloze-quiz",
		"metric_card":      "metric-card",
	}

	for name, want := range cases {
		desc, ok := Resolve(name)
		if !ok {
			t.Errorf("Resolve(%q) not found", name)
			continue
		}
		if desc.Kind != want {
			t.Errorf("Resolve(%q).Kind = %q, want %q", name, desc.Kind, want)
		}
	}
}

func TestResolveUnknownName(t *testing.T) {
	if _, ok := Resolve("HoloDeck"); ok {
		t.Error("unknown component resolved; fallback path would never trigger")
	}
	if _, ok := Resolve(""); ok {
		t.Error("empty name resolved")
	}
}

func TestKnownListsEveryKind(t *testing.T) {
	if len(Known()) != 6 {
		t.Errorf("registry size = %d, want 6", len(Known()))
	}
}
