package domain

import "testing"

func intPtr(n int) *int { return &n }

func TestEvaluate_Buttons(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   Outcome
	}{
		{"true token", "true", OutcomeCorrect},
		{"numeric token", "1", OutcomeCorrect},
		{"correct token", "correct", OutcomeCorrect},
		{"yes token", "yes", OutcomeCorrect},
		{"spanish si", "si", OutcomeCorrect},
		{"spanish accented", "sí", OutcomeCorrect},
		{"uppercase token", "TRUE", OutcomeCorrect},
		{"distractor", "false", OutcomeIncorrect},
		{"empty", "", OutcomeIncorrect},
		{"arbitrary label", "continue", OutcomeIncorrect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := &Action{ID: "a1", Type: ActionButton, CorrectAnswer: tt.answer}
			eval := Evaluate(action, "")
			if eval.Outcome != tt.want {
				t.Errorf("outcome = %q, want %q", eval.Outcome, tt.want)
			}
			if tt.want == OutcomeCorrect && eval.Credit != 1 {
				t.Errorf("credit = %v, want 1", eval.Credit)
			}
		})
	}
}

func TestEvaluate_ExactMode(t *testing.T) {
	tests := []struct {
		name          string
		answer        string
		caseSensitive bool
		input         string
		want          Outcome
	}{
		{"match", "Madrid", false, "Madrid", OutcomeCorrect},
		{"case folded", "Madrid", false, "madrid", OutcomeCorrect},
		{"trailing space trimmed", "Madrid", false, "Madrid ", OutcomeCorrect},
		{"leading space trimmed", "Madrid", false, "  madrid", OutcomeCorrect},
		{"case sensitive mismatch", "Madrid", true, "madrid", OutcomeIncorrect},
		{"case sensitive match", "Madrid", true, "Madrid", OutcomeCorrect},
		{"wrong value", "Madrid", false, "Barcelona", OutcomeIncorrect},
		{"empty input", "Madrid", false, "", OutcomeIncorrect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := &Action{
				ID:            "a1",
				Type:          ActionTextInput,
				CorrectAnswer: tt.answer,
				ScoringMode:   ScoringExact,
				CaseSensitive: tt.caseSensitive,
			}
			if got := Evaluate(action, tt.input).Outcome; got != tt.want {
				t.Errorf("Evaluate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEvaluate_TextCursorAliasesExact(t *testing.T) {
	action := &Action{
		ID:            "a1",
		Type:          ActionTextInput,
		CorrectAnswer: "42",
		ScoringMode:   ScoringTextCursor,
	}
	if got := Evaluate(action, "42").Outcome; got != OutcomeCorrect {
		t.Errorf("outcome = %q, want correct", got)
	}
	if got := Evaluate(action, "41").Outcome; got != OutcomeIncorrect {
		t.Errorf("outcome = %q, want incorrect", got)
	}
}

func TestEvaluate_ContainsMode(t *testing.T) {
	action := &Action{
		ID:            "a1",
		Type:          ActionTextInput,
		CorrectAnswer: "gateway",
		ScoringMode:   ScoringContains,
	}

	if got := Evaluate(action, "the API Gateway service").Outcome; got != OutcomeCorrect {
		t.Errorf("substring match: outcome = %q, want correct", got)
	}
	if got := Evaluate(action, "the proxy service").Outcome; got != OutcomeIncorrect {
		t.Errorf("no substring: outcome = %q, want incorrect", got)
	}
}

func TestEvaluate_RegexMode(t *testing.T) {
	tests := []struct {
		name          string
		pattern       string
		caseSensitive bool
		input         string
		want          Outcome
	}{
		{"match", `^ip( addr)?$`, false, "ip addr", OutcomeCorrect},
		{"case insensitive default", `^restart$`, false, "RESTART", OutcomeCorrect},
		{"case sensitive", `^restart$`, true, "RESTART", OutcomeIncorrect},
		{"no match", `^\d+$`, false, "abc", OutcomeIncorrect},
		{"malformed pattern degrades", `[unclosed`, false, "anything", OutcomeIncorrect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := &Action{
				ID:            "a1",
				Type:          ActionTextInput,
				CorrectAnswer: tt.pattern,
				ScoringMode:   ScoringRegex,
				CaseSensitive: tt.caseSensitive,
			}
			if got := Evaluate(action, tt.input).Outcome; got != tt.want {
				t.Errorf("Evaluate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEvaluate_SimilarityAlwaysAccepts(t *testing.T) {
	action := &Action{
		ID:            "a1",
		Type:          ActionTextInput,
		CorrectAnswer: "Paris",
		ScoringMode:   ScoringSimilarity,
	}

	tests := []struct {
		input      string
		wantPct    int
		wantCredit float64
	}{
		{"Paris", 100, 1},
		{"Pariss", 83, 0.83},
		{"paris", 100, 1}, // case folded before comparison
		{"", 0, 0},
		{"Par", 60, 0.6},
	}

	for _, tt := range tests {
		eval := Evaluate(action, tt.input)
		if eval.Outcome != OutcomeAccepted {
			t.Errorf("Evaluate(%q): outcome = %q, want accepted", tt.input, eval.Outcome)
		}
		if eval.Similarity != tt.wantPct {
			t.Errorf("Evaluate(%q): similarity = %d, want %d", tt.input, eval.Similarity, tt.wantPct)
		}
		if eval.Credit != tt.wantCredit {
			t.Errorf("Evaluate(%q): credit = %v, want %v", tt.input, eval.Credit, tt.wantCredit)
		}
	}
}

func TestEvaluate_DecoyAlwaysIncorrect(t *testing.T) {
	action := &Action{
		ID:            "a1",
		Type:          ActionTextInput,
		CorrectAnswer: DecoyAnswer,
		ScoringMode:   ScoringExact,
	}

	for _, input := range []string{"", "wrong", "anything", "Wrong "} {
		if got := Evaluate(action, input).Outcome; got != OutcomeIncorrect {
			t.Errorf("decoy with input %q: outcome = %q, want incorrect", input, got)
		}
	}
}

func TestEvaluate_EmptyAnswerAcceptsAnything(t *testing.T) {
	for _, mode := range []ScoringMode{ScoringExact, ScoringContains, ScoringRegex} {
		action := &Action{
			ID:          "a1",
			Type:        ActionTextInput,
			ScoringMode: mode,
		}
		if got := Evaluate(action, "some value").Outcome; got != OutcomeCorrect {
			t.Errorf("mode %s: non-empty input = %q, want correct", mode, got)
		}
		if got := Evaluate(action, "   ").Outcome; got != OutcomeIncorrect {
			t.Errorf("mode %s: blank input = %q, want incorrect", mode, got)
		}
	}
}
