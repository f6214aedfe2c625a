package domain

import (
	"log/slog"
	"regexp"
	"strings"
)

// Outcome is the correctness verdict for a single evaluated action.
type Outcome string

const (
	// OutcomeCorrect earns full credit and resolves the step.
	OutcomeCorrect Outcome = "correct"
	// OutcomeIncorrect earns no credit and routes through the error policy.
	OutcomeIncorrect Outcome = "incorrect"
	// OutcomeAccepted is used by similarity scoring: the submission is
	// always taken as-is with partial credit and never fails.
	OutcomeAccepted Outcome = "accepted"
)

// Evaluation is the result of scoring one action against one user input.
type Evaluation struct {
	Outcome Outcome
	// Credit is the earned fraction in [0,1]. Only similarity-scored
	// actions produce fractional values.
	Credit float64
	// Similarity is the percentage observed at submission time for
	// similarity-scored actions. Stored with the response so the
	// aggregator never recomputes it.
	Similarity int
}

// Evaluate scores a single action. For buttons the input is ignored: being
// invoked at all means the button was clicked. Learner mistakes are data,
// never errors.
func Evaluate(action *Action, input string) Evaluation {
	switch action.Type {
	case ActionButton:
		if action.IsCorrectButton() {
			return Evaluation{Outcome: OutcomeCorrect, Credit: 1}
		}
		return Evaluation{Outcome: OutcomeIncorrect}
	case ActionTextInput:
		return evaluateText(action, input)
	default:
		slog.Warn("unknown action type", "action_id", action.ID, "type", action.Type)
		return Evaluation{Outcome: OutcomeIncorrect}
	}
}

func evaluateText(action *Action, input string) Evaluation {
	// Decoy fields are always wrong, whatever was typed.
	if action.IsDecoy() {
		return Evaluation{Outcome: OutcomeIncorrect}
	}

	got := normalize(input, action.CaseSensitive)
	want := normalize(action.CorrectAnswer, action.CaseSensitive)

	mode := action.EffectiveMode()

	if mode == ScoringSimilarity {
		pct := Similarity(got, want)
		return Evaluation{
			Outcome:    OutcomeAccepted,
			Credit:     float64(pct) / 100,
			Similarity: pct,
		}
	}

	// An absent expected answer means accept anything non-empty. Explicit
	// authoring edge case, not an error.
	if strings.TrimSpace(action.CorrectAnswer) == "" {
		if strings.TrimSpace(input) != "" {
			return Evaluation{Outcome: OutcomeCorrect, Credit: 1}
		}
		return Evaluation{Outcome: OutcomeIncorrect}
	}

	var correct bool
	switch mode {
	case ScoringContains:
		correct = strings.Contains(got, want)
	case ScoringRegex:
		correct = matchRegex(action, strings.TrimSpace(input))
	default: // exact, text_cursor
		correct = got == want
	}

	if correct {
		return Evaluation{Outcome: OutcomeCorrect, Credit: 1}
	}
	return Evaluation{Outcome: OutcomeIncorrect}
}

// matchRegex treats the expected answer as a pattern, case-insensitive
// unless the action says otherwise. A malformed pattern degrades to
// incorrect rather than crashing the evaluator.
func matchRegex(action *Action, input string) bool {
	pattern := action.CorrectAnswer
	if !action.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		slog.Warn("malformed answer pattern, treating as incorrect",
			"action_id", action.ID,
			"pattern", action.CorrectAnswer,
			"error", err,
		)
		return false
	}
	return re.MatchString(input)
}

// normalize trims surrounding whitespace and case-folds unless the action
// is case-sensitive. Applied symmetrically to user input and expected
// answers.
func normalize(s string, caseSensitive bool) string {
	s = strings.TrimSpace(s)
	if !caseSensitive {
		s = strings.ToLower(s)
	}
	return s
}
