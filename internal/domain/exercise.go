package domain

import "strings"

// Exercise is an immutable interactive exercise definition loaded from the
// content service. Step order is play order.
type Exercise struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Steps       []Step `json:"steps"`
}

// Step is one screen in the exercise sequence: an image with one or more
// actions overlaid on it.
type Step struct {
	ID         string   `json:"id"`
	StepNumber int      `json:"stepNumber"` // 1-based, matches position
	Title      string   `json:"title,omitempty"`
	ImageURL   string   `json:"imageUrl"`
	Actions    []Action `json:"actions"`
}

// ActionType discriminates the Action union.
type ActionType string

const (
	ActionButton    ActionType = "button"
	ActionTextInput ActionType = "textInput"
)

// ScoringMode is the comparison strategy for text actions.
type ScoringMode string

const (
	ScoringExact      ScoringMode = "exact"
	ScoringContains   ScoringMode = "contains"
	ScoringRegex      ScoringMode = "regex"
	ScoringSimilarity ScoringMode = "similarity"
	// ScoringTextCursor is a legacy alias for exact matching kept for
	// compatibility with older authoring data.
	ScoringTextCursor ScoringMode = "text_cursor"
)

// OnErrorAction configures what happens after an incorrect submission.
type OnErrorAction string

const (
	OnErrorShowMessage OnErrorAction = "show_message"
	OnErrorNextStep    OnErrorAction = "next_step"
	OnErrorEndExercise OnErrorAction = "end_exercise"
)

// DecoyAnswer marks a text input as deliberately always-wrong. A decoy
// behaves like a distractor button but renders as a text box.
const DecoyAnswer = "wrong"

// Position places an action over the step image in percentages. It is
// presentation-only and never affects scoring.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Action is a single interactive element (button or text field) on a step.
// Action IDs are unique only within their step; response tracking keys on
// the (stepID, actionID) pair.
type Action struct {
	ID            string        `json:"id"`
	Type          ActionType    `json:"actionType"`
	Label         string        `json:"label,omitempty"`
	Placeholder   string        `json:"placeholder,omitempty"`
	CorrectAnswer string        `json:"correctAnswer"`
	ScoringMode   ScoringMode   `json:"scoringMode,omitempty"`
	CaseSensitive bool          `json:"isCaseSensitive,omitempty"`
	ErrorMessage  string        `json:"errorMessage,omitempty"`
	OnError       OnErrorAction `json:"onErrorAction,omitempty"`
	// MaxAttempts is the number of additional attempts permitted after the
	// first failure. Nil defaults to one additional attempt.
	MaxAttempts *int     `json:"maxAttempts,omitempty"`
	Position    Position `json:"position"`
}

// correctButtonTokens are the truthy values that mark a button as the
// correct choice. Any other value makes the button a distractor.
var correctButtonTokens = map[string]bool{
	"true":    true,
	"1":       true,
	"correct": true,
	"yes":     true,
	"si":      true,
	"sí":      true,
}

// IsCorrectButton reports whether a button action is the correct choice.
func (a *Action) IsCorrectButton() bool {
	if a.Type != ActionButton {
		return false
	}
	return correctButtonTokens[strings.ToLower(strings.TrimSpace(a.CorrectAnswer))]
}

// IsDecoy reports whether a text action is an always-wrong decoy field.
func (a *Action) IsDecoy() bool {
	return a.Type == ActionTextInput && a.CorrectAnswer == DecoyAnswer
}

// Scoreable reports whether the action contributes to the score
// denominator. Distractor buttons and decoy fields are penalized
// behaviorally but never inflate the max score.
func (a *Action) Scoreable() bool {
	switch a.Type {
	case ActionButton:
		return a.IsCorrectButton()
	case ActionTextInput:
		return !a.IsDecoy()
	default:
		return false
	}
}

// EffectiveMode resolves the scoring mode, defaulting to exact and folding
// the legacy text_cursor alias into exact.
func (a *Action) EffectiveMode() ScoringMode {
	switch a.ScoringMode {
	case ScoringContains, ScoringRegex, ScoringSimilarity:
		return a.ScoringMode
	default:
		return ScoringExact
	}
}

// EffectiveOnError resolves the error policy, defaulting to show_message.
func (a *Action) EffectiveOnError() OnErrorAction {
	switch a.OnError {
	case OnErrorNextStep, OnErrorEndExercise:
		return a.OnError
	default:
		return OnErrorShowMessage
	}
}

// EffectiveMaxAttempts resolves the additional-attempt allowance after the
// first failure. Absent means one additional attempt.
func (a *Action) EffectiveMaxAttempts() int {
	if a.MaxAttempts == nil || *a.MaxAttempts < 0 {
		return 1
	}
	return *a.MaxAttempts
}

// Action returns the action with the given ID within the step.
func (s *Step) Action(id string) (*Action, bool) {
	for i := range s.Actions {
		if s.Actions[i].ID == id {
			return &s.Actions[i], true
		}
	}
	return nil, false
}

// Validate checks the definition is playable. A zero-step exercise is a
// configuration error and must be rejected before a session starts.
func (e *Exercise) Validate() error {
	if e.ID == "" {
		return ErrMissingID
	}
	if len(e.Steps) == 0 {
		return ErrNoSteps
	}
	return nil
}

// LastStepIndex returns the index of the final step.
func (e *Exercise) LastStepIndex() int {
	return len(e.Steps) - 1
}
