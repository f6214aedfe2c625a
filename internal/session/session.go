package session

import (
	"time"

	"github.com/certlearn/stepwise/internal/domain"
	"github.com/google/uuid"
)

// Status is the session state. A session is NotStarted until the learner
// presses start, Playing while a step is active, and Completed once the
// final score is fixed. Completed is terminal until an explicit restart.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusPlaying    Status = "playing"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// Session is one play-through of an exercise. It is an explicit value
// mutated only by the submit/start/restart transitions, so the engine can
// be exercised without any UI harness. In-progress state never survives
// the session; only the best completed score is persisted, elsewhere.
type Session struct {
	ID         string `json:"id"`
	ExerciseID string `json:"exercise_id"`
	LearnerID  string `json:"learner_id"`
	Status     Status `json:"status"`

	CurrentStepIndex int                                   `json:"current_step_index"`
	StepCompleted    map[int]bool                          `json:"step_completed"`
	Responses        map[domain.ResponseKey]domain.Response `json:"responses"`
	Attempts         map[domain.ResponseKey]int             `json:"attempts"`

	FinalScore *domain.ScoreResult `json:"final_score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmitResult is what a single submission produced: the verdict, the
// navigation effect, and the final score when the submission ended the
// exercise.
type SubmitResult struct {
	Outcome domain.Outcome `json:"outcome"`
	// Similarity is the percentage captured for similarity-scored inputs.
	Similarity int `json:"similarity,omitempty"`
	// Advanced is true when the submission resolved the step.
	Advanced bool `json:"advanced"`
	// StepIndex is the step the session is on after the submission.
	StepIndex int `json:"step_index"`
	// Retry is set when the learner stays on the step for another try.
	Retry             bool   `json:"retry,omitempty"`
	AttemptsRemaining int    `json:"attempts_remaining,omitempty"`
	ErrorMessage      string `json:"error_message,omitempty"`
	// Final is set when the submission completed the exercise.
	Final *domain.ScoreResult `json:"final,omitempty"`
}

// New creates a session for an exercise in the NotStarted state.
func New(exerciseID, learnerID string) *Session {
	now := time.Now()
	return &Session{
		ID:            uuid.New().String(),
		ExerciseID:    exerciseID,
		LearnerID:     learnerID,
		Status:        StatusNotStarted,
		StepCompleted: make(map[int]bool),
		Responses:     make(map[domain.ResponseKey]domain.Response),
		Attempts:      make(map[domain.ResponseKey]int),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Start moves the session into Playing at the first step.
func (s *Session) Start() error {
	if s.Status != StatusNotStarted {
		return ErrAlreadyStarted
	}
	s.Status = StatusPlaying
	s.CurrentStepIndex = 0
	s.UpdatedAt = time.Now()
	return nil
}

// Restart discards all play-through state and returns to Playing at step
// zero. This is the only way to replay.
func (s *Session) Restart() error {
	if s.Status == StatusNotStarted {
		return ErrNotStarted
	}
	s.StepCompleted = make(map[int]bool)
	s.Responses = make(map[domain.ResponseKey]domain.Response)
	s.Attempts = make(map[domain.ResponseKey]int)
	s.CurrentStepIndex = 0
	s.FinalScore = nil
	s.Status = StatusPlaying
	s.UpdatedAt = time.Now()
	return nil
}

// Abandon marks the session abandoned (learner navigated away). Partial
// progress is discarded by design.
func (s *Session) Abandon() {
	s.Status = StatusAbandoned
	s.UpdatedAt = time.Now()
}

// SubmitButton evaluates a button click on the current step.
func (s *Session) SubmitButton(ex *domain.Exercise, stepIndex int, actionID string) (*SubmitResult, error) {
	return s.submit(ex, stepIndex, actionID, domain.ActionButton, "")
}

// SubmitText evaluates a text submission on the current step.
func (s *Session) SubmitText(ex *domain.Exercise, stepIndex int, actionID, value string) (*SubmitResult, error) {
	return s.submit(ex, stepIndex, actionID, domain.ActionTextInput, value)
}

func (s *Session) submit(ex *domain.Exercise, stepIndex int, actionID string, wantType domain.ActionType, value string) (*SubmitResult, error) {
	if s.Status != StatusPlaying {
		return nil, ErrNotActive
	}
	// Backward navigation is a presentation affordance; resolved steps
	// are never re-evaluated.
	if stepIndex != s.CurrentStepIndex {
		return nil, ErrStepMismatch
	}

	step := &ex.Steps[stepIndex]
	action, ok := step.Action(actionID)
	if !ok {
		return nil, ErrActionNotFound
	}
	if action.Type != wantType {
		return nil, ErrActionMismatch
	}

	eval := domain.Evaluate(action, value)
	key := domain.Key(step.ID, action.ID)
	s.UpdatedAt = time.Now()

	if eval.Outcome != domain.OutcomeIncorrect {
		// Correct and accepted outcomes short-circuit the error policy.
		s.record(key, action, value, eval)
		return s.resolveStep(ex, eval), nil
	}

	s.Attempts[key]++
	decision := domain.ResolveFailure(action, s.Attempts[key])

	switch decision.Action {
	case domain.PolicyRetry:
		return &SubmitResult{
			Outcome:           eval.Outcome,
			StepIndex:         s.CurrentStepIndex,
			Retry:             true,
			AttemptsRemaining: decision.AttemptsRemaining,
			ErrorMessage:      decision.Message,
		}, nil

	case domain.PolicyTerminate:
		s.record(key, action, value, eval)
		s.StepCompleted[s.CurrentStepIndex] = true
		s.complete(ex)
		return &SubmitResult{
			Outcome:   eval.Outcome,
			StepIndex: s.CurrentStepIndex,
			Final:     s.FinalScore,
		}, nil

	default: // advance
		s.record(key, action, value, eval)
		return s.resolveStep(ex, eval), nil
	}
}

// record stores the response at resolution time. Retried failures update
// only the attempt counter.
func (s *Session) record(key domain.ResponseKey, action *domain.Action, value string, eval domain.Evaluation) {
	resp := domain.Response{Outcome: eval.Outcome}
	switch action.Type {
	case domain.ActionButton:
		resp.Clicked = true
	case domain.ActionTextInput:
		resp.Text = value
		resp.Similarity = eval.Similarity
	}
	s.Responses[key] = resp
}

// resolveStep marks the current step done and advances, completing the
// exercise if this was the last step.
func (s *Session) resolveStep(ex *domain.Exercise, eval domain.Evaluation) *SubmitResult {
	s.StepCompleted[s.CurrentStepIndex] = true

	result := &SubmitResult{
		Outcome:    eval.Outcome,
		Similarity: eval.Similarity,
		Advanced:   true,
	}

	if s.CurrentStepIndex == ex.LastStepIndex() {
		s.complete(ex)
	} else {
		s.CurrentStepIndex++
	}

	result.StepIndex = s.CurrentStepIndex
	result.Final = s.FinalScore
	return result
}

// complete fixes the final score and enters the terminal state.
func (s *Session) complete(ex *domain.Exercise) {
	s.Status = StatusCompleted
	final := domain.Aggregate(ex, s.Responses)
	s.FinalScore = &final
}

// Completed reports whether the session reached its terminal state.
func (s *Session) Completed() bool {
	return s.Status == StatusCompleted
}
