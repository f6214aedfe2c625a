package session

import (
	"errors"
	"testing"

	"github.com/certlearn/stepwise/internal/domain"
)

func intPtr(n int) *int { return &n }

// twoStepExercise: step one has a correct button and a distractor, step
// two an exact-match text input.
func twoStepExercise() *domain.Exercise {
	return &domain.Exercise{
		ID: "ex-1",
		Steps: []domain.Step{
			{
				ID: "s1", StepNumber: 1, ImageURL: "s1.png",
				Actions: []domain.Action{
					{ID: "ok", Type: domain.ActionButton, CorrectAnswer: "true"},
					{ID: "nope", Type: domain.ActionButton, CorrectAnswer: "false",
						ErrorMessage: "not that one", OnError: domain.OnErrorShowMessage, MaxAttempts: intPtr(1)},
				},
			},
			{
				ID: "s2", StepNumber: 2, ImageURL: "s2.png",
				Actions: []domain.Action{
					{ID: "answer", Type: domain.ActionTextInput, CorrectAnswer: "42",
						ScoringMode: domain.ScoringExact, OnError: domain.OnErrorNextStep},
				},
			},
		},
	}
}

func startedSession(t *testing.T, ex *domain.Exercise) *Session {
	t.Helper()
	sess := New(ex.ID, "learner-1")
	if sess.Status != StatusNotStarted {
		t.Fatalf("new session status = %q, want not_started", sess.Status)
	}
	if err := sess.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return sess
}

func TestSession_PerfectRun(t *testing.T) {
	ex := twoStepExercise()
	sess := startedSession(t, ex)

	result, err := sess.SubmitButton(ex, 0, "ok")
	if err != nil {
		t.Fatalf("SubmitButton() error = %v", err)
	}
	if result.Outcome != domain.OutcomeCorrect || !result.Advanced {
		t.Errorf("result = %+v, want correct and advanced", result)
	}
	if sess.CurrentStepIndex != 1 {
		t.Errorf("current step = %d, want 1", sess.CurrentStepIndex)
	}

	result, err = sess.SubmitText(ex, 1, "answer", "42")
	if err != nil {
		t.Fatalf("SubmitText() error = %v", err)
	}
	if result.Final == nil {
		t.Fatal("final score not set on last step")
	}
	if result.Final.Score != 2 || result.Final.MaxScore != 2 || result.Final.Percentage != 100 {
		t.Errorf("final = %+v, want 2/2 (100%%)", result.Final)
	}
	if !result.Final.Completed {
		t.Error("100% must mark completion")
	}
	if sess.Status != StatusCompleted {
		t.Errorf("status = %q, want completed", sess.Status)
	}
}

func TestSession_DistractorThenRecovery(t *testing.T) {
	ex := twoStepExercise()
	sess := startedSession(t, ex)

	// Distractor click: show_message with one additional attempt allowed.
	result, err := sess.SubmitButton(ex, 0, "nope")
	if err != nil {
		t.Fatalf("SubmitButton() error = %v", err)
	}
	if !result.Retry || result.ErrorMessage != "not that one" {
		t.Errorf("result = %+v, want retry with configured message", result)
	}
	if result.AttemptsRemaining != 1 {
		t.Errorf("attempts remaining = %d, want 1", result.AttemptsRemaining)
	}
	if sess.CurrentStepIndex != 0 {
		t.Errorf("retry must not advance, step = %d", sess.CurrentStepIndex)
	}

	// Then the correct button, then a wrong answer on the text step which
	// advances under next_step.
	if _, err := sess.SubmitButton(ex, 0, "ok"); err != nil {
		t.Fatalf("SubmitButton() error = %v", err)
	}
	result, err = sess.SubmitText(ex, 1, "answer", "41")
	if err != nil {
		t.Fatalf("SubmitText() error = %v", err)
	}

	if result.Final == nil {
		t.Fatal("final score not set")
	}
	if result.Final.Score != 1 || result.Final.MaxScore != 2 || result.Final.Percentage != 50 {
		t.Errorf("final = %+v, want 1/2 (50%%)", result.Final)
	}
	if result.Final.Completed {
		t.Error("50% must not mark completion")
	}
}

func TestSession_EndExerciseShortCircuit(t *testing.T) {
	ex := &domain.Exercise{
		ID: "ex-terminate",
		Steps: []domain.Step{
			{ID: "s1", StepNumber: 1, Actions: []domain.Action{
				{ID: "a", Type: domain.ActionTextInput, CorrectAnswer: "secret",
					ScoringMode: domain.ScoringExact, OnError: domain.OnErrorEndExercise},
			}},
			{ID: "s2", StepNumber: 2, Actions: []domain.Action{
				{ID: "a", Type: domain.ActionButton, CorrectAnswer: "true"},
			}},
			{ID: "s3", StepNumber: 3, Actions: []domain.Action{
				{ID: "a", Type: domain.ActionTextInput, CorrectAnswer: "x", ScoringMode: domain.ScoringExact},
			}},
		},
	}
	sess := startedSession(t, ex)

	result, err := sess.SubmitText(ex, 0, "a", "wrong guess")
	if err != nil {
		t.Fatalf("SubmitText() error = %v", err)
	}

	if sess.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed after end_exercise", sess.Status)
	}
	if result.Final == nil {
		t.Fatal("final score not set")
	}
	// Unreached steps keep their weight in the denominator.
	if result.Final.MaxScore != 3 || result.Final.Score != 0 {
		t.Errorf("final = %+v, want 0/3", result.Final)
	}
}

func TestSession_AttemptsExhaustion(t *testing.T) {
	ex := &domain.Exercise{
		ID: "ex-retry",
		Steps: []domain.Step{
			{ID: "s1", StepNumber: 1, Actions: []domain.Action{
				{ID: "a", Type: domain.ActionTextInput, CorrectAnswer: "Madrid",
					ScoringMode: domain.ScoringExact, ErrorMessage: "nope",
					OnError: domain.OnErrorShowMessage, MaxAttempts: intPtr(2)},
			}},
			{ID: "s2", StepNumber: 2, Actions: []domain.Action{
				{ID: "a", Type: domain.ActionButton, CorrectAnswer: "true"},
			}},
		},
	}
	sess := startedSession(t, ex)

	// First two incorrect submissions stay on the step.
	for i := 0; i < 2; i++ {
		result, err := sess.SubmitText(ex, 0, "a", "Lisbon")
		if err != nil {
			t.Fatalf("submission %d error = %v", i+1, err)
		}
		if !result.Retry {
			t.Fatalf("submission %d: expected retry, got %+v", i+1, result)
		}
	}

	// Third advances regardless of correctness.
	result, err := sess.SubmitText(ex, 0, "a", "Lisbon")
	if err != nil {
		t.Fatalf("third submission error = %v", err)
	}
	if result.Retry || !result.Advanced {
		t.Errorf("third failure must advance, got %+v", result)
	}
	if sess.CurrentStepIndex != 1 {
		t.Errorf("current step = %d, want 1", sess.CurrentStepIndex)
	}

	// The exhausted incorrect response is recorded.
	resp, ok := sess.Responses[domain.Key("s1", "a")]
	if !ok || resp.Outcome != domain.OutcomeIncorrect || resp.Text != "Lisbon" {
		t.Errorf("recorded response = %+v, %v", resp, ok)
	}
}

func TestSession_SimilarityNeverBlocks(t *testing.T) {
	ex := &domain.Exercise{
		ID: "ex-sim",
		Steps: []domain.Step{
			{ID: "s1", StepNumber: 1, Actions: []domain.Action{
				{ID: "a", Type: domain.ActionTextInput, CorrectAnswer: "Paris",
					ScoringMode: domain.ScoringSimilarity},
			}},
		},
	}
	sess := startedSession(t, ex)

	result, err := sess.SubmitText(ex, 0, "a", "Pariss")
	if err != nil {
		t.Fatalf("SubmitText() error = %v", err)
	}
	if result.Outcome != domain.OutcomeAccepted || !result.Advanced {
		t.Errorf("result = %+v, want accepted and advanced", result)
	}
	if result.Similarity != 83 {
		t.Errorf("similarity = %d, want 83", result.Similarity)
	}
	if result.Final == nil || result.Final.Score != 0.83 {
		t.Errorf("final = %+v, want score 0.83 from stored similarity", result.Final)
	}
}

func TestSession_GuardsAndRestart(t *testing.T) {
	ex := twoStepExercise()
	sess := New(ex.ID, "learner-1")

	// Not started yet.
	if _, err := sess.SubmitButton(ex, 0, "ok"); !errors.Is(err, ErrNotActive) {
		t.Errorf("submit before start: error = %v, want ErrNotActive", err)
	}
	if err := sess.Restart(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("restart before start: error = %v, want ErrNotStarted", err)
	}

	if err := sess.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := sess.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("double start: error = %v, want ErrAlreadyStarted", err)
	}

	// Submissions must target the current step.
	if _, err := sess.SubmitText(ex, 1, "answer", "42"); !errors.Is(err, ErrStepMismatch) {
		t.Errorf("future step: error = %v, want ErrStepMismatch", err)
	}
	if _, err := sess.SubmitButton(ex, 0, "missing"); !errors.Is(err, ErrActionNotFound) {
		t.Errorf("unknown action: error = %v, want ErrActionNotFound", err)
	}
	if _, err := sess.SubmitText(ex, 0, "ok", "x"); !errors.Is(err, ErrActionMismatch) {
		t.Errorf("text submit on button: error = %v, want ErrActionMismatch", err)
	}

	// Play to completion, then verify the terminal state and restart.
	if _, err := sess.SubmitButton(ex, 0, "ok"); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.SubmitText(ex, 1, "answer", "42"); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.SubmitText(ex, 1, "answer", "42"); !errors.Is(err, ErrNotActive) {
		t.Errorf("submit after completion: error = %v, want ErrNotActive", err)
	}

	if err := sess.Restart(); err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	if sess.Status != StatusPlaying || sess.CurrentStepIndex != 0 {
		t.Errorf("after restart: status=%q step=%d", sess.Status, sess.CurrentStepIndex)
	}
	if len(sess.Responses) != 0 || len(sess.Attempts) != 0 || len(sess.StepCompleted) != 0 {
		t.Error("restart must clear responses, attempts, and step completion")
	}
	if sess.FinalScore != nil {
		t.Error("restart must clear the final score")
	}
}

func TestStore(t *testing.T) {
	store := NewStore()
	sess := New("ex-1", "learner-1")

	store.Save(sess)
	if got, err := store.Get(sess.ID); err != nil || got.ID != sess.ID {
		t.Errorf("Get() = %v, %v", got, err)
	}
	if store.Count() != 1 {
		t.Errorf("Count() = %d, want 1", store.Count())
	}

	if err := store.Delete(sess.ID); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, err := store.Get(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete: error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() missing: error = %v, want ErrNotFound", err)
	}
}
