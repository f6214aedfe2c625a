package domain

// PolicyAction is what the engine does after an incorrect submission.
type PolicyAction string

const (
	// PolicyRetry keeps the learner on the step and surfaces the error
	// message with the remaining attempt count.
	PolicyRetry PolicyAction = "retry"
	// PolicyAdvance records the incorrect response and moves on.
	PolicyAdvance PolicyAction = "advance"
	// PolicyTerminate records the incorrect response and ends the whole
	// exercise, jumping straight to final scoring.
	PolicyTerminate PolicyAction = "terminate"
)

// PolicyDecision resolves a failure against the action's configured error
// behavior and attempt budget.
type PolicyDecision struct {
	Action PolicyAction
	// AttemptsRemaining is how many further submissions the learner may
	// make on this action. Zero on terminal decisions.
	AttemptsRemaining int
	// Message is the configured error message, surfaced on retry.
	Message string
}

// ResolveFailure decides the outcome of an incorrect submission.
// attemptsUsed is the number of incorrect submissions so far, including
// this one. The attempt allowance counts additional submissions after the
// first failure, so a show_message action retries while
// attemptsUsed <= maxAttempts and degrades to advance once exhausted.
// next_step and end_exercise never retry, whatever the attempt budget.
func ResolveFailure(action *Action, attemptsUsed int) PolicyDecision {
	switch action.EffectiveOnError() {
	case OnErrorNextStep:
		return PolicyDecision{Action: PolicyAdvance}
	case OnErrorEndExercise:
		return PolicyDecision{Action: PolicyTerminate}
	}

	maxAttempts := action.EffectiveMaxAttempts()
	if attemptsUsed <= maxAttempts {
		return PolicyDecision{
			Action:            PolicyRetry,
			AttemptsRemaining: maxAttempts - attemptsUsed + 1,
			Message:           action.ErrorMessage,
		}
	}

	// Exhausted: behave as if next_step had fired.
	return PolicyDecision{Action: PolicyAdvance}
}
