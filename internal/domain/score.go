package domain

import "math"

// CompletionThreshold is the percentage required to mark an exercise as
// completed for progress-tracking purposes.
const CompletionThreshold = 80

// ResponseKey identifies a recorded response. Action IDs are only unique
// within a step, so the key is the (stepID, actionID) pair synthesized
// into one string.
type ResponseKey string

// Key builds the composite response key for a step/action pair.
func Key(stepID, actionID string) ResponseKey {
	return ResponseKey(stepID + "/" + actionID)
}

// Response is the recorded value for one resolved action.
type Response struct {
	// Clicked is set for buttons: the click triggered evaluation.
	Clicked bool `json:"clicked,omitempty"`
	// Text is the raw submitted value for text inputs.
	Text string `json:"text,omitempty"`
	// Similarity is the percentage observed at submission time for
	// similarity-scored inputs.
	Similarity int `json:"similarity,omitempty"`
	// Outcome is the verdict recorded at resolution time.
	Outcome Outcome `json:"outcome"`
}

// ScoreResult is the final score of a play-through.
type ScoreResult struct {
	Score      float64 `json:"score"`
	MaxScore   int     `json:"maxScore"`
	Percentage int     `json:"percentage"`
	Completed  bool    `json:"completed"`
}

// Aggregate walks every step and action in definition order and computes
// the final score over the response map. Actions never reached contribute
// zero credit but still count toward the max score when scoreable. Pure
// and idempotent: safe to call on early termination with a partial map.
func Aggregate(ex *Exercise, responses map[ResponseKey]Response) ScoreResult {
	var result ScoreResult

	for si := range ex.Steps {
		step := &ex.Steps[si]
		for ai := range step.Actions {
			action := &step.Actions[ai]
			if !action.Scoreable() {
				continue
			}
			result.MaxScore++

			resp, ok := responses[Key(step.ID, action.ID)]
			if !ok {
				continue
			}

			switch action.Type {
			case ActionButton:
				if resp.Clicked {
					result.Score++
				}
			case ActionTextInput:
				if action.EffectiveMode() == ScoringSimilarity {
					// Use the value observed at submission time.
					result.Score += float64(resp.Similarity) / 100
					continue
				}
				if eval := Evaluate(action, resp.Text); eval.Outcome == OutcomeCorrect {
					result.Score++
				}
			}
		}
	}

	if result.MaxScore > 0 {
		result.Percentage = int(math.Round(result.Score / float64(result.MaxScore) * 100))
	}
	result.Completed = result.Percentage >= CompletionThreshold

	return result
}
