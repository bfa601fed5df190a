package action

import (
	"erhsim/domain/core"
)

// Action is one synthetic decision problem in the generated world.
// Complexity, MoralValue, and Importance are fixed at generation time.
// The judgment annotations (Predicted, Delta, Mistake) are zero-valued with
// Judged == false until a judgment model evaluates the population; an
// evaluation pass sets all of them together, and a second pass overwrites
// them.
type Action struct {
	ID         core.ActionID `json:"id"`
	Complexity int           `json:"complexity"`  // c >= 1
	MoralValue float64       `json:"moral_value"` // m in [-1, 1], ground truth
	Importance float64       `json:"importance"`  // w > 0, heavy-tailed

	Predicted float64 `json:"predicted"` // judged moral value
	Delta     float64 `json:"delta"`     // predicted - moral_value
	Mistake   bool    `json:"mistake"`   // |delta| strictly above the threshold
	Judged    bool    `json:"judged"`
}

// Mistakes returns the judged actions flagged as mistakes, preserving order.
func Mistakes(actions []Action) []Action {
	out := make([]Action, 0, len(actions))
	for _, a := range actions {
		if a.Judged && a.Mistake {
			out = append(out, a)
		}
	}
	return out
}

// Clone returns an independent copy of the population. Evaluating a judge
// against a clone leaves the source annotations untouched.
func Clone(actions []Action) []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// Complexities extracts the complexity column as float64 for the stats layer.
func Complexities(actions []Action) []float64 {
	out := make([]float64, len(actions))
	for i, a := range actions {
		out[i] = float64(a.Complexity)
	}
	return out
}

// MaxImportance returns the largest importance weight, 0 for an empty slice.
func MaxImportance(actions []Action) float64 {
	max := 0.0
	for _, a := range actions {
		if a.Importance > max {
			max = a.Importance
		}
	}
	return max
}
