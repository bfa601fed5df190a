package judge

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"

	"erhsim/domain/action"
	"erhsim/domain/core"
)

// EvaluateActions runs one judge over the whole population, annotating
// every action in place: Predicted, Delta, Mistake, Judged. The mistake
// flag is set only when |delta| strictly exceeds tau; |delta| equal to tau
// is not a mistake. Re-running overwrites prior annotations. Reproducible
// for a fixed (judge, tau, seed) triple.
func EvaluateActions(actions []action.Action, j Judge, tau float64, seed int64) error {
	if err := validateTau(tau); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(seed))
	for i := range actions {
		a := &actions[i]
		a.Predicted = j.Evaluate(a.MoralValue, a.Complexity, rng)
		a.Delta = a.Predicted - a.MoralValue
		a.Mistake = math.Abs(a.Delta) > tau
		a.Judged = true
	}
	return nil
}

// BatchEvaluate runs every judge in the panel against its own copy of the
// population. Each judge's RNG seed is derived from the base seed and the
// judge's name alone, so changing the panel composition leaves the other
// judges' noise streams untouched.
func BatchEvaluate(actions []action.Action, judges map[string]Judge, tau float64, seed int64) (map[string][]action.Action, error) {
	if err := validateTau(tau); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(judges))
	for name := range judges {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string][]action.Action, len(judges))
	for _, name := range names {
		copied := action.Clone(actions)
		if err := EvaluateActions(copied, judges[name], tau, DeriveSeed(seed, name)); err != nil {
			return nil, err
		}
		results[name] = copied
	}
	return results, nil
}

func validateTau(tau float64) error {
	if math.IsNaN(tau) || tau < 0 {
		return fmt.Errorf("%w: tau must be in [0, +inf), got %g", core.ErrInvalidThreshold, tau)
	}
	return nil
}

// DeriveSeed folds a judge name into the base seed via FNV-1a. Callers
// evaluating judges outside BatchEvaluate use it to land on the same
// noise streams.
func DeriveSeed(seed int64, name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return seed ^ int64(h.Sum64())
}
