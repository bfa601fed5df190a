package primes

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"erhsim/domain/action"
	"erhsim/domain/core"
)

// Selection strategies
const (
	StrategyImportance = "importance"
	StrategyComplexity = "complexity"
	StrategyHybrid     = "hybrid"
)

// Strategies returns the supported strategy names in ascending order.
func Strategies() []string {
	return []string{StrategyComplexity, StrategyHybrid, StrategyImportance}
}

// SelectorConfig configures the ethical prime selection
type SelectorConfig struct {
	ImportanceQuantile float64 `json:"importance_quantile"` // keep the top (1-q) fraction
	Strategy           string  `json:"strategy"`
	ComplexityRange    *[2]int `json:"complexity_range,omitempty"` // explicit range disables auto-trim
}

// DefaultSelectorConfig returns the standard selection setup
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		ImportanceQuantile: 0.9,
		Strategy:           StrategyImportance,
	}
}

// Select filters the judged population down to its ethical primes: mistakes,
// restricted to a complexity window, ranked by the strategy score, top
// (1 - quantile) fraction kept with at least one survivor. Ties keep the
// original population order. Returns value copies; the caller's population
// is never reordered.
func Select(actions []action.Action, cfg SelectorConfig) ([]action.Action, error) {
	if cfg.ImportanceQuantile < 0 || cfg.ImportanceQuantile >= 1 {
		return nil, core.NewConfigError("importance_quantile", fmt.Sprintf("must be in [0, 1), got %g", cfg.ImportanceQuantile))
	}
	switch cfg.Strategy {
	case StrategyImportance, StrategyComplexity, StrategyHybrid:
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownStrategy, cfg.Strategy)
	}
	if cfg.ComplexityRange != nil && cfg.ComplexityRange[0] > cfg.ComplexityRange[1] {
		return nil, core.NewRangeError("complexity_range", float64(cfg.ComplexityRange[0]), float64(cfg.ComplexityRange[1]))
	}

	mistakes := action.Mistakes(actions)
	if len(mistakes) == 0 {
		return []action.Action{}, nil
	}

	mistakes = restrictComplexity(mistakes, cfg.ComplexityRange)
	if len(mistakes) == 0 {
		return []action.Action{}, nil
	}

	scores := scoreMistakes(mistakes, cfg.Strategy)

	order := make([]int, len(mistakes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	cutoff := int(float64(len(mistakes)) * (1 - cfg.ImportanceQuantile))
	if cutoff < 1 {
		cutoff = 1
	}

	selected := make([]action.Action, cutoff)
	for i := 0; i < cutoff; i++ {
		selected[i] = mistakes[order[i]]
	}
	return selected, nil
}

// restrictComplexity applies the explicit range when given; otherwise trims
// to the inner 80% of the mistake complexity distribution. Auto-trim is
// skipped below 10 mistakes, where decile cuts are meaningless.
func restrictComplexity(mistakes []action.Action, rng *[2]int) []action.Action {
	var lo, hi int
	switch {
	case rng != nil:
		lo, hi = rng[0], rng[1]
	case len(mistakes) >= 10:
		sorted := make([]int, len(mistakes))
		for i, a := range mistakes {
			sorted[i] = a.Complexity
		}
		sort.Ints(sorted)
		n := len(sorted)
		lo, hi = sorted[n/10], sorted[9*n/10]
	default:
		return mistakes
	}

	kept := make([]action.Action, 0, len(mistakes))
	for _, a := range mistakes {
		if a.Complexity >= lo && a.Complexity <= hi {
			kept = append(kept, a)
		}
	}
	return kept
}

// scoreMistakes computes the strategy score for each remaining mistake.
func scoreMistakes(mistakes []action.Action, strategy string) []float64 {
	scores := make([]float64, len(mistakes))

	switch strategy {
	case StrategyImportance:
		for i, a := range mistakes {
			scores[i] = a.Importance
		}

	case StrategyComplexity:
		median, _ := stats.Median(action.Complexities(mistakes))
		maxW := action.MaxImportance(mistakes)
		for i, a := range mistakes {
			closeness := 1.0 / (1.0 + math.Abs(float64(a.Complexity)-median)/median)
			weight := 0.0
			if maxW > 0 {
				weight = a.Importance / maxW
			}
			scores[i] = 0.3*closeness + 0.7*weight
		}

	case StrategyHybrid:
		maxW := action.MaxImportance(mistakes)
		maxDelta := 0.0
		for _, a := range mistakes {
			if d := math.Abs(a.Delta); d > maxDelta {
				maxDelta = d
			}
		}
		for i, a := range mistakes {
			weight, severity := 0.0, 0.0
			if maxW > 0 {
				weight = a.Importance / maxW
			}
			if maxDelta > 0 {
				severity = math.Abs(a.Delta) / maxDelta
			}
			scores[i] = 0.7*weight + 0.3*severity
		}
	}

	return scores
}
