package world

import (
	"math"

	"github.com/montanaflynn/stats"

	"erhsim/domain/action"
	domstats "erhsim/domain/stats"
)

// Describe summarizes a population. Judgment metrics (mistake rate, MAE,
// RMSE) are computed over judged actions only and stay zero for a fresh
// population.
func Describe(actions []action.Action) domstats.PopulationStats {
	ps := domstats.PopulationStats{NumActions: len(actions)}
	if len(actions) == 0 {
		return ps
	}

	complexities := action.Complexities(actions)
	importances := make([]float64, len(actions))
	for i, a := range actions {
		importances[i] = a.Importance
	}

	ps.ComplexityMin, _ = stats.Min(complexities)
	ps.ComplexityMax, _ = stats.Max(complexities)
	ps.ComplexityMean, _ = stats.Mean(complexities)
	ps.ComplexityMedian, _ = stats.Median(complexities)
	ps.ImportanceMean, _ = stats.Mean(importances)
	ps.ImportanceMax, _ = stats.Max(importances)

	var absDeltas []float64
	var squares []float64
	for _, a := range actions {
		if !a.Judged {
			continue
		}
		ps.NumJudged++
		if a.Mistake {
			ps.NumMistakes++
		}
		absDeltas = append(absDeltas, math.Abs(a.Delta))
		squares = append(squares, a.Delta*a.Delta)
	}
	if ps.NumJudged > 0 {
		ps.MistakeRate = float64(ps.NumMistakes) / float64(ps.NumJudged)
		ps.MAE, _ = stats.Mean(absDeltas)
		meanSq, _ := stats.Mean(squares)
		ps.RMSE = math.Sqrt(meanSq)
	}
	return ps
}
