package compare

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"erhsim/domain/action"
	"erhsim/domain/core"
	domstats "erhsim/domain/stats"
)

// Minimum judged actions for a meaningful correlation probe.
const minBiasSample = 10

// StructuralBias probes whether a judge's error magnitude depends on
// problem complexity: Pearson correlation between c and |delta| with a
// Student-t p-value, plus per-bin error summaries across the complexity
// range. Too few judged actions yields a marker result, not an error.
func StructuralBias(judged []action.Action, numBins int) (*domstats.BiasAnalysis, error) {
	if numBins < 1 {
		return nil, core.NewConfigError("num_bins", fmt.Sprintf("must be >= 1, got %d", numBins))
	}

	var cs, ds []float64
	for _, a := range judged {
		if !a.Judged {
			continue
		}
		cs = append(cs, float64(a.Complexity))
		ds = append(ds, math.Abs(a.Delta))
	}

	ba := &domstats.BiasAnalysis{NumActions: len(cs)}
	if len(cs) < minBiasSample {
		ba.Err = domstats.MarkerInsufficientData
		ba.Interpretation = "too few judged actions for a bias estimate"
		return ba, nil
	}

	r := stat.Correlation(cs, ds, nil)
	if math.IsNaN(r) {
		// constant error or constant complexity has no detectable trend
		r = 0
	}
	ba.Correlation = r
	ba.PValue = correlationPValue(r, len(cs))
	ba.Bins = binErrors(cs, ds, numBins)
	ba.MonotonicTrend = monotonicMeans(ba.Bins)
	ba.Interpretation = interpretBias(r, ba.PValue)
	return ba, nil
}

// correlationPValue is the two-sided Student-t test for a Pearson r.
func correlationPValue(r float64, n int) float64 {
	if n < 3 {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	t := r * math.Sqrt(float64(n-2)/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	return 2 * (1 - dist.CDF(math.Abs(t)))
}

// binErrors buckets |delta| by complexity into numBins equal-width bins.
func binErrors(cs, ds []float64, numBins int) []domstats.BiasBin {
	minC, _ := stats.Min(cs)
	maxC, _ := stats.Max(cs)
	width := (maxC - minC) / float64(numBins)
	if width == 0 {
		width = 1
	}

	bins := make([]domstats.BiasBin, numBins)
	values := make([][]float64, numBins)
	for i := range bins {
		bins[i].Lo = minC + float64(i)*width
		bins[i].Hi = bins[i].Lo + width
	}
	for i, c := range cs {
		idx := int((c - minC) / width)
		if idx >= numBins {
			idx = numBins - 1
		}
		values[idx] = append(values[idx], ds[i])
	}
	for i := range bins {
		bins[i].Count = len(values[i])
		if len(values[i]) > 0 {
			bins[i].MeanAbsDelta, _ = stats.Mean(values[i])
			bins[i].StdAbsDelta, _ = stats.StandardDeviation(values[i])
		}
	}
	return bins
}

// monotonicMeans reports whether the non-empty bin means move in one
// direction across the complexity range.
func monotonicMeans(bins []domstats.BiasBin) bool {
	var means []float64
	for _, b := range bins {
		if b.Count > 0 {
			means = append(means, b.MeanAbsDelta)
		}
	}
	if len(means) < 2 {
		return false
	}
	increasing, decreasing := true, true
	for i := 1; i < len(means); i++ {
		if means[i] < means[i-1] {
			increasing = false
		}
		if means[i] > means[i-1] {
			decreasing = false
		}
	}
	return increasing || decreasing
}

func interpretBias(r, p float64) string {
	if p >= 0.05 {
		return fmt.Sprintf("no significant complexity bias (r=%.3f, p=%.3f)", r, p)
	}
	direction := "increases"
	if r < 0 {
		direction = "decreases"
	}
	strength := "weak"
	switch {
	case math.Abs(r) >= 0.5:
		strength = "strong"
	case math.Abs(r) >= 0.3:
		strength = "moderate"
	}
	return fmt.Sprintf("judgment error %s with complexity (%s, r=%.3f, p=%.3f)", direction, strength, r, p)
}
