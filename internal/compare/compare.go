package compare

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"erhsim/domain/action"
	"erhsim/domain/core"
	domstats "erhsim/domain/stats"
	"erhsim/internal/growth"
	"erhsim/internal/primes"
)

// Ranking metrics
const (
	MetricMAE               = "mae"
	MetricRMSE              = "rmse"
	MetricExponentDeviation = "exponent_deviation"
	MetricHypothesis        = "hypothesis_satisfied"
)

// Metrics returns the supported ranking metric names in ascending order.
func Metrics() []string {
	return []string{MetricExponentDeviation, MetricHypothesis, MetricMAE, MetricRMSE}
}

// Config fixes the shared pipeline parameters for a comparison: every judge
// is measured with the same selector, horizon, and baseline.
type Config struct {
	Selector         primes.SelectorConfig `json:"selector"`
	XMax             int                   `json:"x_max"`
	Baseline         primes.BaselineConfig `json:"baseline"`
	ExpectedExponent float64               `json:"expected_exponent,omitempty"`
}

// DefaultConfig returns the standard comparison setup
func DefaultConfig() Config {
	return Config{
		Selector:         primes.DefaultSelectorConfig(),
		XMax:             100,
		Baseline:         primes.DefaultBaselineConfig(),
		ExpectedExponent: 0.5,
	}
}

// Judges computes per-judge metrics for a batch of evaluated populations.
// A judge whose pipeline degenerates (zero selected primes) gets a marker
// row; the batch itself only fails on configuration errors.
func Judges(resultsByName map[string][]action.Action, cfg Config) (domstats.Comparison, error) {
	cmp := domstats.Comparison{
		Judges:        make(map[string]domstats.JudgeMetrics, len(resultsByName)),
		XMax:          cfg.XMax,
		BaselineModel: cfg.Baseline.Model,
		CreatedAt:     core.Now(),
	}

	names := make([]string, 0, len(resultsByName))
	for name := range resultsByName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		row, err := JudgeRow(name, resultsByName[name], cfg)
		if err != nil {
			return domstats.Comparison{}, err
		}
		cmp.Judges[name] = row
	}
	return cmp, nil
}

// JudgeRow runs one judged population through selection, counting, and
// growth estimation, collapsing the outcome into a single metrics row.
func JudgeRow(name string, judged []action.Action, cfg Config) (domstats.JudgeMetrics, error) {
	row := domstats.JudgeMetrics{
		Judge:       name,
		NumActions:  len(judged),
		NumMistakes: len(action.Mistakes(judged)),
	}

	selected, err := primes.Select(judged, cfg.Selector)
	if err != nil {
		return domstats.JudgeMetrics{}, fmt.Errorf("judge %s: %w", name, err)
	}
	if len(selected) == 0 {
		row.Err = domstats.MarkerNoPrimesFound
		return row, nil
	}

	series, err := primes.ComputeSeries(selected, cfg.XMax, cfg.Baseline)
	if err != nil {
		return domstats.JudgeMetrics{}, fmt.Errorf("judge %s: %w", name, err)
	}
	fit := growth.Analyze(series, cfg.ExpectedExponent)

	row.NumPrimes = len(selected)
	if row.NumActions > 0 {
		row.PrimeRatio = float64(row.NumPrimes) / float64(row.NumActions)
		row.MistakeRate = float64(row.NumMistakes) / float64(row.NumActions)
	}

	absDeltas := make([]float64, 0, len(judged))
	squares := make([]float64, 0, len(judged))
	for _, a := range judged {
		if !a.Judged {
			continue
		}
		absDeltas = append(absDeltas, math.Abs(a.Delta))
		squares = append(squares, a.Delta*a.Delta)
	}
	if len(absDeltas) > 0 {
		row.MAE, _ = stats.Mean(absDeltas)
		meanSq, _ := stats.Mean(squares)
		row.RMSE = math.Sqrt(meanSq)
	}

	row.MaxAbsError = fit.MaxAbsError
	row.MeanAbsError = fit.MeanAbsError
	row.Exponent = fit.Exponent
	row.Deviation = fit.Deviation
	row.HypothesisSatisfied = fit.HypothesisSatisfied
	row.Classification = fit.Classification
	row.RSquared = fit.RSquared
	return row, nil
}

// Rank orders judge names by one metric. Lower is better for mae, rmse, and
// exponent_deviation; hypothesis_satisfied puts satisfied judges first.
// Judges carrying an error marker always rank last. Ties break by ascending
// judge name.
func Rank(cmp domstats.Comparison, metric string) (domstats.Ranking, error) {
	lowerBetter := false
	switch metric {
	case MetricMAE, MetricRMSE, MetricExponentDeviation:
		lowerBetter = true
	case MetricHypothesis:
	default:
		return domstats.Ranking{}, fmt.Errorf("%w: %q", core.ErrUnknownMetric, metric)
	}

	names := cmp.Names()
	sort.SliceStable(names, func(a, b int) bool {
		ra, rb := cmp.Judges[names[a]], cmp.Judges[names[b]]
		if (ra.Err == "") != (rb.Err == "") {
			return ra.Err == ""
		}
		if ra.Err != "" {
			return names[a] < names[b]
		}

		va, vb := metricValue(ra, metric), metricValue(rb, metric)
		// NaN metrics (insufficient-data fits) rank behind real numbers
		if math.IsNaN(va) != math.IsNaN(vb) {
			return !math.IsNaN(va)
		}
		if math.IsNaN(va) || va == vb {
			return names[a] < names[b]
		}
		if lowerBetter {
			return va < vb
		}
		return va > vb
	})

	return domstats.Ranking{Metric: metric, LowerBetter: lowerBetter, Order: names}, nil
}

func metricValue(row domstats.JudgeMetrics, metric string) float64 {
	switch metric {
	case MetricMAE:
		return row.MAE
	case MetricRMSE:
		return row.RMSE
	case MetricExponentDeviation:
		return row.Deviation
	default: // MetricHypothesis
		if row.HypothesisSatisfied {
			return 1
		}
		return 0
	}
}
