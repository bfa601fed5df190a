package stats

import (
	"encoding/json"
	"sort"

	"erhsim/domain/core"
)

// JudgeMetrics is one judge's row in a comparison. A degenerate judge (no
// selected primes) carries the MarkerNoPrimesFound in Err plus its mistake
// count; the numeric fields are zero and must not be interpreted.
type JudgeMetrics struct {
	Judge       string `json:"judge"`
	NumActions  int    `json:"num_actions"`
	NumMistakes int    `json:"num_mistakes"`
	NumPrimes   int    `json:"num_primes"`

	PrimeRatio  float64 `json:"prime_ratio"`
	MistakeRate float64 `json:"mistake_rate"`
	MAE         float64 `json:"mae"`
	RMSE        float64 `json:"rmse"`

	MaxAbsError         float64 `json:"max_error"`
	MeanAbsError        float64 `json:"mean_error"`
	Exponent            float64 `json:"estimated_exponent"`
	Deviation           float64 `json:"deviation_from_expected"`
	HypothesisSatisfied bool    `json:"hypothesis_satisfied"`
	Classification      string  `json:"growth_rate"`
	RSquared            float64 `json:"r_squared"`

	Err string `json:"error,omitempty"`
}

// MarshalJSON renders NaN fit fields as null so degenerate rows stay
// serializable.
func (m JudgeMetrics) MarshalJSON() ([]byte, error) {
	type alias JudgeMetrics
	return json.Marshal(struct {
		alias
		Exponent  interface{} `json:"estimated_exponent"`
		Deviation interface{} `json:"deviation_from_expected"`
	}{alias(m), jsonFloat(m.Exponent), jsonFloat(m.Deviation)})
}

// Comparison maps judge name to metrics for one shared population setup.
type Comparison struct {
	Judges        map[string]JudgeMetrics `json:"judges"`
	XMax          int                     `json:"x_max"`
	BaselineModel string                  `json:"baseline_model"`
	Tau           float64                 `json:"tau"`
	Seed          int64                   `json:"seed"`
	CreatedAt     core.Timestamp          `json:"created_at"`
}

// Names returns the judge names in ascending order, the canonical iteration
// order for reports and rankings.
func (c *Comparison) Names() []string {
	names := make([]string, 0, len(c.Judges))
	for name := range c.Judges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ranking orders judge names by one metric. Polarity is fixed per metric
// and recorded so consumers need not re-derive it.
type Ranking struct {
	Metric      string   `json:"metric"`
	LowerBetter bool     `json:"lower_better"`
	Order       []string `json:"order"`
}

// BiasBin is one complexity bucket in a structural bias probe.
type BiasBin struct {
	Lo           float64 `json:"lo"`
	Hi           float64 `json:"hi"`
	Count        int     `json:"count"`
	MeanAbsDelta float64 `json:"mean_abs_delta"`
	StdAbsDelta  float64 `json:"std_abs_delta"`
}

// BiasAnalysis reports whether judgment error correlates with complexity.
type BiasAnalysis struct {
	Correlation    float64   `json:"correlation"`
	PValue         float64   `json:"p_value"`
	NumActions     int       `json:"num_actions"`
	Bins           []BiasBin `json:"bins,omitempty"`
	MonotonicTrend bool      `json:"monotonic_trend"`
	Interpretation string    `json:"interpretation"`
	Err            string    `json:"error,omitempty"`
}
