package stats

import (
	"encoding/json"
	"math"

	"erhsim/domain/core"
)

// ============================================================================
// STABLE PRIMITIVES (Canonical, never change)
// ============================================================================

// CountingSeries holds the counting function and its error term over
// x = 1..XMax. The four slices are parallel and index-aligned: entry i is
// x = i+1. INVARIANTS:
// - Pi is monotone non-decreasing
// - Err[i] == Pi[i] - Baseline[i] exactly (1e-9 tolerance)
// - Pi[XMax-1] equals the number of primes with complexity <= XMax
type CountingSeries struct {
	X        []float64 `json:"x"`
	Pi       []float64 `json:"pi"`
	Baseline []float64 `json:"baseline"`
	Err      []float64 `json:"error"`

	XMax          int    `json:"x_max"`
	BaselineModel string `json:"baseline_model"`
	NumPrimes     int    `json:"num_primes"`
}

// AbsErr returns |E(x)| for the full series.
func (s *CountingSeries) AbsErr() []float64 {
	out := make([]float64, len(s.Err))
	for i, e := range s.Err {
		out[i] = math.Abs(e)
	}
	return out
}

// Marker strings surfaced in result records for degenerate inputs. Callers
// check these before trusting numeric fields.
const (
	MarkerInsufficientData = "insufficient_data"
	MarkerNoPrimesFound    = "no_primes_found"
)

// Growth classifications, coarse bands over the estimated exponent.
const (
	GrowthSublinearSlow = "sublinear_slow" // alpha < 0.4
	GrowthSquareRoot    = "square_root"    // 0.4 <= alpha < 0.6
	GrowthSublinearFast = "sublinear_fast" // 0.6 <= alpha < 0.9
	GrowthLinear        = "linear"         // 0.9 <= alpha < 1.1
	GrowthSuperlinear   = "superlinear"    // alpha >= 1.1
)

// GrowthFit is the log-log regression result for |E(x)| ~ C * x^alpha.
// Immutable once produced. When Insufficient is set the exponent is NaN and
// only MaxAbsError/MeanAbsError carry information.
type GrowthFit struct {
	Exponent            float64 `json:"estimated_exponent"`
	Constant            float64 `json:"constant_c"`
	RSquared            float64 `json:"r_squared"`
	ExpectedExponent    float64 `json:"expected_exponent"`
	Deviation           float64 `json:"deviation_from_expected"`
	HypothesisSatisfied bool    `json:"hypothesis_satisfied"`
	Classification      string  `json:"growth_rate"`
	MaxAbsError         float64 `json:"max_absolute_error"`
	MeanAbsError        float64 `json:"mean_absolute_error"`
	NumPoints           int     `json:"num_points"`
	Insufficient        bool    `json:"insufficient,omitempty"`
}

// MarshalJSON renders the NaN fit fields of a degenerate estimate as null.
func (f GrowthFit) MarshalJSON() ([]byte, error) {
	type alias GrowthFit
	return json.Marshal(struct {
		alias
		Exponent  interface{} `json:"estimated_exponent"`
		Constant  interface{} `json:"constant_c"`
		Deviation interface{} `json:"deviation_from_expected"`
	}{alias(f), jsonFloat(f.Exponent), jsonFloat(f.Constant), jsonFloat(f.Deviation)})
}

// jsonFloat maps NaN and infinities to JSON null. encoding/json rejects
// them outright, and degenerate fits legitimately carry NaN.
func jsonFloat(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// ModelFit is a single-model curve fit of |E(x)| against x. A failed or
// degenerate fit is reported through Err, never through a raised error.
type ModelFit struct {
	Model     string    `json:"model"`
	Params    []float64 `json:"params,omitempty"`
	Formula   string    `json:"formula,omitempty"`
	RSquared  float64   `json:"r_squared"`
	RMSE      float64   `json:"rmse"`
	NumPoints int       `json:"num_points"`
	Err       string    `json:"error,omitempty"`
}

// Spectrum is the frequency-domain view of the prime sequence. Frequencies
// and Amplitudes are parallel; index 0 is the DC bin.
type Spectrum struct {
	Mode        string    `json:"mode"`
	Frequencies []float64 `json:"frequencies"`
	Amplitudes  []float64 `json:"amplitudes"`
	Normalized  bool      `json:"normalized"`
	Peaks       []Peak    `json:"peaks,omitempty"`
}

// Peak is a dominant non-DC spectral component.
type Peak struct {
	Frequency float64 `json:"frequency"`
	Amplitude float64 `json:"amplitude"`
	Period    float64 `json:"period"`
}

// ZeroHit records a grid point whose series magnitude fell below the scan
// threshold. Approximate only; the scan never verifies roots.
type ZeroHit struct {
	Real      float64 `json:"real"`
	Imag      float64 `json:"imag"`
	Magnitude float64 `json:"magnitude"`
}

// DensityBins is a histogram of prime complexities over [1, XMax].
type DensityBins struct {
	Centers []float64 `json:"centers"`
	Counts  []float64 `json:"counts"`
	BinSize int       `json:"bin_size"`
}

// PopulationStats summarizes a generated (and possibly judged) population.
type PopulationStats struct {
	NumActions       int     `json:"num_actions"`
	ComplexityMin    float64 `json:"complexity_min"`
	ComplexityMax    float64 `json:"complexity_max"`
	ComplexityMean   float64 `json:"complexity_mean"`
	ComplexityMedian float64 `json:"complexity_median"`
	ImportanceMean   float64 `json:"importance_mean"`
	ImportanceMax    float64 `json:"importance_max"`

	NumJudged   int     `json:"num_judged"`
	NumMistakes int     `json:"num_mistakes"`
	MistakeRate float64 `json:"mistake_rate"`
	MAE         float64 `json:"mae"`
	RMSE        float64 `json:"rmse"`
}

// RunSummary is the archivable record of one end-to-end simulation run.
type RunSummary struct {
	RunID         core.RunID          `json:"run_id"`
	Judge         string              `json:"judge"`
	Seed          int64               `json:"seed"`
	NumActions    int                 `json:"num_actions"`
	NumPrimes     int                 `json:"num_primes"`
	XMax          int                 `json:"x_max"`
	BaselineModel string              `json:"baseline_model"`
	Exponent      float64             `json:"exponent"`
	RSquared      float64             `json:"r_squared"`
	Satisfied     bool                `json:"hypothesis_satisfied"`
	Fingerprint   core.RunFingerprint `json:"fingerprint"`
	CreatedAt     core.Timestamp      `json:"created_at"`
}

// MarshalJSON renders NaN fit numbers as null, matching GrowthFit.
func (s RunSummary) MarshalJSON() ([]byte, error) {
	type alias RunSummary
	return json.Marshal(struct {
		alias
		Exponent interface{} `json:"exponent"`
		RSquared interface{} `json:"r_squared"`
	}{alias(s), jsonFloat(s.Exponent), jsonFloat(s.RSquared)})
}
