package primes

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"erhsim/domain/action"
	"erhsim/domain/core"
	domstats "erhsim/domain/stats"
)

// Baseline models for B(x)
const (
	BaselineLinear       = "linear"
	BaselinePrimeTheorem = "prime_theorem"
	BaselineFitted       = "fitted"
)

// BaselineModels returns the supported model names in ascending order.
func BaselineModels() []string {
	return []string{BaselineFitted, BaselineLinear, BaselinePrimeTheorem}
}

// BaselineConfig selects the expected-count model B(x)
type BaselineConfig struct {
	Model string  `json:"model"`
	Alpha float64 `json:"alpha,omitempty"` // linear slope, default 0.1
	Beta  float64 `json:"beta,omitempty"`  // prime_theorem scale, default 1.0
}

// DefaultBaselineConfig returns the prime-theorem analogue baseline
func DefaultBaselineConfig() BaselineConfig {
	return BaselineConfig{Model: BaselinePrimeTheorem, Alpha: 0.1, Beta: 1.0}
}

// ComputeSeries builds the counting function Pi(x), the baseline B(x), and
// the error term E(x) = Pi(x) - B(x) over x = 1..xMax. Only primes with
// complexity <= xMax contribute to the count.
func ComputeSeries(primes []action.Action, xMax int, cfg BaselineConfig) (*domstats.CountingSeries, error) {
	if xMax < 1 {
		return nil, core.NewConfigError("x_max", fmt.Sprintf("must be >= 1, got %d", xMax))
	}
	if cfg.Alpha == 0 {
		cfg.Alpha = 0.1
	}
	if cfg.Beta == 0 {
		cfg.Beta = 1.0
	}
	switch cfg.Model {
	case BaselineLinear, BaselinePrimeTheorem, BaselineFitted:
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownBaseline, cfg.Model)
	}

	counts := make([]int, xMax+1)
	numPrimes := 0
	for _, p := range primes {
		if p.Complexity >= 1 && p.Complexity <= xMax {
			counts[p.Complexity]++
			numPrimes++
		}
	}

	s := &domstats.CountingSeries{
		X:             make([]float64, xMax),
		Pi:            make([]float64, xMax),
		Baseline:      make([]float64, xMax),
		Err:           make([]float64, xMax),
		XMax:          xMax,
		BaselineModel: cfg.Model,
		NumPrimes:     numPrimes,
	}

	running := 0
	for x := 1; x <= xMax; x++ {
		running += counts[x]
		s.X[x-1] = float64(x)
		s.Pi[x-1] = float64(running)
	}

	switch cfg.Model {
	case BaselineLinear:
		fillLinearBaseline(s, cfg.Alpha)
	case BaselinePrimeTheorem:
		for i, x := range s.X {
			if x > 1 {
				s.Baseline[i] = cfg.Beta * x / math.Log(x)
			}
		}
	case BaselineFitted:
		coef := fitPolynomialBaseline(s.X, s.Pi, numPrimes)
		if coef == nil {
			// Not enough primes to anchor a polynomial; degrade to the
			// documented linear fallback rather than fail.
			fillLinearBaseline(s, 0.1)
			break
		}
		for i, x := range s.X {
			s.Baseline[i] = evalPolynomial(coef, x)
		}
	}

	for i := range s.Err {
		s.Err[i] = s.Pi[i] - s.Baseline[i]
	}
	return s, nil
}

func fillLinearBaseline(s *domstats.CountingSeries, alpha float64) {
	for i, x := range s.X {
		s.Baseline[i] = alpha * x
	}
}

// fitPolynomialBaseline solves the least-squares polynomial of degree
// min(3, numPrimes/2) through (x, Pi). Returns nil when fewer than 5 primes
// exist or the system cannot be solved.
func fitPolynomialBaseline(xs, pi []float64, numPrimes int) []float64 {
	if numPrimes < 5 {
		return nil
	}
	degree := min(3, numPrimes/2)
	cols := degree + 1
	if len(xs) < cols {
		return nil
	}

	a := mat.NewDense(len(xs), cols, nil)
	b := mat.NewDense(len(xs), 1, nil)
	for i, x := range xs {
		pow := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, pow)
			pow *= x
		}
		b.Set(i, 0, pi[i])
	}

	var qr mat.QR
	qr.Factorize(a)
	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, b); err != nil {
		return nil
	}

	coef := make([]float64, cols)
	for j := 0; j < cols; j++ {
		coef[j] = sol.At(j, 0)
	}
	return coef
}

// evalPolynomial evaluates c0 + c1*x + ... + cd*x^d via Horner's rule.
func evalPolynomial(coef []float64, x float64) float64 {
	v := 0.0
	for j := len(coef) - 1; j >= 0; j-- {
		v = v*x + coef[j]
	}
	return v
}
