package growth

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	domstats "erhsim/domain/stats"
)

// Fewer valid points than this and the log-log regression is meaningless.
const minFitPoints = 5

// How far the fitted exponent may sit from the expected one and still count
// as satisfying the hypothesis.
const deviationTolerance = 0.15

// Analyze fits |E(x)| ~ C * x^alpha in log-log space and classifies the
// growth regime. Points with E = 0 or x <= 1 are excluded from the fit;
// the max/mean absolute error always cover the full series. An expected
// exponent of 0 falls back to the square-root hypothesis value 0.5.
func Analyze(s *domstats.CountingSeries, expectedExponent float64) *domstats.GrowthFit {
	if expectedExponent == 0 {
		expectedExponent = 0.5
	}

	absE := s.AbsErr()
	maxAbs, _ := stats.Max(absE)
	meanAbs, _ := stats.Mean(absE)

	var logX, logE []float64
	for i, e := range absE {
		if e > 0 && s.X[i] > 1 {
			logX = append(logX, math.Log(s.X[i]))
			logE = append(logE, math.Log(e))
		}
	}

	fit := &domstats.GrowthFit{
		ExpectedExponent: expectedExponent,
		MaxAbsError:      maxAbs,
		MeanAbsError:     meanAbs,
		NumPoints:        len(logX),
	}

	if len(logX) < minFitPoints {
		fit.Exponent = math.NaN()
		fit.Constant = math.NaN()
		fit.Deviation = math.NaN()
		fit.Classification = domstats.MarkerInsufficientData
		fit.Insufficient = true
		return fit
	}

	intercept, slope := stat.LinearRegression(logX, logE, nil, false)
	fit.Exponent = slope
	fit.Constant = math.Exp(intercept)
	fit.RSquared = stat.RSquared(logX, logE, nil, intercept, slope)
	fit.Deviation = math.Abs(slope - expectedExponent)
	fit.HypothesisSatisfied = fit.Deviation < deviationTolerance
	fit.Classification = Classify(slope)
	return fit
}

// Classify maps an exponent onto the coarse growth bands.
func Classify(exponent float64) string {
	switch {
	case exponent < 0.4:
		return domstats.GrowthSublinearSlow
	case exponent < 0.6:
		return domstats.GrowthSquareRoot
	case exponent < 0.9:
		return domstats.GrowthSublinearFast
	case exponent < 1.1:
		return domstats.GrowthLinear
	default:
		return domstats.GrowthSuperlinear
	}
}
