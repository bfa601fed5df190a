package growth

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"erhsim/domain/core"
	domstats "erhsim/domain/stats"
)

// Fit models for the alternative growth-model comparison
const (
	ModelPowerLaw    = "power_law"
	ModelLinear      = "linear"
	ModelQuadratic   = "quadratic"
	ModelLogarithmic = "logarithmic"
)

// Models returns the supported fit model names in ascending order.
func Models() []string {
	return []string{ModelLinear, ModelLogarithmic, ModelPowerLaw, ModelQuadratic}
}

// FitModel fits one functional form to |E(x)| against x. Unlike Analyze,
// the fit runs in linear space, so the power-law model needs a nonlinear
// minimizer. The returned error covers configuration problems only;
// degenerate data and optimizer failures land in the result's Err field.
func FitModel(s *domstats.CountingSeries, model string) (*domstats.ModelFit, error) {
	switch model {
	case ModelPowerLaw, ModelLinear, ModelQuadratic, ModelLogarithmic:
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownFitModel, model)
	}

	absE := s.AbsErr()
	var xs, ys []float64
	for i, e := range absE {
		if e > 0 && s.X[i] > 1 {
			xs = append(xs, s.X[i])
			ys = append(ys, e)
		}
	}

	fit := &domstats.ModelFit{Model: model, NumPoints: len(xs)}
	if len(xs) < 3 {
		fit.Err = domstats.MarkerInsufficientData
		return fit, nil
	}

	var predict func(x float64) float64
	switch model {
	case ModelPowerLaw:
		c, a, err := fitPowerLaw(xs, ys)
		if err != nil {
			fit.Err = err.Error()
			return fit, nil
		}
		fit.Params = []float64{c, a}
		fit.Formula = fmt.Sprintf("%.4g * x^%.4g", c, a)
		predict = func(x float64) float64 { return c * math.Pow(x, a) }

	case ModelLinear:
		intercept, slope := stat.LinearRegression(xs, ys, nil, false)
		fit.Params = []float64{slope, intercept}
		fit.Formula = fmt.Sprintf("%.4g*x + %.4g", slope, intercept)
		predict = func(x float64) float64 { return slope*x + intercept }

	case ModelQuadratic:
		coef, err := polyfit(xs, ys, 2)
		if err != nil {
			fit.Err = err.Error()
			return fit, nil
		}
		fit.Params = []float64{coef[2], coef[1], coef[0]}
		fit.Formula = fmt.Sprintf("%.4g*x^2 + %.4g*x + %.4g", coef[2], coef[1], coef[0])
		predict = func(x float64) float64 { return coef[2]*x*x + coef[1]*x + coef[0] }

	case ModelLogarithmic:
		logXs := make([]float64, len(xs))
		for i, x := range xs {
			logXs[i] = math.Log(x)
		}
		intercept, slope := stat.LinearRegression(logXs, ys, nil, false)
		fit.Params = []float64{slope, intercept}
		fit.Formula = fmt.Sprintf("%.4g*ln(x) + %.4g", slope, intercept)
		predict = func(x float64) float64 { return slope*math.Log(x) + intercept }
	}

	fit.RSquared, fit.RMSE = goodnessOfFit(xs, ys, predict)
	return fit, nil
}

// fitPowerLaw minimizes the sum of squared residuals of C * x^a with
// Nelder-Mead, seeded from the log-log linearization so the simplex starts
// near the answer.
func fitPowerLaw(xs, ys []float64) (c, a float64, err error) {
	logXs := make([]float64, len(xs))
	logYs := make([]float64, len(ys))
	for i := range xs {
		logXs[i] = math.Log(xs[i])
		logYs[i] = math.Log(ys[i])
	}
	intercept, slope := stat.LinearRegression(logXs, logYs, nil, false)
	init := []float64{math.Exp(intercept), slope}
	if math.IsNaN(init[0]) || math.IsInf(init[0], 0) || math.IsNaN(init[1]) {
		init = []float64{1.0, 0.5}
	}

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			sse := 0.0
			for i, x := range xs {
				r := p[0]*math.Pow(x, p[1]) - ys[i]
				sse += r * r
			}
			return sse
		},
	}

	result, err := optimize.Minimize(problem, init, nil, &optimize.NelderMead{})
	if err != nil {
		return 0, 0, fmt.Errorf("power-law fit did not converge: %v", err)
	}
	return result.X[0], result.X[1], nil
}

// polyfit solves the least-squares polynomial of the given degree,
// returning coefficients in ascending order.
func polyfit(xs, ys []float64, degree int) ([]float64, error) {
	cols := degree + 1
	a := mat.NewDense(len(xs), cols, nil)
	b := mat.NewDense(len(xs), 1, nil)
	for i, x := range xs {
		pow := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, pow)
			pow *= x
		}
		b.Set(i, 0, ys[i])
	}

	var qr mat.QR
	qr.Factorize(a)
	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, b); err != nil {
		return nil, fmt.Errorf("polynomial fit failed: %v", err)
	}

	coef := make([]float64, cols)
	for j := 0; j < cols; j++ {
		coef[j] = sol.At(j, 0)
	}
	return coef, nil
}

// goodnessOfFit computes R-squared and RMSE in linear space.
func goodnessOfFit(xs, ys []float64, predict func(float64) float64) (r2, rmse float64) {
	mean := 0.0
	for _, y := range ys {
		mean += y
	}
	mean /= float64(len(ys))

	ssRes, ssTot := 0.0, 0.0
	for i, x := range xs {
		r := ys[i] - predict(x)
		ssRes += r * r
		d := ys[i] - mean
		ssTot += d * d
	}

	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}
	rmse = math.Sqrt(ssRes / float64(len(xs)))
	return r2, rmse
}
