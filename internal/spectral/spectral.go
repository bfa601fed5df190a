package spectral

import (
	"fmt"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"

	"erhsim/domain/action"
	"erhsim/domain/core"
	domstats "erhsim/domain/stats"
)

// Sequence modes
const (
	ModeCount     = "count"
	ModeIndicator = "indicator"
)

// BuildSequence lays prime complexities onto a length-xMax array. In count
// mode entry x-1 holds the number of primes at complexity x; in indicator
// mode it holds 0 or 1.
func BuildSequence(primes []action.Action, xMax int, mode string) ([]float64, error) {
	if xMax < 1 {
		return nil, core.NewConfigError("x_max", fmt.Sprintf("must be >= 1, got %d", xMax))
	}
	switch mode {
	case ModeCount, ModeIndicator:
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownSequenceMode, mode)
	}

	seq := make([]float64, xMax)
	for _, p := range primes {
		if p.Complexity < 1 || p.Complexity > xMax {
			continue
		}
		if mode == ModeIndicator {
			seq[p.Complexity-1] = 1
		} else {
			seq[p.Complexity-1]++
		}
	}
	return seq, nil
}

// ComputeSpectrum runs a real-input DFT over the sequence. Frequencies are
// in cycles per sample; index 0 is the DC bin. When normalize is set the
// amplitudes are scaled to a unit peak.
func ComputeSpectrum(seq []float64, mode string, normalize bool) (*domstats.Spectrum, error) {
	if len(seq) < 2 {
		return nil, core.NewConfigError("sequence", fmt.Sprintf("need at least 2 samples, got %d", len(seq)))
	}

	fft := fourier.NewFFT(len(seq))
	coeffs := fft.Coefficients(nil, seq)

	sp := &domstats.Spectrum{
		Mode:        mode,
		Frequencies: make([]float64, len(coeffs)),
		Amplitudes:  make([]float64, len(coeffs)),
		Normalized:  normalize,
	}
	peak := 0.0
	for i, c := range coeffs {
		sp.Frequencies[i] = fft.Freq(i)
		sp.Amplitudes[i] = cmplx.Abs(c)
		if sp.Amplitudes[i] > peak {
			peak = sp.Amplitudes[i]
		}
	}
	if normalize && peak > 0 {
		for i := range sp.Amplitudes {
			sp.Amplitudes[i] /= peak
		}
	}
	return sp, nil
}

// AnalyzePeaks finds the dominant non-DC components: local maxima of the
// amplitude array, sorted by amplitude, top numPeaks. Period is the
// reciprocal frequency.
func AnalyzePeaks(sp *domstats.Spectrum, numPeaks int) []domstats.Peak {
	if numPeaks <= 0 {
		numPeaks = 5
	}

	amps := sp.Amplitudes
	var peaks []domstats.Peak
	for i := 1; i < len(amps); i++ {
		leftOK := amps[i] > amps[i-1]
		rightOK := i == len(amps)-1 || amps[i] > amps[i+1]
		if !leftOK || !rightOK {
			continue
		}
		if sp.Frequencies[i] == 0 {
			continue
		}
		peaks = append(peaks, domstats.Peak{
			Frequency: sp.Frequencies[i],
			Amplitude: amps[i],
			Period:    1 / sp.Frequencies[i],
		})
	}

	sort.SliceStable(peaks, func(a, b int) bool {
		return peaks[a].Amplitude > peaks[b].Amplitude
	})
	if len(peaks) > numPeaks {
		peaks = peaks[:numPeaks]
	}
	return peaks
}

// Analyze is the one-call entry: sequence, spectrum, peaks.
func Analyze(primes []action.Action, xMax int, mode string, numPeaks int) (*domstats.Spectrum, error) {
	seq, err := BuildSequence(primes, xMax, mode)
	if err != nil {
		return nil, err
	}
	sp, err := ComputeSpectrum(seq, mode, true)
	if err != nil {
		return nil, err
	}
	sp.Peaks = AnalyzePeaks(sp, numPeaks)
	return sp, nil
}
