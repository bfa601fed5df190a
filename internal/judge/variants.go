package judge

import (
	"math"
	"math/rand"
)

// Biased adds a constant directional offset plus Gaussian noise to the
// ground truth. Models systematic over- or under-valuation.
type Biased struct {
	BiasStrength float64
	NoiseScale   float64
}

func (j *Biased) Name() string { return VariantBiased }

func (j *Biased) Evaluate(truth float64, complexity int, rng *rand.Rand) float64 {
	return truth + j.BiasStrength + rng.NormFloat64()*j.NoiseScale
}

// Noisy adds zero-mean Gaussian noise only. Models inconsistency without
// systematic bias.
type Noisy struct {
	NoiseScale float64
}

func (j *Noisy) Name() string { return VariantNoisy }

func (j *Noisy) Evaluate(truth float64, complexity int, rng *rand.Rand) float64 {
	return truth + rng.NormFloat64()*j.NoiseScale
}

// Conservative clamps predictions toward neutral whenever the ground truth
// exceeds its threshold. Models under-reaction: mild truths are judged
// perfectly, strong ones are flattened to the threshold.
type Conservative struct {
	Threshold float64
}

func (j *Conservative) Name() string { return VariantConservative }

func (j *Conservative) Evaluate(truth float64, complexity int, rng *rand.Rand) float64 {
	if math.Abs(truth) <= j.Threshold {
		return truth
	}
	if truth > 0 {
		return j.Threshold
	}
	return -j.Threshold
}

// Radical multiplies deviations from neutral by an amplification factor
// above 1. Models over-reaction. Predictions may leave [-1, 1]; the
// overshoot is exactly what the error delta measures.
type Radical struct {
	Amplification float64
}

func (j *Radical) Name() string { return VariantRadical }

func (j *Radical) Evaluate(truth float64, complexity int, rng *rand.Rand) float64 {
	return truth * j.Amplification
}
