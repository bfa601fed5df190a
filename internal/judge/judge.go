package judge

import (
	"fmt"
	"math/rand"
	"sort"

	"erhsim/domain/core"
)

// Judge is the contract all judgment variants satisfy. Evaluate produces a
// predicted moral value for one action; the caller derives delta and the
// mistake flag from it. Variants draw any noise they need from the supplied
// rng so batch runs stay reproducible.
type Judge interface {
	Name() string
	Evaluate(truth float64, complexity int, rng *rand.Rand) float64
}

// Variant names accepted by the factory
const (
	VariantBiased       = "biased"
	VariantNoisy        = "noisy"
	VariantConservative = "conservative"
	VariantRadical      = "radical"
)

// Config selects a judgment variant and its knobs. Nil knobs fall back to
// the variant's documented default; an explicit zero is honored, so a
// biased judge can run with no offset and a noisy one with no noise.
type Config struct {
	Variant       string   `json:"variant"`
	BiasStrength  *float64 `json:"bias_strength,omitempty"`  // biased: constant offset, default 0.2
	NoiseScale    *float64 `json:"noise_scale,omitempty"`    // biased/noisy: gaussian sigma, defaults 0.1 / 0.3
	Threshold     *float64 `json:"threshold,omitempty"`      // conservative: clamp point, default 0.5
	Amplification *float64 `json:"amplification,omitempty"`  // radical: deviation multiplier > 1, default 1.5
}

func knob(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// New acts as the factory for judgment variants
func New(cfg Config) (Judge, error) {
	if cfg.NoiseScale != nil && *cfg.NoiseScale < 0 {
		return nil, core.NewConfigError("noise_scale", fmt.Sprintf("must be non-negative, got %g", *cfg.NoiseScale))
	}
	switch cfg.Variant {
	case VariantBiased:
		return &Biased{
			BiasStrength: knob(cfg.BiasStrength, 0.2),
			NoiseScale:   knob(cfg.NoiseScale, 0.1),
		}, nil
	case VariantNoisy:
		return &Noisy{NoiseScale: knob(cfg.NoiseScale, 0.3)}, nil
	case VariantConservative:
		threshold := knob(cfg.Threshold, 0.5)
		if threshold < 0 {
			return nil, core.NewConfigError("threshold", fmt.Sprintf("must be non-negative, got %g", threshold))
		}
		return &Conservative{Threshold: threshold}, nil
	case VariantRadical:
		amplification := knob(cfg.Amplification, 1.5)
		if amplification <= 1 {
			return nil, core.NewConfigError("amplification", fmt.Sprintf("must be > 1, got %g", amplification))
		}
		return &Radical{Amplification: amplification}, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownJudge, cfg.Variant)
	}
}

// Variants returns the known variant names in ascending order.
func Variants() []string {
	names := []string{VariantBiased, VariantConservative, VariantNoisy, VariantRadical}
	sort.Strings(names)
	return names
}

// DefaultPanel returns the four standard judges with their documented
// defaults, keyed by variant name. This is the panel comparative runs use
// unless the caller configures its own.
func DefaultPanel() map[string]Judge {
	return map[string]Judge{
		VariantBiased:       &Biased{BiasStrength: 0.2, NoiseScale: 0.1},
		VariantNoisy:        &Noisy{NoiseScale: 0.3},
		VariantConservative: &Conservative{Threshold: 0.5},
		VariantRadical:      &Radical{Amplification: 1.5},
	}
}
