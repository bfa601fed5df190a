package world

import (
	"fmt"
	"math"
	"math/rand"

	"erhsim/domain/action"
	"erhsim/domain/core"
)

// Complexity distributions supported by the generator
const (
	DistZipf     = "zipf"
	DistUniform  = "uniform"
	DistPowerLaw = "power_law"
)

// Distributions returns the supported distribution names in ascending order.
func Distributions() []string {
	return []string{DistPowerLaw, DistUniform, DistZipf}
}

// GeneratorConfig configures the synthetic world generator
type GeneratorConfig struct {
	NumActions     int     `json:"num_actions"`
	ComplexityDist string  `json:"complexity_distribution"`
	ComplexityMin  int     `json:"complexity_min"`
	ComplexityMax  int     `json:"complexity_max"`
	ZipfSkew       float64 `json:"zipf_skew"`           // s > 1; larger favors low complexity harder
	PowerLawExp    float64 `json:"power_law_exponent"`  // Pareto shape for power_law complexity
	MoralAmbiguity float64 `json:"moral_ambiguity"`     // [0,1]; 0 = clear-cut truths, 1 = fully ambiguous
	ImportanceTail float64 `json:"importance_tail"`     // Pareto shape for importance weights
	Seed           int64   `json:"seed"`
}

// DefaultGeneratorConfig returns sensible defaults for world generation
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		NumActions:     2000,
		ComplexityDist: DistZipf,
		ComplexityMin:  1,
		ComplexityMax:  100,
		ZipfSkew:       2.0,
		PowerLawExp:    2.0,
		MoralAmbiguity: 0.3,
		ImportanceTail: 1.5,
		Seed:           42,
	}
}

// Generator produces deterministic synthetic action populations
type Generator struct {
	config GeneratorConfig
	rng    *rand.Rand
	zipf   *rand.Zipf
}

// NewGenerator creates a new world generator. Configuration problems are
// reported here, before any sampling happens.
func NewGenerator(config GeneratorConfig) (*Generator, error) {
	if config.NumActions <= 0 {
		return nil, core.NewConfigError("num_actions", fmt.Sprintf("must be positive, got %d", config.NumActions))
	}
	if config.ComplexityMin < 1 || config.ComplexityMax < config.ComplexityMin {
		return nil, core.NewRangeError("complexity_range", float64(config.ComplexityMin), float64(config.ComplexityMax))
	}
	if config.MoralAmbiguity < 0 || config.MoralAmbiguity > 1 {
		return nil, core.NewConfigError("moral_ambiguity", fmt.Sprintf("must be in [0,1], got %g", config.MoralAmbiguity))
	}
	if config.ImportanceTail <= 0 {
		return nil, core.NewConfigError("importance_tail", fmt.Sprintf("must be positive, got %g", config.ImportanceTail))
	}

	g := &Generator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}

	switch config.ComplexityDist {
	case DistZipf:
		if config.ZipfSkew <= 1 {
			return nil, core.NewConfigError("zipf_skew", fmt.Sprintf("must be > 1, got %g", config.ZipfSkew))
		}
		span := uint64(config.ComplexityMax - config.ComplexityMin)
		g.zipf = rand.NewZipf(g.rng, config.ZipfSkew, 1, span)
	case DistUniform:
		// nothing to precompute
	case DistPowerLaw:
		if config.PowerLawExp <= 0 {
			return nil, core.NewConfigError("power_law_exponent", fmt.Sprintf("must be positive, got %g", config.PowerLawExp))
		}
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownDistribution, config.ComplexityDist)
	}

	return g, nil
}

// Generate produces the full population. Identical config (seed included)
// yields a bit-identical sequence.
func (g *Generator) Generate() []action.Action {
	actions := make([]action.Action, g.config.NumActions)
	for i := range actions {
		actions[i] = action.Action{
			ID:         core.ActionID(fmt.Sprintf("action_%06d", i+1)),
			Complexity: g.sampleComplexity(),
			MoralValue: g.sampleMoralValue(),
			Importance: g.sampleImportance(),
		}
	}
	return actions
}

// sampleComplexity draws one complexity from the configured distribution,
// clipped to [ComplexityMin, ComplexityMax].
func (g *Generator) sampleComplexity() int {
	min, max := g.config.ComplexityMin, g.config.ComplexityMax
	switch g.config.ComplexityDist {
	case DistZipf:
		return min + int(g.zipf.Uint64())
	case DistUniform:
		return min + g.rng.Intn(max-min+1)
	default: // DistPowerLaw
		// Inverse-CDF Pareto, rounded and clipped into the range
		u := g.rng.Float64()
		if u == 0 {
			u = math.SmallestNonzeroFloat64
		}
		c := float64(min) * math.Pow(u, -1.0/g.config.PowerLawExp)
		rounded := int(math.Round(c))
		if rounded < min {
			rounded = min
		}
		if rounded > max {
			rounded = max
		}
		return rounded
	}
}

// sampleMoralValue mixes a clear-cut signal (+-1) with uniform noise. The
// ambiguity factor is the noise weight: 0 keeps the truths at the extremes,
// 1 makes them fully uniform over [-1,1].
func (g *Generator) sampleMoralValue() float64 {
	sign := 1.0
	if g.rng.Float64() < 0.5 {
		sign = -1.0
	}
	noise := g.rng.Float64()*2 - 1
	f := g.config.MoralAmbiguity
	m := (1-f)*sign + f*noise
	if m > 1 {
		m = 1
	}
	if m < -1 {
		m = -1
	}
	return m
}

// sampleImportance draws a Pareto-distributed weight with scale 1, so the
// result is always > 0 and heavy-tailed.
func (g *Generator) sampleImportance() float64 {
	u := g.rng.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64
	}
	return math.Pow(u, -1.0/g.config.ImportanceTail)
}
