package world

import (
	"testing"

	"erhsim/domain/core"
)

// TestGeneratePopulationShape tests counts and field ranges across distributions
func TestGeneratePopulationShape(t *testing.T) {
	for _, dist := range []string{DistZipf, DistUniform, DistPowerLaw} {
		t.Run(dist, func(t *testing.T) {
			cfg := DefaultGeneratorConfig()
			cfg.NumActions = 500
			cfg.ComplexityDist = dist

			gen, err := NewGenerator(cfg)
			if err != nil {
				t.Fatalf("NewGenerator failed: %v", err)
			}
			actions := gen.Generate()

			if len(actions) != cfg.NumActions {
				t.Fatalf("Expected %d actions, got %d", cfg.NumActions, len(actions))
			}
			for i, a := range actions {
				if a.Complexity < cfg.ComplexityMin || a.Complexity > cfg.ComplexityMax {
					t.Errorf("Action %d complexity %d outside [%d, %d]", i, a.Complexity, cfg.ComplexityMin, cfg.ComplexityMax)
				}
				if a.MoralValue < -1 || a.MoralValue > 1 {
					t.Errorf("Action %d moral value %f outside [-1, 1]", i, a.MoralValue)
				}
				if a.Importance <= 0 {
					t.Errorf("Action %d importance %f not positive", i, a.Importance)
				}
				if a.Judged {
					t.Errorf("Action %d judged before any evaluation", i)
				}
			}
		})
	}
}

// TestGenerateDeterminism tests that identical seeds reproduce the population
func TestGenerateDeterminism(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.NumActions = 300
	cfg.Seed = 42

	gen1, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	first := gen1.Generate()

	gen2, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	second := gen2.Generate()

	for i := range first {
		if first[i].Complexity != second[i].Complexity {
			t.Fatalf("Complexity diverged at %d: %d vs %d", i, first[i].Complexity, second[i].Complexity)
		}
		if first[i].MoralValue != second[i].MoralValue {
			t.Fatalf("Moral value diverged at %d: %f vs %f", i, first[i].MoralValue, second[i].MoralValue)
		}
		if first[i].Importance != second[i].Importance {
			t.Fatalf("Importance diverged at %d: %f vs %f", i, first[i].Importance, second[i].Importance)
		}
	}

	cfg.Seed = 43
	gen3, _ := NewGenerator(cfg)
	third := gen3.Generate()
	same := true
	for i := range first {
		if first[i].Complexity != third[i].Complexity || first[i].MoralValue != third[i].MoralValue {
			same = false
			break
		}
	}
	if same {
		t.Error("Different seeds produced identical populations")
	}
}

// TestZipfFavorsLowComplexity tests the heavy tail shape of the default distribution
func TestZipfFavorsLowComplexity(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.NumActions = 2000

	gen, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	actions := gen.Generate()

	low, high := 0, 0
	mid := (cfg.ComplexityMin + cfg.ComplexityMax) / 2
	for _, a := range actions {
		if a.Complexity <= mid {
			low++
		} else {
			high++
		}
	}
	if low <= high {
		t.Errorf("Zipf should favor low complexity: low=%d high=%d", low, high)
	}
}

// TestGeneratorConfigValidation tests that bad configs fail loudly
func TestGeneratorConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GeneratorConfig)
	}{
		{"zero actions", func(c *GeneratorConfig) { c.NumActions = 0 }},
		{"negative actions", func(c *GeneratorConfig) { c.NumActions = -5 }},
		{"inverted range", func(c *GeneratorConfig) { c.ComplexityMin = 50; c.ComplexityMax = 10 }},
		{"zero min complexity", func(c *GeneratorConfig) { c.ComplexityMin = 0 }},
		{"unknown distribution", func(c *GeneratorConfig) { c.ComplexityDist = "gaussian" }},
		{"ambiguity above one", func(c *GeneratorConfig) { c.MoralAmbiguity = 1.5 }},
		{"flat zipf skew", func(c *GeneratorConfig) { c.ZipfSkew = 1.0 }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultGeneratorConfig()
			test.mutate(&cfg)
			if _, err := NewGenerator(cfg); err == nil {
				t.Errorf("Expected configuration error for %s", test.name)
			} else if !core.IsConfigError(err) {
				t.Errorf("Expected config error sentinel, got: %v", err)
			}
		})
	}
}

// TestDescribeFreshPopulation tests population stats before judging
func TestDescribeFreshPopulation(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.NumActions = 400
	gen, _ := NewGenerator(cfg)
	actions := gen.Generate()

	ps := Describe(actions)
	if ps.NumActions != 400 {
		t.Errorf("Expected 400 actions, got %d", ps.NumActions)
	}
	if ps.NumJudged != 0 || ps.NumMistakes != 0 {
		t.Errorf("Fresh population should have no judgments: judged=%d mistakes=%d", ps.NumJudged, ps.NumMistakes)
	}
	if ps.ComplexityMin < 1 {
		t.Errorf("Complexity min %f below 1", ps.ComplexityMin)
	}
	if ps.ComplexityMean <= 0 || ps.ImportanceMean <= 0 {
		t.Errorf("Means should be positive: complexity=%f importance=%f", ps.ComplexityMean, ps.ImportanceMean)
	}
}
