package judge

import (
	"math"
	"math/rand"
	"testing"

	"erhsim/domain/action"
	"erhsim/domain/core"
)

func f64(v float64) *float64 { return &v }

func testPopulation() []action.Action {
	return []action.Action{
		{ID: "a1", Complexity: 3, MoralValue: 0.8, Importance: 1.2},
		{ID: "a2", Complexity: 10, MoralValue: -0.6, Importance: 3.5},
		{ID: "a3", Complexity: 25, MoralValue: 0.1, Importance: 1.0},
		{ID: "a4", Complexity: 47, MoralValue: -0.9, Importance: 8.1},
	}
}

// TestFactoryVariants tests that every known variant is constructable
func TestFactoryVariants(t *testing.T) {
	for _, variant := range Variants() {
		j, err := New(Config{Variant: variant})
		if err != nil {
			t.Errorf("New(%s) failed: %v", variant, err)
			continue
		}
		if j.Name() != variant {
			t.Errorf("Expected name %s, got %s", variant, j.Name())
		}
	}
}

// TestFactoryUnknownVariant tests the configuration error path
func TestFactoryUnknownVariant(t *testing.T) {
	_, err := New(Config{Variant: "oracle"})
	if err == nil {
		t.Fatal("Expected error for unknown variant")
	}
	if !core.IsConfigError(err) {
		t.Errorf("Expected config error sentinel, got: %v", err)
	}
}

// TestFactoryBadKnobs tests per-variant knob validation
func TestFactoryBadKnobs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative noise", Config{Variant: VariantNoisy, NoiseScale: f64(-0.1)}},
		{"amplification at one", Config{Variant: VariantRadical, Amplification: f64(1.0)}},
		{"amplification below one", Config{Variant: VariantRadical, Amplification: f64(0.5)}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := New(test.cfg); err == nil {
				t.Errorf("Expected configuration error for %s", test.name)
			}
		})
	}
}

// TestFactoryKnobDefaults tests that nil knobs take the variant default
// while an explicit zero is honored as-is
func TestFactoryKnobDefaults(t *testing.T) {
	j, err := New(Config{Variant: VariantBiased})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	biased := j.(*Biased)
	if biased.BiasStrength != 0.2 || biased.NoiseScale != 0.1 {
		t.Errorf("Nil knobs should default, got bias %g noise %g", biased.BiasStrength, biased.NoiseScale)
	}

	j, err = New(Config{Variant: VariantBiased, BiasStrength: f64(0), NoiseScale: f64(0)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	biased = j.(*Biased)
	if biased.BiasStrength != 0 || biased.NoiseScale != 0 {
		t.Errorf("Explicit zeros must survive, got bias %g noise %g", biased.BiasStrength, biased.NoiseScale)
	}
	rng := rand.New(rand.NewSource(1))
	if got := biased.Evaluate(0.4, 3, rng); got != 0.4 {
		t.Errorf("Zero-knob biased judge should echo the truth, got %g", got)
	}

	j, err = New(Config{Variant: VariantNoisy, NoiseScale: f64(0)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := j.Evaluate(-0.7, 3, rng); got != -0.7 {
		t.Errorf("Zero-noise judge should echo the truth, got %g", got)
	}
}

// TestMistakeFlagBoundary tests that |delta| == tau is not a mistake.
// The conservative judge is deterministic and the values are exact in
// binary: truth 0.75 clamped to 0.5 gives |delta| = 0.25 with no
// rounding, so tau = 0.25 hits the boundary dead on.
func TestMistakeFlagBoundary(t *testing.T) {
	actions := []action.Action{{ID: "a1", Complexity: 5, MoralValue: 0.75, Importance: 1.0}}
	j := &Conservative{Threshold: 0.5}

	if err := EvaluateActions(actions, j, 0.25, 42); err != nil {
		t.Fatalf("EvaluateActions failed: %v", err)
	}
	if math.Abs(actions[0].Delta) != 0.25 {
		t.Fatalf("Expected |delta| = 0.25 exactly, got %v", math.Abs(actions[0].Delta))
	}
	if actions[0].Mistake {
		t.Error("|delta| equal to tau must not be flagged as a mistake")
	}

	if err := EvaluateActions(actions, j, 0.125, 42); err != nil {
		t.Fatalf("EvaluateActions failed: %v", err)
	}
	if !actions[0].Mistake {
		t.Error("|delta| above tau must be flagged as a mistake")
	}
}

// TestAnnotationConsistency tests that every action is annotated and the
// flag agrees with the delta under the threshold rule
func TestAnnotationConsistency(t *testing.T) {
	actions := testPopulation()
	j, _ := New(Config{Variant: VariantBiased})
	tau := 0.3

	if err := EvaluateActions(actions, j, tau, 42); err != nil {
		t.Fatalf("EvaluateActions failed: %v", err)
	}
	for i, a := range actions {
		if !a.Judged {
			t.Errorf("Action %d not annotated", i)
		}
		if math.Abs(a.Predicted-a.MoralValue-a.Delta) > 1e-12 {
			t.Errorf("Action %d delta inconsistent with prediction", i)
		}
		expected := math.Abs(a.Delta) > tau
		if a.Mistake != expected {
			t.Errorf("Action %d mistake flag %v disagrees with |delta|=%f tau=%f", i, a.Mistake, math.Abs(a.Delta), tau)
		}
	}
}

// TestEvaluateDeterminism tests reproducibility for a fixed seed
func TestEvaluateDeterminism(t *testing.T) {
	j, _ := New(Config{Variant: VariantNoisy})

	first := testPopulation()
	second := testPopulation()
	if err := EvaluateActions(first, j, 0.3, 7); err != nil {
		t.Fatalf("EvaluateActions failed: %v", err)
	}
	if err := EvaluateActions(second, j, 0.3, 7); err != nil {
		t.Fatalf("EvaluateActions failed: %v", err)
	}
	for i := range first {
		if first[i].Predicted != second[i].Predicted {
			t.Fatalf("Prediction diverged at %d: %f vs %f", i, first[i].Predicted, second[i].Predicted)
		}
	}
}

// TestInvalidTau tests that bad thresholds fail before any mutation
func TestInvalidTau(t *testing.T) {
	j, _ := New(Config{Variant: VariantBiased})
	for _, tau := range []float64{-0.1, math.NaN()} {
		actions := testPopulation()
		if err := EvaluateActions(actions, j, tau, 42); err == nil {
			t.Errorf("Expected error for tau %f", tau)
		} else if !core.IsConfigError(err) {
			t.Errorf("Expected config error sentinel, got: %v", err)
		}
		for i, a := range actions {
			if a.Judged {
				t.Errorf("Action %d mutated despite invalid tau", i)
			}
		}
	}
}

// TestConservativeLeavesMildTruthsAlone tests the under-reaction shape
func TestConservativeLeavesMildTruthsAlone(t *testing.T) {
	j := &Conservative{Threshold: 0.5}
	if got := j.Evaluate(0.3, 1, nil); got != 0.3 {
		t.Errorf("Mild truth should pass through, got %f", got)
	}
	if got := j.Evaluate(0.9, 1, nil); got != 0.5 {
		t.Errorf("Strong truth should clamp to threshold, got %f", got)
	}
	if got := j.Evaluate(-0.9, 1, nil); got != -0.5 {
		t.Errorf("Strong negative truth should clamp to -threshold, got %f", got)
	}
}

// TestBatchEvaluateIsolation tests that the source population and the
// per-judge copies stay independent
func TestBatchEvaluateIsolation(t *testing.T) {
	source := testPopulation()
	results, err := BatchEvaluate(source, DefaultPanel(), 0.3, 42)
	if err != nil {
		t.Fatalf("BatchEvaluate failed: %v", err)
	}

	if len(results) != 4 {
		t.Fatalf("Expected 4 judged populations, got %d", len(results))
	}
	for i, a := range source {
		if a.Judged {
			t.Errorf("Source action %d mutated by batch evaluation", i)
		}
	}
	for name, judged := range results {
		if len(judged) != len(source) {
			t.Errorf("Judge %s population length %d, want %d", name, len(judged), len(source))
		}
		for i, a := range judged {
			if !a.Judged {
				t.Errorf("Judge %s action %d not annotated", name, i)
			}
		}
	}
}

// TestBatchEvaluateStableStreams tests that a judge's noise stream does not
// depend on which other judges are in the panel
func TestBatchEvaluateStableStreams(t *testing.T) {
	source := testPopulation()
	full, err := BatchEvaluate(source, DefaultPanel(), 0.3, 42)
	if err != nil {
		t.Fatalf("BatchEvaluate failed: %v", err)
	}
	solo, err := BatchEvaluate(source, map[string]Judge{VariantNoisy: &Noisy{NoiseScale: 0.3}}, 0.3, 42)
	if err != nil {
		t.Fatalf("BatchEvaluate failed: %v", err)
	}

	for i := range solo[VariantNoisy] {
		if solo[VariantNoisy][i].Predicted != full[VariantNoisy][i].Predicted {
			t.Fatalf("Noisy stream perturbed by panel composition at %d", i)
		}
	}
}
