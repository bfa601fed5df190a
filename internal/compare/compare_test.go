package compare

import (
	"errors"
	"math"
	"strings"
	"testing"

	"erhsim/domain/action"
	"erhsim/domain/core"
	domstats "erhsim/domain/stats"
	"erhsim/internal/judge"
	"erhsim/internal/world"
)

func evaluatedPanel(t *testing.T, numActions int, panel map[string]judge.Judge, tau float64) map[string][]action.Action {
	t.Helper()

	gcfg := world.DefaultGeneratorConfig()
	gcfg.NumActions = numActions
	gen, err := world.NewGenerator(gcfg)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	results, err := judge.BatchEvaluate(gen.Generate(), panel, tau, 42)
	if err != nil {
		t.Fatalf("BatchEvaluate: %v", err)
	}
	return results
}

func TestJudgesFullPanel(t *testing.T) {
	results := evaluatedPanel(t, 600, judge.DefaultPanel(), 0.2)

	cmp, err := Judges(results, DefaultConfig())
	if err != nil {
		t.Fatalf("Judges: %v", err)
	}
	if len(cmp.Judges) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(cmp.Judges))
	}
	if cmp.XMax != 100 || cmp.BaselineModel == "" {
		t.Errorf("comparison missing shared params: %+v", cmp)
	}

	for name, row := range cmp.Judges {
		if row.Judge != name {
			t.Errorf("row name mismatch: key %q row %q", name, row.Judge)
		}
		if row.Err != "" {
			t.Errorf("judge %s: unexpected marker %q", name, row.Err)
			continue
		}
		if row.NumActions != 600 {
			t.Errorf("judge %s: NumActions = %d", name, row.NumActions)
		}
		if row.NumMistakes == 0 || row.NumPrimes == 0 {
			t.Errorf("judge %s: mistakes=%d primes=%d, expected both > 0", name, row.NumMistakes, row.NumPrimes)
		}
		if row.MAE <= 0 || row.RMSE < row.MAE {
			t.Errorf("judge %s: MAE=%v RMSE=%v", name, row.MAE, row.RMSE)
		}
		if row.MistakeRate <= 0 || row.MistakeRate > 1 {
			t.Errorf("judge %s: MistakeRate = %v", name, row.MistakeRate)
		}
	}
}

func TestJudgesZeroMistakeMarker(t *testing.T) {
	clamp := 1.5
	strict, err := judge.New(judge.Config{Variant: judge.VariantConservative, Threshold: &clamp})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	noisy, err := judge.New(judge.Config{Variant: judge.VariantNoisy})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	panel := map[string]judge.Judge{"strict": strict, "noisy": noisy}

	results := evaluatedPanel(t, 200, panel, 0.2)
	cmp, err := Judges(results, DefaultConfig())
	if err != nil {
		t.Fatalf("a degenerate judge must not fail the batch: %v", err)
	}

	row := cmp.Judges["strict"]
	if row.Err != domstats.MarkerNoPrimesFound {
		t.Fatalf("strict judge marker = %q, want %q", row.Err, domstats.MarkerNoPrimesFound)
	}
	if row.NumActions != 200 || row.NumMistakes != 0 || row.NumPrimes != 0 {
		t.Errorf("marker row should keep counts: %+v", row)
	}
	if cmp.Judges["noisy"].Err != "" {
		t.Errorf("noisy judge unexpectedly degenerate: %+v", cmp.Judges["noisy"])
	}
}

func rankFixture() domstats.Comparison {
	return domstats.Comparison{
		Judges: map[string]domstats.JudgeMetrics{
			"alpha":   {Judge: "alpha", MAE: 0.3, Deviation: 0.05, HypothesisSatisfied: true},
			"bravo":   {Judge: "bravo", MAE: 0.1, Deviation: math.NaN()},
			"charlie": {Judge: "charlie", MAE: 0.3, Deviation: 0.2},
			"broken":  {Judge: "broken", Err: domstats.MarkerNoPrimesFound},
		},
	}
}

func TestRankOrdering(t *testing.T) {
	cases := []struct {
		metric string
		want   []string
	}{
		{MetricMAE, []string{"bravo", "alpha", "charlie", "broken"}},
		{MetricExponentDeviation, []string{"alpha", "charlie", "bravo", "broken"}},
		{MetricHypothesis, []string{"alpha", "bravo", "charlie", "broken"}},
	}
	for _, tc := range cases {
		t.Run(tc.metric, func(t *testing.T) {
			ranking, err := Rank(rankFixture(), tc.metric)
			if err != nil {
				t.Fatalf("Rank: %v", err)
			}
			if len(ranking.Order) != len(tc.want) {
				t.Fatalf("order length = %d, want %d", len(ranking.Order), len(tc.want))
			}
			for i, name := range tc.want {
				if ranking.Order[i] != name {
					t.Errorf("order[%d] = %q, want %q (full: %v)", i, ranking.Order[i], name, ranking.Order)
				}
			}
		})
	}
}

func TestRankUnknownMetric(t *testing.T) {
	_, err := Rank(rankFixture(), "charisma")
	if !errors.Is(err, core.ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
	if !core.IsConfigError(err) {
		t.Errorf("unknown metric should be a config error: %v", err)
	}
}

func biasActions(n int, deltaFor func(c int) float64) []action.Action {
	actions := make([]action.Action, n)
	for i := range actions {
		c := i + 1
		actions[i] = action.Action{Complexity: c, Delta: deltaFor(c), Judged: true}
	}
	return actions
}

func TestStructuralBiasDetectsTrend(t *testing.T) {
	actions := biasActions(40, func(c int) float64 { return 0.01 * float64(c) })

	ba, err := StructuralBias(actions, 4)
	if err != nil {
		t.Fatalf("StructuralBias: %v", err)
	}
	if ba.Err != "" {
		t.Fatalf("unexpected marker %q", ba.Err)
	}
	if ba.Correlation < 0.9 {
		t.Errorf("Correlation = %v, want near 1", ba.Correlation)
	}
	if ba.PValue >= 0.01 {
		t.Errorf("PValue = %v, want < 0.01", ba.PValue)
	}
	if !ba.MonotonicTrend {
		t.Error("expected monotonic trend across bins")
	}
	if len(ba.Bins) != 4 {
		t.Fatalf("bins = %d, want 4", len(ba.Bins))
	}
	total := 0
	for _, b := range ba.Bins {
		total += b.Count
	}
	if total != 40 {
		t.Errorf("bin counts sum to %d, want 40", total)
	}
	if !strings.Contains(ba.Interpretation, "increases") {
		t.Errorf("interpretation %q should mention an increasing trend", ba.Interpretation)
	}
}

func TestStructuralBiasConstantError(t *testing.T) {
	actions := biasActions(30, func(int) float64 { return 0.2 })

	ba, err := StructuralBias(actions, 5)
	if err != nil {
		t.Fatalf("StructuralBias: %v", err)
	}
	if ba.Correlation != 0 {
		t.Errorf("constant error should report zero correlation, got %v", ba.Correlation)
	}
	if !strings.Contains(ba.Interpretation, "no significant") {
		t.Errorf("interpretation = %q", ba.Interpretation)
	}
}

func TestStructuralBiasInsufficient(t *testing.T) {
	actions := biasActions(5, func(c int) float64 { return float64(c) })

	ba, err := StructuralBias(actions, 4)
	if err != nil {
		t.Fatalf("StructuralBias: %v", err)
	}
	if ba.Err != domstats.MarkerInsufficientData {
		t.Fatalf("marker = %q, want %q", ba.Err, domstats.MarkerInsufficientData)
	}
	if ba.NumActions != 5 {
		t.Errorf("NumActions = %d, want 5", ba.NumActions)
	}

	if _, err := StructuralBias(actions, 0); !core.IsConfigError(err) {
		t.Errorf("numBins 0 should be a config error, got %v", err)
	}
}
