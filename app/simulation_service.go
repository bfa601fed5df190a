package app

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"erhsim/domain/action"
	"erhsim/domain/core"
	domstats "erhsim/domain/stats"
	"erhsim/internal"
	"erhsim/internal/compare"
	"erhsim/internal/growth"
	"erhsim/internal/judge"
	"erhsim/internal/primes"
	"erhsim/internal/spectral"
	"erhsim/internal/world"
	"erhsim/internal/zeta"
	"erhsim/ports"
)

// SimulationService wires the full pipeline: population generation,
// judging, prime selection, counting, and growth analysis. The archive is
// optional; a nil archive disables persistence.
type SimulationService struct {
	archive ports.RunArchive
	logger  *internal.Logger
}

// NewSimulationService creates the service. Pass nil for archive or logger
// to run without persistence or with the default logger.
func NewSimulationService(archive ports.RunArchive, logger *internal.Logger) *SimulationService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SimulationService{archive: archive, logger: logger}
}

// SpectrumRequest switches on the optional frequency analysis of a run.
type SpectrumRequest struct {
	Mode     string `json:"mode,omitempty"`
	NumPeaks int    `json:"num_peaks,omitempty"`
}

// RunRequest describes one end-to-end simulation. Zero fields fall back to
// the component defaults; Tau is taken as given (zero counts every nonzero
// delta as a mistake).
type RunRequest struct {
	World            world.GeneratorConfig `json:"world"`
	Judge            judge.Config          `json:"judge"`
	Tau              float64               `json:"tau"`
	Selector         primes.SelectorConfig `json:"selector"`
	XMax             int                   `json:"x_max,omitempty"`
	Baseline         primes.BaselineConfig `json:"baseline"`
	ExpectedExponent float64               `json:"expected_exponent,omitempty"`
	FitModels        []string              `json:"fit_models,omitempty"`
	Spectrum         *SpectrumRequest      `json:"spectrum,omitempty"`
	ZeroScan         *zeta.ScanConfig      `json:"zero_scan,omitempty"`
	Archive          bool                  `json:"archive,omitempty"`
}

func (r *RunRequest) applyDefaults() {
	def := world.DefaultGeneratorConfig()
	if r.World.NumActions == 0 {
		r.World.NumActions = def.NumActions
	}
	if r.World.ComplexityDist == "" {
		r.World.ComplexityDist = def.ComplexityDist
	}
	if r.World.ComplexityMin == 0 {
		r.World.ComplexityMin = def.ComplexityMin
	}
	if r.World.ComplexityMax == 0 {
		r.World.ComplexityMax = def.ComplexityMax
	}
	if r.World.ZipfSkew == 0 {
		r.World.ZipfSkew = def.ZipfSkew
	}
	if r.World.PowerLawExp == 0 {
		r.World.PowerLawExp = def.PowerLawExp
	}
	if r.World.MoralAmbiguity == 0 {
		r.World.MoralAmbiguity = def.MoralAmbiguity
	}
	if r.World.ImportanceTail == 0 {
		r.World.ImportanceTail = def.ImportanceTail
	}
	if r.Judge.Variant == "" {
		r.Judge.Variant = judge.VariantNoisy
	}
	if r.Selector.Strategy == "" {
		r.Selector.Strategy = primes.StrategyImportance
	}
	if r.Selector.ImportanceQuantile == 0 {
		r.Selector.ImportanceQuantile = 0.9
	}
	if r.XMax == 0 {
		r.XMax = 100
	}
	if r.Baseline.Model == "" {
		r.Baseline = primes.DefaultBaselineConfig()
	}
	if r.ExpectedExponent == 0 {
		r.ExpectedExponent = 0.5
	}
}

// RunResult is the full outcome of one simulation run. Marker is set when
// the pipeline degenerated before a growth fit was possible.
type RunResult struct {
	RunID             core.RunID                `json:"run_id"`
	Judge             string                    `json:"judge"`
	Seed              int64                     `json:"seed"`
	Tau               float64                   `json:"tau"`
	Population        *domstats.PopulationStats `json:"population"`
	NumPrimes         int                       `json:"num_primes"`
	PrimeComplexities []int                     `json:"prime_complexities,omitempty"`
	Density           *domstats.DensityBins     `json:"density,omitempty"`
	Series            *domstats.CountingSeries  `json:"series,omitempty"`
	Growth            *domstats.GrowthFit       `json:"growth,omitempty"`
	Fits              []domstats.ModelFit       `json:"fits,omitempty"`
	Spectrum          *domstats.Spectrum        `json:"spectrum,omitempty"`
	Zeros             []domstats.ZeroHit        `json:"zeros,omitempty"`
	Marker            string                    `json:"marker,omitempty"`
	Fingerprint       core.RunFingerprint       `json:"fingerprint"`
	CreatedAt         core.Timestamp            `json:"created_at"`
}

// Run executes one simulation end to end.
func (s *SimulationService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	req.applyDefaults()

	gen, err := world.NewGenerator(req.World)
	if err != nil {
		return nil, err
	}
	j, err := judge.New(req.Judge)
	if err != nil {
		return nil, err
	}

	actions := gen.Generate()
	if err := judge.EvaluateActions(actions, j, req.Tau, req.World.Seed); err != nil {
		return nil, err
	}
	population := world.Describe(actions)

	result := &RunResult{
		RunID:      core.RunID(core.NewID()),
		Judge:      j.Name(),
		Seed:       req.World.Seed,
		Tau:        req.Tau,
		Population: &population,
		CreatedAt:  core.Now(),
	}

	selected, err := primes.Select(actions, req.Selector)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		result.Marker = domstats.MarkerNoPrimesFound
		result.Fingerprint = s.fingerprint(req, result)
		s.logger.Info("run %s: judge %s produced no prime mistakes", result.RunID.String(), result.Judge)
		return result, nil
	}

	result.NumPrimes = len(selected)
	comps := make([]int, len(selected))
	for i, a := range selected {
		comps[i] = a.Complexity
	}
	result.PrimeComplexities = comps

	series, err := primes.ComputeSeries(selected, req.XMax, req.Baseline)
	if err != nil {
		return nil, err
	}
	result.Series = series
	result.Growth = growth.Analyze(series, req.ExpectedExponent)

	density, err := primes.DensityBins(selected, req.XMax, 10)
	if err != nil {
		return nil, err
	}
	result.Density = density

	for _, model := range req.FitModels {
		fit, err := growth.FitModel(series, model)
		if err != nil {
			return nil, err
		}
		result.Fits = append(result.Fits, *fit)
	}

	if req.Spectrum != nil {
		mode := req.Spectrum.Mode
		if mode == "" {
			mode = spectral.ModeCount
		}
		sp, err := spectral.Analyze(selected, req.XMax, mode, req.Spectrum.NumPeaks)
		if err != nil {
			return nil, err
		}
		result.Spectrum = sp
	}

	if req.ZeroScan != nil {
		seq, err := spectral.BuildSequence(selected, req.XMax, spectral.ModeCount)
		if err != nil {
			return nil, err
		}
		zeros, err := zeta.FindApproximateZeros(ctx, seq, *req.ZeroScan)
		if err != nil {
			return nil, err
		}
		result.Zeros = zeros
	}

	result.Fingerprint = s.fingerprint(req, result)
	s.logger.Info("run %s: judge %s, %d primes, exponent %.4f, satisfied %t",
		result.RunID.String(), result.Judge, result.NumPrimes,
		result.Growth.Exponent, result.Growth.HypothesisSatisfied)

	if req.Archive && s.archive != nil {
		if err := s.archive.SaveRun(ctx, result.Summary()); err != nil {
			s.logger.Warn("run %s: archive failed: %v", result.RunID.String(), err)
		}
	}
	return result, nil
}

// Summary collapses a result into its archivable record.
func (r *RunResult) Summary() domstats.RunSummary {
	summary := domstats.RunSummary{
		RunID:       r.RunID,
		Judge:       r.Judge,
		Seed:        r.Seed,
		NumActions:  r.Population.NumActions,
		NumPrimes:   r.NumPrimes,
		Fingerprint: r.Fingerprint,
		CreatedAt:   r.CreatedAt,
	}
	if r.Series != nil {
		summary.XMax = r.Series.XMax
		summary.BaselineModel = r.Series.BaselineModel
	}
	if r.Growth != nil {
		summary.Exponent = r.Growth.Exponent
		summary.RSquared = r.Growth.RSquared
		summary.Satisfied = r.Growth.HypothesisSatisfied
	}
	return summary
}

func (s *SimulationService) fingerprint(req RunRequest, result *RunResult) core.RunFingerprint {
	params := map[string]interface{}{
		"judge":    result.Judge,
		"tau":      req.Tau,
		"seed":     req.World.Seed,
		"actions":  req.World.NumActions,
		"dist":     req.World.ComplexityDist,
		"strategy": req.Selector.Strategy,
		"quantile": req.Selector.ImportanceQuantile,
		"x_max":    req.XMax,
		"baseline": req.Baseline.Model,
	}
	headline := map[string]float64{
		"num_primes": float64(result.NumPrimes),
	}
	if result.Growth != nil && !result.Growth.Insufficient {
		headline["exponent"] = result.Growth.Exponent
		headline["max_abs_error"] = result.Growth.MaxAbsError
	}
	return core.ComputeRunFingerprint(params, headline)
}

// CompareRequest describes a multi-judge comparison over one shared world.
// An empty Judges map means the standard four-judge panel.
type CompareRequest struct {
	World            world.GeneratorConfig   `json:"world"`
	Judges           map[string]judge.Config `json:"judges,omitempty"`
	Tau              float64                 `json:"tau"`
	Selector         primes.SelectorConfig   `json:"selector"`
	XMax             int                     `json:"x_max,omitempty"`
	Baseline         primes.BaselineConfig   `json:"baseline"`
	ExpectedExponent float64                 `json:"expected_exponent,omitempty"`
	Rankings         []string                `json:"rankings,omitempty"`
	WithBias         bool                    `json:"with_bias,omitempty"`
	BiasBins         int                     `json:"bias_bins,omitempty"`
}

func (r *CompareRequest) runDefaults() RunRequest {
	run := RunRequest{
		World:            r.World,
		Tau:              r.Tau,
		Selector:         r.Selector,
		XMax:             r.XMax,
		Baseline:         r.Baseline,
		ExpectedExponent: r.ExpectedExponent,
	}
	run.applyDefaults()
	return run
}

// CompareResult is a comparison plus its requested rankings and optional
// per-judge bias probes.
type CompareResult struct {
	Comparison domstats.Comparison               `json:"comparison"`
	Rankings   []domstats.Ranking                `json:"rankings,omitempty"`
	Bias       map[string]*domstats.BiasAnalysis `json:"bias,omitempty"`
}

// Compare generates one population and measures every judge in the panel
// against it concurrently.
func (s *SimulationService) Compare(ctx context.Context, req CompareRequest) (*CompareResult, error) {
	run := req.runDefaults()

	gen, err := world.NewGenerator(run.World)
	if err != nil {
		return nil, err
	}

	panel := make(map[string]judge.Judge, len(req.Judges))
	if len(req.Judges) == 0 {
		panel = judge.DefaultPanel()
	} else {
		for name, cfg := range req.Judges {
			j, err := judge.New(cfg)
			if err != nil {
				return nil, err
			}
			panel[name] = j
		}
	}

	actions := gen.Generate()

	var mu sync.Mutex
	results := make(map[string][]action.Action, len(panel))

	eg, egCtx := errgroup.WithContext(ctx)
	for name, j := range panel {
		name, j := name, j
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			copied := action.Clone(actions)
			if err := judge.EvaluateActions(copied, j, run.Tau, judge.DeriveSeed(run.World.Seed, name)); err != nil {
				return err
			}
			mu.Lock()
			results[name] = copied
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	cfg := compare.Config{
		Selector:         run.Selector,
		XMax:             run.XMax,
		Baseline:         run.Baseline,
		ExpectedExponent: run.ExpectedExponent,
	}
	cmp, err := compare.Judges(results, cfg)
	if err != nil {
		return nil, err
	}
	cmp.Tau = run.Tau
	cmp.Seed = run.World.Seed

	out := &CompareResult{Comparison: cmp}

	metrics := req.Rankings
	if len(metrics) == 0 {
		metrics = []string{compare.MetricMAE, compare.MetricHypothesis}
	}
	for _, metric := range metrics {
		ranking, err := compare.Rank(cmp, metric)
		if err != nil {
			return nil, err
		}
		out.Rankings = append(out.Rankings, ranking)
	}

	if req.WithBias {
		bins := req.BiasBins
		if bins == 0 {
			bins = 5
		}
		out.Bias = make(map[string]*domstats.BiasAnalysis, len(results))
		names := make([]string, 0, len(results))
		for name := range results {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ba, err := compare.StructuralBias(results[name], bins)
			if err != nil {
				return nil, err
			}
			out.Bias[name] = ba
		}
	}

	s.logger.Info("compared %d judges over %d actions (tau %.3f, seed %d)",
		len(panel), run.World.NumActions, run.Tau, run.World.Seed)
	return out, nil
}

// ListRuns surfaces the archived run history, newest first.
func (s *SimulationService) ListRuns(ctx context.Context, limit int) ([]domstats.RunSummary, error) {
	if s.archive == nil {
		return nil, nil
	}
	return s.archive.ListRuns(ctx, limit)
}

// GetRun loads one archived run summary by id.
func (s *SimulationService) GetRun(ctx context.Context, id core.RunID) (*domstats.RunSummary, error) {
	if s.archive == nil {
		return nil, core.ErrRunNotFound
	}
	return s.archive.GetRun(ctx, id)
}
