package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"erhsim/adapters/excel"
	"erhsim/adapters/postgres"
	"erhsim/app"
	"erhsim/domain/core"
	"erhsim/internal"
	"erhsim/internal/compare"
	"erhsim/internal/config"
	"erhsim/internal/growth"
	"erhsim/internal/judge"
	"erhsim/internal/primes"
	"erhsim/internal/report"
	"erhsim/internal/world"
	"erhsim/internal/zeta"
	"erhsim/ports"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	rootCmd := &cobra.Command{
		Use:           "erhsim",
		Short:         "Simulate judged moral worlds and analyze prime-mistake growth",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return core.NewConfigError("flags", err.Error())
	})

	rootCmd.AddCommand(
		newRunCmd(cfg),
		newCompareCmd(cfg),
		newRunsCmd(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if core.IsConfigError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	var (
		judgeVariant  string
		biasStrength  float64
		noiseScale    float64
		threshold     float64
		amplification float64

		actions   int
		dist      string
		ambiguity float64
		seed      int64
		tau       float64

		strategy string
		quantile float64

		xMax             int
		baseline         string
		expectedExponent float64
		fitModels        []string
		spectrum         string
		zeros            bool

		jsonOut string
		csvOut  string
		xlsxOut string
		archive bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation end to end",
		Long: `Generate a synthetic action population, judge every action, select the
prime mistakes and fit how the counting error grows with complexity.

Example: erhsim run --judge noisy --actions 5000 --tau 0.2 --seed 7 --spectrum count`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jc := judge.Config{Variant: judgeVariant}
			if cmd.Flags().Changed("bias-strength") {
				jc.BiasStrength = &biasStrength
			}
			if cmd.Flags().Changed("noise") {
				jc.NoiseScale = &noiseScale
			}
			if cmd.Flags().Changed("threshold") {
				jc.Threshold = &threshold
			}
			if cmd.Flags().Changed("amplification") {
				jc.Amplification = &amplification
			}
			req := app.RunRequest{
				World: world.GeneratorConfig{
					NumActions:     actions,
					ComplexityDist: dist,
					MoralAmbiguity: ambiguity,
					Seed:           seed,
				},
				Judge: jc,
				Tau: tau,
				Selector: primes.SelectorConfig{
					Strategy:           strategy,
					ImportanceQuantile: quantile,
				},
				XMax:             xMax,
				Baseline:         primes.BaselineConfig{Model: baseline},
				ExpectedExponent: expectedExponent,
				FitModels:        fitModels,
				Archive:          archive,
			}
			if spectrum != "" {
				req.Spectrum = &app.SpectrumRequest{Mode: spectrum}
			}
			if zeros {
				req.ZeroScan = &zeta.ScanConfig{}
			}
			return runRun(cmd.Context(), cfg, req, runOutputs{
				jsonPath: jsonOut,
				csvPath:  csvOut,
				xlsxPath: xlsxOut,
			})
		},
	}

	def := world.DefaultGeneratorConfig()
	cmd.Flags().StringVar(&judgeVariant, "judge", judge.VariantNoisy, "Judge variant: "+strings.Join(judge.Variants(), "|"))
	cmd.Flags().Float64Var(&biasStrength, "bias-strength", 0.2, "Biased judge offset (unset = variant default)")
	cmd.Flags().Float64Var(&noiseScale, "noise", 0, "Judge noise sigma (unset = variant default)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.5, "Conservative judge clamp point (unset = variant default)")
	cmd.Flags().Float64Var(&amplification, "amplification", 1.5, "Radical judge deviation multiplier (unset = variant default)")
	cmd.Flags().IntVar(&actions, "actions", cfg.Simulation.NumActions, "Number of actions to generate")
	cmd.Flags().StringVar(&dist, "dist", def.ComplexityDist, "Complexity distribution: "+strings.Join(world.Distributions(), "|"))
	cmd.Flags().Float64Var(&ambiguity, "ambiguity", def.MoralAmbiguity, "Moral ambiguity in [0,1]")
	cmd.Flags().Int64Var(&seed, "seed", cfg.Simulation.Seed, "Random seed for deterministic runs")
	cmd.Flags().Float64Var(&tau, "tau", cfg.Simulation.Tau, "Mistake threshold on |delta|")
	cmd.Flags().StringVar(&strategy, "strategy", primes.StrategyImportance, "Prime selection strategy: "+strings.Join(primes.Strategies(), "|"))
	cmd.Flags().Float64Var(&quantile, "quantile", 0.9, "Keep mistakes above this score quantile")
	cmd.Flags().IntVar(&xMax, "x-max", cfg.Simulation.XMax, "Counting series horizon")
	cmd.Flags().StringVar(&baseline, "baseline", "", "Baseline model: "+strings.Join(primes.BaselineModels(), "|"))
	cmd.Flags().Float64Var(&expectedExponent, "expected-exponent", 0.5, "Exponent the hypothesis predicts")
	cmd.Flags().StringSliceVar(&fitModels, "fit", nil, "Extra models to fit against |E(x)|: "+strings.Join(growth.Models(), "|"))
	cmd.Flags().StringVar(&spectrum, "spectrum", "", "Spectral analysis mode: count|indicator (empty = off)")
	cmd.Flags().BoolVar(&zeros, "zeros", false, "Scan the zeta product for approximate zeros")
	cmd.Flags().StringVar(&jsonOut, "json-out", "", "Write the full result as JSON to this file")
	cmd.Flags().StringVar(&csvOut, "csv", "", "Write the counting series as CSV to this file")
	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "Write series, spectrum and zeros to this workbook")
	cmd.Flags().BoolVar(&archive, "archive", false, "Archive the run summary (requires ARCHIVE_DSN)")

	return cmd
}

type runOutputs struct {
	jsonPath string
	csvPath  string
	xlsxPath string
}

func runRun(ctx context.Context, cfg *config.Config, req app.RunRequest, out runOutputs) error {
	logger := internal.NewDefaultLogger()

	arch, closeArchive, err := openArchive(ctx, cfg, req.Archive)
	if err != nil {
		return err
	}
	defer closeArchive()

	svc := app.NewSimulationService(arch, logger)

	fmt.Printf("🔬 Simulating %d actions under judge '%s' (seed %d, τ=%.2f)...\n",
		req.World.NumActions, req.Judge.Variant, req.World.Seed, req.Tau)

	result, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}

	printRunResult(result)

	if out.jsonPath != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		if err := os.WriteFile(out.jsonPath, data, 0644); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		fmt.Printf("✅ Result written to %s\n", out.jsonPath)
	}
	if out.csvPath != "" {
		if result.Series == nil {
			logger.Warn("no counting series to export, skipping %s", out.csvPath)
		} else {
			if err := excel.WriteSeriesCSV(out.csvPath, result.Series); err != nil {
				return err
			}
			fmt.Printf("✅ Series written to %s\n", out.csvPath)
		}
	}
	if out.xlsxPath != "" {
		if result.Series == nil {
			logger.Warn("no counting series to export, skipping %s", out.xlsxPath)
		} else {
			wb := excel.Workbook{
				Series:   result.Series,
				Spectrum: result.Spectrum,
				Zeros:    result.Zeros,
			}
			if err := excel.WriteWorkbook(out.xlsxPath, wb); err != nil {
				return err
			}
			fmt.Printf("✅ Workbook written to %s\n", out.xlsxPath)
		}
	}
	return nil
}

func printRunResult(res *app.RunResult) {
	fmt.Printf("\n📊 SIMULATION RESULTS\n")
	fmt.Printf("Run ID: %s\n", res.RunID)
	fmt.Printf("Fingerprint: %s\n", res.Fingerprint)

	p := res.Population
	fmt.Printf("Actions: %d (complexity %.0f-%.0f, mean %.1f, median %.1f)\n",
		p.NumActions, p.ComplexityMin, p.ComplexityMax, p.ComplexityMean, p.ComplexityMedian)
	fmt.Printf("Mistakes: %d (rate %.3f, MAE %.4f, RMSE %.4f)\n",
		p.NumMistakes, p.MistakeRate, p.MAE, p.RMSE)

	if res.Marker != "" {
		fmt.Printf("\n⚠️  %s: no prime mistakes under the current threshold, nothing to fit\n", res.Marker)
		return
	}

	fmt.Printf("Primes: %d\n", res.NumPrimes)

	g := res.Growth
	fmt.Printf("\n📈 GROWTH\n")
	if g.Insufficient {
		fmt.Printf("Too few usable error points for a fit (%d)\n", g.NumPoints)
		fmt.Printf("Max |E(x)|: %.4f, mean |E(x)|: %.4f\n", g.MaxAbsError, g.MeanAbsError)
	} else {
		fmt.Printf("|E(x)| ~ %.4f * x^%.4f (R² %.3f over %d points)\n",
			g.Constant, g.Exponent, g.RSquared, g.NumPoints)
		fmt.Printf("Classification: %s\n", g.Classification)
		fmt.Printf("Deviation from x^%.2f: %.4f\n", g.ExpectedExponent, g.Deviation)
		if g.HypothesisSatisfied {
			fmt.Printf("✅ Hypothesis satisfied within tolerance\n")
		} else {
			fmt.Printf("❌ Hypothesis not satisfied\n")
		}
	}

	for _, f := range res.Fits {
		if f.Err != "" {
			fmt.Printf("Fit %s: %s\n", f.Model, f.Err)
			continue
		}
		fmt.Printf("Fit %s: %s (R² %.3f, RMSE %.4f)\n", f.Model, f.Formula, f.RSquared, f.RMSE)
	}

	if res.Spectrum != nil {
		fmt.Printf("\nSpectrum (%s mode): %d peaks\n", res.Spectrum.Mode, len(res.Spectrum.Peaks))
		for _, pk := range res.Spectrum.Peaks {
			fmt.Printf("  f=%.4f amplitude=%.3f period=%.1f\n", pk.Frequency, pk.Amplitude, pk.Period)
		}
	}
	if len(res.Zeros) > 0 {
		fmt.Printf("\nZero candidates: %d\n", len(res.Zeros))
		for i, z := range res.Zeros {
			if i == 5 {
				fmt.Printf("  ... and %d more\n", len(res.Zeros)-5)
				break
			}
			fmt.Printf("  s = %.3f + %.3fi (|Z| %.4f)\n", z.Real, z.Imag, z.Magnitude)
		}
	}
}

func newCompareCmd(cfg *config.Config) *cobra.Command {
	var (
		judges  []string
		actions int
		seed    int64
		tau     float64

		strategy string
		quantile float64

		xMax             int
		baseline         string
		expectedExponent float64

		rankBy   []string
		bias     bool
		biasBins int

		format  string
		outPath string
		xlsxOut string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a panel of judges on one shared population",
		Long: `Generate a single population, measure every judge in the panel against
it, and rank the judges by the requested metrics.

Example: erhsim compare --actions 5000 --rank-by mae,hypothesis_satisfied --bias --format markdown --out report.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.CompareRequest{
				World: world.GeneratorConfig{
					NumActions: actions,
					Seed:       seed,
				},
				Tau: tau,
				Selector: primes.SelectorConfig{
					Strategy:           strategy,
					ImportanceQuantile: quantile,
				},
				XMax:             xMax,
				Baseline:         primes.BaselineConfig{Model: baseline},
				ExpectedExponent: expectedExponent,
				Rankings:         rankBy,
				WithBias:         bias,
				BiasBins:         biasBins,
			}
			if len(judges) > 0 {
				req.Judges = make(map[string]judge.Config, len(judges))
				for _, name := range judges {
					req.Judges[name] = judge.Config{Variant: name}
				}
			}
			return runCompare(cmd.Context(), req, format, outPath, xlsxOut)
		},
	}

	cmd.Flags().StringSliceVar(&judges, "judges", nil, "Judge variants to compare (empty = full panel)")
	cmd.Flags().IntVar(&actions, "actions", cfg.Simulation.NumActions, "Number of actions to generate")
	cmd.Flags().Int64Var(&seed, "seed", cfg.Simulation.Seed, "Random seed shared by the whole panel")
	cmd.Flags().Float64Var(&tau, "tau", cfg.Simulation.Tau, "Mistake threshold on |delta|")
	cmd.Flags().StringVar(&strategy, "strategy", primes.StrategyImportance, "Prime selection strategy: "+strings.Join(primes.Strategies(), "|"))
	cmd.Flags().Float64Var(&quantile, "quantile", 0.9, "Keep mistakes above this score quantile")
	cmd.Flags().IntVar(&xMax, "x-max", cfg.Simulation.XMax, "Counting series horizon")
	cmd.Flags().StringVar(&baseline, "baseline", "", "Baseline model: "+strings.Join(primes.BaselineModels(), "|"))
	cmd.Flags().Float64Var(&expectedExponent, "expected-exponent", 0.5, "Exponent the hypothesis predicts")
	cmd.Flags().StringSliceVar(&rankBy, "rank-by", nil, "Ranking metrics: "+strings.Join(compare.Metrics(), "|"))
	cmd.Flags().BoolVar(&bias, "bias", false, "Probe each judge for structural complexity bias")
	cmd.Flags().IntVar(&biasBins, "bias-bins", 0, "Complexity bins for the bias probe (0 = default)")
	cmd.Flags().StringVar(&format, "format", report.FormatText, "Report format: "+strings.Join(report.Formats(), "|"))
	cmd.Flags().StringVar(&outPath, "out", "", "Write the rendered report to this file instead of stdout")
	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "Write the comparison table to this workbook")

	return cmd
}

func runCompare(ctx context.Context, req app.CompareRequest, format, outPath, xlsxOut string) error {
	logger := internal.NewDefaultLogger()
	svc := app.NewSimulationService(nil, logger)

	numJudges := len(req.Judges)
	if numJudges == 0 {
		numJudges = len(judge.Variants())
	}
	fmt.Printf("🔬 Comparing %d judges over %d actions (seed %d, τ=%.2f)...\n",
		numJudges, req.World.NumActions, req.World.Seed, req.Tau)

	result, err := svc.Compare(ctx, req)
	if err != nil {
		return err
	}

	rendered, err := report.Render(result.Comparison, format)
	if err != nil {
		return err
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, rendered, 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("✅ Report written to %s\n", outPath)
	} else {
		fmt.Println()
		os.Stdout.Write(rendered)
	}

	for _, r := range result.Rankings {
		direction := "higher is better"
		if r.LowerBetter {
			direction = "lower is better"
		}
		fmt.Printf("\n🏆 Ranking by %s (%s): %s\n", r.Metric, direction, strings.Join(r.Order, " > "))
	}

	if len(result.Bias) > 0 {
		fmt.Printf("\n🔍 STRUCTURAL BIAS\n")
		for _, name := range result.Comparison.Names() {
			b, ok := result.Bias[name]
			if !ok {
				continue
			}
			if b.Err != "" {
				fmt.Printf("%s: %s\n", name, b.Err)
				continue
			}
			fmt.Printf("%s: %s\n", name, b.Interpretation)
		}
	}

	if xlsxOut != "" {
		cmp := result.Comparison
		if err := excel.WriteWorkbook(xlsxOut, excel.Workbook{Comparison: &cmp}); err != nil {
			return err
		}
		fmt.Printf("✅ Workbook written to %s\n", xlsxOut)
	}
	return nil
}

func newRunsCmd(cfg *config.Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), cfg, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")

	return cmd
}

func runList(ctx context.Context, cfg *config.Config, limit int) error {
	arch, closeArchive, err := openArchive(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer closeArchive()

	svc := app.NewSimulationService(arch, internal.NewDefaultLogger())
	runs, err := svc.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}
	fmt.Printf("📊 ARCHIVED RUNS (%d)\n", len(runs))
	for _, r := range runs {
		fmt.Printf("%s  %-12s seed=%-8d primes=%-5d exponent=%.4f satisfied=%-5t %s\n",
			r.CreatedAt.Time().Format("2006-01-02 15:04"), r.Judge, r.Seed,
			r.NumPrimes, r.Exponent, r.Satisfied, r.RunID)
	}
	return nil
}

// openArchive connects the Postgres run archive when asked for. The returned
// close func is always safe to defer.
func openArchive(ctx context.Context, cfg *config.Config, want bool) (ports.RunArchive, func(), error) {
	if !want {
		return nil, func() {}, nil
	}
	if !cfg.Archive.Enabled {
		return nil, nil, core.NewConfigError("ARCHIVE_DSN", "required for archive access")
	}
	db, err := postgres.Connect(cfg.Archive.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect run archive: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure archive schema: %w", err)
	}
	return postgres.NewArchive(db), func() { db.Close() }, nil
}
