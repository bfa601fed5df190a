package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"erhsim/domain/core"
	domstats "erhsim/domain/stats"
)

// Output formats
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatText     = "text"
	FormatHTML     = "html"
)

// Formats lists the supported output formats in stable order.
func Formats() []string {
	return []string{FormatHTML, FormatJSON, FormatMarkdown, FormatText}
}

// Render serializes a judge comparison in the requested format. Judges
// appear in ascending name order in every format.
func Render(cmp domstats.Comparison, format string) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return []byte(renderMarkdown(cmp)), nil
	case FormatJSON:
		return json.MarshalIndent(cmp, "", "  ")
	case FormatText:
		return []byte(renderText(cmp)), nil
	case FormatHTML:
		return renderHTML(cmp), nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownFormat, format)
	}
}

func renderMarkdown(cmp domstats.Comparison) string {
	var b strings.Builder

	b.WriteString("# Judgment Quality Comparison\n\n")
	b.WriteString(renderParams(cmp))
	b.WriteString("\n")

	b.WriteString("| Judge | Actions | Primes | Mistake Rate | MAE | Exponent | Hypothesis Satisfied | Growth Rate |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---|---|\n")
	for _, name := range cmp.Names() {
		row := cmp.Judges[name]
		if row.Err != "" {
			b.WriteString(fmt.Sprintf("| %s | %d | - | - | - | - | - | %s |\n",
				row.Judge, row.NumActions, row.Err))
			continue
		}
		b.WriteString(fmt.Sprintf("| %s | %d | %d | %s | %s | %s | %s | %s |\n",
			row.Judge, row.NumActions, row.NumPrimes,
			fmtFloat(row.MistakeRate), fmtFloat(row.MAE), fmtFloat(row.Exponent),
			yesNo(row.HypothesisSatisfied), row.Classification))
	}
	b.WriteString("\n")

	for _, name := range cmp.Names() {
		row := cmp.Judges[name]
		b.WriteString(fmt.Sprintf("## %s\n\n", row.Judge))
		if row.Err == "" {
			b.WriteString(fmt.Sprintf("- mistakes: %d (rate %s)\n", row.NumMistakes, fmtFloat(row.MistakeRate)))
			b.WriteString(fmt.Sprintf("- primes: %d (ratio %s)\n", row.NumPrimes, fmtFloat(row.PrimeRatio)))
			b.WriteString(fmt.Sprintf("- error: MAE %s, RMSE %s\n", fmtFloat(row.MAE), fmtFloat(row.RMSE)))
			b.WriteString(fmt.Sprintf("- counting error: max %s, mean %s\n", fmtFloat(row.MaxAbsError), fmtFloat(row.MeanAbsError)))
			b.WriteString(fmt.Sprintf("- fit: exponent %s, deviation %s, r² %s\n",
				fmtFloat(row.Exponent), fmtFloat(row.Deviation), fmtFloat(row.RSquared)))
		}
		b.WriteString("\n")
		b.WriteString(interpretRow(row))
		b.WriteString("\n\n")
	}

	return b.String()
}

func renderParams(cmp domstats.Comparison) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Counting horizon x_max=%d, baseline model %s", cmp.XMax, cmp.BaselineModel))
	if cmp.Tau > 0 {
		b.WriteString(fmt.Sprintf(", mistake threshold τ=%s", fmtFloat(cmp.Tau)))
	}
	if cmp.Seed != 0 {
		b.WriteString(fmt.Sprintf(", seed %d", cmp.Seed))
	}
	b.WriteString(".\n")
	if !cmp.CreatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Generated %s.\n", cmp.CreatedAt.String()))
	}
	return b.String()
}

// interpretRow turns one metrics row into a plain-language paragraph.
func interpretRow(row domstats.JudgeMetrics) string {
	switch {
	case row.Err == domstats.MarkerNoPrimesFound:
		return fmt.Sprintf("%s made no prime mistakes under the current threshold; the counting pipeline has nothing to fit.", row.Judge)
	case row.Err != "":
		return fmt.Sprintf("%s could not be analyzed: %s.", row.Judge, row.Err)
	case row.Classification == domstats.MarkerInsufficientData:
		return fmt.Sprintf("%s produced too few usable error points to estimate a growth exponent.", row.Judge)
	case row.HypothesisSatisfied:
		return fmt.Sprintf("Prime mistakes of %s accumulate like x^%.2f, within tolerance of the expected exponent (deviation %.3f). The error term stays %s.",
			row.Judge, row.Exponent, row.Deviation, row.Classification)
	default:
		return fmt.Sprintf("Prime mistakes of %s grow like x^%.2f, outside the expected tolerance (deviation %.3f); the error term is classified %s.",
			row.Judge, row.Exponent, row.Deviation, row.Classification)
	}
}

func renderText(cmp domstats.Comparison) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("x_max: %d\n", cmp.XMax))
	b.WriteString(fmt.Sprintf("baseline: %s\n", cmp.BaselineModel))
	if cmp.Tau > 0 {
		b.WriteString(fmt.Sprintf("tau: %s\n", fmtFloat(cmp.Tau)))
	}
	if cmp.Seed != 0 {
		b.WriteString(fmt.Sprintf("seed: %d\n", cmp.Seed))
	}

	for _, name := range cmp.Names() {
		row := cmp.Judges[name]
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("judge: %s\n", row.Judge))
		b.WriteString(fmt.Sprintf("actions: %d\n", row.NumActions))
		b.WriteString(fmt.Sprintf("mistakes: %d\n", row.NumMistakes))
		if row.Err != "" {
			b.WriteString(fmt.Sprintf("error: %s\n", row.Err))
			continue
		}
		b.WriteString(fmt.Sprintf("primes: %d\n", row.NumPrimes))
		b.WriteString(fmt.Sprintf("mistake_rate: %s\n", fmtFloat(row.MistakeRate)))
		b.WriteString(fmt.Sprintf("mae: %s\n", fmtFloat(row.MAE)))
		b.WriteString(fmt.Sprintf("rmse: %s\n", fmtFloat(row.RMSE)))
		b.WriteString(fmt.Sprintf("exponent: %s\n", fmtFloat(row.Exponent)))
		b.WriteString(fmt.Sprintf("deviation: %s\n", fmtFloat(row.Deviation)))
		b.WriteString(fmt.Sprintf("hypothesis_satisfied: %t\n", row.HypothesisSatisfied))
		b.WriteString(fmt.Sprintf("growth_rate: %s\n", row.Classification))
	}

	return b.String()
}

func renderHTML(cmp domstats.Comparison) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Judgment Quality Comparison",
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML([]byte(renderMarkdown(cmp)), p, renderer)
}

func fmtFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", v)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
