package excel

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	domstats "erhsim/domain/stats"
	"erhsim/internal/errors"
)

// Workbook bundles the result sections to export. Nil sections are skipped;
// at least one must be present.
type Workbook struct {
	Series     *domstats.CountingSeries
	Spectrum   *domstats.Spectrum
	Zeros      []domstats.ZeroHit
	Comparison *domstats.Comparison
}

// WriteWorkbook writes one sheet per populated section. The numbers land
// unrounded; plotting and presentation happen downstream.
func WriteWorkbook(path string, wb Workbook) error {
	f := excelize.NewFile()
	firstSheet := true

	if wb.Series != nil {
		rows := make([][]interface{}, len(wb.Series.X))
		for i := range wb.Series.X {
			rows[i] = []interface{}{wb.Series.X[i], wb.Series.Pi[i], wb.Series.Baseline[i], wb.Series.Err[i]}
		}
		if err := writeSheet(f, "Series", []string{"x", "pi", "baseline", "error"}, rows, &firstSheet); err != nil {
			return err
		}
	}

	if wb.Spectrum != nil {
		rows := make([][]interface{}, len(wb.Spectrum.Frequencies))
		for i := range wb.Spectrum.Frequencies {
			rows[i] = []interface{}{wb.Spectrum.Frequencies[i], wb.Spectrum.Amplitudes[i]}
		}
		if err := writeSheet(f, "Spectrum", []string{"frequency", "amplitude"}, rows, &firstSheet); err != nil {
			return err
		}
		if len(wb.Spectrum.Peaks) > 0 {
			rows = make([][]interface{}, len(wb.Spectrum.Peaks))
			for i, p := range wb.Spectrum.Peaks {
				rows[i] = []interface{}{p.Frequency, p.Amplitude, p.Period}
			}
			if err := writeSheet(f, "Peaks", []string{"frequency", "amplitude", "period"}, rows, &firstSheet); err != nil {
				return err
			}
		}
	}

	if len(wb.Zeros) > 0 {
		rows := make([][]interface{}, len(wb.Zeros))
		for i, z := range wb.Zeros {
			rows[i] = []interface{}{z.Real, z.Imag, z.Magnitude}
		}
		if err := writeSheet(f, "Zeros", []string{"real", "imag", "magnitude"}, rows, &firstSheet); err != nil {
			return err
		}
	}

	if wb.Comparison != nil {
		headers := []string{
			"judge", "actions", "mistakes", "primes", "mistake_rate",
			"mae", "rmse", "exponent", "deviation", "hypothesis_satisfied",
			"growth_rate", "error",
		}
		names := wb.Comparison.Names()
		rows := make([][]interface{}, len(names))
		for i, name := range names {
			m := wb.Comparison.Judges[name]
			rows[i] = []interface{}{
				m.Judge, m.NumActions, m.NumMistakes, m.NumPrimes, m.MistakeRate,
				m.MAE, m.RMSE, cellValue(m.Exponent), cellValue(m.Deviation),
				m.HypothesisSatisfied, m.Classification, m.Err,
			}
		}
		if err := writeSheet(f, "Comparison", headers, rows, &firstSheet); err != nil {
			return err
		}
	}

	if firstSheet {
		return errors.ExportError("nothing to export", nil)
	}
	if err := f.SaveAs(path); err != nil {
		return errors.ExportError("failed to save workbook", err)
	}
	return nil
}

// writeSheet fills one sheet with a header row plus data rows. The default
// Sheet1 gets renamed for the first section so no empty sheet survives.
func writeSheet(f *excelize.File, name string, headers []string, rows [][]interface{}, first *bool) error {
	if *first {
		if err := f.SetSheetName("Sheet1", name); err != nil {
			return err
		}
		*first = false
	} else {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(name, cell, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(name, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// cellValue keeps NaN out of numeric cells
func cellValue(v float64) interface{} {
	if math.IsNaN(v) {
		return "NaN"
	}
	return v
}

// WriteSeriesCSV writes the counting series as a flat CSV hand-off.
func WriteSeriesCSV(path string, s *domstats.CountingSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.ExportError("failed to create csv file", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write([]string{"x", "pi", "baseline", "error"}); err != nil {
		return err
	}
	for i := range s.X {
		record := []string{
			formatFloat(s.X[i]),
			formatFloat(s.Pi[i]),
			formatFloat(s.Baseline[i]),
			formatFloat(s.Err[i]),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.ExportError("failed to flush csv", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
