package excel

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	domstats "erhsim/domain/stats"
)

func sampleSeries() *domstats.CountingSeries {
	return &domstats.CountingSeries{
		X:             []float64{1, 2, 3},
		Pi:            []float64{0, 1, 2},
		Baseline:      []float64{0.1, 0.2, 0.3},
		Err:           []float64{-0.1, 0.8, 1.7},
		XMax:          3,
		BaselineModel: "linear",
		NumPrimes:     2,
	}
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.xlsx")

	wb := Workbook{
		Series: sampleSeries(),
		Spectrum: &domstats.Spectrum{
			Mode:        "count",
			Frequencies: []float64{0, 0.25},
			Amplitudes:  []float64{1, 0.5},
			Peaks:       []domstats.Peak{{Frequency: 0.25, Amplitude: 0.5, Period: 4}},
		},
		Zeros: []domstats.ZeroHit{{Real: 0.5, Imag: 14.1, Magnitude: 0.02}},
		Comparison: &domstats.Comparison{
			Judges: map[string]domstats.JudgeMetrics{
				"noisy": {Judge: "noisy", NumActions: 10, NumMistakes: 4, NumPrimes: 1, MAE: 0.3},
			},
		},
	}
	if err := WriteWorkbook(path, wb); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Series", "Spectrum", "Peaks", "Zeros", "Comparison"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
			t.Errorf("missing sheet %q", sheet)
		}
	}

	got, err := f.GetCellValue("Series", "B3")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if got != "1" {
		t.Errorf("Series!B3 = %q, want pi(2) = 1", got)
	}

	judge, err := f.GetCellValue("Comparison", "A2")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if judge != "noisy" {
		t.Errorf("Comparison!A2 = %q, want noisy", judge)
	}
}

func TestWriteWorkbookEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := WriteWorkbook(path, Workbook{}); err == nil {
		t.Fatal("expected an error for an empty workbook")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("empty workbook should not leave a file behind")
	}
}

func TestWriteSeriesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.csv")
	if err := WriteSeriesCSV(path, sampleSeries()); err != nil {
		t.Fatalf("WriteSeriesCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(records))
	}
	if records[0][0] != "x" || records[0][3] != "error" {
		t.Errorf("header = %v", records[0])
	}
	if records[2][1] != "1" {
		t.Errorf("pi(2) = %q, want 1", records[2][1])
	}
}
