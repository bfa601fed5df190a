package zeta

import (
	"context"
	"math/cmplx"
	"testing"

	"erhsim/domain/core"
)

// TestProductEmptySequence tests that no terms means the identity product
func TestProductEmptySequence(t *testing.T) {
	z := Product(complex(0.5, 10), make([]float64, 50))
	if z != complex(1, 0) {
		t.Errorf("Empty product = %v, want 1", z)
	}
}

// TestProductSingleTerm tests the closed form for one term.
// With one prime at c=2, Z(s) = (1 - 2^-s)^-1, so Z(1) = 2.
func TestProductSingleTerm(t *testing.T) {
	seq := make([]float64, 10)
	seq[1] = 1 // complexity 2

	z := Product(complex(1, 0), seq)
	if cmplx.Abs(z-complex(2, 0)) > 1e-12 {
		t.Errorf("Z(1) = %v, want 2", z)
	}
}

// TestProductSkipsComplexityOne tests that position c=1 never contributes
func TestProductSkipsComplexityOne(t *testing.T) {
	onlyOne := make([]float64, 10)
	onlyOne[0] = 5 // complexity 1, must be ignored

	z := Product(complex(0.5, 3), onlyOne)
	if z != complex(1, 0) {
		t.Errorf("Z with only c=1 mass = %v, want identity 1", z)
	}
}

// TestProductWeightedTerm tests that counts act as exponent weights.
// Two primes at c=2 square the single-prime factor.
func TestProductWeightedTerm(t *testing.T) {
	single := make([]float64, 10)
	single[1] = 1
	double := make([]float64, 10)
	double[1] = 2

	s := complex(1.2, 0.7)
	z1 := Product(s, single)
	z2 := Product(s, double)
	if cmplx.Abs(z2-z1*z1) > 1e-9 {
		t.Errorf("Weighted product %v should equal squared single %v", z2, z1*z1)
	}
}

// TestFindApproximateZerosValidation tests loud failures for bad scans
func TestFindApproximateZerosValidation(t *testing.T) {
	seq := make([]float64, 20)
	seq[4] = 1

	tests := []struct {
		name   string
		mutate func(*ScanConfig)
	}{
		{"grid too small", func(c *ScanConfig) { c.GridSize = 1 }},
		{"inverted real range", func(c *ScanConfig) { c.RealMin = 0.7; c.RealMax = 0.3 }},
		{"inverted imag range", func(c *ScanConfig) { c.ImagMin = 30; c.ImagMax = 0 }},
		{"negative threshold", func(c *ScanConfig) { c.Threshold = -0.1 }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultScanConfig()
			test.mutate(&cfg)
			if _, err := FindApproximateZeros(context.Background(), seq, cfg); err == nil {
				t.Errorf("Expected configuration error for %s", test.name)
			} else if !core.IsConfigError(err) {
				t.Errorf("Expected config error sentinel, got: %v", err)
			}
		})
	}
}

// TestFindApproximateZerosThreshold tests hit counting against a generous
// threshold: every grid point qualifies, so the hit count is the full grid
func TestFindApproximateZerosThreshold(t *testing.T) {
	seq := make([]float64, 20)
	seq[4] = 1 // complexity 5

	cfg := DefaultScanConfig()
	cfg.GridSize = 10
	cfg.Threshold = 1e9

	zeros, err := FindApproximateZeros(context.Background(), seq, cfg)
	if err != nil {
		t.Fatalf("FindApproximateZeros failed: %v", err)
	}
	if len(zeros) != 100 {
		t.Errorf("Expected all 100 grid points below a huge threshold, got %d", len(zeros))
	}
	for _, z := range zeros {
		if z.Real < cfg.RealMin || z.Real > cfg.RealMax {
			t.Errorf("Hit real part %f outside scan range", z.Real)
		}
		if z.Imag < cfg.ImagMin || z.Imag > cfg.ImagMax {
			t.Errorf("Hit imag part %f outside scan range", z.Imag)
		}
	}
}

// TestFindApproximateZerosDeterministic tests that concurrency does not
// perturb the result order or content
func TestFindApproximateZerosDeterministic(t *testing.T) {
	seq := make([]float64, 60)
	for _, c := range []int{2, 3, 5, 7, 11, 13, 17, 19, 23} {
		seq[c-1] = 1
	}

	cfg := DefaultScanConfig()
	cfg.GridSize = 20

	serial := cfg
	serial.MaxWorkers = 1
	parallel := cfg
	parallel.MaxWorkers = 8

	first, err := FindApproximateZeros(context.Background(), seq, serial)
	if err != nil {
		t.Fatalf("FindApproximateZeros failed: %v", err)
	}
	second, err := FindApproximateZeros(context.Background(), seq, parallel)
	if err != nil {
		t.Fatalf("FindApproximateZeros failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Worker count changed hit count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Hit %d diverged across worker counts: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// TestFindApproximateZerosCancellation tests the context abort path
func TestFindApproximateZerosCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seq := make([]float64, 20)
	seq[4] = 1
	cfg := DefaultScanConfig()
	cfg.MaxWorkers = 1

	if _, err := FindApproximateZeros(ctx, seq, cfg); err == nil {
		t.Error("Expected error from canceled context")
	}
}
