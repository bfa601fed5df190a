package zeta

import (
	"context"
	"fmt"
	"math/cmplx"
	"sync"

	"golang.org/x/sync/semaphore"

	"erhsim/domain/core"
	domstats "erhsim/domain/stats"
)

// term is one nonzero position in the prime sequence: complexity c and its
// weight m (count or indicator value).
type term struct {
	c float64
	m float64
}

// Product evaluates the Euler-product-style series over the sequence's
// nonzero positions:
//
//	Z(s) = prod over c >= 2 of (1 - c^(-s))^(-m[c])
//
// Position c = 1 is always skipped; its factor (1 - 1^(-s)) is identically
// zero and would put a pole at every s. A factor whose base degenerates to
// zero returns Inf instead of dividing through it.
func Product(s complex128, seq []float64) complex128 {
	return product(s, collectTerms(seq))
}

func collectTerms(seq []float64) []term {
	terms := make([]term, 0, len(seq))
	for i, m := range seq {
		c := i + 1
		if c < 2 || m == 0 {
			continue
		}
		terms = append(terms, term{c: float64(c), m: m})
	}
	return terms
}

func product(s complex128, terms []term) complex128 {
	z := complex(1, 0)
	for _, t := range terms {
		base := 1 - cmplx.Pow(complex(t.c, 0), -s)
		if cmplx.Abs(base) < 1e-12 {
			return cmplx.Inf()
		}
		z *= cmplx.Pow(base, complex(-t.m, 0))
	}
	return z
}

// ScanConfig bounds the zero-search grid
type ScanConfig struct {
	RealMin    float64 `json:"real_min"`
	RealMax    float64 `json:"real_max"`
	ImagMin    float64 `json:"imag_min"`
	ImagMax    float64 `json:"imag_max"`
	GridSize   int     `json:"grid_size"`
	Threshold  float64 `json:"threshold"`
	MaxWorkers int64   `json:"max_workers,omitempty"`
}

// DefaultScanConfig returns the critical-strip analogue scan
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		RealMin:   0.3,
		RealMax:   0.7,
		ImagMin:   0,
		ImagMax:   30,
		GridSize:  50,
		Threshold: 0.15,
	}
}

// FindApproximateZeros scans a GridSize x GridSize grid over the configured
// rectangle and records every point where |Z(s)| falls below the threshold.
// This is a coarse heuristic: hits are candidate zeros only, and genuine
// zeros between grid points are missed. Rows are scanned concurrently with
// a weighted semaphore bound; output is row-major (imaginary part outer,
// real part inner) regardless of scheduling.
func FindApproximateZeros(ctx context.Context, seq []float64, cfg ScanConfig) ([]domstats.ZeroHit, error) {
	def := DefaultScanConfig()
	if cfg.GridSize == 0 {
		cfg.GridSize = def.GridSize
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.RealMin == 0 && cfg.RealMax == 0 {
		cfg.RealMin, cfg.RealMax = def.RealMin, def.RealMax
	}
	if cfg.ImagMin == 0 && cfg.ImagMax == 0 {
		cfg.ImagMax = def.ImagMax
	}

	if cfg.GridSize < 2 {
		return nil, core.NewConfigError("grid_size", fmt.Sprintf("must be >= 2, got %d", cfg.GridSize))
	}
	if cfg.RealMin >= cfg.RealMax {
		return nil, core.NewRangeError("real_range", cfg.RealMin, cfg.RealMax)
	}
	if cfg.ImagMin >= cfg.ImagMax {
		return nil, core.NewRangeError("imag_range", cfg.ImagMin, cfg.ImagMax)
	}
	if cfg.Threshold <= 0 {
		return nil, core.NewConfigError("threshold", fmt.Sprintf("must be positive, got %g", cfg.Threshold))
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := collectTerms(seq)
	n := cfg.GridSize
	realStep := (cfg.RealMax - cfg.RealMin) / float64(n-1)
	imagStep := (cfg.ImagMax - cfg.ImagMin) / float64(n-1)

	rowHits := make([][]domstats.ZeroHit, n)
	sem := semaphore.NewWeighted(cfg.MaxWorkers)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(row int) {
			defer wg.Done()
			defer sem.Release(1)

			im := cfg.ImagMin + float64(row)*imagStep
			var hits []domstats.ZeroHit
			for col := 0; col < n; col++ {
				re := cfg.RealMin + float64(col)*realStep
				mag := cmplx.Abs(product(complex(re, im), terms))
				if mag < cfg.Threshold {
					hits = append(hits, domstats.ZeroHit{Real: re, Imag: im, Magnitude: mag})
				}
			}
			rowHits[row] = hits
		}(i)
	}
	wg.Wait()

	var zeros []domstats.ZeroHit
	for _, hits := range rowHits {
		zeros = append(zeros, hits...)
	}
	return zeros, nil
}
