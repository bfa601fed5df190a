package primes

import (
	"fmt"

	"erhsim/domain/action"
	"erhsim/domain/core"
	domstats "erhsim/domain/stats"
)

// DensityBins histograms prime complexities over [1, xMax] in fixed-width
// bins, the raw material for density plots in the external report layer.
func DensityBins(primes []action.Action, xMax, binSize int) (*domstats.DensityBins, error) {
	if xMax < 1 {
		return nil, core.NewConfigError("x_max", fmt.Sprintf("must be >= 1, got %d", xMax))
	}
	if binSize < 1 {
		return nil, core.NewConfigError("bin_size", fmt.Sprintf("must be >= 1, got %d", binSize))
	}

	db := &domstats.DensityBins{BinSize: binSize}
	for lo := 1; lo <= xMax; lo += binSize {
		hi := lo + binSize
		count := 0.0
		for _, p := range primes {
			if p.Complexity >= lo && p.Complexity < hi {
				count++
			}
		}
		db.Centers = append(db.Centers, float64(lo)+float64(binSize)/2)
		db.Counts = append(db.Counts, count)
	}
	return db, nil
}
