package laeq

import (
	"fmt"
	"math"
)

// Reduce returns the energy average 10*log10(mean(10^(L/10))) of levels at full precision.
// Levels are shifted by their maximum before exponentiation so large inputs do not overflow.
func Reduce(levels []float64) (float64, error) {
	if len(levels) == 0 {
		return 0, ErrNoData
	}

	peak := math.Inf(-1)
	for i, l := range levels {
		if !finite(l) {
			return 0, fmt.Errorf("%w: index %d", ErrNonFinite, i)
		}
		if l > peak {
			peak = l
		}
	}

	var energy float64
	for _, l := range levels {
		energy += math.Pow(10, (l-peak)/10)
	}
	return peak + 10*math.Log10(energy/float64(len(levels))), nil
}
