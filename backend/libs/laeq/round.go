package laeq

import (
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// Round1 rounds v half away from zero to one decimal place for display. The rounding is done
// on the shortest decimal form of v, so 65.65 gives 65.7 even though its binary value is
// slightly below.
func Round1(v float64) float64 {
	if !finite(v) {
		return v
	}

	var d apd.Decimal
	if _, _, err := d.SetString(strconv.FormatFloat(v, 'f', -1, 64)); err != nil {
		return v
	}

	ctx := apd.BaseContext.WithPrecision(34)
	ctx.Rounding = apd.RoundHalfUp

	var out apd.Decimal
	if _, err := ctx.Quantize(&out, &d, -1); err != nil {
		return v
	}
	f, err := out.Float64()
	if err != nil {
		return v
	}
	return f
}
