package models

import "math"

// Round2 rounds v to two decimal places, half away from zero on the binary value
// scaled by 100. So 1.005 (stored as 1.00499...) becomes 1.0.
// Non-finite inputs become 0 so a record can never carry NaN or Inf.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
