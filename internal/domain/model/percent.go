package model

import "math"

// Percent returns part/total as a percentage rounded to one decimal place.
// Exact ties round to the even digit, so 1/16 gives 6.2. A zero or negative
// total yields 0.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	x := float64(part) / float64(total) * 100
	return math.RoundToEven(x*10) / 10
}
