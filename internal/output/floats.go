package output

import "math"

// roundFactor pins encoded floats to six decimal places.
const roundFactor = 1e6

// RoundFloat rounds a float to at most six decimal places so that ratio
// arithmetic encodes identically across runs.
func RoundFloat(f float64) float64 {
	return math.Round(f*roundFactor) / roundFactor
}
