package evaluation

import (
	"math"
	"slices"
)

// Stats summarizes the same measurement over several runs.
type Stats struct {
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Consistency float64 `json:"consistency"`
}

func Summarize(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	return Stats{
		Mean:        Mean(values),
		StdDev:      StdDev(values),
		Min:         slices.Min(values),
		Max:         slices.Max(values),
		Consistency: Consistency(values),
	}
}

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev is the sample standard deviation.
func StdDev(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	mean := Mean(values)
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}

// Consistency maps the coefficient of variation onto (0,1]; identical values give 1.
func Consistency(values []float64) float64 {
	if len(values) <= 1 {
		return 1.0
	}
	mean := Mean(values)
	if mean == 0 {
		return 1.0
	}
	cv := StdDev(values) / mean
	return math.Min(1.0, 1.0/(1.0+cv))
}
