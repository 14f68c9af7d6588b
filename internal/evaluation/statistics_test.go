package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	stats := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})

	assert.InDelta(t, 5.0, stats.Mean, 1e-9)
	assert.InDelta(t, 2.138, stats.StdDev, 1e-3)
	assert.Equal(t, 2.0, stats.Min)
	assert.Equal(t, 9.0, stats.Max)
	assert.InDelta(t, 1/(1+2.138/5.0), stats.Consistency, 1e-3)
}

func TestSummarize_Edges(t *testing.T) {
	assert.Equal(t, Stats{}, Summarize(nil))

	single := Summarize([]float64{0.7})
	assert.Equal(t, 0.7, single.Mean)
	assert.Zero(t, single.StdDev)
	assert.Equal(t, 1.0, single.Consistency)

	assert.Equal(t, 1.0, Consistency([]float64{0, 0, 0}))
}
