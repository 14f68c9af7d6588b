package merge

import (
	"testing"

	"github.com/agusespa/prsentinel/internal/types"
	"github.com/stretchr/testify/assert"
)

func eligibleInput() Input {
	return Input{
		Conclusion:    types.ConclusionSuccess,
		Score:         85,
		MinScore:      80,
		HasOptInLabel: true,
		Approvals:     1,
	}
}

func TestEligible_AllConditionsMet(t *testing.T) {
	ok, reasons := Eligible(eligibleInput())

	assert.True(t, ok)
	assert.Empty(t, reasons)
}

func TestEligible_ScoreAtMinimum(t *testing.T) {
	in := eligibleInput()
	in.Score = in.MinScore

	ok, _ := Eligible(in)

	assert.True(t, ok)
}

func TestEligible_SingleConditionFalse(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		reason string
	}{
		{"neutral conclusion", func(in *Input) { in.Conclusion = types.ConclusionNeutral }, "conclusion is neutral"},
		{"failure conclusion", func(in *Input) { in.Conclusion = types.ConclusionFailure }, "conclusion is failure"},
		{"score below minimum", func(in *Input) { in.Score = 79 }, "score 79 is below the minimum 80"},
		{"missing label", func(in *Input) { in.HasOptInLabel = false }, "auto-merge label"},
		{"no approvals", func(in *Input) { in.Approvals = 0 }, "no approving review"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := eligibleInput()
			tt.mutate(&in)

			ok, reasons := Eligible(in)

			assert.False(t, ok)
			if assert.Len(t, reasons, 1) {
				assert.Contains(t, reasons[0], tt.reason)
			}
		})
	}
}

func TestEligible_ReportsEveryReason(t *testing.T) {
	ok, reasons := Eligible(Input{Conclusion: types.ConclusionFailure, Score: 10, MinScore: 80})

	assert.False(t, ok)
	assert.Len(t, reasons, 4)
}
