// Package merge gates auto-merge of reviewed pull requests.
package merge

import (
	"fmt"

	"github.com/agusespa/prsentinel/internal/types"
)

// Input is everything the auto-merge gate looks at.
type Input struct {
	Conclusion    types.Conclusion
	Score         int
	MinScore      int
	HasOptInLabel bool
	Approvals     int
}

// Eligible allows a merge only when the check succeeded, the score reaches MinScore, the PR
// carries the opt-in label and at least one reviewer approved. Every failed condition is
// reported.
func Eligible(in Input) (bool, []string) {
	var reasons []string

	if in.Conclusion != types.ConclusionSuccess {
		reasons = append(reasons, fmt.Sprintf("check conclusion is %s, not success", in.Conclusion))
	}
	if in.Score < in.MinScore {
		reasons = append(reasons, fmt.Sprintf("score %d is below the minimum %d", in.Score, in.MinScore))
	}
	if !in.HasOptInLabel {
		reasons = append(reasons, "pull request does not carry the auto-merge label")
	}
	if in.Approvals < 1 {
		reasons = append(reasons, "pull request has no approving review")
	}

	return len(reasons) == 0, reasons
}
