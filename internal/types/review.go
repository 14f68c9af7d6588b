package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultBaseScore is used when the pipeline runs without an AI-supplied score.
	DefaultBaseScore = 70
	// FallbackScore replaces any score that cannot be read as a number.
	FallbackScore = 50

	FallbackSummary        = "Review completed with parsing issues. Please check manually."
	FallbackRecommendation = "Manual review recommended due to parsing error"
)

// ComplexityMetrics are the per-file size and complexity measurements.
type ComplexityMetrics struct {
	LinesOfCode          int     `json:"lines_of_code"`
	CyclomaticComplexity int     `json:"cyclomatic_complexity"`
	CognitiveComplexity  int     `json:"cognitive_complexity"`
	MaintainabilityIndex float64 `json:"maintainability_index"`
}

// AIReview is what the AI reviewer producer returns.
type AIReview struct {
	Summary          string   `json:"summary"`
	OverallScore     int      `json:"overall_score"`
	PositiveFindings []string `json:"positive_findings"`
	Issues           []Issue  `json:"issues"`
	Recommendations  []string `json:"recommendations"`
	// Fallback is set when the review was substituted after a failure.
	Fallback bool `json:"fallback,omitempty"`
}

// FallbackAIReview is substituted whenever the AI reviewer fails, times out or answers with
// something that cannot be parsed.
func FallbackAIReview() AIReview {
	return AIReview{
		Summary:          FallbackSummary,
		OverallScore:     FallbackScore,
		PositiveFindings: []string{},
		Issues:           []Issue{},
		Recommendations:  []string{FallbackRecommendation},
		Fallback:         true,
	}
}

// AggregatedReview is the merged, deduplicated, severity-sorted and scored result of one
// pull-request review. It is read-only once produced.
type AggregatedReview struct {
	Issues           []Issue  `json:"issues"`
	OverallScore     int      `json:"overall_score"`
	Summary          string   `json:"summary"`
	PositiveFindings []string `json:"positive_findings"`
	Recommendations  []string `json:"recommendations"`
}

// Classification partitions an aggregated review. Blocking and Advisory are disjoint and
// together cover every issue; AutoFixable overlaps with both.
type Classification struct {
	AutoFixable []Issue `json:"auto_fixable"`
	Blocking    []Issue `json:"blocking"`
	Advisory    []Issue `json:"advisory"`
}

// Conclusion mirrors the GitHub check-run conclusions this bot emits.
type Conclusion string

const (
	ConclusionSuccess Conclusion = "success"
	ConclusionNeutral Conclusion = "neutral"
	ConclusionFailure Conclusion = "failure"
)

// ClampScore bounds a score to [0,100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ScoreFromAny reads a producer-supplied score of unknown type. Anything that is not a
// finite number becomes FallbackScore; the result is always clamped.
func ScoreFromAny(v any) int {
	switch n := v.(type) {
	case int:
		return ClampScore(n)
	case int64:
		return ClampScore(int(n))
	case float64:
		return clampFloat(n)
	case float32:
		return clampFloat(float64(n))
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return FallbackScore
		}
		return clampFloat(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return FallbackScore
		}
		return clampFloat(f)
	default:
		return FallbackScore
	}
}

func clampFloat(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return FallbackScore
	}
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return int(math.Round(f))
}
