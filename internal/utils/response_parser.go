package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agusespa/prsentinel/internal/types"
)

// ParseAIReview parses an LLM answer into an AIReview. The model is asked for a single JSON
// object, but answers wrapped in prose, fenced in markdown or cut off mid-stream are recovered
// where possible. Issues are normalized and the score is clamped.
func ParseAIReview(response string) (types.AIReview, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return types.AIReview{}, &FormatViolationError{Reason: "empty response"}
	}

	strategies := []func(string) (*aiReviewWire, error){
		tryDirectJSONParse,
		tryExtractAndParseJSON,
		tryRepairIncompleteJSON,
	}

	for _, strategy := range strategies {
		if wire, err := strategy(response); err == nil {
			return wire.toReview(), nil
		}
	}

	return types.AIReview{}, &FormatViolationError{
		Response: truncateString(response, 500),
		Reason:   "could not parse response as a review JSON object",
	}
}

type FormatViolationError struct {
	Response string
	Reason   string
}

func (e *FormatViolationError) Error() string {
	if e.Response == "" {
		return fmt.Sprintf("format violation: %s", e.Reason)
	}
	return fmt.Sprintf("format violation: %s. Response: %s", e.Reason, e.Response)
}

func IsFormatViolation(err error) bool {
	var violation *FormatViolationError
	return errors.As(err, &violation)
}

type aiReviewWire struct {
	Summary          string        `json:"summary"`
	OverallScore     any           `json:"overallScore"`
	Score            any           `json:"overall_score"`
	PositiveFindings []string      `json:"positiveFindings"`
	Issues           []aiIssueWire `json:"issues"`
	Recommendations  []string      `json:"recommendations"`
}

type aiIssueWire struct {
	Severity    string      `json:"severity"`
	Category    string      `json:"category"`
	Message     string      `json:"message"`
	Description string      `json:"description"`
	File        string      `json:"file"`
	FilePath    string      `json:"file_path"`
	Line        flexibleInt `json:"line"`
	EndLine     flexibleInt `json:"end_line"`
	Suggestion  string      `json:"suggestion"`
	Code        string      `json:"code"`
}

// flexibleInt accepts numbers, numeric strings and null.
type flexibleInt int

func (f *flexibleInt) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexibleInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			*f = flexibleInt(v)
			return nil
		}
	}
	*f = 0
	return nil
}

func (w *aiReviewWire) toReview() types.AIReview {
	score := w.OverallScore
	if score == nil {
		score = w.Score
	}

	review := types.AIReview{
		Summary:          strings.TrimSpace(w.Summary),
		OverallScore:     types.ScoreFromAny(score),
		PositiveFindings: nonNil(w.PositiveFindings),
		Recommendations:  nonNil(w.Recommendations),
		Issues:           make([]types.Issue, 0, len(w.Issues)),
	}

	for _, wi := range w.Issues {
		message := wi.Message
		if message == "" {
			message = wi.Description
		}
		file := wi.File
		if file == "" {
			file = wi.FilePath
		}
		issue := types.Issue{
			Severity:   types.ParseSeverity(wi.Severity),
			Category:   types.ParseCategory(wi.Category),
			Message:    message,
			Location:   types.Location{File: file, Line: int(wi.Line), EndLine: int(wi.EndLine)},
			Suggestion: strings.TrimSpace(wi.Suggestion),
			Code:       wi.Code,
			Source:     "ai-reviewer",
		}
		review.Issues = append(review.Issues, issue.Normalize())
	}

	return review
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// reviewKeys are the fields of which at least one must be present for an object to count as
// a review rather than some other JSON the model produced.
var reviewKeys = []string{"summary", "overallScore", "overall_score", "issues"}

func decodeReview(content string) (*aiReviewWire, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, err
	}
	if !hasReviewField(fields) {
		return nil, &FormatViolationError{Reason: "JSON object has no summary, score or issues"}
	}

	var wire aiReviewWire
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return nil, err
	}
	return &wire, nil
}

func hasReviewField(fields map[string]json.RawMessage) bool {
	for _, key := range reviewKeys {
		if raw, ok := fields[key]; ok && string(raw) != "null" {
			return true
		}
	}
	return false
}

func tryDirectJSONParse(response string) (*aiReviewWire, error) {
	return decodeReview(response)
}

func tryExtractAndParseJSON(response string) (*aiReviewWire, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found")
	}
	return decodeReview(jsonContent)
}

// tryRepairIncompleteJSON handles answers cut off by the token limit: it keeps everything up to
// the last complete object and closes the open issues array and the review object.
func tryRepairIncompleteJSON(response string) (*aiReviewWire, error) {
	start := strings.Index(response, "{")
	lastBrace := strings.LastIndex(response, "}")
	if start == -1 || lastBrace <= start {
		return nil, fmt.Errorf("no closing brace found")
	}

	truncated := strings.TrimSpace(response[start : lastBrace+1])
	for _, suffix := range []string{"", "}", "]}", "\n]\n}"} {
		if wire, err := decodeReview(truncated + suffix); err == nil {
			return wire, nil
		}
	}

	return nil, fmt.Errorf("could not repair JSON")
}

func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if strings.Contains(response, "```") {
		if extracted := extractFromCodeBlock(response); extracted != "" {
			return extracted
		}
	}

	startIdx := strings.Index(response, "{")
	if startIdx == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := startIdx; i < len(response); i++ {
		char := response[i]

		if escaped {
			escaped = false
			continue
		}
		if char == '\\' {
			escaped = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch char {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 && char == '}' {
				return response[startIdx : i+1]
			}
		}
	}

	return ""
}

func extractFromCodeBlock(response string) string {
	lines := strings.Split(response, "\n")
	inCodeBlock := false
	var jsonLines []string

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inCodeBlock {
				break
			}
			inCodeBlock = true
			continue
		}
		if inCodeBlock {
			jsonLines = append(jsonLines, line)
		}
	}

	return strings.TrimSpace(strings.Join(jsonLines, "\n"))
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
