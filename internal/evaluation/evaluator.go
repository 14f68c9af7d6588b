package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/agusespa/prsentinel/internal/pipeline"
	"github.com/agusespa/prsentinel/internal/types"
	"github.com/rs/zerolog"
)

// DefaultPassThreshold is the case score at or above which a case counts as passed.
const DefaultPassThreshold = 0.8

type CaseResult struct {
	Name       string           `json:"name"`
	Score      float64          `json:"score"`
	Passed     bool             `json:"passed"`
	Review     int              `json:"review_score"`
	Conclusion types.Conclusion `json:"conclusion"`
	Issues     []types.Issue    `json:"issues"`
	AIFallback bool             `json:"ai_fallback"`
	Duration   time.Duration    `json:"duration"`
}

type Run struct {
	Index        int           `json:"index"`
	Cases        []CaseResult  `json:"cases"`
	AverageScore float64       `json:"average_score"`
	PassRate     float64       `json:"pass_rate"`
	Duration     time.Duration `json:"duration"`
}

type CaseStats struct {
	Score    Stats   `json:"score"`
	PassRate float64 `json:"pass_rate"`
}

type Result struct {
	Suite     string               `json:"suite"`
	Label     string               `json:"label"`
	StartTime time.Time            `json:"start_time"`
	Runs      []Run                `json:"runs"`
	Score     Stats                `json:"score"`
	PassRate  Stats                `json:"pass_rate"`
	Duration  Stats                `json:"duration_seconds"`
	CaseStats map[string]CaseStats `json:"case_stats"`
}

type Evaluator struct {
	pipeline      *pipeline.Pipeline
	scorer        Scorer
	passThreshold float64
	logger        zerolog.Logger
}

func NewEvaluator(p *pipeline.Pipeline, scorer Scorer, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		pipeline:      p,
		scorer:        scorer,
		passThreshold: DefaultPassThreshold,
		logger:        logger.With().Str("component", "evaluation").Logger(),
	}
}

// Evaluate reviews every case runs times. label names the configuration under test, for
// instance the model and prompt variant.
func (e *Evaluator) Evaluate(ctx context.Context, suite *Suite, cases []Case, runs int, label string) (*Result, error) {
	if runs <= 0 {
		runs = 1
	}
	result := &Result{Suite: suite.Name, Label: label, StartTime: time.Now().UTC()}

	for i := range runs {
		run, err := e.run(ctx, i+1, cases)
		if err != nil {
			return nil, err
		}
		e.logger.Info().Int("run", run.Index).Float64("average_score", run.AverageScore).Float64("pass_rate", run.PassRate).Msg("Run complete")
		result.Runs = append(result.Runs, run)
	}

	result.summarize()
	return result, nil
}

func (e *Evaluator) run(ctx context.Context, index int, cases []Case) (Run, error) {
	run := Run{Index: index}
	start := time.Now()

	for _, c := range cases {
		caseStart := time.Now()
		snap := pipeline.Snapshot{
			PR:    types.PullRequest{Owner: "evaluation", Repo: c.Name, Number: index, Title: c.Name, Description: c.Description},
			Files: c.ChangedFiles(),
		}
		reviewed, err := e.pipeline.Run(ctx, snap)
		if err != nil {
			return Run{}, fmt.Errorf("case %s: %w", c.Name, err)
		}

		score := e.scorer.Score(c.Expected, reviewed.Review, reviewed.Decision.Conclusion)
		run.Cases = append(run.Cases, CaseResult{
			Name:       c.Name,
			Score:      score,
			Passed:     score >= e.passThreshold,
			Review:     reviewed.Review.OverallScore,
			Conclusion: reviewed.Decision.Conclusion,
			Issues:     reviewed.Review.Issues,
			AIFallback: reviewed.AIFallback,
			Duration:   time.Since(caseStart),
		})
	}

	run.Duration = time.Since(start)
	if len(run.Cases) > 0 {
		var total float64
		passed := 0
		for _, cr := range run.Cases {
			total += cr.Score
			if cr.Passed {
				passed++
			}
		}
		run.AverageScore = total / float64(len(run.Cases))
		run.PassRate = float64(passed) / float64(len(run.Cases)) * 100
	}
	return run, nil
}

func (r *Result) summarize() {
	var scores, passRates, durations []float64
	caseScores := make(map[string][]float64)
	casePasses := make(map[string]int)

	for _, run := range r.Runs {
		scores = append(scores, run.AverageScore)
		passRates = append(passRates, run.PassRate)
		durations = append(durations, run.Duration.Seconds())
		for _, cr := range run.Cases {
			caseScores[cr.Name] = append(caseScores[cr.Name], cr.Score)
			if cr.Passed {
				casePasses[cr.Name]++
			}
		}
	}

	r.Score = Summarize(scores)
	r.PassRate = Summarize(passRates)
	r.Duration = Summarize(durations)
	r.CaseStats = make(map[string]CaseStats, len(caseScores))
	for name, values := range caseScores {
		r.CaseStats[name] = CaseStats{
			Score:    Summarize(values),
			PassRate: float64(casePasses[name]) / float64(len(values)) * 100,
		}
	}
}

// Save writes the result as JSON into dir and returns the file path.
func (r *Result) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory at %s: %w", dir, err)
	}

	filename := fmt.Sprintf("eval_%s_%druns_%d.json", sanitize(r.Label), len(r.Runs), r.StartTime.Unix())
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write results file to %s: %w", path, err)
	}
	return path, nil
}

// Print writes a human-readable summary, weakest cases first.
func (r *Result) Print(w io.Writer) {
	fmt.Fprintf(w, "\n--- Evaluation: %s (%s) ---\n", r.Suite, r.Label)
	fmt.Fprintf(w, "Runs: %d\n", len(r.Runs))
	fmt.Fprintf(w, "Average score: %.2f (±%.2f, min %.2f, max %.2f)\n", r.Score.Mean, r.Score.StdDev, r.Score.Min, r.Score.Max)
	fmt.Fprintf(w, "Pass rate: %.1f%%\n", r.PassRate.Mean)
	fmt.Fprintf(w, "Duration: %.2fs per run\n\n", r.Duration.Mean)

	names := make([]string, 0, len(r.CaseStats))
	for name := range r.CaseStats {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := r.CaseStats[names[i]], r.CaseStats[names[j]]
		if a.Score.Mean != b.Score.Mean {
			return a.Score.Mean < b.Score.Mean
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		stats := r.CaseStats[name]
		icon := "✅"
		if stats.PassRate < 100 {
			icon = "❌"
		}
		fmt.Fprintf(w, "%s %-32s score %.2f  pass %.0f%%  consistency %.2f\n", icon, name, stats.Score.Mean, stats.PassRate, stats.Score.Consistency)
	}
}

func sanitize(label string) string {
	out := []rune(label)
	for i, r := range out {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '.') {
			out[i] = '_'
		}
	}
	if len(out) == 0 {
		return "static"
	}
	return string(out)
}
