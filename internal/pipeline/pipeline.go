// Package pipeline runs every finding producer over a pull-request snapshot, waits for all of
// them, and turns their output into the aggregated review and its renderings.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/agusespa/prsentinel/internal/aggregate"
	"github.com/agusespa/prsentinel/internal/analyzers"
	"github.com/agusespa/prsentinel/internal/classify"
	"github.com/agusespa/prsentinel/internal/complexity"
	"github.com/agusespa/prsentinel/internal/report"
	"github.com/agusespa/prsentinel/internal/reviewer"
	"github.com/agusespa/prsentinel/internal/types"
	"github.com/agusespa/prsentinel/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultAITimeout = 60 * time.Second

// Snapshot is the immutable input of one review.
type Snapshot struct {
	PR    types.PullRequest
	Files []types.ChangedFile
}

type Options struct {
	// BaseScore is used when no AI reviewer is configured.
	BaseScore         int
	Penalties         aggregate.Penalties
	Blocking          classify.BlockingPolicy
	Report            report.Policy
	AITimeout         time.Duration
	MaxInlineComments int
	// ShareStaticFindings runs the static producers before the AI reviewer and includes
	// their findings in the prompt, instead of running everything at once.
	ShareStaticFindings bool
}

func DefaultOptions() Options {
	return Options{
		BaseScore:         types.DefaultBaseScore,
		Penalties:         aggregate.DefaultPenalties(),
		Blocking:          classify.DefaultBlockingPolicy(),
		Report:            report.DefaultPolicy(),
		AITimeout:         DefaultAITimeout,
		MaxInlineComments: 25,
	}
}

// Result is everything one review produced. It can be re-rendered or re-delivered as is.
type Result struct {
	ID             uuid.UUID                          `json:"id"`
	PR             types.PullRequest                  `json:"pr"`
	Review         types.AggregatedReview             `json:"review"`
	AIFallback     bool                               `json:"ai_fallback"`
	Classification types.Classification               `json:"classification"`
	Decision       report.Decision                    `json:"decision"`
	Complexity     map[string]types.ComplexityMetrics `json:"complexity"`
	Comment        string                             `json:"comment"`
	Inline         []report.InlineComment             `json:"inline"`
	CheckRun       report.CheckRunOutput              `json:"check_run"`
	CreatedAt      time.Time                          `json:"created_at"`
	// Files are the reviewed files, kept for local reports.
	Files []types.ChangedFile `json:"-"`
}

// Contents maps each reviewed path to its content at head.
func (r *Result) Contents() map[string]string {
	contents := make(map[string]string, len(r.Files))
	for _, f := range r.Files {
		contents[f.Path] = f.Content
	}
	return contents
}

type Pipeline struct {
	registry *analyzers.Registry
	ai       reviewer.AIReviewProducer
	opts     Options
	logger   zerolog.Logger
}

// New builds a pipeline. ai may be nil, in which case reviews are scored from
// Options.BaseScore and carry no AI summary.
func New(registry *analyzers.Registry, ai reviewer.AIReviewProducer, opts Options, logger zerolog.Logger) *Pipeline {
	if opts.Penalties == nil {
		opts.Penalties = aggregate.DefaultPenalties()
	}
	if opts.AITimeout <= 0 {
		opts.AITimeout = DefaultAITimeout
	}
	return &Pipeline{
		registry: registry,
		ai:       ai,
		opts:     opts,
		logger:   logger.With().Str("component", "pipeline").Logger(),
	}
}

// Run reviews a snapshot. Producer failures never abort the run: a failing static producer
// contributes nothing for the file it failed on and a failing AI reviewer contributes the
// fallback review. Run only returns an error when ctx ends before the review completes.
func (p *Pipeline) Run(ctx context.Context, snap Snapshot) (*Result, error) {
	files := reviewableFiles(snap.Files)
	logger := p.logger.With().Str("repo", snap.PR.FullName()).Int("pr", snap.PR.Number).Logger()
	logger.Info().Int("files", len(files)).Int("skipped", len(snap.Files)-len(files)).Msg("Starting review")

	static := p.registry.Static()
	staticResults := make([][]types.Issue, len(static))
	var securityResult []types.Issue
	var metrics map[string]types.ComplexityMetrics
	var ai types.AIReview

	req := reviewer.ReviewRequest{
		Files:       files,
		Title:       snap.PR.Title,
		Description: snap.PR.Description,
		BaseBranch:  snap.PR.BaseBranch,
	}

	// Every branch writes only its own slot and never returns an error, so Wait is a pure
	// barrier over all producers.
	g, gctx := errgroup.WithContext(ctx)
	for i, producer := range static {
		g.Go(func() error {
			staticResults[i] = p.runProducer(gctx, producer, files)
			return nil
		})
	}
	if security := p.registry.Security(); security != nil {
		g.Go(func() error {
			securityResult = p.runProducer(gctx, security, files)
			return nil
		})
	}
	g.Go(func() error {
		metrics = measure(files)
		return nil
	})
	if p.ai != nil && !p.opts.ShareStaticFindings {
		g.Go(func() error {
			ai = p.runAI(gctx, req)
			return nil
		})
	}
	_ = g.Wait()

	if p.ai != nil && p.opts.ShareStaticFindings {
		for _, issues := range staticResults {
			req.StaticIssues = append(req.StaticIssues, issues...)
		}
		req.StaticIssues = append(req.StaticIssues, securityResult...)
		ai = p.runAI(ctx, req)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("review of %s#%d interrupted: %w", snap.PR.FullName(), snap.PR.Number, err)
	}

	baseScore := p.opts.BaseScore
	if p.ai != nil {
		baseScore = ai.OverallScore
	}

	review := aggregate.Aggregate(
		aggregate.ProducerResults(ai.Issues, staticResults, securityResult),
		baseScore, ai, p.opts.Penalties,
	)
	result := p.render(snap, files, review, metrics)
	result.AIFallback = ai.Fallback

	logger.Info().
		Str("review_id", result.ID.String()).
		Int("score", review.OverallScore).
		Int("issues", len(review.Issues)).
		Int("blocking", len(result.Classification.Blocking)).
		Str("conclusion", string(result.Decision.Conclusion)).
		Bool("ai_fallback", ai.Fallback).
		Msg("Review complete")

	return result, nil
}

// Render rebuilds every rendering of an already aggregated review, for instance one restored
// from the cache.
func (p *Pipeline) Render(snap Snapshot, review types.AggregatedReview) *Result {
	files := reviewableFiles(snap.Files)
	return p.render(snap, files, review, measure(files))
}

func (p *Pipeline) render(snap Snapshot, files []types.ChangedFile, review types.AggregatedReview, metrics map[string]types.ComplexityMetrics) *Result {
	classification := classify.Classify(review, p.opts.Blocking)
	decision := report.DecideConclusion(review, len(classification.Blocking), types.CountSecurity(review.Issues), p.opts.Report)
	comment := report.SummaryComment(review, classification, decision, metrics)

	patches := make(map[string]string, len(files))
	for _, f := range files {
		patches[f.Path] = f.Patch
	}

	return &Result{
		ID:             uuid.New(),
		PR:             snap.PR,
		Review:         review,
		Classification: classification,
		Decision:       decision,
		Complexity:     metrics,
		Comment:        comment,
		Inline:         report.InlineComments(review.Issues, patches, p.opts.MaxInlineComments),
		CheckRun:       report.BuildCheckRunOutput(review, decision, comment),
		CreatedAt:      time.Now().UTC(),
		Files:          snap.Files,
	}
}

// runProducer runs one producer over every file. A file the producer fails or panics on
// contributes no issues.
func (p *Pipeline) runProducer(ctx context.Context, producer analyzers.FindingProducer, files []types.ChangedFile) []types.Issue {
	issues := []types.Issue{}
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		found, err := analyzeFile(producer, file)
		if err != nil {
			p.logger.Warn().Err(err).Str("producer", producer.Name()).Str("file", file.Path).Msg("Producer failed, continuing without its findings")
			continue
		}
		issues = append(issues, found...)
	}
	return issues
}

func analyzeFile(producer analyzers.FindingProducer, file types.ChangedFile) (issues []types.Issue, err error) {
	defer func() {
		if r := recover(); r != nil {
			issues, err = nil, fmt.Errorf("producer panicked: %v", r)
		}
	}()
	return producer.Analyze(file.Content, file.Path, file.Language)
}

// runAI calls the AI reviewer bounded by the configured timeout. The reviewer runs in its own
// goroutine so a producer that ignores its context still cannot hold up the join.
func (p *Pipeline) runAI(ctx context.Context, req reviewer.ReviewRequest) types.AIReview {
	ctx, cancel := context.WithTimeout(ctx, p.opts.AITimeout)
	defer cancel()

	type outcome struct {
		review types.AIReview
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("AI reviewer panicked: %v", r)}
			}
		}()
		review, err := p.ai.Review(ctx, req)
		done <- outcome{review: review, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			p.logger.Warn().Err(o.err).Msg("AI review failed, using fallback review")
			return types.FallbackAIReview()
		}
		return o.review
	case <-ctx.Done():
		p.logger.Warn().Err(ctx.Err()).Dur("timeout", p.opts.AITimeout).Msg("AI review timed out, using fallback review")
		return types.FallbackAIReview()
	}
}

func reviewableFiles(files []types.ChangedFile) []types.ChangedFile {
	reviewable := make([]types.ChangedFile, 0, len(files))
	for _, f := range files {
		if f.Status == "removed" || f.Content == "" || !utils.IsReviewable(f.Path) {
			continue
		}
		if f.Language == "" {
			f.Language = utils.DetectLanguageFromFilePath(f.Path)
		}
		reviewable = append(reviewable, f)
	}
	return reviewable
}

func measure(files []types.ChangedFile) map[string]types.ComplexityMetrics {
	metrics := make(map[string]types.ComplexityMetrics, len(files))
	for _, f := range files {
		if f.Language == "" {
			continue
		}
		metrics[f.Path] = complexity.Estimate(f.Content, f.Language)
	}
	return metrics
}
