package github

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/agusespa/prsentinel/internal/autofix"
	"github.com/agusespa/prsentinel/internal/merge"
	"github.com/agusespa/prsentinel/internal/pipeline"
	"github.com/agusespa/prsentinel/internal/report"
	"github.com/agusespa/prsentinel/internal/store"
	"github.com/agusespa/prsentinel/internal/types"
	"github.com/rs/zerolog"
)

// API is the subset of GitHub the service talks to. *Client implements it.
type API interface {
	PullRequest(ctx context.Context, owner, repo string, number int) (types.PullRequest, error)
	ChangedFiles(ctx context.Context, pr types.PullRequest) ([]types.ChangedFile, error)
	CreateCheckRun(ctx context.Context, pr types.PullRequest, decision report.Decision, output report.CheckRunOutput) (int64, error)
	UpsertComment(ctx context.Context, pr types.PullRequest, body string) error
	PostComment(ctx context.Context, pr types.PullRequest, body string) error
	PostReview(ctx context.Context, pr types.PullRequest, comments []report.InlineComment) error
	Approvals(ctx context.Context, pr types.PullRequest) (int, error)
	Merge(ctx context.Context, pr types.PullRequest, message string) error
	CommitFile(ctx context.Context, pr types.PullRequest, file types.ChangedFile, content, message string) error
}

// ReviewStore persists finished reviews.
type ReviewStore interface {
	Save(ctx context.Context, record store.Record) error
}

// ReviewCache remembers aggregated reviews by head commit. Get returns nil on a miss.
type ReviewCache interface {
	Get(ctx context.Context, repo, sha string) (*types.AggregatedReview, error)
	Put(ctx context.Context, repo, sha string, review types.AggregatedReview) error
}

type ServiceOptions struct {
	// DryRun reviews without writing anything to GitHub.
	DryRun        bool
	AutoFix       bool
	AutoMerge     bool
	MinMergeScore int
	MergeLabel    string
}

type Service struct {
	api      API
	pipeline *pipeline.Pipeline
	fixer    *autofix.Fixer
	reviews  ReviewStore
	cache    ReviewCache
	opts     ServiceOptions
	logger   zerolog.Logger
}

// NewService wires the review service. reviews and cache may be nil.
func NewService(api API, p *pipeline.Pipeline, reviews ReviewStore, cache ReviewCache, opts ServiceOptions, logger zerolog.Logger) *Service {
	logger = logger.With().Str("component", "github").Logger()
	return &Service{
		api:      api,
		pipeline: p,
		fixer:    autofix.NewFixer(logger),
		reviews:  reviews,
		cache:    cache,
		opts:     opts,
		logger:   logger,
	}
}

// ReviewPullRequest fetches, reviews and delivers one pull request. Storage and cache failures
// are logged and do not fail the review; a delivery failure is reported on the pull request
// once and returned.
func (s *Service) ReviewPullRequest(ctx context.Context, owner, repo string, number int) (*pipeline.Result, error) {
	pr, err := s.api.PullRequest(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}
	files, err := s.api.ChangedFiles(ctx, pr)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With().Str("repo", pr.FullName()).Int("pr", pr.Number).Str("sha", pr.HeadSHA).Logger()
	snap := pipeline.Snapshot{PR: pr, Files: files}

	result, err := s.review(ctx, snap, logger)
	if err != nil {
		return nil, err
	}

	if s.reviews != nil {
		if err := s.reviews.Save(ctx, store.RecordFromResult(result)); err != nil {
			logger.Error().Err(err).Msg("Failed to store review")
		}
	}

	if s.opts.DryRun {
		logger.Info().Msg("Dry run, nothing delivered")
		return result, nil
	}

	if err := s.deliver(ctx, pr, result); err != nil {
		logger.Error().Err(err).Msg("Failed to deliver review")
		if commentErr := s.api.PostComment(ctx, pr, report.ErrorComment(err)); commentErr != nil {
			logger.Error().Err(commentErr).Msg("Failed to post error comment")
		}
		return result, err
	}

	committed := 0
	if s.opts.AutoFix {
		committed = s.autoFix(ctx, pr, files, result, logger)
	}
	// A fix commit moves the head, which triggers a fresh review; merging now would merge
	// unreviewed code.
	if s.opts.AutoMerge && committed == 0 {
		s.autoMerge(ctx, pr, result, logger)
	}

	return result, nil
}

func (s *Service) review(ctx context.Context, snap pipeline.Snapshot, logger zerolog.Logger) (*pipeline.Result, error) {
	if s.cache != nil && snap.PR.HeadSHA != "" {
		cached, err := s.cache.Get(ctx, snap.PR.FullName(), snap.PR.HeadSHA)
		if err != nil {
			logger.Warn().Err(err).Msg("Review cache lookup failed")
		}
		if cached != nil {
			logger.Info().Msg("Re-rendering cached review")
			return s.pipeline.Render(snap, *cached), nil
		}
	}

	result, err := s.pipeline.Run(ctx, snap)
	if err != nil {
		return nil, err
	}

	// A fallback review reflects a transient AI failure and is not worth remembering.
	if s.cache != nil && snap.PR.HeadSHA != "" && !result.AIFallback {
		if err := s.cache.Put(ctx, snap.PR.FullName(), snap.PR.HeadSHA, result.Review); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache review")
		}
	}
	return result, nil
}

func (s *Service) deliver(ctx context.Context, pr types.PullRequest, result *pipeline.Result) error {
	var errs []error
	if _, err := s.api.CreateCheckRun(ctx, pr, result.Decision, result.CheckRun); err != nil {
		errs = append(errs, err)
	}
	if err := s.api.UpsertComment(ctx, pr, result.Comment); err != nil {
		errs = append(errs, err)
	}
	if err := s.api.PostReview(ctx, pr, result.Inline); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// autoFix commits the whitelisted rewrites file by file and returns how many files it committed.
func (s *Service) autoFix(ctx context.Context, pr types.PullRequest, files []types.ChangedFile, result *pipeline.Result, logger zerolog.Logger) int {
	byFile := make(map[string][]types.Issue)
	for _, issue := range result.Classification.AutoFixable {
		byFile[issue.Location.File] = append(byFile[issue.Location.File], issue)
	}
	if len(byFile) == 0 {
		return 0
	}

	paths := make([]string, 0, len(byFile))
	for path := range byFile {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	index := make(map[string]types.ChangedFile, len(files))
	for _, f := range files {
		index[f.Path] = f
	}

	committed := 0
	for _, path := range paths {
		file, ok := index[path]
		if !ok || file.SHA == "" {
			continue
		}
		fixed, applied, skipped := s.fixer.Apply(file.Content, byFile[path])
		if len(applied) == 0 || fixed == file.Content {
			continue
		}
		message := fmt.Sprintf("Apply %d automatic fix(es) to %s", len(applied), path)
		if err := s.api.CommitFile(ctx, pr, file, fixed, message); err != nil {
			logger.Error().Err(err).Str("file", path).Msg("Failed to commit automatic fixes")
			continue
		}
		committed++
		logger.Info().Str("file", path).Int("applied", len(applied)).Int("skipped", len(skipped)).Msg("Committed automatic fixes")
	}
	return committed
}

func (s *Service) autoMerge(ctx context.Context, pr types.PullRequest, result *pipeline.Result, logger zerolog.Logger) {
	approvals, err := s.api.Approvals(ctx, pr)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to count approvals, not merging")
		return
	}

	ok, reasons := merge.Eligible(merge.Input{
		Conclusion:    result.Decision.Conclusion,
		Score:         result.Review.OverallScore,
		MinScore:      s.opts.MinMergeScore,
		HasOptInLabel: HasLabel(pr, s.opts.MergeLabel),
		Approvals:     approvals,
	})
	if !ok {
		logger.Info().Strs("reasons", reasons).Msg("Not eligible for auto-merge")
		return
	}

	if err := s.api.Merge(ctx, pr, fmt.Sprintf("%s (#%d)", pr.Title, pr.Number)); err != nil {
		logger.Error().Err(err).Msg("Auto-merge failed")
		return
	}
	logger.Info().Msg("Pull request auto-merged")
}
