// Package reviewer is the AI finding producer: it renders the review prompt, calls the LLM
// and parses the answer into an AIReview.
package reviewer

import (
	"context"
	"fmt"
	"time"

	"github.com/agusespa/prsentinel/internal/llm"
	"github.com/agusespa/prsentinel/internal/prompts"
	"github.com/agusespa/prsentinel/internal/types"
	"github.com/agusespa/prsentinel/internal/utils"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxFileChars      = 12000
	DefaultMaxStaticFindings = 50
)

// ReviewRequest is the immutable input of one AI review.
type ReviewRequest struct {
	Files        []types.ChangedFile
	Title        string
	Description  string
	BaseBranch   string
	StaticIssues []types.Issue
}

// AIReviewProducer reviews a whole pull request. It may fail or be slow; callers bound it
// with the context and substitute the fallback review on error.
type AIReviewProducer interface {
	Review(ctx context.Context, req ReviewRequest) (types.AIReview, error)
}

type Options struct {
	PromptVariant     string
	MaxFileChars      int
	MaxStaticFindings int
}

type LLMReviewer struct {
	llmProvider       llm.Provider
	promptVariant     string
	maxFileChars      int
	maxStaticFindings int
	logger            zerolog.Logger
}

func NewLLMReviewer(provider llm.Provider, opts Options, logger zerolog.Logger) *LLMReviewer {
	r := &LLMReviewer{
		llmProvider:       provider,
		promptVariant:     opts.PromptVariant,
		maxFileChars:      opts.MaxFileChars,
		maxStaticFindings: opts.MaxStaticFindings,
		logger:            logger.With().Str("component", "reviewer").Str("model", provider.GetModel()).Logger(),
	}
	if r.promptVariant == "" {
		r.promptVariant = prompts.DEFAULT_PROMPT
	}
	if r.maxFileChars <= 0 {
		r.maxFileChars = DefaultMaxFileChars
	}
	if r.maxStaticFindings <= 0 {
		r.maxStaticFindings = DefaultMaxStaticFindings
	}
	return r
}

func (r *LLMReviewer) Review(ctx context.Context, req ReviewRequest) (types.AIReview, error) {
	prompt, err := prompts.BuildPromptWithTemplate(r.promptVariant, r.buildPayload(req))
	if err != nil {
		return types.AIReview{}, fmt.Errorf("failed to build review prompt: %w", err)
	}

	start := time.Now()
	response, err := r.llmProvider.Generate(ctx, prompt)
	if err != nil {
		return types.AIReview{}, fmt.Errorf("failed to generate code review: %w", err)
	}
	r.logger.Debug().Dur("elapsed", time.Since(start)).Int("prompt_chars", len(prompt)).Int("response_chars", len(response)).Msg("LLM responded")

	review, err := utils.ParseAIReview(response)
	if err != nil {
		return types.AIReview{}, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	return review, nil
}

func (r *LLMReviewer) buildPayload(req ReviewRequest) prompts.ReviewPayload {
	payload := prompts.ReviewPayload{
		Title:       req.Title,
		Description: req.Description,
		BaseBranch:  req.BaseBranch,
	}

	for _, file := range req.Files {
		if file.Content == "" {
			continue
		}
		content, truncated := truncate(file.Content, r.maxFileChars)
		payload.Files = append(payload.Files, prompts.PromptFile{
			Path:      file.Path,
			Language:  file.Language,
			Content:   content,
			Truncated: truncated,
		})
	}

	for i, issue := range req.StaticIssues {
		if i == r.maxStaticFindings {
			break
		}
		payload.StaticFindings = append(payload.StaticFindings,
			fmt.Sprintf("%s [%s] %s", issue.Location, issue.Severity, issue.Message))
	}

	return payload
}

// truncate cuts s to at most max bytes on a line boundary when one is available.
func truncate(s string, max int) (string, bool) {
	if len(s) <= max {
		return s, false
	}
	cut := s[:max]
	for i := len(cut) - 1; i > max/2; i-- {
		if cut[i] == '\n' {
			return cut[:i+1], true
		}
	}
	return cut, true
}
