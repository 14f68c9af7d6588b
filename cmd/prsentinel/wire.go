package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/agusespa/prsentinel/internal/analyzers"
	"github.com/agusespa/prsentinel/internal/github"
	"github.com/agusespa/prsentinel/internal/llm"
	"github.com/agusespa/prsentinel/internal/pipeline"
	"github.com/agusespa/prsentinel/internal/report"
	"github.com/agusespa/prsentinel/internal/reviewer"
	"github.com/agusespa/prsentinel/internal/store"
	"github.com/agusespa/prsentinel/pkg/config"
	"github.com/rs/zerolog"
)

func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		BaseScore:           cfg.Policy.BaseScore,
		Penalties:           cfg.Policy.Penalties,
		Blocking:            cfg.Policy.Blocking,
		Report:              report.Policy{NeutralThreshold: cfg.Policy.NeutralThreshold},
		AITimeout:           cfg.LLM.Timeout,
		MaxInlineComments:   cfg.Policy.MaxInlineComments,
		ShareStaticFindings: cfg.LLM.ShareStaticFindings,
	}
}

func serviceOptions(cfg *config.Config, dryRun bool) github.ServiceOptions {
	return github.ServiceOptions{
		DryRun:        dryRun,
		AutoFix:       cfg.Policy.AutoFix,
		AutoMerge:     cfg.Policy.AutoMerge,
		MinMergeScore: cfg.Policy.MinMergeScore,
		MergeLabel:    cfg.Policy.MergeLabel,
	}
}

// buildReviewer returns nil when no LLM provider is configured.
func buildReviewer(cfg *config.Config, logger zerolog.Logger) (reviewer.AIReviewProducer, error) {
	if !cfg.AIEnabled() {
		logger.Info().Int("base_score", cfg.Policy.BaseScore).Msg("No LLM provider configured, reviewing with static analyzers only")
		return nil, nil
	}

	provider, err := llm.NewProvider(llm.ProviderConfig{
		Type:      llm.ProviderType(cfg.LLM.Provider),
		Model:     cfg.LLM.Model,
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		MaxTokens: cfg.LLM.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	if !llm.IsApproved(provider.GetModel()) {
		logger.Warn().Str("model", provider.GetModel()).Msg("Model has not been tested with the review prompt")
	}

	return reviewer.NewLLMReviewer(provider, reviewerOptions(cfg), logger), nil
}

func reviewerOptions(cfg *config.Config) reviewer.Options {
	return reviewer.Options{
		PromptVariant:     cfg.LLM.PromptVariant,
		MaxFileChars:      cfg.LLM.MaxFileChars,
		MaxStaticFindings: cfg.LLM.MaxStaticFindings,
	}
}

func buildPipeline(cfg *config.Config, logger zerolog.Logger) (*pipeline.Pipeline, error) {
	ai, err := buildReviewer(cfg, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.New(analyzers.NewRegistry(cfg.Analyzers), ai, pipelineOptions(cfg), logger), nil
}

// buildService wires the GitHub client, the pipeline and the optional storage. The returned
// cleanup closes whatever connections were opened.
func buildService(ctx context.Context, cfg *config.Config, dryRun bool, logger zerolog.Logger) (*github.Service, func(), error) {
	if cfg.GitHub.Token == "" {
		return nil, nil, errors.New("a GitHub token is required (set GITHUB_TOKEN or github.token)")
	}

	client, err := github.NewClient(ctx, cfg.GitHub.Token, cfg.GitHub.BaseURL)
	if err != nil {
		return nil, nil, err
	}

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var reviews github.ReviewStore
	if cfg.Storage.DatabaseURL != "" {
		pool, err := store.Connect(ctx, store.Config{DSN: cfg.Storage.DatabaseURL})
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)

		reviewStore := store.NewReviewStore(pool)
		if err := reviewStore.Migrate(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		reviews = reviewStore
		logger.Info().Msg("Storing reviews in Postgres")
	}

	var cache github.ReviewCache
	if cfg.Storage.RedisURL != "" {
		redisClient, err := store.ConnectRedis(ctx, cfg.Storage.RedisURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		cache = store.NewReviewCache(redisClient, cfg.Storage.CacheTTL)
		logger.Info().Dur("ttl", cfg.Storage.CacheTTL).Msg("Caching reviews in Redis")
	}

	return github.NewService(client, p, reviews, cache, serviceOptions(cfg, dryRun), logger), cleanup, nil
}
