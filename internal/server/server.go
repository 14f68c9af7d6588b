// Package server receives GitHub webhooks and runs reviews for pull-request events.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/agusespa/prsentinel/internal/pipeline"
	"github.com/gin-gonic/gin"
	gogithub "github.com/google/go-github/v62/github"
	"github.com/rs/zerolog"
)

const DefaultReviewTimeout = 5 * time.Minute

// Reviewer runs one full review. *github.Service implements it.
type Reviewer interface {
	ReviewPullRequest(ctx context.Context, owner, repo string, number int) (*pipeline.Result, error)
}

var reviewedActions = map[string]bool{
	"opened":           true,
	"reopened":         true,
	"synchronize":      true,
	"ready_for_review": true,
}

type Server struct {
	reviewer Reviewer
	secret   []byte
	timeout  time.Duration
	logger   zerolog.Logger

	mu       sync.Mutex
	inflight map[string]bool
	wg       sync.WaitGroup
}

// New builds the webhook server. An empty secret disables signature validation.
func New(reviewer Reviewer, secret string, timeout time.Duration, logger zerolog.Logger) *Server {
	if timeout <= 0 {
		timeout = DefaultReviewTimeout
	}
	return &Server{
		reviewer: reviewer,
		secret:   []byte(secret),
		timeout:  timeout,
		logger:   logger.With().Str("component", "server").Logger(),
		inflight: make(map[string]bool),
	}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/webhook", s.HandleWebhook)

	return router
}

// Run serves until ctx ends, then stops accepting requests and waits for running reviews.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Listening for webhooks")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("webhook server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down webhook server: %w", err)
	}
	s.logger.Info().Msg("Waiting for running reviews")
	s.Wait()
	return nil
}

// Wait blocks until every review started by the server has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) HandleWebhook(c *gin.Context) {
	payload, err := s.readPayload(c.Request)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Rejected webhook")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	eventType := gogithub.WebHookType(c.Request)
	switch eventType {
	case "ping":
		c.JSON(http.StatusOK, gin.H{"status": "pong"})
		return
	case "pull_request":
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "event": eventType})
		return
	}

	event, err := gogithub.ParseWebHook(eventType, payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	prEvent, ok := event.(*gogithub.PullRequestEvent)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	action := prEvent.GetAction()
	pr := prEvent.GetPullRequest()
	if !reviewedActions[action] || (pr.GetDraft() && action != "ready_for_review") {
		s.logger.Debug().Str("action", action).Bool("draft", pr.GetDraft()).Msg("Ignoring pull request event")
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "action": action})
		return
	}

	owner := prEvent.GetRepo().GetOwner().GetLogin()
	repo := prEvent.GetRepo().GetName()
	number := prEvent.GetNumber()
	if number == 0 {
		number = pr.GetNumber()
	}
	if owner == "" || repo == "" || number == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pull request event without repository or number"})
		return
	}

	key := fmt.Sprintf("%s/%s#%d@%s", owner, repo, number, pr.GetHead().GetSHA())
	if !s.start(key) {
		c.JSON(http.StatusAccepted, gin.H{"status": "already running"})
		return
	}

	go s.review(key, owner, repo, number)
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (s *Server) readPayload(r *http.Request) ([]byte, error) {
	if len(s.secret) > 0 {
		return gogithub.ValidatePayload(r, s.secret)
	}
	return io.ReadAll(r.Body)
}

// start registers a review unless the same head commit is already being reviewed.
func (s *Server) start(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[key] {
		return false
	}
	s.inflight[key] = true
	s.wg.Add(1)
	return true
}

// review runs detached from the webhook request, which GitHub closes after ten seconds.
func (s *Server) review(key, owner, repo string, number int) {
	logger := s.logger.With().Str("review", key).Logger()
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Review panicked")
		}
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
		s.wg.Done()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	logger.Info().Dur("timeout", s.timeout).Msg("Starting review")

	result, err := s.reviewer.ReviewPullRequest(ctx, owner, repo, number)
	if err != nil {
		logger.Error().Err(err).Msg("Review failed")
		return
	}
	logger.Info().
		Int("score", result.Review.OverallScore).
		Str("conclusion", string(result.Decision.Conclusion)).
		Msg("Review delivered")
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request")
	}
}
