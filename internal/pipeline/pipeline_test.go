package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agusespa/prsentinel/internal/analyzers"
	"github.com/agusespa/prsentinel/internal/reviewer"
	"github.com/agusespa/prsentinel/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAI struct {
	review   types.AIReview
	err      error
	block    bool
	ignoreCx bool
	calls    atomic.Int32
	lastReq  reviewer.ReviewRequest
}

func (f *fakeAI) Review(ctx context.Context, req reviewer.ReviewRequest) (types.AIReview, error) {
	f.calls.Add(1)
	f.lastReq = req
	if f.ignoreCx {
		time.Sleep(2 * time.Second)
		return f.review, nil
	}
	if f.block {
		<-ctx.Done()
		return types.AIReview{}, ctx.Err()
	}
	return f.review, f.err
}

type fakeProducer struct {
	name   string
	issues []types.Issue
	err    error
	panics bool
}

func (f *fakeProducer) Name() string { return f.name }

func (f *fakeProducer) Analyze(content, filename, language string) ([]types.Issue, error) {
	if f.panics {
		panic("analyzer bug")
	}
	return f.issues, f.err
}

func snapshot(files ...types.ChangedFile) Snapshot {
	return Snapshot{
		PR:    types.PullRequest{Owner: "acme", Repo: "web", Number: 7, Title: "Add login", BaseBranch: "main"},
		Files: files,
	}
}

var appFile = types.ChangedFile{
	Path:    "src/app.js",
	Content: "var count = 0;\n",
	Patch:   "@@ -0,0 +1,1 @@\n+var count = 0;",
	Status:  "added",
}

func TestPipeline_ScenarioC_AITimeoutUsesFallback(t *testing.T) {
	opts := DefaultOptions()
	opts.AITimeout = 20 * time.Millisecond
	p := New(analyzers.NewCustomRegistry(nil), &fakeAI{block: true}, opts, zerolog.Nop())

	result, err := p.Run(context.Background(), snapshot())

	require.NoError(t, err)
	assert.Equal(t, 50, result.Review.OverallScore)
	assert.Equal(t, types.FallbackSummary, result.Review.Summary)
	assert.Equal(t, []string{"Manual review recommended due to parsing error"}, result.Review.Recommendations)
	assert.Empty(t, result.Review.PositiveFindings)
	assert.True(t, result.AIFallback)
}

func TestPipeline_AIIgnoringContextCannotHoldTheJoin(t *testing.T) {
	opts := DefaultOptions()
	opts.AITimeout = 20 * time.Millisecond
	p := New(analyzers.NewCustomRegistry(nil), &fakeAI{ignoreCx: true}, opts, zerolog.Nop())

	start := time.Now()
	result, err := p.Run(context.Background(), snapshot())

	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, result.AIFallback)
}

func TestPipeline_AIErrorUsesFallback(t *testing.T) {
	p := New(analyzers.NewCustomRegistry(nil), &fakeAI{err: errors.New("bad gateway")}, DefaultOptions(), zerolog.Nop())

	result, err := p.Run(context.Background(), snapshot(appFile))

	require.NoError(t, err)
	assert.Equal(t, 50, result.Review.OverallScore)
	assert.Equal(t, types.FallbackSummary, result.Review.Summary)
}

func TestPipeline_FailingProducersContributeNothing(t *testing.T) {
	good := &fakeProducer{name: "good", issues: []types.Issue{
		types.NewIssue(types.SeverityLow, types.CategoryStyle, "src/app.js", 1, "style nit"),
	}}
	registry := analyzers.NewCustomRegistry(
		&fakeProducer{name: "security", panics: true},
		&fakeProducer{name: "broken", err: errors.New("boom")},
		good,
	)
	p := New(registry, nil, DefaultOptions(), zerolog.Nop())

	result, err := p.Run(context.Background(), snapshot(appFile))

	require.NoError(t, err)
	require.Len(t, result.Review.Issues, 1)
	assert.Equal(t, "style nit", result.Review.Issues[0].Message)
	assert.Equal(t, 69, result.Review.OverallScore, "default base score without an AI reviewer")
	assert.False(t, result.AIFallback)
}

func TestPipeline_EndToEnd(t *testing.T) {
	ai := &fakeAI{review: types.AIReview{
		Summary:      "Adds a counter.",
		OverallScore: 85,
		Issues: []types.Issue{
			// Same key as the static no-var finding; the AI copy survives.
			types.NewIssue(types.SeverityMedium, types.CategoryBestPractice, "src/app.js", 1, "Unexpected var, use let or const instead"),
		},
		PositiveFindings: []string{"Tiny diff"},
		Recommendations:  []string{},
	}}
	p := New(analyzers.NewRegistry(analyzers.DefaultThresholds()), ai, DefaultOptions(), zerolog.Nop())

	result, err := p.Run(context.Background(), snapshot(appFile,
		types.ChangedFile{Path: "package-lock.json", Content: "{}"},
		types.ChangedFile{Path: "old.js", Status: "removed"},
	))

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, result.ID)
	assert.Equal(t, int32(1), ai.calls.Load())
	require.Len(t, ai.lastReq.Files, 1, "lockfiles and removed files are not reviewed")
	assert.Equal(t, "javascript", ai.lastReq.Files[0].Language)
	assert.Empty(t, ai.lastReq.StaticIssues)

	require.Len(t, result.Review.Issues, 1)
	assert.Equal(t, types.SeverityMedium, result.Review.Issues[0].Severity)
	assert.Equal(t, 83, result.Review.OverallScore)
	assert.Equal(t, types.ConclusionSuccess, result.Decision.Conclusion)
	assert.Equal(t, "Adds a counter.", result.Review.Summary)

	require.Contains(t, result.Complexity, "src/app.js")
	assert.Equal(t, 1, result.Complexity["src/app.js"].LinesOfCode)
	require.Len(t, result.Inline, 1)
	assert.Equal(t, 1, result.Inline[0].Line)
	assert.Contains(t, result.Comment, "83/100")
	assert.Len(t, result.CheckRun.Annotations, 1)
}

func TestPipeline_ShareStaticFindings(t *testing.T) {
	ai := &fakeAI{review: types.AIReview{OverallScore: 90}}
	opts := DefaultOptions()
	opts.ShareStaticFindings = true
	p := New(analyzers.NewRegistry(analyzers.DefaultThresholds()), ai, opts, zerolog.Nop())

	_, err := p.Run(context.Background(), snapshot(appFile))

	require.NoError(t, err)
	require.NotEmpty(t, ai.lastReq.StaticIssues)
	assert.Equal(t, analyzers.CodeNoVar, ai.lastReq.StaticIssues[0].Code)
}

func TestPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(analyzers.NewRegistry(analyzers.DefaultThresholds()), &fakeAI{block: true}, DefaultOptions(), zerolog.Nop())

	_, err := p.Run(ctx, snapshot(appFile))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_RenderIsRepeatable(t *testing.T) {
	p := New(analyzers.NewCustomRegistry(nil), nil, DefaultOptions(), zerolog.Nop())
	review := types.AggregatedReview{
		Issues:       []types.Issue{types.NewIssue(types.SeverityCritical, types.CategorySecurity, "src/app.js", 1, "SQL injection")},
		OverallScore: 60,
	}

	first := p.Render(snapshot(appFile), review)
	second := p.Render(snapshot(appFile), review)

	assert.Equal(t, first.Comment, second.Comment)
	assert.Equal(t, first.Inline, second.Inline)
	assert.Equal(t, types.ConclusionFailure, first.Decision.Conclusion)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestResultContents(t *testing.T) {
	p := New(analyzers.NewCustomRegistry(nil), nil, DefaultOptions(), zerolog.Nop())

	result := p.Render(snapshot(appFile), types.AggregatedReview{OverallScore: 70})

	assert.Equal(t, map[string]string{"src/app.js": "var count = 0;\n"}, result.Contents())
}
