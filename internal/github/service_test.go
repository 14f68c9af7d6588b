package github

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/agusespa/prsentinel/internal/analyzers"
	"github.com/agusespa/prsentinel/internal/pipeline"
	"github.com/agusespa/prsentinel/internal/report"
	"github.com/agusespa/prsentinel/internal/store"
	"github.com/agusespa/prsentinel/internal/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	pr    types.PullRequest
	files []types.ChangedFile

	checkRunErr error
	approvals   int

	checkRuns  []report.Decision
	upserts    []string
	comments   []string
	reviews    [][]report.InlineComment
	merges     []string
	commits    map[string]string
	approvalsQ int
}

func (f *fakeAPI) PullRequest(ctx context.Context, owner, repo string, number int) (types.PullRequest, error) {
	return f.pr, nil
}

func (f *fakeAPI) ChangedFiles(ctx context.Context, pr types.PullRequest) ([]types.ChangedFile, error) {
	return f.files, nil
}

func (f *fakeAPI) CreateCheckRun(ctx context.Context, pr types.PullRequest, decision report.Decision, output report.CheckRunOutput) (int64, error) {
	if f.checkRunErr != nil {
		return 0, f.checkRunErr
	}
	f.checkRuns = append(f.checkRuns, decision)
	return 1, nil
}

func (f *fakeAPI) UpsertComment(ctx context.Context, pr types.PullRequest, body string) error {
	f.upserts = append(f.upserts, body)
	return nil
}

func (f *fakeAPI) PostComment(ctx context.Context, pr types.PullRequest, body string) error {
	f.comments = append(f.comments, body)
	return nil
}

func (f *fakeAPI) PostReview(ctx context.Context, pr types.PullRequest, comments []report.InlineComment) error {
	f.reviews = append(f.reviews, comments)
	return nil
}

func (f *fakeAPI) Approvals(ctx context.Context, pr types.PullRequest) (int, error) {
	f.approvalsQ++
	return f.approvals, nil
}

func (f *fakeAPI) Merge(ctx context.Context, pr types.PullRequest, message string) error {
	f.merges = append(f.merges, message)
	return nil
}

func (f *fakeAPI) CommitFile(ctx context.Context, pr types.PullRequest, file types.ChangedFile, content, message string) error {
	if f.commits == nil {
		f.commits = make(map[string]string)
	}
	f.commits[file.Path] = content
	return nil
}

type countingProducer struct {
	issues []types.Issue
	calls  atomic.Int32
}

func (p *countingProducer) Name() string { return "counting" }

func (p *countingProducer) Analyze(content, filename, language string) ([]types.Issue, error) {
	p.calls.Add(1)
	return p.issues, nil
}

type memoryCache struct {
	reviews map[string]types.AggregatedReview
}

func (c *memoryCache) Get(ctx context.Context, repo, sha string) (*types.AggregatedReview, error) {
	review, ok := c.reviews[repo+"@"+sha]
	if !ok {
		return nil, nil
	}
	return &review, nil
}

func (c *memoryCache) Put(ctx context.Context, repo, sha string, review types.AggregatedReview) error {
	c.reviews[repo+"@"+sha] = review
	return nil
}

type failingStore struct {
	saved int
	last  store.Record
	err   error
}

func (s *failingStore) Save(ctx context.Context, record store.Record) error {
	s.saved++
	s.last = record
	return s.err
}

var serviceFile = types.ChangedFile{
	Path:    "src/app.js",
	Content: "var count = 0;\n",
	Patch:   "@@ -0,0 +1,1 @@\n+var count = 0;",
	Status:  "added",
	SHA:     "blob1",
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{pr: testPR, files: []types.ChangedFile{serviceFile}}
}

func newService(api API, producer analyzers.FindingProducer, reviews ReviewStore, cache ReviewCache, opts ServiceOptions) *Service {
	registry := analyzers.NewCustomRegistry(nil)
	if producer != nil {
		registry = analyzers.NewCustomRegistry(nil, producer)
	}
	p := pipeline.New(registry, nil, pipeline.DefaultOptions(), zerolog.Nop())
	return NewService(api, p, reviews, cache, opts, zerolog.Nop())
}

func noVarIssue() types.Issue {
	issue := types.NewIssue(types.SeverityLow, types.CategoryBestPractice, "src/app.js", 1, "Unexpected var")
	issue.Code = "no-var"
	issue.AutoFixable = true
	return issue
}

func TestService_ReviewPullRequestDelivers(t *testing.T) {
	api := newFakeAPI()
	reviews := &failingStore{}
	svc := newService(api, &countingProducer{issues: []types.Issue{noVarIssue()}}, reviews, nil, ServiceOptions{})

	result, err := svc.ReviewPullRequest(context.Background(), "acme", "web", 7)

	require.NoError(t, err)
	assert.Equal(t, 69, result.Review.OverallScore)
	assert.Equal(t, 1, reviews.saved)
	assert.Equal(t, "acme/web", reviews.last.Repo)
	assert.Equal(t, 1, reviews.last.IssueCount)
	assert.Equal(t, result.ID, reviews.last.ID)
	require.Len(t, api.checkRuns, 1)
	assert.Equal(t, types.ConclusionSuccess, api.checkRuns[0].Conclusion)
	require.Len(t, api.upserts, 1)
	assert.Contains(t, api.upserts[0], report.CommentMarker)
	require.Len(t, api.reviews, 1)
	assert.Len(t, api.reviews[0], 1)
	assert.Empty(t, api.comments)
	assert.Empty(t, api.commits, "auto-fix is off")
	assert.Empty(t, api.merges, "auto-merge is off")
}

func TestService_DeliveryFailurePostsErrorComment(t *testing.T) {
	api := newFakeAPI()
	api.checkRunErr = errors.New("checks API unavailable")
	svc := newService(api, nil, nil, nil, ServiceOptions{AutoMerge: true})

	result, err := svc.ReviewPullRequest(context.Background(), "acme", "web", 7)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "checks API unavailable")
	require.NotNil(t, result, "the review itself is still returned")
	require.Len(t, api.comments, 1)
	assert.Contains(t, api.comments[0], "checks API unavailable")
	assert.Len(t, api.upserts, 1, "the other deliveries are still attempted")
	assert.Zero(t, api.approvalsQ, "nothing is merged after a failed delivery")
}

func TestService_StoreFailureDoesNotFailReview(t *testing.T) {
	api := newFakeAPI()
	svc := newService(api, nil, &failingStore{err: errors.New("db down")}, nil, ServiceOptions{})

	_, err := svc.ReviewPullRequest(context.Background(), "acme", "web", 7)

	require.NoError(t, err)
	assert.Len(t, api.checkRuns, 1)
}

func TestService_DryRunDeliversNothing(t *testing.T) {
	api := newFakeAPI()
	svc := newService(api, nil, nil, nil, ServiceOptions{DryRun: true, AutoFix: true, AutoMerge: true})

	result, err := svc.ReviewPullRequest(context.Background(), "acme", "web", 7)

	require.NoError(t, err)
	assert.NotEmpty(t, result.Comment)
	assert.Empty(t, api.checkRuns)
	assert.Empty(t, api.upserts)
	assert.Empty(t, api.reviews)
	assert.Zero(t, api.approvalsQ)
}

func TestService_CachedReviewIsReRendered(t *testing.T) {
	api := newFakeAPI()
	producer := &countingProducer{issues: []types.Issue{noVarIssue()}}
	cache := &memoryCache{reviews: map[string]types.AggregatedReview{}}
	svc := newService(api, producer, nil, cache, ServiceOptions{})

	first, err := svc.ReviewPullRequest(context.Background(), "acme", "web", 7)
	require.NoError(t, err)
	second, err := svc.ReviewPullRequest(context.Background(), "acme", "web", 7)
	require.NoError(t, err)

	assert.Equal(t, int32(1), producer.calls.Load(), "the second delivery comes from the cache")
	assert.Equal(t, first.Review, second.Review)
	assert.Equal(t, first.Comment, second.Comment)
	assert.Len(t, api.checkRuns, 2)
}

func TestService_AutoFixCommitsAndSkipsMerge(t *testing.T) {
	api := newFakeAPI()
	api.approvals = 1
	svc := newService(api, &countingProducer{issues: []types.Issue{noVarIssue()}}, nil, nil,
		ServiceOptions{AutoFix: true, AutoMerge: true, MergeLabel: "autoMerge"})

	_, err := svc.ReviewPullRequest(context.Background(), "acme", "web", 7)

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"src/app.js": "let count = 0;\n"}, api.commits)
	assert.Empty(t, api.merges, "the fix commit gets its own review first")
}

func TestService_AutoMerge(t *testing.T) {
	tests := []struct {
		name      string
		approvals int
		label     string
		minScore  int
		merged    bool
	}{
		{"eligible", 1, "autoMerge", 60, true},
		{"no approval", 0, "autoMerge", 60, false},
		{"missing label", 1, "ship-it", 60, false},
		{"score too low", 1, "autoMerge", 80, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.approvals = tt.approvals
			svc := newService(api, nil, nil, nil,
				ServiceOptions{AutoMerge: true, MergeLabel: tt.label, MinMergeScore: tt.minScore})

			result, err := svc.ReviewPullRequest(context.Background(), "acme", "web", 7)

			require.NoError(t, err)
			assert.Equal(t, 70, result.Review.OverallScore)
			if tt.merged {
				assert.Equal(t, []string{"Add login (#7)"}, api.merges)
			} else {
				assert.Empty(t, api.merges)
			}
		})
	}
}
