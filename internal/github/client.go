// Package github talks to the GitHub REST API and delivers reviews to pull requests.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agusespa/prsentinel/internal/report"
	"github.com/agusespa/prsentinel/internal/types"
	"github.com/agusespa/prsentinel/internal/utils"
	gogithub "github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

const (
	CheckRunName = "PR Sentinel"
	perPage      = 100
	// maxCheckRunText is the GitHub limit on check-run output text.
	maxCheckRunText = 65535
)

// Client wraps the go-github client with the calls the review bot needs.
type Client struct {
	gh *gogithub.Client
}

// NewClient authenticates with a personal access or installation token. An empty baseURL
// means api.github.com.
func NewClient(ctx context.Context, token, baseURL string) (*Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	if baseURL != "" {
		return NewClientWithBaseURL(tc, baseURL)
	}
	return &Client{gh: gogithub.NewClient(tc)}, nil
}

// NewClientWithBaseURL targets a GitHub Enterprise or test server.
func NewClientWithBaseURL(httpClient *http.Client, baseURL string) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub base URL %q: %w", baseURL, err)
	}
	gh := gogithub.NewClient(httpClient)
	gh.BaseURL = u
	return &Client{gh: gh}, nil
}

func (c *Client) PullRequest(ctx context.Context, owner, repo string, number int) (types.PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return types.PullRequest{}, fmt.Errorf("failed to get pull request %s/%s#%d: %w", owner, repo, number, err)
	}

	labels := make([]string, 0, len(pr.Labels))
	for _, label := range pr.Labels {
		labels = append(labels, label.GetName())
	}

	return types.PullRequest{
		Owner:       owner,
		Repo:        repo,
		Number:      number,
		Title:       pr.GetTitle(),
		Description: pr.GetBody(),
		HeadSHA:     pr.GetHead().GetSHA(),
		HeadRef:     pr.GetHead().GetRef(),
		BaseBranch:  pr.GetBase().GetRef(),
		Labels:      labels,
	}, nil
}

// ChangedFiles lists the files of a pull request with their content at the head commit.
// Removed files are returned without content; files that are not worth reviewing are
// returned without content too, so the patch is still available.
func (c *Client) ChangedFiles(ctx context.Context, pr types.PullRequest) ([]types.ChangedFile, error) {
	var files []types.ChangedFile
	opts := &gogithub.ListOptions{PerPage: perPage}

	for {
		page, resp, err := c.gh.PullRequests.ListFiles(ctx, pr.Owner, pr.Repo, pr.Number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list files of %s#%d: %w", pr.FullName(), pr.Number, err)
		}

		for _, f := range page {
			file := types.ChangedFile{
				Path:     f.GetFilename(),
				Language: utils.DetectLanguageFromFilePath(f.GetFilename()),
				Patch:    f.GetPatch(),
				Status:   f.GetStatus(),
			}
			if file.Status != "removed" && utils.IsReviewable(file.Path) {
				content, sha, err := c.fileContent(ctx, pr, file.Path)
				if err != nil {
					return nil, err
				}
				file.Content = content
				file.SHA = sha
			}
			files = append(files, file)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return files, nil
}

func (c *Client) fileContent(ctx context.Context, pr types.PullRequest, path string) (string, string, error) {
	fileContent, _, _, err := c.gh.Repositories.GetContents(ctx, pr.Owner, pr.Repo, path,
		&gogithub.RepositoryContentGetOptions{Ref: pr.HeadSHA})
	if err != nil {
		return "", "", fmt.Errorf("failed to get content of %s at %s: %w", path, pr.HeadSHA, err)
	}
	if fileContent == nil {
		return "", "", fmt.Errorf("%s is a directory", path)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return "", "", fmt.Errorf("failed to decode content of %s: %w", path, err)
	}
	return content, fileContent.GetSHA(), nil
}

// CreateCheckRun publishes a completed check run on the head commit.
func (c *Client) CreateCheckRun(ctx context.Context, pr types.PullRequest, decision report.Decision, output report.CheckRunOutput) (int64, error) {
	annotations := make([]*gogithub.CheckRunAnnotation, 0, len(output.Annotations))
	for _, a := range output.Annotations {
		annotations = append(annotations, &gogithub.CheckRunAnnotation{
			Path:            gogithub.String(a.Path),
			StartLine:       gogithub.Int(a.StartLine),
			EndLine:         gogithub.Int(a.EndLine),
			AnnotationLevel: gogithub.String(a.Level),
			Title:           gogithub.String(a.Title),
			Message:         gogithub.String(a.Message),
		})
	}

	run, _, err := c.gh.Checks.CreateCheckRun(ctx, pr.Owner, pr.Repo, gogithub.CreateCheckRunOptions{
		Name:        CheckRunName,
		HeadSHA:     pr.HeadSHA,
		Status:      gogithub.String("completed"),
		Conclusion:  gogithub.String(string(decision.Conclusion)),
		CompletedAt: &gogithub.Timestamp{Time: time.Now()},
		Output: &gogithub.CheckRunOutput{
			Title:       gogithub.String(output.Title),
			Summary:     gogithub.String(output.Summary),
			Text:        gogithub.String(truncateText(output.Text, maxCheckRunText)),
			Annotations: annotations,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create check run on %s: %w", pr.HeadSHA, err)
	}
	return run.GetID(), nil
}

// UpsertComment edits the bot's previous summary comment, found by its marker, or creates a
// new one.
func (c *Client) UpsertComment(ctx context.Context, pr types.PullRequest, body string) error {
	existing, err := c.findSummaryComment(ctx, pr)
	if err != nil {
		return err
	}

	comment := &gogithub.IssueComment{Body: gogithub.String(body)}
	if existing != 0 {
		if _, _, err := c.gh.Issues.EditComment(ctx, pr.Owner, pr.Repo, existing, comment); err != nil {
			return fmt.Errorf("failed to edit comment %d: %w", existing, err)
		}
		return nil
	}

	if _, _, err := c.gh.Issues.CreateComment(ctx, pr.Owner, pr.Repo, pr.Number, comment); err != nil {
		return fmt.Errorf("failed to comment on %s#%d: %w", pr.FullName(), pr.Number, err)
	}
	return nil
}

// PostComment always creates a new comment.
func (c *Client) PostComment(ctx context.Context, pr types.PullRequest, body string) error {
	comment := &gogithub.IssueComment{Body: gogithub.String(body)}
	if _, _, err := c.gh.Issues.CreateComment(ctx, pr.Owner, pr.Repo, pr.Number, comment); err != nil {
		return fmt.Errorf("failed to comment on %s#%d: %w", pr.FullName(), pr.Number, err)
	}
	return nil
}

func (c *Client) findSummaryComment(ctx context.Context, pr types.PullRequest) (int64, error) {
	opts := &gogithub.IssueListCommentsOptions{ListOptions: gogithub.ListOptions{PerPage: perPage}}
	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, pr.Owner, pr.Repo, pr.Number, opts)
		if err != nil {
			return 0, fmt.Errorf("failed to list comments of %s#%d: %w", pr.FullName(), pr.Number, err)
		}
		for _, comment := range comments {
			if strings.Contains(comment.GetBody(), report.CommentMarker) {
				return comment.GetID(), nil
			}
		}
		if resp.NextPage == 0 {
			return 0, nil
		}
		opts.Page = resp.NextPage
	}
}

// PostReview submits the inline comments as one COMMENT review on the head commit.
func (c *Client) PostReview(ctx context.Context, pr types.PullRequest, comments []report.InlineComment) error {
	if len(comments) == 0 {
		return nil
	}

	drafts := make([]*gogithub.DraftReviewComment, 0, len(comments))
	for _, comment := range comments {
		drafts = append(drafts, &gogithub.DraftReviewComment{
			Path: gogithub.String(comment.Path),
			Line: gogithub.Int(comment.Line),
			Side: gogithub.String("RIGHT"),
			Body: gogithub.String(comment.Body),
		})
	}

	_, _, err := c.gh.PullRequests.CreateReview(ctx, pr.Owner, pr.Repo, pr.Number, &gogithub.PullRequestReviewRequest{
		CommitID: gogithub.String(pr.HeadSHA),
		Event:    gogithub.String("COMMENT"),
		Body:     gogithub.String(fmt.Sprintf("%d inline finding(s) from %s", len(comments), CheckRunName)),
		Comments: drafts,
	})
	if err != nil {
		return fmt.Errorf("failed to create review on %s#%d: %w", pr.FullName(), pr.Number, err)
	}
	return nil
}

// Approvals counts reviewers whose latest review state is APPROVED.
func (c *Client) Approvals(ctx context.Context, pr types.PullRequest) (int, error) {
	latest := make(map[string]string)
	opts := &gogithub.ListOptions{PerPage: perPage}

	for {
		reviews, resp, err := c.gh.PullRequests.ListReviews(ctx, pr.Owner, pr.Repo, pr.Number, opts)
		if err != nil {
			return 0, fmt.Errorf("failed to list reviews of %s#%d: %w", pr.FullName(), pr.Number, err)
		}
		for _, review := range reviews {
			state := review.GetState()
			// Comments do not change a reviewer's verdict.
			if state == "COMMENTED" || state == "PENDING" {
				continue
			}
			latest[review.GetUser().GetLogin()] = state
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	approvals := 0
	for _, state := range latest {
		if state == "APPROVED" {
			approvals++
		}
	}
	return approvals, nil
}

// Merge squash-merges the pull request, pinned to the reviewed head commit.
func (c *Client) Merge(ctx context.Context, pr types.PullRequest, message string) error {
	result, _, err := c.gh.PullRequests.Merge(ctx, pr.Owner, pr.Repo, pr.Number, message, &gogithub.PullRequestOptions{
		SHA:         pr.HeadSHA,
		MergeMethod: "squash",
	})
	if err != nil {
		return fmt.Errorf("failed to merge %s#%d: %w", pr.FullName(), pr.Number, err)
	}
	if !result.GetMerged() {
		return fmt.Errorf("merge of %s#%d was refused: %s", pr.FullName(), pr.Number, result.GetMessage())
	}
	return nil
}

// CommitFile writes new content for file on the pull request's head branch.
func (c *Client) CommitFile(ctx context.Context, pr types.PullRequest, file types.ChangedFile, content, message string) error {
	_, _, err := c.gh.Repositories.UpdateFile(ctx, pr.Owner, pr.Repo, file.Path, &gogithub.RepositoryContentFileOptions{
		Message: gogithub.String(message),
		Content: []byte(content),
		SHA:     gogithub.String(file.SHA),
		Branch:  gogithub.String(pr.HeadRef),
	})
	if err != nil {
		return fmt.Errorf("failed to commit %s to %s: %w", file.Path, pr.HeadRef, err)
	}
	return nil
}

// HasLabel reports whether the pull request carries label, ignoring case.
func HasLabel(pr types.PullRequest, label string) bool {
	for _, l := range pr.Labels {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}

func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	const notice = "\n\n_(truncated)_"
	return s[:max-len(notice)] + notice
}
