package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// PullRequestRef identifies a pull request as owner/repo#number.
type PullRequestRef struct {
	Owner  string
	Repo   string
	Number int
}

func (r PullRequestRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// ParsePullRequestRef accepts "owner/repo#123" or a github.com pull request URL.
func ParsePullRequestRef(input string) (PullRequestRef, error) {
	ref := strings.TrimSpace(input)
	ref = strings.TrimPrefix(ref, "https://")
	ref = strings.TrimPrefix(ref, "http://")
	ref = strings.TrimPrefix(ref, "github.com/")
	ref = strings.TrimSuffix(ref, "/")

	var owner, repo, number string
	if before, after, found := strings.Cut(ref, "#"); found {
		parts := strings.Split(before, "/")
		if len(parts) != 2 {
			return PullRequestRef{}, fmt.Errorf("invalid pull request reference %q: expected owner/repo#number", input)
		}
		owner, repo, number = parts[0], parts[1], after
	} else {
		parts := strings.Split(ref, "/")
		if len(parts) < 4 || parts[2] != "pull" {
			return PullRequestRef{}, fmt.Errorf("invalid pull request reference %q: expected owner/repo#number", input)
		}
		owner, repo, number = parts[0], parts[1], parts[3]
	}

	n, err := strconv.Atoi(number)
	if err != nil || n <= 0 {
		return PullRequestRef{}, fmt.Errorf("invalid pull request number %q", number)
	}
	if owner == "" || repo == "" {
		return PullRequestRef{}, fmt.Errorf("invalid pull request reference %q: missing owner or repo", input)
	}

	return PullRequestRef{Owner: owner, Repo: repo, Number: n}, nil
}
