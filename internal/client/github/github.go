// Package github fetches pull-request and commit data from the GitHub API.
// The client is stateless and retryless: a transport failure on the PR path
// aborts and propagates, while the commit path degrades to partial results.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/teamlens/teamlens/internal/domain"
	"github.com/teamlens/teamlens/pkg/logger/sl"
)

const perPage = 100

type Client struct {
	gh  *github.Client
	log *slog.Logger

	// Cost/safety caps for the commit fetcher only.
	commitMaxPages    int
	commitPageTimeout time.Duration
}

func New(token string, log *slog.Logger, commitMaxPages int, commitPageTimeout time.Duration) *Client {
	var tc *http.Client

	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		tc = oauth2.NewClient(context.Background(), ts)
	}

	return &Client{
		gh:                github.NewClient(tc),
		log:               log,
		commitMaxPages:    commitMaxPages,
		commitPageTimeout: commitPageTimeout,
	}
}

// FetchPullRequests returns every pull request of owner/repo across all
// states, tagged with the owning repository. Any page failure aborts the
// whole fetch.
func (c *Client) FetchPullRequests(ctx context.Context, owner, repo string) ([]domain.PullRequest, error) {
	const op = "internal.client.github.FetchPullRequests"

	repoName := fmt.Sprintf("%s/%s", owner, repo)

	var prs []domain.PullRequest

	opts := &github.PullRequestListOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: perPage, Page: 1},
	}

	for {
		page, _, err := c.gh.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to list pull requests for %s: %w", op, repoName, err)
		}

		for _, pr := range page {
			prs = append(prs, convertPullRequest(pr, repoName))
		}

		if len(page) < perPage {
			break
		}
		opts.Page++
	}

	return prs, nil
}

// FetchFirstReviewAt returns the earliest review submission time for the PR,
// or nil when it has no reviews. Fetch failures are tolerated and reported
// as "no reviews" so one flaky review endpoint cannot fail a whole sync.
func (c *Client) FetchFirstReviewAt(ctx context.Context, owner, repo string, number int) *time.Time {
	reviews, _, err := c.gh.PullRequests.ListReviews(ctx, owner, repo, number, &github.ListOptions{PerPage: perPage})
	if err != nil {
		c.log.Warn("failed to fetch reviews, treating as none",
			slog.String("repo", owner+"/"+repo), slog.Int("pr", number), sl.Err(err))
		return nil
	}

	var earliest *time.Time

	for _, r := range reviews {
		if r.SubmittedAt == nil {
			continue
		}

		t := r.SubmittedAt.Time
		if earliest == nil || t.Before(*earliest) {
			earliest = &t
		}
	}

	return earliest
}

// FetchCommits returns commits of owner/repo, newest first, bounded to
// commitMaxPages pages. Each page request runs under its own timeout; a
// failed or timed-out page ends the loop early and the commits gathered so
// far are returned. This is intentionally best-effort, unlike the PR fetch.
func (c *Client) FetchCommits(ctx context.Context, owner, repo string) []domain.Commit {
	repoName := fmt.Sprintf("%s/%s", owner, repo)

	var commits []domain.Commit

	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: perPage, Page: 1},
	}

	for page := 0; page < c.commitMaxPages; page++ {
		pageCtx, cancel := context.WithTimeout(ctx, c.commitPageTimeout)
		batch, _, err := c.gh.Repositories.ListCommits(pageCtx, owner, repo, opts)
		cancel()

		if err != nil {
			c.log.Warn("commit page fetch failed, keeping partial results",
				slog.String("repo", repoName), slog.Int("page", opts.Page), sl.Err(err))
			break
		}

		for _, rc := range batch {
			commits = append(commits, convertCommit(rc, repoName))
		}

		if len(batch) < perPage {
			break
		}
		opts.Page++
	}

	return commits
}

func convertPullRequest(pr *github.PullRequest, repoName string) domain.PullRequest {
	raw, _ := json.Marshal(pr)

	out := domain.PullRequest{
		ID:        pr.GetID(),
		Number:    pr.GetNumber(),
		RepoName:  repoName,
		Title:     pr.GetTitle(),
		State:     pr.GetState(),
		CreatedAt: pr.GetCreatedAt().Time,
		RawJSON:   string(raw),
	}

	if pr.User != nil {
		out.AuthorLogin = pr.User.GetLogin()
	}

	if pr.MergedAt != nil {
		t := pr.MergedAt.Time
		out.MergedAt = &t
	}

	return out
}

func convertCommit(rc *github.RepositoryCommit, repoName string) domain.Commit {
	out := domain.Commit{
		SHA:      rc.GetSHA(),
		RepoName: repoName,
		URL:      rc.GetHTMLURL(),
	}

	if rc.Author != nil {
		out.AuthorLogin = rc.Author.GetLogin()
	}

	if commit := rc.GetCommit(); commit != nil {
		out.Message = firstLine(commit.GetMessage())

		if author := commit.GetAuthor(); author != nil {
			out.AuthorEmail = author.GetEmail()
			out.AuthorDate = author.GetDate().Time
		}
	}

	return out
}

func firstLine(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}

	return msg
}
