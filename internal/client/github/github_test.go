package github

import (
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertPullRequest(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	merged := created.Add(48 * time.Hour)

	pr := &github.PullRequest{
		ID:        github.Int64(99),
		Number:    github.Int(7),
		Title:     github.String("Fix flaky retry"),
		State:     github.String("closed"),
		User:      &github.User{Login: github.String("alice")},
		CreatedAt: &github.Timestamp{Time: created},
		MergedAt:  &github.Timestamp{Time: merged},
	}

	got := convertPullRequest(pr, "org/app")

	assert.Equal(t, int64(99), got.ID)
	assert.Equal(t, 7, got.Number)
	assert.Equal(t, "org/app", got.RepoName)
	assert.Equal(t, "Fix flaky retry", got.Title)
	assert.Equal(t, "closed", got.State)
	assert.Equal(t, "alice", got.AuthorLogin)
	assert.True(t, got.CreatedAt.Equal(created))
	require.NotNil(t, got.MergedAt)
	assert.True(t, got.MergedAt.Equal(merged))
	assert.NotEmpty(t, got.RawJSON)
}

func TestConvertPullRequest_OpenWithoutAuthor(t *testing.T) {
	pr := &github.PullRequest{
		Number:    github.Int(8),
		State:     github.String("open"),
		CreatedAt: &github.Timestamp{Time: time.Now()},
	}

	got := convertPullRequest(pr, "org/app")

	assert.Empty(t, got.AuthorLogin)
	assert.Nil(t, got.MergedAt)
	assert.Nil(t, got.FirstReviewAt)
}

func TestConvertCommit(t *testing.T) {
	authored := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

	rc := &github.RepositoryCommit{
		SHA:     github.String("abc123"),
		HTMLURL: github.String("https://example.com/commit/abc123"),
		Author:  &github.User{Login: github.String("alice")},
		Commit: &github.Commit{
			Message: github.String("feat: add sync\n\nlong body here"),
			Author: &github.CommitAuthor{
				Email: github.String("alice@example.com"),
				Date:  &github.Timestamp{Time: authored},
			},
		},
	}

	got := convertCommit(rc, "org/app")

	assert.Equal(t, "abc123", got.SHA)
	assert.Equal(t, "org/app", got.RepoName)
	assert.Equal(t, "alice", got.AuthorLogin)
	assert.Equal(t, "alice@example.com", got.AuthorEmail)
	assert.True(t, got.AuthorDate.Equal(authored))
	// Only the subject line is kept.
	assert.Equal(t, "feat: add sync", got.Message)
	assert.Equal(t, "https://example.com/commit/abc123", got.URL)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "subject", firstLine("subject\nbody"))
	assert.Equal(t, "subject only", firstLine("subject only"))
	assert.Equal(t, "", firstLine(""))
}
