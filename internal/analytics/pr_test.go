package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamlens/teamlens/internal/domain"
)

func ts(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)

	return parsed
}

func tsPtr(t *testing.T, value string) *time.Time {
	t.Helper()

	parsed := ts(t, value)

	return &parsed
}

func TestPRStats(t *testing.T) {
	pivot := ts(t, "2025-01-01T00:00:00Z")

	prs := []domain.PullRequest{
		{
			// Merged 48h after creation, before pivot.
			CreatedAt: ts(t, "2024-11-01T10:00:00Z"),
			MergedAt:  tsPtr(t, "2024-11-03T10:00:00Z"),
		},
		{
			// Open, before pivot.
			CreatedAt: ts(t, "2024-12-20T08:00:00Z"),
		},
		{
			// Merged after 12h, reviewed after 2h, after pivot.
			CreatedAt:     ts(t, "2025-02-10T09:00:00Z"),
			MergedAt:      tsPtr(t, "2025-02-10T21:00:00Z"),
			FirstReviewAt: tsPtr(t, "2025-02-10T11:00:00Z"),
		},
		{
			// Merged after 36h, after pivot.
			CreatedAt: ts(t, "2025-03-01T00:00:00Z"),
			MergedAt:  tsPtr(t, "2025-03-02T12:00:00Z"),
		},
	}

	got := PRStats(prs, pivot)

	assert.Equal(t, 2, got.PRCountBefore)
	assert.Equal(t, 2, got.PRCountAfter)
	assert.Equal(t, 1, got.MergedCountBefore)
	assert.Equal(t, 2, got.MergedCountAfter)
	assert.InDelta(t, 48.0, got.AvgMergeTimeBefore, 1e-9)
	assert.InDelta(t, 24.0, got.AvgMergeTimeAfter, 1e-9)
	assert.InDelta(t, 0.0, got.AvgReviewTimeBefore, 1e-9)
	assert.InDelta(t, 2.0, got.AvgReviewTimeAfter, 1e-9)
}

func TestPRStats_Empty(t *testing.T) {
	got := PRStats(nil, time.Now())

	assert.Zero(t, got.PRCountBefore)
	assert.Zero(t, got.PRCountAfter)
	assert.Zero(t, got.AvgMergeTimeBefore)
	assert.Zero(t, got.AvgMergeTimeAfter)
}

func TestPRsByMonth(t *testing.T) {
	prs := []domain.PullRequest{
		{
			CreatedAt: ts(t, "2025-03-05T10:00:00Z"),
			MergedAt:  tsPtr(t, "2025-03-06T10:00:00Z"),
		},
		{
			CreatedAt: ts(t, "2025-01-15T10:00:00Z"),
		},
		{
			CreatedAt: ts(t, "2025-03-20T10:00:00Z"),
			MergedAt:  tsPtr(t, "2025-03-22T10:00:00Z"),
		},
	}

	got := PRsByMonth(prs)

	require.Len(t, got, 2)

	assert.Equal(t, "2025-01", got[0].Month)
	assert.Equal(t, 1, got[0].PRCount)
	assert.Equal(t, 0, got[0].MergedCount)
	assert.Zero(t, got[0].AvgMergeTime)

	assert.Equal(t, "2025-03", got[1].Month)
	assert.Equal(t, 2, got[1].PRCount)
	assert.Equal(t, 2, got[1].MergedCount)
	assert.InDelta(t, 36.0, got[1].AvgMergeTime, 1e-9)
}
