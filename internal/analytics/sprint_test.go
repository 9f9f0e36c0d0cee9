package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/teamlens/teamlens/internal/domain"
)

func TestSprintMetrics(t *testing.T) {
	tests := []struct {
		name   string
		issues []domain.SprintIssue
		want   SprintMetricsResult
	}{
		{
			name: "partial completion",
			issues: []domain.SprintIssue{
				{Key: "AAP-1", StoryPoints: 3, Done: true},
				{Key: "AAP-2", StoryPoints: 3, Done: true},
				{Key: "AAP-3", StoryPoints: 2, Done: false},
			},
			want: SprintMetricsResult{
				CommittedPoints: 8,
				CompletedPoints: 6,
				CompletionRate:  75.0,
				IssueCount:      3,
			},
		},
		{
			name: "nothing committed",
			issues: []domain.SprintIssue{
				{Key: "AAP-4", Done: true},
			},
			want: SprintMetricsResult{IssueCount: 1},
		},
		{
			name: "empty sprint",
			want: SprintMetricsResult{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SprintMetrics(tt.issues)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSprintStats(t *testing.T) {
	pivot := ts(t, "2025-01-01T00:00:00Z")

	sprints := []domain.Sprint{
		{
			EndDate:         tsPtr(t, "2024-10-01T00:00:00Z"),
			CompletionRate:  50,
			CompletedPoints: 10,
		},
		{
			// No end date, falls back to complete date, before pivot.
			CompleteDate:    tsPtr(t, "2024-12-01T00:00:00Z"),
			CompletionRate:  100,
			CompletedPoints: 20,
		},
		{
			EndDate:         tsPtr(t, "2025-02-01T00:00:00Z"),
			CompletionRate:  80,
			CompletedPoints: 16,
		},
		{
			// Neither date set, skipped entirely.
			CompletionRate:  40,
			CompletedPoints: 8,
		},
	}

	got := SprintStats(sprints, pivot)

	assert.Equal(t, 2, got.SprintCountBefore)
	assert.Equal(t, 1, got.SprintCountAfter)
	assert.InDelta(t, 75.0, got.AvgCompletionBefore, 1e-9)
	assert.InDelta(t, 80.0, got.AvgCompletionAfter, 1e-9)
	assert.InDelta(t, 15.0, got.AvgPointsBefore, 1e-9)
	assert.InDelta(t, 16.0, got.AvgPointsAfter, 1e-9)
	assert.InDelta(t, 30.0, got.TotalPointsBefore, 1e-9)
	assert.InDelta(t, 16.0, got.TotalPointsAfter, 1e-9)
}

func TestSprintStats_Empty(t *testing.T) {
	got := SprintStats(nil, time.Now())

	assert.Zero(t, got.SprintCountBefore)
	assert.Zero(t, got.AvgCompletionBefore)
	assert.Zero(t, got.AvgPointsAfter)
}
