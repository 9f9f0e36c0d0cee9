package analytics

import (
	"time"

	"github.com/teamlens/teamlens/internal/domain"
)

// SprintMetricsResult is the point reduction of one sprint's issue set.
type SprintMetricsResult struct {
	CommittedPoints float64 `json:"committedPoints"`
	CompletedPoints float64 `json:"completedPoints"`
	CompletionRate  float64 `json:"completionRate"`
	IssueCount      int     `json:"issueCount"`
}

// SprintMetrics sums story points over all issues (committed) and over
// done issues (completed). CompletionRate is 0 when nothing was committed.
func SprintMetrics(issues []domain.SprintIssue) SprintMetricsResult {
	out := SprintMetricsResult{IssueCount: len(issues)}

	for _, is := range issues {
		out.CommittedPoints += is.StoryPoints
		if is.Done {
			out.CompletedPoints += is.StoryPoints
		}
	}

	if out.CommittedPoints > 0 {
		out.CompletionRate = out.CompletedPoints / out.CommittedPoints * 100
	}

	return out
}

// SprintStatsResult splits sprint outcomes into before/after cohorts
// around the pivot date.
type SprintStatsResult struct {
	SprintCountBefore   int     `json:"sprintCountBefore"`
	SprintCountAfter    int     `json:"sprintCountAfter"`
	AvgCompletionBefore float64 `json:"avgCompletionBefore"`
	AvgCompletionAfter  float64 `json:"avgCompletionAfter"`
	AvgPointsBefore     float64 `json:"avgPointsBefore"`
	AvgPointsAfter      float64 `json:"avgPointsAfter"`
	TotalPointsBefore   float64 `json:"totalPointsBefore"`
	TotalPointsAfter    float64 `json:"totalPointsAfter"`
}

// SprintStats partitions sprints by end date (falling back to complete
// date) relative to pivot. Sprints with neither date are skipped.
func SprintStats(sprints []domain.Sprint, pivot time.Time) SprintStatsResult {
	var out SprintStatsResult

	var completionBefore, completionAfter float64

	for _, sp := range sprints {
		endsAt := sp.EndDate
		if endsAt == nil {
			endsAt = sp.CompleteDate
		}
		if endsAt == nil {
			continue
		}

		if endsAt.Before(pivot) {
			out.SprintCountBefore++
			completionBefore += sp.CompletionRate
			out.TotalPointsBefore += sp.CompletedPoints
		} else {
			out.SprintCountAfter++
			completionAfter += sp.CompletionRate
			out.TotalPointsAfter += sp.CompletedPoints
		}
	}

	out.AvgCompletionBefore = avg(completionBefore, out.SprintCountBefore)
	out.AvgCompletionAfter = avg(completionAfter, out.SprintCountAfter)
	out.AvgPointsBefore = avg(out.TotalPointsBefore, out.SprintCountBefore)
	out.AvgPointsAfter = avg(out.TotalPointsAfter, out.SprintCountAfter)

	return out
}
