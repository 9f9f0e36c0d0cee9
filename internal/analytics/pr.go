// Package analytics derives dashboard metrics from cached records. Every
// function here is pure: inputs are in-memory slices already materialized
// from the store, outputs are plain structs.
package analytics

import (
	"sort"
	"time"

	"github.com/teamlens/teamlens/internal/domain"
)

// PRStatsResult splits pull-request activity into before/after cohorts
// around the pivot date.
type PRStatsResult struct {
	PRCountBefore      int     `json:"prCountBefore"`
	PRCountAfter       int     `json:"prCountAfter"`
	MergedCountBefore  int     `json:"mergedCountBefore"`
	MergedCountAfter   int     `json:"mergedCountAfter"`
	AvgMergeTimeBefore float64 `json:"avgMergeTimeBefore"`
	AvgMergeTimeAfter  float64 `json:"avgMergeTimeAfter"`
	AvgReviewTimeBefore float64 `json:"avgReviewTimeBefore"`
	AvgReviewTimeAfter  float64 `json:"avgReviewTimeAfter"`
}

// PRStats partitions prs by CreatedAt < pivot and computes counts, merged
// counts, average merge duration (merged PRs only) and average first-review
// latency (reviewed PRs only) per partition, in hours.
func PRStats(prs []domain.PullRequest, pivot time.Time) PRStatsResult {
	var out PRStatsResult

	var (
		mergeBeforeSum, mergeAfterSum   float64
		mergeBeforeN, mergeAfterN       int
		reviewBeforeSum, reviewAfterSum float64
		reviewBeforeN, reviewAfterN     int
	)

	for _, pr := range prs {
		before := pr.CreatedAt.Before(pivot)

		if before {
			out.PRCountBefore++
		} else {
			out.PRCountAfter++
		}

		if pr.MergedAt != nil {
			hours := pr.MergedAt.Sub(pr.CreatedAt).Hours()
			if before {
				out.MergedCountBefore++
				mergeBeforeSum += hours
				mergeBeforeN++
			} else {
				out.MergedCountAfter++
				mergeAfterSum += hours
				mergeAfterN++
			}
		}

		if pr.FirstReviewAt != nil {
			hours := pr.FirstReviewAt.Sub(pr.CreatedAt).Hours()
			if before {
				reviewBeforeSum += hours
				reviewBeforeN++
			} else {
				reviewAfterSum += hours
				reviewAfterN++
			}
		}
	}

	out.AvgMergeTimeBefore = avg(mergeBeforeSum, mergeBeforeN)
	out.AvgMergeTimeAfter = avg(mergeAfterSum, mergeAfterN)
	out.AvgReviewTimeBefore = avg(reviewBeforeSum, reviewBeforeN)
	out.AvgReviewTimeAfter = avg(reviewAfterSum, reviewAfterN)

	return out
}

// MonthlyPRStats is one calendar month of pull-request activity.
type MonthlyPRStats struct {
	Month        string  `json:"month"`
	PRCount      int     `json:"prCount"`
	MergedCount  int     `json:"mergedCount"`
	AvgMergeTime float64 `json:"avgMergeTime"`
}

// PRsByMonth groups prs by the calendar month of CreatedAt (keyed YYYY-MM)
// and returns the rollup sorted ascending by month key.
func PRsByMonth(prs []domain.PullRequest) []MonthlyPRStats {
	type acc struct {
		count, merged int
		mergeSum      float64
		mergeN        int
	}

	months := make(map[string]*acc)

	for _, pr := range prs {
		key := pr.CreatedAt.Format("2006-01")

		a, ok := months[key]
		if !ok {
			a = &acc{}
			months[key] = a
		}

		a.count++

		if pr.MergedAt != nil {
			a.merged++
			a.mergeSum += pr.MergedAt.Sub(pr.CreatedAt).Hours()
			a.mergeN++
		}
	}

	out := make([]MonthlyPRStats, 0, len(months))
	for key, a := range months {
		out = append(out, MonthlyPRStats{
			Month:        key,
			PRCount:      a.count,
			MergedCount:  a.merged,
			AvgMergeTime: avg(a.mergeSum, a.mergeN),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })

	return out
}

func avg(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}

	return sum / float64(n)
}
