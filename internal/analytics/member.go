package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/teamlens/teamlens/internal/domain"
)

// The dashboard's audience works in GMT+7, so all calendar bucketing uses a
// fixed seven-hour offset. No DST, not configurable.
var gmt7 = time.FixedZone("GMT+7", 7*60*60)

const heatmapYears = 2

var botLoginMarkers = []string{"[bot]", "bot", "copilot", "dependabot", "renovate", "github-actions"}

func isBotLogin(login string) bool {
	lower := strings.ToLower(login)
	for _, marker := range botLoginMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}

// memberKey normalizes a contributor identity: the login when present,
// otherwise the local part of the commit-author email.
func memberKey(login, email string) string {
	if login != "" {
		return strings.ToLower(login)
	}

	if i := strings.IndexByte(email, '@'); i > 0 {
		return strings.ToLower(email[:i])
	}

	return strings.ToLower(email)
}

type memberAcc struct {
	displayName string
	commits     []domain.Commit
	prs         []domain.PullRequest
}

// ComputeMemberStats derives per-contributor analytics from the full commit
// and pull-request corpus. Bot-like accounts are dropped before ranking;
// ranking order is total commits descending with insertion-order tie-break.
func ComputeMemberStats(commits []domain.Commit, prs []domain.PullRequest, pivot, now time.Time) []domain.MemberStats {
	members := make(map[string]*memberAcc)

	var order []string

	add := func(key, display string) *memberAcc {
		m, ok := members[key]
		if !ok {
			m = &memberAcc{displayName: display}
			members[key] = m
			order = append(order, key)
		}
		return m
	}

	for _, c := range commits {
		key := memberKey(c.AuthorLogin, c.AuthorEmail)
		if key == "" {
			continue
		}

		display := c.AuthorLogin
		if display == "" {
			display = key
		}

		m := add(key, display)
		m.commits = append(m.commits, c)
	}

	for _, pr := range prs {
		key := memberKey(pr.AuthorLogin, "")
		if key == "" {
			continue
		}

		m := add(key, pr.AuthorLogin)
		m.prs = append(m.prs, pr)
	}

	stats := make([]domain.MemberStats, 0, len(order))

	for _, key := range order {
		if isBotLogin(key) {
			continue
		}

		m := members[key]

		stats = append(stats, domain.MemberStats{
			Username:       key,
			DisplayName:    m.displayName,
			Commits:        commitFrequency(m.commits, now),
			Pattern:        workingPattern(m.commits),
			PRs:            memberPRMetrics(m.prs, pivot),
			RepoActivity:   repoActivity(m.commits, m.prs),
			Heatmap:        heatmap(m.commits, now),
			HeatmapDetails: heatmapDetails(m.commits, now),
		})
	}

	rank(stats)

	return stats
}

// dayKey is the GMT+7 calendar date of t.
func dayKey(t time.Time) string {
	return t.In(gmt7).Format("2006-01-02")
}

// dayStart truncates t to midnight of its GMT+7 calendar date.
func dayStart(t time.Time) time.Time {
	d := t.In(gmt7)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, gmt7)
}

func distinctDays(commits []domain.Commit) []time.Time {
	seen := make(map[string]struct{}, len(commits))

	var days []time.Time

	for _, c := range commits {
		key := dayKey(c.AuthorDate)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, dayStart(c.AuthorDate))
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	return days
}

func commitFrequency(commits []domain.Commit, now time.Time) domain.CommitFrequency {
	out := domain.CommitFrequency{Total: len(commits)}
	if len(commits) == 0 {
		return out
	}

	days := distinctDays(commits)
	out.ActiveDays = len(days)
	out.CurrentStreak = currentStreak(days, now)
	out.LongestStreak = longestStreak(days)
	out.CommitsPerWeek = commitsPerWeek(len(commits), days)
	out.BusiestWeek, out.BusiestCount = busiestWeek(commits)

	return out
}

// currentStreak walks distinct days descending from today, counting while
// the gap to the previously counted day stays within one day.
func currentStreak(daysAsc []time.Time, now time.Time) int {
	prev := dayStart(now)
	streak := 0

	for i := len(daysAsc) - 1; i >= 0; i-- {
		gap := prev.Sub(daysAsc[i]).Hours() / 24
		if gap > 1 {
			break
		}

		streak++
		prev = daysAsc[i]
	}

	return streak
}

// longestStreak tracks the longest run of strictly consecutive days,
// resetting on any gap other than exactly one day.
func longestStreak(daysAsc []time.Time) int {
	if len(daysAsc) == 0 {
		return 0
	}

	longest, run := 1, 1

	for i := 1; i < len(daysAsc); i++ {
		diff := daysAsc[i].Sub(daysAsc[i-1]).Hours() / 24
		if diff == 1 {
			run++
		} else {
			run = 1
		}

		if run > longest {
			longest = run
		}
	}

	return longest
}

func commitsPerWeek(total int, daysAsc []time.Time) float64 {
	span := daysAsc[len(daysAsc)-1].Sub(daysAsc[0]).Hours() / 24

	weeks := math.Ceil(span / 7)
	if weeks < 1 {
		weeks = 1
	}

	return round1(float64(total) / weeks)
}

// busiestWeek buckets commits by the Monday starting their GMT+7 week.
// Ties go to the bucket seen first in input order.
func busiestWeek(commits []domain.Commit) (string, int) {
	counts := make(map[string]int)

	var firstSeen []string

	for _, c := range commits {
		d := c.AuthorDate.In(gmt7)
		offset := (int(d.Weekday()) + 6) % 7
		monday := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, gmt7).AddDate(0, 0, -offset)
		key := monday.Format("2006-01-02")

		if _, ok := counts[key]; !ok {
			firstSeen = append(firstSeen, key)
		}
		counts[key]++
	}

	var (
		bestKey   string
		bestCount int
	)

	for _, key := range firstSeen {
		if counts[key] > bestCount {
			bestKey = key
			bestCount = counts[key]
		}
	}

	return bestKey, bestCount
}

// heatmap initializes every GMT+7 date of the trailing two-year window to
// zero and increments per commit; commits outside the window are ignored.
func heatmap(commits []domain.Commit, now time.Time) map[string]int {
	out := make(map[string]int)

	end := dayStart(now)
	for d := end.AddDate(-heatmapYears, 0, 0); !d.After(end); d = d.AddDate(0, 0, 1) {
		out[d.Format("2006-01-02")] = 0
	}

	for _, c := range commits {
		key := dayKey(c.AuthorDate)
		if _, ok := out[key]; ok {
			out[key]++
		}
	}

	return out
}

func heatmapDetails(commits []domain.Commit, now time.Time) map[string]map[string][]domain.HeatmapDetail {
	out := make(map[string]map[string][]domain.HeatmapDetail)

	start := dayStart(now).AddDate(-heatmapYears, 0, 0)

	for _, c := range commits {
		if dayStart(c.AuthorDate).Before(start) {
			continue
		}

		key := dayKey(c.AuthorDate)

		byRepo, ok := out[key]
		if !ok {
			byRepo = make(map[string][]domain.HeatmapDetail)
			out[key] = byRepo
		}

		byRepo[c.RepoName] = append(byRepo[c.RepoName], domain.HeatmapDetail{
			SHA:     c.SHA,
			Message: c.Message,
			URL:     c.URL,
		})
	}

	return out
}

func workingPattern(commits []domain.Commit) domain.WorkingPattern {
	var out domain.WorkingPattern

	for _, c := range commits {
		d := c.AuthorDate.In(gmt7)
		out.ByDayOfWeek[int(d.Weekday())]++
		out.ByHour[d.Hour()]++
	}

	for i, n := range out.ByDayOfWeek {
		if n > out.ByDayOfWeek[out.PeakDay] {
			out.PeakDay = i
		}
	}

	for i, n := range out.ByHour {
		if n > out.ByHour[out.PeakHour] {
			out.PeakHour = i
		}
	}

	return out
}

func memberPRMetrics(prs []domain.PullRequest, pivot time.Time) domain.MemberPRMetrics {
	out := domain.MemberPRMetrics{Created: len(prs)}

	var mergeSum float64

	for _, pr := range prs {
		if pr.CreatedAt.Before(pivot) {
			out.CreatedBefore++
		} else {
			out.CreatedAfter++
		}

		if pr.MergedAt != nil {
			out.Merged++
			mergeSum += pr.MergedAt.Sub(pr.CreatedAt).Hours()
		}
	}

	if out.Created > 0 {
		out.MergeRate = float64(out.Merged) / float64(out.Created)
	}

	if out.Merged > 0 {
		out.AvgMergeTimeHours = mergeSum / float64(out.Merged)
	}

	return out
}

func repoActivity(commits []domain.Commit, prs []domain.PullRequest) []domain.RepoActivity {
	index := make(map[string]int)

	var out []domain.RepoActivity

	at := func(repo string) *domain.RepoActivity {
		i, ok := index[repo]
		if !ok {
			i = len(out)
			index[repo] = i
			out = append(out, domain.RepoActivity{Repo: repo})
		}
		return &out[i]
	}

	for _, c := range commits {
		at(c.RepoName).Commits++
	}

	for _, pr := range prs {
		at(pr.RepoName).PRs++
	}

	return out
}

// rank orders members by total commits descending (stable, so earlier
// insertion wins ties) and assigns 1-based rank plus share of team total.
func rank(stats []domain.MemberStats) {
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Commits.Total > stats[j].Commits.Total
	})

	teamTotal := 0
	for _, s := range stats {
		teamTotal += s.Commits.Total
	}

	for i := range stats {
		stats[i].Rank = i + 1

		if teamTotal > 0 {
			stats[i].TeamPercent = round1(float64(stats[i].Commits.Total) / float64(teamTotal) * 100)
		}
	}
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
