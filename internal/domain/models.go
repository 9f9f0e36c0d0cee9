package domain

import "time"

// Source identifies an external data source tracked by sync metadata.
type Source string

const (
	SourceGitHub Source = "github"
	SourceJira   Source = "jira"
)

// Sources lists every known source in sync order.
var Sources = []Source{SourceGitHub, SourceJira}

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceGitHub || s == SourceJira
}

// SyncState is the lifecycle state of a source's last sync attempt.
type SyncState string

const (
	SyncStateNever      SyncState = "never"
	SyncStatePending    SyncState = "pending"
	SyncStateInProgress SyncState = "in_progress"
	SyncStateSuccess    SyncState = "success"
	SyncStatePartial    SyncState = "partial"
	SyncStateError      SyncState = "error"
)

// PullRequest is one code-review request fetched from GitHub.
// The dedup key is (RepoName, Number); ID is stored but not used for
// conflict resolution so re-fetches stay consistent across repos.
type PullRequest struct {
	ID            int64      `db:"id"`
	Number        int        `db:"number"`
	RepoName      string     `db:"repo_name"`
	Title         string     `db:"title"`
	State         string     `db:"state"`
	AuthorLogin   string     `db:"author_login"`
	CreatedAt     time.Time  `db:"created_at"`
	MergedAt      *time.Time `db:"merged_at"`
	FirstReviewAt *time.Time `db:"first_review_at"`
	RawJSON       string     `db:"raw_json"`
	SyncedAt      time.Time  `db:"synced_at"`
}

// Sprint is one iteration of a Jira board with its point metrics
// precomputed from the sprint's issue set on every sync.
type Sprint struct {
	ID              int64      `db:"id"`
	BoardID         int64      `db:"board_id"`
	Name            string     `db:"name"`
	State           string     `db:"state"`
	StartDate       *time.Time `db:"start_date"`
	EndDate         *time.Time `db:"end_date"`
	CompleteDate    *time.Time `db:"complete_date"`
	CommittedPoints float64    `db:"committed_points"`
	CompletedPoints float64    `db:"completed_points"`
	CompletionRate  float64    `db:"completion_rate"`
	IssueCount      int        `db:"issue_count"`
	RawJSON         string     `db:"raw_json"`
	SyncedAt        time.Time  `db:"synced_at"`
}

// SyncMetadata is the per-source sync status row, exactly one per source.
type SyncMetadata struct {
	Source     Source    `db:"source"`
	LastSyncAt time.Time `db:"last_sync_at"`
	Status     SyncState `db:"status"`
	ErrorMsg   *string   `db:"error_msg"`
	DurationMs *int64    `db:"duration_ms"`
}

// Commit is a single commit observed while computing member analytics.
// Commits are not persisted relationally; they feed the cached MemberStats.
type Commit struct {
	SHA         string
	RepoName    string
	AuthorLogin string
	AuthorEmail string
	AuthorDate  time.Time
	Message     string
	URL         string
}

// SprintIssue is the reduced view of a Jira issue needed for point metrics.
type SprintIssue struct {
	Key         string
	StoryPoints float64
	Done        bool
}

// CommitFrequency aggregates a member's commit cadence.
type CommitFrequency struct {
	Total          int     `json:"total"`
	ActiveDays     int     `json:"activeDays"`
	CurrentStreak  int     `json:"currentStreak"`
	LongestStreak  int     `json:"longestStreak"`
	CommitsPerWeek float64 `json:"commitsPerWeek"`
	BusiestWeek    string  `json:"busiestWeek"`
	BusiestCount   int     `json:"busiestWeekCommits"`
}

// WorkingPattern is the day-of-week / hour-of-day histogram pair,
// bucketed on GMT+7-shifted timestamps.
type WorkingPattern struct {
	ByDayOfWeek [7]int  `json:"byDayOfWeek"`
	ByHour      [24]int `json:"byHour"`
	PeakDay     int     `json:"peakDay"`
	PeakHour    int     `json:"peakHour"`
}

// MemberPRMetrics is a member's pull-request activity split by pivot date.
type MemberPRMetrics struct {
	Created           int     `json:"created"`
	Merged            int     `json:"merged"`
	MergeRate         float64 `json:"mergeRate"`
	AvgMergeTimeHours float64 `json:"avgMergeTimeHours"`
	CreatedBefore     int     `json:"createdBefore"`
	CreatedAfter      int     `json:"createdAfter"`
}

// HeatmapDetail is one commit listed under a heatmap cell for drill-down.
type HeatmapDetail struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// RepoActivity counts a member's contributions to one repository.
type RepoActivity struct {
	Repo    string `json:"repo"`
	Commits int    `json:"commits"`
	PRs     int    `json:"prs"`
}

// MemberStats is the derived per-contributor analytics blob. It is cached,
// not persisted relationally, and recomputed wholesale on each sync.
type MemberStats struct {
	Username       string                                `json:"username"`
	DisplayName    string                                `json:"displayName"`
	Commits        CommitFrequency                       `json:"commitFrequency"`
	Pattern        WorkingPattern                        `json:"workingPattern"`
	PRs            MemberPRMetrics                       `json:"prMetrics"`
	RepoActivity   []RepoActivity                        `json:"repoActivity"`
	Heatmap        map[string]int                        `json:"heatmapData"`
	HeatmapDetails map[string]map[string][]HeatmapDetail `json:"heatmapDetails"`
	Rank           int                                   `json:"rank"`
	TeamPercent    float64                               `json:"teamPercent"`
}
