package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/teamlens/teamlens/internal/analytics"
	"github.com/teamlens/teamlens/internal/apperrors"
	"github.com/teamlens/teamlens/internal/config"
	"github.com/teamlens/teamlens/internal/domain"
	"github.com/teamlens/teamlens/internal/repository"
	"github.com/teamlens/teamlens/pkg/logger/sl"
)

// GitHubClient is the fetch surface the syncer needs from GitHub.
type GitHubClient interface {
	FetchPullRequests(ctx context.Context, owner, repo string) ([]domain.PullRequest, error)
	FetchFirstReviewAt(ctx context.Context, owner, repo string, number int) *time.Time
	FetchCommits(ctx context.Context, owner, repo string) []domain.Commit
}

// JiraClient is the fetch surface the syncer needs from Jira.
type JiraClient interface {
	FetchSprintsWithIssues(ctx context.Context, projectKey string) ([]domain.Sprint, error)
}

// ProgressEvent is one step update emitted during a streamed sync.
type ProgressEvent struct {
	Step    string `json:"step"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

const (
	ProgressSyncing = "syncing"
	ProgressDone    = "done"
	ProgressError   = "error"
)

// SourceSyncStatus is the per-source status view served to clients.
type SourceSyncStatus struct {
	Source     domain.Source    `json:"source"`
	Status     domain.SyncState `json:"status"`
	LastSyncAt *time.Time       `json:"lastSyncAt,omitempty"`
	Error      *string          `json:"error,omitempty"`
	DurationMs *int64           `json:"durationMs,omitempty"`
	Stale      bool             `json:"isStale"`
	Syncing    bool             `json:"syncing"`
}

type SyncService interface {
	// Sync refreshes one source. It returns apperrors.ErrSyncInProgress if
	// that source is already being synced; concurrent calls are never queued.
	Sync(ctx context.Context, source domain.Source) error

	// SyncAll refreshes every source sequentially and aggregates failures
	// instead of aborting, so one broken source cannot block the other.
	SyncAll(ctx context.Context) []apperrors.SourceError

	// SyncAllWithProgress is SyncAll with a per-step event callback.
	SyncAllWithProgress(ctx context.Context, emit func(ProgressEvent)) []apperrors.SourceError

	// IsStale reports whether the source's cache is older than the
	// configured threshold. A source that never synced is always stale.
	IsStale(ctx context.Context, source domain.Source) bool

	// TriggerBackground starts a sync in a goroutine; failures are logged
	// only. Safe to call while a sync is already running.
	TriggerBackground(source domain.Source)

	// Syncing reports whether the source is currently being refreshed.
	Syncing(source domain.Source) bool

	// StatusAll assembles the status view for every known source.
	StatusAll(ctx context.Context) []SourceSyncStatus
}

type SyncServiceImpl struct {
	log    *slog.Logger
	github GitHubClient
	jira   JiraClient

	prRepo     repository.PullRequestRepository
	sprintRepo repository.SprintRepository
	metaRepo   repository.SyncMetadataRepository
	memberRepo repository.MemberStatsRepository

	repos      []string
	projectKey string
	pivot      time.Time
	staleAfter time.Duration

	mu       sync.Mutex
	inFlight map[domain.Source]bool
}

func NewSyncService(
	log *slog.Logger,
	github GitHubClient,
	jira JiraClient,
	prRepo repository.PullRequestRepository,
	sprintRepo repository.SprintRepository,
	metaRepo repository.SyncMetadataRepository,
	memberRepo repository.MemberStatsRepository,
	cfg *config.Config,
) *SyncServiceImpl {
	return &SyncServiceImpl{
		log:        log,
		github:     github,
		jira:       jira,
		prRepo:     prRepo,
		sprintRepo: sprintRepo,
		metaRepo:   metaRepo,
		memberRepo: memberRepo,
		repos:      cfg.GitHub.RepoList(),
		projectKey: cfg.Jira.ProjectKey,
		pivot:      cfg.Sync.Pivot(),
		staleAfter: time.Duration(cfg.Sync.StaleHours) * time.Hour,
		inFlight:   make(map[domain.Source]bool),
	}
}

func (s *SyncServiceImpl) Sync(ctx context.Context, source domain.Source) error {
	const op = "internal.service.sync.Sync"

	if !source.Valid() {
		return fmt.Errorf("%s: %w", op, apperrors.ErrInvalidSource)
	}

	if err := s.acquire(source); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer s.release(source)

	log := s.log.With(slog.String("op", op), slog.String("source", string(source)))

	s.setStatus(ctx, source, domain.SyncStateInProgress, nil, nil)

	start := time.Now()

	var err error
	switch source {
	case domain.SourceGitHub:
		err = s.syncGitHub(ctx, log)
	case domain.SourceJira:
		err = s.syncJira(ctx, log)
	}

	durationMs := time.Since(start).Milliseconds()

	if err != nil {
		msg := err.Error()
		s.setStatus(ctx, source, domain.SyncStateError, &msg, &durationMs)
		log.Error("sync failed", sl.Err(err), slog.Int64("duration_ms", durationMs))

		return fmt.Errorf("%s: %w", op, err)
	}

	s.setStatus(ctx, source, domain.SyncStateSuccess, nil, &durationMs)
	log.Info("sync finished", slog.Int64("duration_ms", durationMs))

	return nil
}

func (s *SyncServiceImpl) syncGitHub(ctx context.Context, log *slog.Logger) error {
	// Review times already cached must not be re-fetched: the review
	// endpoint is the most rate-limit-hungry part of the whole sync.
	reviewed, err := s.reviewedPRs(ctx)
	if err != nil {
		return err
	}

	var (
		allPRs     []domain.PullRequest
		allCommits []domain.Commit
	)

	for _, entry := range s.repos {
		owner, repo, err := splitRepo(entry)
		if err != nil {
			return err
		}

		prs, err := s.github.FetchPullRequests(ctx, owner, repo)
		if err != nil {
			return err
		}

		for i := range prs {
			if prs[i].FirstReviewAt != nil {
				continue
			}

			key := prKey(prs[i].RepoName, prs[i].Number)
			if reviewed[key] {
				continue
			}

			prs[i].FirstReviewAt = s.github.FetchFirstReviewAt(ctx, owner, repo, prs[i].Number)
		}

		log.Info("fetched pull requests", slog.String("repo", entry), slog.Int("count", len(prs)))

		allPRs = append(allPRs, prs...)
		allCommits = append(allCommits, s.github.FetchCommits(ctx, owner, repo)...)
	}

	if err := s.prRepo.UpsertBatch(ctx, allPRs); err != nil {
		return err
	}

	// Member analytics are derived from the fresh commit set plus the full
	// cached PR corpus, then cached wholesale.
	cachedPRs, err := s.prRepo.List(ctx)
	if err != nil {
		return err
	}

	stats := analytics.ComputeMemberStats(allCommits, cachedPRs, s.pivot, time.Now())

	if err := s.memberRepo.Replace(ctx, stats); err != nil {
		return err
	}

	log.Info("computed member stats", slog.Int("members", len(stats)), slog.Int("commits", len(allCommits)))

	return nil
}

func (s *SyncServiceImpl) syncJira(ctx context.Context, log *slog.Logger) error {
	sprints, err := s.jira.FetchSprintsWithIssues(ctx, s.projectKey)
	if err != nil {
		return err
	}

	log.Info("fetched sprints", slog.String("project", s.projectKey), slog.Int("count", len(sprints)))

	return s.sprintRepo.UpsertBatch(ctx, sprints)
}

func (s *SyncServiceImpl) SyncAll(ctx context.Context) []apperrors.SourceError {
	return s.SyncAllWithProgress(ctx, func(ProgressEvent) {})
}

func (s *SyncServiceImpl) SyncAllWithProgress(ctx context.Context, emit func(ProgressEvent)) []apperrors.SourceError {
	var failures []apperrors.SourceError

	for _, source := range domain.Sources {
		emit(ProgressEvent{Step: string(source), Status: ProgressSyncing})

		if err := s.Sync(ctx, source); err != nil {
			// A refresh already running elsewhere is not a failure, it just
			// means the work is being done by somebody else.
			if errors.Is(err, apperrors.ErrSyncInProgress) {
				s.log.Info("sync already in progress, skipping", slog.String("source", string(source)))
				emit(ProgressEvent{Step: string(source), Status: ProgressDone, Message: "already syncing"})

				continue
			}

			failures = append(failures, apperrors.SourceError{
				Source:  source,
				Message: err.Error(),
			})
			emit(ProgressEvent{Step: string(source), Status: ProgressError, Message: err.Error()})

			continue
		}

		emit(ProgressEvent{Step: string(source), Status: ProgressDone})
	}

	return failures
}

func (s *SyncServiceImpl) IsStale(ctx context.Context, source domain.Source) bool {
	meta, err := s.metaRepo.Get(ctx, source)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.log.Warn("failed to read sync metadata, treating as stale",
				slog.String("source", string(source)), sl.Err(err))
		}

		return true
	}

	return time.Since(meta.LastSyncAt) > s.staleAfter
}

func (s *SyncServiceImpl) TriggerBackground(source domain.Source) {
	go func() {
		// Detached from the request: the caller got its response already.
		if err := s.Sync(context.Background(), source); err != nil {
			if errors.Is(err, apperrors.ErrSyncInProgress) {
				return
			}

			s.log.Error("background sync failed", slog.String("source", string(source)), sl.Err(err))
		}
	}()
}

func (s *SyncServiceImpl) Syncing(source domain.Source) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inFlight[source]
}

func (s *SyncServiceImpl) StatusAll(ctx context.Context) []SourceSyncStatus {
	statuses := make([]SourceSyncStatus, 0, len(domain.Sources))

	for _, source := range domain.Sources {
		status := SourceSyncStatus{
			Source:  source,
			Status:  domain.SyncStateNever,
			Stale:   true,
			Syncing: s.Syncing(source),
		}

		if meta, err := s.metaRepo.Get(ctx, source); err == nil {
			last := meta.LastSyncAt
			status.Status = meta.Status
			status.LastSyncAt = &last
			status.Error = meta.ErrorMsg
			status.DurationMs = meta.DurationMs
			status.Stale = time.Since(last) > s.staleAfter
		}

		statuses = append(statuses, status)
	}

	return statuses
}

func (s *SyncServiceImpl) acquire(source domain.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight[source] {
		return apperrors.ErrSyncInProgress
	}

	s.inFlight[source] = true

	return nil
}

func (s *SyncServiceImpl) release(source domain.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, source)
}

func (s *SyncServiceImpl) setStatus(ctx context.Context, source domain.Source, state domain.SyncState, errMsg *string, durationMs *int64) {
	err := s.metaRepo.Set(ctx, domain.SyncMetadata{
		Source:     source,
		Status:     state,
		ErrorMsg:   errMsg,
		DurationMs: durationMs,
	})
	if err != nil {
		s.log.Error("failed to record sync status",
			slog.String("source", string(source)), slog.String("status", string(state)), sl.Err(err))
	}
}

// reviewedPRs builds the set of cached PRs that already have a first
// review time.
func (s *SyncServiceImpl) reviewedPRs(ctx context.Context) (map[string]bool, error) {
	cached, err := s.prRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	reviewed := make(map[string]bool, len(cached))
	for _, pr := range cached {
		if pr.FirstReviewAt != nil {
			reviewed[prKey(pr.RepoName, pr.Number)] = true
		}
	}

	return reviewed, nil
}

func prKey(repoName string, number int) string {
	return fmt.Sprintf("%s#%d", repoName, number)
}

func splitRepo(entry string) (string, string, error) {
	owner, repo, ok := strings.Cut(entry, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("malformed repo entry '%s', want owner/name", entry)
	}

	return owner, repo, nil
}
