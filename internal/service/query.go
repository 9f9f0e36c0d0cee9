package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teamlens/teamlens/internal/analytics"
	"github.com/teamlens/teamlens/internal/config"
	"github.com/teamlens/teamlens/internal/domain"
	"github.com/teamlens/teamlens/internal/repository"
)

// DashboardData is the full payload served to the dashboard in one shot.
type DashboardData struct {
	PRStats      analytics.PRStatsResult            `json:"prStats"`
	MonthlyData  []analytics.MonthlyPRStats         `json:"monthlyData"`
	SprintStats  analytics.SprintStatsResult        `json:"sprintStats"`
	PullRequests []domain.PullRequest               `json:"pullRequests"`
	Sprints      []domain.Sprint                    `json:"sprints"`
	MemberStats  []domain.MemberStats               `json:"memberStats"`
	SyncStatus   map[domain.Source]SourceSyncStatus `json:"syncStatus"`
}

type QueryService interface {
	// DashboardData assembles every dashboard metric from the cache. Stale
	// sources get a background refresh kicked off; the response never waits
	// for it.
	DashboardData(ctx context.Context) (*DashboardData, error)

	// Member returns the cached analytics for one contributor.
	// It returns apperrors.ErrNotFound for unknown usernames.
	Member(ctx context.Context, username string) (*domain.MemberStats, error)
}

type QueryServiceImpl struct {
	log        *slog.Logger
	syncer     SyncService
	prRepo     repository.PullRequestRepository
	sprintRepo repository.SprintRepository
	memberRepo repository.MemberStatsRepository
	pivot      time.Time
}

func NewQueryService(
	log *slog.Logger,
	syncer SyncService,
	prRepo repository.PullRequestRepository,
	sprintRepo repository.SprintRepository,
	memberRepo repository.MemberStatsRepository,
	cfg *config.Config,
) *QueryServiceImpl {
	return &QueryServiceImpl{
		log:        log,
		syncer:     syncer,
		prRepo:     prRepo,
		sprintRepo: sprintRepo,
		memberRepo: memberRepo,
		pivot:      cfg.Sync.Pivot(),
	}
}

func (s *QueryServiceImpl) DashboardData(ctx context.Context) (*DashboardData, error) {
	const op = "internal.service.query.DashboardData"

	for _, source := range domain.Sources {
		if s.syncer.IsStale(ctx, source) && !s.syncer.Syncing(source) {
			s.log.Info("cache is stale, refreshing in background", slog.String("source", string(source)))
			s.syncer.TriggerBackground(source)
		}
	}

	prs, err := s.prRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load pull requests: %w", op, err)
	}

	sprints, err := s.sprintRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load sprints: %w", op, err)
	}

	members, err := s.memberRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load member stats: %w", op, err)
	}

	syncStatus := make(map[domain.Source]SourceSyncStatus, len(domain.Sources))
	for _, status := range s.syncer.StatusAll(ctx) {
		syncStatus[status.Source] = status
	}

	return &DashboardData{
		PRStats:      analytics.PRStats(prs, s.pivot),
		MonthlyData:  analytics.PRsByMonth(prs),
		SprintStats:  analytics.SprintStats(sprints, s.pivot),
		PullRequests: prs,
		Sprints:      sprints,
		MemberStats:  members,
		SyncStatus:   syncStatus,
	}, nil
}

func (s *QueryServiceImpl) Member(ctx context.Context, username string) (*domain.MemberStats, error) {
	const op = "internal.service.query.Member"

	member, err := s.memberRepo.Get(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return member, nil
}
