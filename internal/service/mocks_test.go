package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/teamlens/teamlens/internal/apperrors"
	"github.com/teamlens/teamlens/internal/domain"
	"github.com/teamlens/teamlens/internal/repository"
)

type PullRequestRepositoryMock struct {
	mock.Mock
}

var _ repository.PullRequestRepository = (*PullRequestRepositoryMock)(nil)

func (m *PullRequestRepositoryMock) UpsertBatch(ctx context.Context, prs []domain.PullRequest) error {
	args := m.Called(ctx, prs)
	return args.Error(0)
}

func (m *PullRequestRepositoryMock) List(ctx context.Context) ([]domain.PullRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.PullRequest), args.Error(1)
}

type SprintRepositoryMock struct {
	mock.Mock
}

var _ repository.SprintRepository = (*SprintRepositoryMock)(nil)

func (m *SprintRepositoryMock) UpsertBatch(ctx context.Context, sprints []domain.Sprint) error {
	args := m.Called(ctx, sprints)
	return args.Error(0)
}

func (m *SprintRepositoryMock) List(ctx context.Context) ([]domain.Sprint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Sprint), args.Error(1)
}

type SyncMetadataRepositoryMock struct {
	mock.Mock
}

var _ repository.SyncMetadataRepository = (*SyncMetadataRepositoryMock)(nil)

func (m *SyncMetadataRepositoryMock) Get(ctx context.Context, source domain.Source) (*domain.SyncMetadata, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.SyncMetadata), args.Error(1)
}

func (m *SyncMetadataRepositoryMock) GetAll(ctx context.Context) ([]domain.SyncMetadata, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.SyncMetadata), args.Error(1)
}

func (m *SyncMetadataRepositoryMock) Set(ctx context.Context, meta domain.SyncMetadata) error {
	args := m.Called(ctx, meta)
	return args.Error(0)
}

type MemberStatsRepositoryMock struct {
	mock.Mock
}

var _ repository.MemberStatsRepository = (*MemberStatsRepositoryMock)(nil)

func (m *MemberStatsRepositoryMock) Replace(ctx context.Context, stats []domain.MemberStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MemberStatsRepositoryMock) List(ctx context.Context) ([]domain.MemberStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.MemberStats), args.Error(1)
}

func (m *MemberStatsRepositoryMock) Get(ctx context.Context, username string) (*domain.MemberStats, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.MemberStats), args.Error(1)
}

type GitHubClientMock struct {
	mock.Mock
}

var _ GitHubClient = (*GitHubClientMock)(nil)

func (m *GitHubClientMock) FetchPullRequests(ctx context.Context, owner, repo string) ([]domain.PullRequest, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.PullRequest), args.Error(1)
}

func (m *GitHubClientMock) FetchFirstReviewAt(ctx context.Context, owner, repo string, number int) *time.Time {
	args := m.Called(ctx, owner, repo, number)
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).(*time.Time)
}

func (m *GitHubClientMock) FetchCommits(ctx context.Context, owner, repo string) []domain.Commit {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).([]domain.Commit)
}

type JiraClientMock struct {
	mock.Mock
}

var _ JiraClient = (*JiraClientMock)(nil)

func (m *JiraClientMock) FetchSprintsWithIssues(ctx context.Context, projectKey string) ([]domain.Sprint, error) {
	args := m.Called(ctx, projectKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Sprint), args.Error(1)
}

type SyncServiceMock struct {
	mock.Mock
}

var _ SyncService = (*SyncServiceMock)(nil)

func (m *SyncServiceMock) Sync(ctx context.Context, source domain.Source) error {
	args := m.Called(ctx, source)
	return args.Error(0)
}

func (m *SyncServiceMock) SyncAll(ctx context.Context) []apperrors.SourceError {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).([]apperrors.SourceError)
}

func (m *SyncServiceMock) SyncAllWithProgress(ctx context.Context, emit func(ProgressEvent)) []apperrors.SourceError {
	args := m.Called(ctx, emit)
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).([]apperrors.SourceError)
}

func (m *SyncServiceMock) IsStale(ctx context.Context, source domain.Source) bool {
	args := m.Called(ctx, source)
	return args.Bool(0)
}

func (m *SyncServiceMock) TriggerBackground(source domain.Source) {
	m.Called(source)
}

func (m *SyncServiceMock) Syncing(source domain.Source) bool {
	args := m.Called(source)
	return args.Bool(0)
}

func (m *SyncServiceMock) StatusAll(ctx context.Context) []SourceSyncStatus {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).([]SourceSyncStatus)
}
