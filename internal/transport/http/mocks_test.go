package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/teamlens/teamlens/internal/apperrors"
	"github.com/teamlens/teamlens/internal/domain"
	"github.com/teamlens/teamlens/internal/service"
)

type SyncServiceMock struct {
	mock.Mock
}

var _ service.SyncService = (*SyncServiceMock)(nil)

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

func (m *SyncServiceMock) SyncAllWithProgress(ctx context.Context, emit func(service.ProgressEvent)) []apperrors.SourceError {
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

func (m *SyncServiceMock) StatusAll(ctx context.Context) []service.SourceSyncStatus {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).([]service.SourceSyncStatus)
}

type QueryServiceMock struct {
	mock.Mock
}

var _ service.QueryService = (*QueryServiceMock)(nil)

func (m *QueryServiceMock) DashboardData(ctx context.Context) (*service.DashboardData, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*service.DashboardData), args.Error(1)
}

func (m *QueryServiceMock) Member(ctx context.Context, username string) (*domain.MemberStats, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.MemberStats), args.Error(1)
}
