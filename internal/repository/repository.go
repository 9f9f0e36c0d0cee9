// package repository defines the interfaces for the data persistence layer.
// These interfaces abstract the underlying database implementation from the service layer.
package repository

import (
	"context"

	"github.com/teamlens/teamlens/internal/domain"
)

// PullRequestRepository defines the contract for cached pull-request data.
type PullRequestRepository interface {
	// UpsertBatch inserts or refreshes the given pull requests in a single
	// transaction, keyed by (repo_name, number). A NULL incoming
	// first_review_at never overwrites a stored value.
	UpsertBatch(ctx context.Context, prs []domain.PullRequest) error

	// List returns every cached pull request, newest first by created_at.
	List(ctx context.Context) ([]domain.PullRequest, error)
}

// SprintRepository defines the contract for cached sprint data.
type SprintRepository interface {
	// UpsertBatch inserts or refreshes the given sprints in a single
	// transaction, keyed by sprint ID.
	UpsertBatch(ctx context.Context, sprints []domain.Sprint) error

	// List returns every cached sprint ordered by start date ascending.
	List(ctx context.Context) ([]domain.Sprint, error)
}

// SyncMetadataRepository defines the contract for per-source sync status.
type SyncMetadataRepository interface {
	// Get retrieves the status row for one source.
	// It returns apperrors.ErrNotFound if the source has never synced.
	Get(ctx context.Context, source domain.Source) (*domain.SyncMetadata, error)

	// GetAll retrieves the status rows for every source that has synced.
	GetAll(ctx context.Context) ([]domain.SyncMetadata, error)

	// Set upserts the status row for meta.Source, refreshing last_sync_at.
	Set(ctx context.Context, meta domain.SyncMetadata) error
}

// MemberStatsRepository defines the contract for the derived per-member
// analytics cache, replaced wholesale on each successful GitHub sync.
type MemberStatsRepository interface {
	// Replace swaps the entire cached member set in one transaction.
	Replace(ctx context.Context, stats []domain.MemberStats) error

	// List returns the cached members ordered by rank.
	List(ctx context.Context) ([]domain.MemberStats, error)

	// Get retrieves one member by normalized username.
	// It returns apperrors.ErrNotFound if the member is not cached.
	Get(ctx context.Context, username string) (*domain.MemberStats, error)
}
