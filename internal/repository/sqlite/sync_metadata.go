package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/teamlens/teamlens/internal/apperrors"
	"github.com/teamlens/teamlens/internal/domain"
)

type SyncMetadataRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewSyncMetadataRepository(db *sqlx.DB, log *slog.Logger) *SyncMetadataRepository {
	return &SyncMetadataRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// Get returns the status row for one source, or apperrors.ErrNotFound if
// the source has never been synced.
func (r *SyncMetadataRepository) Get(ctx context.Context, source domain.Source) (*domain.SyncMetadata, error) {
	const op = "internal.repository.sqlite.SyncMetadata.Get"

	query, args, err := r.sq.Select("source", "last_sync_at", "status", "error_msg", "duration_ms").
		From("sync_metadata").
		Where(sq.Eq{"source": source}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var meta domain.SyncMetadata
	if err := r.db.GetContext(ctx, &meta, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: source '%s'", op, apperrors.ErrNotFound, source)
		}

		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return &meta, nil
}

func (r *SyncMetadataRepository) GetAll(ctx context.Context) ([]domain.SyncMetadata, error) {
	const op = "internal.repository.sqlite.SyncMetadata.GetAll"

	query, args, err := r.sq.Select("source", "last_sync_at", "status", "error_msg", "duration_ms").
		From("sync_metadata").
		OrderBy("source ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var metas []domain.SyncMetadata
	if err := r.db.SelectContext(ctx, &metas, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return metas, nil
}

// Set upserts the status row for meta.Source. last_sync_at is always
// stamped here, so every transition refreshes the staleness clock.
func (r *SyncMetadataRepository) Set(ctx context.Context, meta domain.SyncMetadata) error {
	const op = "internal.repository.sqlite.SyncMetadata.Set"

	now := time.Now().UTC()

	query, args, err := r.sq.Insert("sync_metadata").
		Columns("source", "last_sync_at", "status", "error_msg", "duration_ms").
		Values(meta.Source, now, meta.Status, meta.ErrorMsg, meta.DurationMs).
		Suffix(`ON CONFLICT (source) DO UPDATE SET
			last_sync_at = excluded.last_sync_at,
			status = excluded.status,
			error_msg = excluded.error_msg,
			duration_ms = excluded.duration_ms`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build upsert query: %w", op, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute upsert: %w", op, err)
	}

	return nil
}
