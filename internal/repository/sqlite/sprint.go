package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/teamlens/teamlens/internal/domain"
)

type SprintRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewSprintRepository(db *sqlx.DB, log *slog.Logger) *SprintRepository {
	return &SprintRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// UpsertBatch writes the fetched sprints in one transaction, refreshing
// rows in place on ID conflict. Point metrics are recomputed upstream on
// every sync, so a full overwrite is always correct.
func (r *SprintRepository) UpsertBatch(ctx context.Context, sprints []domain.Sprint) error {
	const op = "internal.repository.sqlite.Sprint.UpsertBatch"

	if len(sprints) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	for _, sp := range sprints {
		query, args, err := r.sq.Insert("sprints").
			Columns(
				"id", "board_id", "name", "state", "start_date", "end_date", "complete_date",
				"committed_points", "completed_points", "completion_rate", "issue_count",
				"raw_json", "synced_at",
			).
			Values(
				sp.ID, sp.BoardID, sp.Name, sp.State, sp.StartDate, sp.EndDate, sp.CompleteDate,
				sp.CommittedPoints, sp.CompletedPoints, sp.CompletionRate, sp.IssueCount,
				sp.RawJSON, now,
			).
			Suffix(`ON CONFLICT (id) DO UPDATE SET
				board_id = excluded.board_id,
				name = excluded.name,
				state = excluded.state,
				start_date = excluded.start_date,
				end_date = excluded.end_date,
				complete_date = excluded.complete_date,
				committed_points = excluded.committed_points,
				completed_points = excluded.completed_points,
				completion_rate = excluded.completion_rate,
				issue_count = excluded.issue_count,
				raw_json = excluded.raw_json,
				synced_at = excluded.synced_at`).
			ToSql()
		if err != nil {
			return fmt.Errorf("%s: failed to build upsert query: %w", op, err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%s: failed to upsert sprint %d: %w", op, sp.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

// List returns every cached sprint ordered by start date ascending.
// Sprints without a start date sort first.
func (r *SprintRepository) List(ctx context.Context) ([]domain.Sprint, error) {
	const op = "internal.repository.sqlite.Sprint.List"

	query, args, err := r.sq.Select(
		"id", "board_id", "name", "state", "start_date", "end_date", "complete_date",
		"committed_points", "completed_points", "completion_rate", "issue_count",
		"raw_json", "synced_at",
	).
		From("sprints").
		OrderBy("start_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var sprints []domain.Sprint
	if err := r.db.SelectContext(ctx, &sprints, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return sprints, nil
}
