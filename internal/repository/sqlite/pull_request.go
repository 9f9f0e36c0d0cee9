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

type PullRequestRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewPullRequestRepository(db *sqlx.DB, log *slog.Logger) *PullRequestRepository {
	return &PullRequestRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// UpsertBatch writes the fetched pull requests in one transaction. Rows
// conflict on (repo_name, number) and are refreshed in place. Two
// exceptions: id and created_at are identity fields and keep their stored
// values, and first_review_at is never erased by a NULL incoming value, so
// the lazy review fill survives later syncs.
func (r *PullRequestRepository) UpsertBatch(ctx context.Context, prs []domain.PullRequest) error {
	const op = "internal.repository.sqlite.PullRequest.UpsertBatch"

	if len(prs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	for _, pr := range prs {
		query, args, err := r.sq.Insert("pull_requests").
			Columns(
				"id", "number", "repo_name", "title", "state", "author_login",
				"created_at", "merged_at", "first_review_at", "raw_json", "synced_at",
			).
			Values(
				pr.ID, pr.Number, pr.RepoName, pr.Title, pr.State, pr.AuthorLogin,
				pr.CreatedAt, pr.MergedAt, pr.FirstReviewAt, pr.RawJSON, now,
			).
			Suffix(`ON CONFLICT (repo_name, number) DO UPDATE SET
				title = excluded.title,
				state = excluded.state,
				author_login = excluded.author_login,
				merged_at = excluded.merged_at,
				first_review_at = COALESCE(excluded.first_review_at, pull_requests.first_review_at),
				raw_json = excluded.raw_json,
				synced_at = excluded.synced_at`).
			ToSql()
		if err != nil {
			return fmt.Errorf("%s: failed to build upsert query: %w", op, err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%s: failed to upsert pull request %s#%d: %w", op, pr.RepoName, pr.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

// List returns every cached pull request, newest first.
func (r *PullRequestRepository) List(ctx context.Context) ([]domain.PullRequest, error) {
	const op = "internal.repository.sqlite.PullRequest.List"

	query, args, err := r.sq.Select(
		"id", "number", "repo_name", "title", "state", "author_login",
		"created_at", "merged_at", "first_review_at", "raw_json", "synced_at",
	).
		From("pull_requests").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var prs []domain.PullRequest
	if err := r.db.SelectContext(ctx, &prs, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return prs, nil
}
