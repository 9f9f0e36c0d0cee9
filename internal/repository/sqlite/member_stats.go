package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/teamlens/teamlens/internal/apperrors"
	"github.com/teamlens/teamlens/internal/domain"
)

// MemberStatsRepository caches derived per-member analytics as JSON blobs.
// The shape is deeply nested (heatmaps, histograms) and only ever read back
// whole, so a relational breakdown would buy nothing.
type MemberStatsRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewMemberStatsRepository(db *sqlx.DB, log *slog.Logger) *MemberStatsRepository {
	return &MemberStatsRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// Replace swaps the whole cached member set in one transaction. Members
// who left the team since the previous sync disappear along with it.
func (r *MemberStatsRepository) Replace(ctx context.Context, stats []domain.MemberStats) error {
	const op = "internal.repository.sqlite.MemberStats.Replace"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM member_stats"); err != nil {
		return fmt.Errorf("%s: failed to clear cache: %w", op, err)
	}

	now := time.Now().UTC()

	for _, member := range stats {
		payload, err := json.Marshal(member)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal member '%s': %w", op, member.Username, err)
		}

		query, args, err := r.sq.Insert("member_stats").
			Columns("username", "team_rank", "payload", "computed_at").
			Values(member.Username, member.Rank, string(payload), now).
			ToSql()
		if err != nil {
			return fmt.Errorf("%s: failed to build insert query: %w", op, err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%s: failed to insert member '%s': %w", op, member.Username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

// List returns the cached members ordered by rank.
func (r *MemberStatsRepository) List(ctx context.Context) ([]domain.MemberStats, error) {
	const op = "internal.repository.sqlite.MemberStats.List"

	query, args, err := r.sq.Select("payload").
		From("member_stats").
		OrderBy("team_rank ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var payloads []string
	if err := r.db.SelectContext(ctx, &payloads, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	stats := make([]domain.MemberStats, 0, len(payloads))

	for _, payload := range payloads {
		var member domain.MemberStats
		if err := json.Unmarshal([]byte(payload), &member); err != nil {
			return nil, fmt.Errorf("%s: failed to unmarshal cached member: %w", op, err)
		}

		stats = append(stats, member)
	}

	return stats, nil
}

// Get retrieves one cached member by normalized username.
func (r *MemberStatsRepository) Get(ctx context.Context, username string) (*domain.MemberStats, error) {
	const op = "internal.repository.sqlite.MemberStats.Get"

	query, args, err := r.sq.Select("payload").
		From("member_stats").
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var payload string
	if err := r.db.GetContext(ctx, &payload, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: member '%s'", op, apperrors.ErrNotFound, username)
		}

		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	var member domain.MemberStats
	if err := json.Unmarshal([]byte(payload), &member); err != nil {
		return nil, fmt.Errorf("%s: failed to unmarshal cached member: %w", op, err)
	}

	return &member, nil
}
