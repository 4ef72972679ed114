package reviewers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/registrum/registrum/pkg/repository"
)

const touchTimeout = 5 * time.Second

// System defines reviewer statistics operations. RecordApproval takes an
// Executor so the counter increments in the approval transaction.
type System interface {
	Find(ctx context.Context, id string) (*Reviewer, error)
	RecordApproval(ctx context.Context, exec repository.Executor, id, name string) error
	TouchAsync(id, name string)
	Leaderboard(ctx context.Context, window time.Duration, limit int) ([]Standing, error)
}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a reviewer statistics repository.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "reviewers"),
	}
}

func (r *repo) Find(ctx context.Context, id string) (*Reviewer, error) {
	q := "SELECT id, name, approvals, last_seen_at FROM reviewers WHERE id = $1"

	rev, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanReviewer)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &rev, nil
}

func (r *repo) RecordApproval(ctx context.Context, exec repository.Executor, id, name string) error {
	q := `
		INSERT INTO reviewers(id, name, approvals)
		VALUES ($1, $2, 1)
		ON CONFLICT (id) DO UPDATE
		SET approvals = reviewers.approvals + 1, name = EXCLUDED.name`

	if _, err := exec.ExecContext(ctx, q, id, name); err != nil {
		return fmt.Errorf("record approval for %s: %w", id, err)
	}
	return nil
}

// TouchAsync updates the reviewer's last-seen timestamp in the background.
// The update is best-effort: failure is logged and never reaches the caller.
func (r *repo) TouchAsync(id, name string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()

		q := `
			INSERT INTO reviewers(id, name, approvals, last_seen_at)
			VALUES ($1, $2, 0, now())
			ON CONFLICT (id) DO UPDATE
			SET last_seen_at = now(), name = EXCLUDED.name`

		if _, err := r.db.ExecContext(ctx, q, id, name); err != nil {
			r.logger.Warn("last-seen update failed", "reviewer", id, "error", err)
		}
	}()
}

// Leaderboard ranks reviewers by approvals granted within the window,
// counted from the documents they approved.
func (r *repo) Leaderboard(ctx context.Context, window time.Duration, limit int) ([]Standing, error) {
	q := `
		SELECT d.approved_by, COALESCE(rv.name, d.approved_by), COUNT(*) AS approvals
		FROM documents d
		LEFT JOIN reviewers rv ON rv.id = d.approved_by
		WHERE d.status = 'approved' AND d.approved_at >= $1
		GROUP BY d.approved_by, rv.name
		ORDER BY approvals DESC, d.approved_by ASC
		LIMIT $2`

	since := time.Now().Add(-window)
	standings, err := repository.QueryMany(ctx, r.db, q, []any{since, limit}, scanStanding)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	return standings, nil
}

func scanReviewer(s repository.Scanner) (Reviewer, error) {
	var r Reviewer
	err := s.Scan(&r.ID, &r.Name, &r.Approvals, &r.LastSeenAt)
	return r, err
}

func scanStanding(s repository.Scanner) (Standing, error) {
	var st Standing
	err := s.Scan(&st.ReviewerID, &st.ReviewerName, &st.Approvals)
	return st, err
}
