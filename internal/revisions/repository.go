package revisions

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/registrum/registrum/pkg/pagination"
	"github.com/registrum/registrum/pkg/repository"
)

// System defines the revision ledger contract. Append takes an Executor so
// the revision commits atomically with the document's snapshot update.
type System interface {
	Append(ctx context.Context, exec repository.Executor, rev Revision) error
	ForDocument(
		ctx context.Context,
		documentID uuid.UUID,
		page pagination.PageRequest,
	) (*pagination.PageResult[Revision], error)
}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a revision repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "revisions"),
		pagination: pagination,
	}
}

func (r *repo) Append(ctx context.Context, exec repository.Executor, rev Revision) error {
	q := `
		INSERT INTO revisions(id, document_id, editor_id, editor_name, previous_data, new_data, change_note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := exec.ExecContext(
		ctx, q,
		uuid.New(),
		rev.DocumentID,
		rev.EditorID,
		rev.EditorName,
		rev.PreviousData,
		rev.NewData,
		rev.ChangeNote,
	)
	if err != nil {
		return fmt.Errorf("append revision: %w", err)
	}
	return nil
}

// ForDocument returns the document's revisions, most recent first.
func (r *repo) ForDocument(
	ctx context.Context,
	documentID uuid.UUID,
	page pagination.PageRequest,
) (*pagination.PageResult[Revision], error) {
	page.Normalize(r.pagination)

	countQ := "SELECT COUNT(*) FROM revisions WHERE document_id = $1"
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, documentID).Scan(&total); err != nil {
		return nil, fmt.Errorf("count revisions: %w", err)
	}

	q := `
		SELECT id, document_id, editor_id, editor_name, previous_data, new_data, change_note, created_at
		FROM revisions
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	args := []any{documentID, page.PageSize, (page.Page - 1) * page.PageSize}
	revs, err := repository.QueryMany(ctx, r.db, q, args, scanRevision)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}

	result := pagination.NewPageResult(revs, total, page.Page, page.PageSize)
	return &result, nil
}

func scanRevision(s repository.Scanner) (Revision, error) {
	var r Revision
	err := s.Scan(
		&r.ID,
		&r.DocumentID,
		&r.EditorID,
		&r.EditorName,
		&r.PreviousData,
		&r.NewData,
		&r.ChangeNote,
		&r.CreatedAt,
	)
	return r, err
}
