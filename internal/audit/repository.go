package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/registrum/registrum/pkg/pagination"
	"github.com/registrum/registrum/pkg/repository"
)

// System defines the audit trail contract. Append takes an Executor so a
// transition and its audit record commit in the same transaction.
type System interface {
	Append(ctx context.Context, exec repository.Executor, entry Entry) error
	ForDocument(
		ctx context.Context,
		documentID uuid.UUID,
		page pagination.PageRequest,
	) (*pagination.PageResult[Entry], error)
}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an audit repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "audit"),
		pagination: pagination,
	}
}

func (r *repo) Append(ctx context.Context, exec repository.Executor, entry Entry) error {
	q := `
		INSERT INTO audit_entries(id, entry_type, document_id, actor_id, actor_name, detail)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := exec.ExecContext(
		ctx, q,
		uuid.New(),
		entry.Type,
		entry.DocumentID,
		entry.ActorID,
		entry.ActorName,
		entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (r *repo) ForDocument(
	ctx context.Context,
	documentID uuid.UUID,
	page pagination.PageRequest,
) (*pagination.PageResult[Entry], error) {
	page.Normalize(r.pagination)

	countQ := "SELECT COUNT(*) FROM audit_entries WHERE document_id = $1"
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, documentID).Scan(&total); err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}

	q := `
		SELECT id, entry_type, document_id, actor_id, actor_name, detail, created_at
		FROM audit_entries
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	args := []any{documentID, page.PageSize, (page.Page - 1) * page.PageSize}
	entries, err := repository.QueryMany(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}

	result := pagination.NewPageResult(entries, total, page.Page, page.PageSize)
	return &result, nil
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var e Entry
	err := s.Scan(
		&e.ID,
		&e.Type,
		&e.DocumentID,
		&e.ActorID,
		&e.ActorName,
		&e.Detail,
		&e.CreatedAt,
	)
	return e, err
}
