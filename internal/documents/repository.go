package documents

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/registrum/registrum/internal/audit"
	"github.com/registrum/registrum/internal/authz"
	"github.com/registrum/registrum/internal/extraction"
	"github.com/registrum/registrum/internal/metrics"
	"github.com/registrum/registrum/internal/reviewers"
	"github.com/registrum/registrum/internal/revisions"
	"github.com/registrum/registrum/pkg/pagination"
	"github.com/registrum/registrum/pkg/query"
	"github.com/registrum/registrum/pkg/repository"
	"github.com/registrum/registrum/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
	revisions  revisions.System
	audit      audit.System
	reviewers  reviewers.System
	metrics    *metrics.Metrics
}

// New creates a document repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
	revs revisions.System,
	trail audit.System,
	stats reviewers.System,
	m *metrics.Metrics,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
		revisions:  revs,
		audit:      trail,
		reviewers:  stats,
		metrics:    m,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.revisions, r.audit, r.reviewers, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereSearch(page.Search, "OwnerName", "FormType")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

// Create runs the ingest pipeline: parse the untrusted extraction payload,
// group its subject rows, validate, upload the scan blob, and register the
// document in pending review. Validation findings never block creation;
// the reviewer corrects what the model got wrong.
func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*UploadResult, error) {
	record, err := extraction.ParseRecord(cmd.Extraction)
	if err != nil {
		r.logger.Warn("extraction payload unparseable", "filename", cmd.Filename, "error", err)
	}

	record.Subjects = extraction.SubjectList(extraction.GroupSubjects(record.Subjects))
	report := extraction.Validate(record)

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode normalized record: %w", err)
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode validation report: %w", err)
	}

	id := uuid.New()
	key := buildStorageKey(id, sanitizeFilename(cmd.Filename))

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload scan blob: %w", err)
	}

	q := fmt.Sprintf(`
		INSERT INTO documents(id, owner_id, owner_name, form_type, status, priority, storage_key, page_count,
			original_data, edited_data, validation, quality_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9, $10, $11)
		RETURNING %s`, documentColumns)

	insertArgs := []any{
		id,
		cmd.OwnerID,
		cmd.OwnerName,
		cmd.FormType,
		StatusPendingReview,
		cmd.Priority,
		key,
		cmd.PageCount,
		recordJSON,
		reportJSON,
		report.QualityScore,
	}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		doc, err := repository.QueryOne(ctx, tx, q, insertArgs, scanDocument)
		if err != nil {
			return doc, err
		}

		entry := audit.Entry{
			Type:       audit.TypeCreated,
			DocumentID: doc.ID,
			ActorID:    cmd.OwnerID,
			ActorName:  cmd.OwnerName,
			Detail:     cmd.Filename,
		}
		return doc, r.audit.Append(ctx, tx, entry)
	})

	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.metrics.DocumentsIngested.Inc()
	if !report.IsValid {
		r.metrics.InvalidRecords.Inc()
	}

	r.logger.Info(
		"document created",
		"id", d.ID,
		"form_type", d.FormType,
		"valid", report.IsValid,
		"subjects", report.SubjectCount,
	)

	return &UploadResult{Document: &d, Report: report}, nil
}

func (r *repo) AssignedTo(
	ctx context.Context,
	actor authz.Principal,
	page pagination.PageRequest,
) (*pagination.PageResult[Document], error) {
	filters := Filters{
		Status:     ptr(string(StatusInReview)),
		ReviewerID: &actor.ID,
	}
	return r.List(ctx, page, filters)
}

func (r *repo) StatusCounts(ctx context.Context) ([]StatusCount, error) {
	q := `
		SELECT status, COUNT(*)
		FROM documents
		WHERE archived = false
		GROUP BY status
		ORDER BY status`

	counts, err := repository.QueryMany(ctx, r.db, q, nil, func(s repository.Scanner) (StatusCount, error) {
		var c StatusCount
		err := s.Scan(&c.Status, &c.Count)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	return counts, nil
}

func (r *repo) Leaderboard(ctx context.Context, window time.Duration, limit int) ([]reviewers.Standing, error) {
	return r.reviewers.Leaderboard(ctx, window, limit)
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("scans/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "scan"
	}
	return url.PathEscape(name)
}
