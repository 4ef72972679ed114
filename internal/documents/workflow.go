package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/registrum/registrum/internal/audit"
	"github.com/registrum/registrum/internal/authz"
	"github.com/registrum/registrum/internal/revisions"
	"github.com/registrum/registrum/pkg/repository"
)

// Claim assigns the document to the actor via a single conditional update.
// Two reviewers racing for the same document hit the same row; the WHERE
// clause admits exactly one winner, so no read-then-write window exists.
// A reviewer re-claiming their own in_review document succeeds idempotently.
func (r *repo) Claim(ctx context.Context, id uuid.UUID, actor authz.Principal) (*Document, error) {
	if !authz.CanAct(actor, authz.ActionClaim, authz.Resource{}) {
		return nil, authz.ErrForbidden
	}

	q := fmt.Sprintf(`
		UPDATE documents
		SET status = $1, reviewer_id = $2, reviewer_name = $3,
			assigned_at = COALESCE(assigned_at, now()), updated_at = now()
		WHERE id = $4 AND archived = false AND (
			(status IN ($5, $6) AND reviewer_id IS NULL)
			OR (status = $1 AND reviewer_id = $2)
		)
		RETURNING %s`, documentColumns)

	args := []any{
		StatusInReview,
		actor.ID,
		actor.Name,
		id,
		StatusPendingReview,
		StatusAICompleted,
	}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		doc, err := repository.QueryOne(ctx, tx, q, args, scanDocument)
		if err != nil {
			return doc, err
		}
		return doc, r.appendAudit(ctx, tx, audit.TypeClaimed, doc.ID, actor, "")
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.classifyClaimFailure(ctx, id, actor)
		}
		return nil, fmt.Errorf("claim document: %w", err)
	}

	r.logger.Info("document claimed", "id", d.ID, "reviewer", actor.ID)
	return &d, nil
}

// classifyClaimFailure distinguishes why the conditional claim matched no
// row: the document is missing, archived, finished, or held by someone else.
func (r *repo) classifyClaimFailure(ctx context.Context, id uuid.UUID, actor authz.Principal) error {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	switch {
	case doc.Archived:
		return ErrNotFound
	case doc.Status.Terminal():
		return ErrTerminalState
	default:
		r.metrics.ClaimConflicts.Inc()
		r.logger.Info("claim conflict", "id", id, "reviewer", actor.ID)
		return ErrClaimConflict
	}
}

// CanRelease checks the state and authorization preconditions for Release
// against a loaded document, returning the error a refused release surfaces.
// Archived documents are gone from the workflow entirely.
func CanRelease(doc *Document, actor authz.Principal) error {
	if doc.Archived {
		return ErrNotFound
	}
	if doc.Status.Terminal() {
		return ErrTerminalState
	}
	if doc.Status != StatusInReview {
		return ErrNotClaimed
	}
	if !authz.CanAct(actor, authz.ActionRelease, authz.Resource{AssigneeID: doc.ReviewerID}) {
		return authz.ErrForbidden
	}
	return nil
}

// CanUpdate checks the state and authorization preconditions for Update.
func CanUpdate(doc *Document, actor authz.Principal) error {
	if doc.Archived {
		return ErrNotFound
	}
	if doc.Status.Terminal() {
		return ErrTerminalState
	}
	if !authz.CanAct(actor, authz.ActionUpdate, authz.Resource{AssigneeID: doc.ReviewerID}) {
		return authz.ErrForbidden
	}
	return nil
}

// CanApprove checks the state and authorization preconditions for Approve.
// Approval requires an active claim; only the assignee or an administrator
// may finalize.
func CanApprove(doc *Document, actor authz.Principal) error {
	if doc.Archived {
		return ErrNotFound
	}
	if doc.Status.Terminal() {
		return ErrTerminalState
	}
	if doc.Status != StatusInReview {
		return ErrNotClaimed
	}
	if !authz.CanAct(actor, authz.ActionApprove, authz.Resource{AssigneeID: doc.ReviewerID}) {
		return authz.ErrForbidden
	}
	return nil
}

// CanReject checks the state and authorization preconditions for Reject.
// Rejection is open to any reviewer, claimed or not, so no assignment
// context applies.
func CanReject(doc *Document, actor authz.Principal) error {
	if !authz.CanAct(actor, authz.ActionReject, authz.Resource{}) {
		return authz.ErrForbidden
	}
	if doc.Archived {
		return ErrNotFound
	}
	if doc.Status.Terminal() {
		return ErrTerminalState
	}
	return nil
}

// Release returns a claimed document to the pending queue, clearing the
// assignment. Only the current assignee or an administrator may release.
func (r *repo) Release(ctx context.Context, id uuid.UUID, actor authz.Principal, reason string) (*Document, error) {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := CanRelease(doc, actor); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`
		UPDATE documents
		SET status = $1, reviewer_id = NULL, reviewer_name = NULL,
			assigned_at = NULL, updated_at = now()
		WHERE id = $2 AND status = $3 AND archived = false
		RETURNING %s`, documentColumns)

	args := []any{StatusPendingReview, id, StatusInReview}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		updated, err := repository.QueryOne(ctx, tx, q, args, scanDocument)
		if err != nil {
			return updated, err
		}
		return updated, r.appendAudit(ctx, tx, audit.TypeReleased, updated.ID, actor, reason)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotClaimed, ErrDuplicate)
	}

	r.logger.Info("document released", "id", d.ID, "actor", actor.ID, "reason", reason)
	return &d, nil
}

// Update replaces the edited-data snapshot and appends one revision in the
// same transaction. Status does not change. Concurrent updates by the same
// reviewer resolve last-writer-wins on the snapshot; both revisions persist.
func (r *repo) Update(ctx context.Context, id uuid.UUID, actor authz.Principal, data json.RawMessage, note string) (*Document, error) {
	if len(data) == 0 || !json.Valid(data) {
		return nil, ErrInvalidUpload
	}

	doc, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := CanUpdate(doc, actor); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`
		UPDATE documents
		SET edited_data = $1, updated_at = now()
		WHERE id = $2 AND archived = false
		RETURNING %s`, documentColumns)

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		updated, err := repository.QueryOne(ctx, tx, q, []any{data, id}, scanDocument)
		if err != nil {
			return updated, err
		}

		rev := revisions.Revision{
			DocumentID:   updated.ID,
			EditorID:     actor.ID,
			EditorName:   actor.Name,
			PreviousData: doc.EditedData,
			NewData:      data,
			ChangeNote:   note,
		}
		if err := r.revisions.Append(ctx, tx, rev); err != nil {
			return updated, err
		}

		return updated, r.appendAudit(ctx, tx, audit.TypeUpdated, updated.ID, actor, note)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document updated", "id", d.ID, "editor", actor.ID)
	return &d, nil
}

// Approve finalizes the document. Only the current assignee or an
// administrator may approve, and only from in_review.
func (r *repo) Approve(ctx context.Context, id uuid.UUID, actor authz.Principal, note string) (*Document, error) {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := CanApprove(doc, actor); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`
		UPDATE documents
		SET status = $1, approved_by = $2, approved_at = now(),
			approval_note = NULLIF($3, ''), updated_at = now()
		WHERE id = $4 AND status = $5 AND archived = false
		RETURNING %s`, documentColumns)

	args := []any{StatusApproved, actor.ID, note, id, StatusInReview}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		updated, err := repository.QueryOne(ctx, tx, q, args, scanDocument)
		if err != nil {
			return updated, err
		}

		if err := r.reviewers.RecordApproval(ctx, tx, actor.ID, actor.Name); err != nil {
			return updated, err
		}

		return updated, r.appendAudit(ctx, tx, audit.TypeApproved, updated.ID, actor, note)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotClaimed, ErrDuplicate)
	}

	r.metrics.Approvals.Inc()
	r.logger.Info("document approved", "id", d.ID, "approver", actor.ID)
	return &d, nil
}

// Reject finalizes the document with a required reason. Any reviewer or
// administrator may reject, including documents nobody has claimed.
func (r *repo) Reject(ctx context.Context, id uuid.UUID, actor authz.Principal, reason string, rtype RejectionType) (*Document, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if !rtype.Valid() {
		return nil, ErrInvalidRejection
	}

	doc, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanReject(doc, actor); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`
		UPDATE documents
		SET status = $1, rejected_by = $2, rejected_at = now(),
			rejection_reason = $3, rejection_type = $4,
			updated_at = now()
		WHERE id = $5 AND status NOT IN ($6, $7) AND archived = false
		RETURNING %s`, documentColumns)

	args := []any{StatusRejected, actor.ID, reason, rtype, id, StatusApproved, StatusRejected}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		updated, err := repository.QueryOne(ctx, tx, q, args, scanDocument)
		if err != nil {
			return updated, err
		}
		return updated, r.appendAudit(ctx, tx, audit.TypeRejected, updated.ID, actor, reason)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrTerminalState, ErrDuplicate)
	}

	r.metrics.Rejections.Inc()
	r.logger.Info("document rejected", "id", d.ID, "actor", actor.ID, "type", rtype)
	return &d, nil
}

// Archive soft-hides the document. The scan blob and all history remain;
// active documents are never hard-deleted.
func (r *repo) Archive(ctx context.Context, id uuid.UUID, actor authz.Principal) error {
	if !authz.CanAct(actor, authz.ActionArchive, authz.Resource{}) {
		return authz.ErrForbidden
	}

	if _, err := r.Find(ctx, id); err != nil {
		return err
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"UPDATE documents SET archived = true, updated_at = now() WHERE id = $1 AND archived = false",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, r.appendAudit(ctx, tx, audit.TypeArchived, id, actor, "")
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document archived", "id", id, "actor", actor.ID)
	return nil
}

func (r *repo) appendAudit(
	ctx context.Context,
	tx *sql.Tx,
	entryType audit.EntryType,
	id uuid.UUID,
	actor authz.Principal,
	detail string,
) error {
	return r.audit.Append(ctx, tx, audit.Entry{
		Type:       entryType,
		DocumentID: id,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Detail:     detail,
	})
}
