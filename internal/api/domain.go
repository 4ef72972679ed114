package api

import (
	"github.com/registrum/registrum/internal/audit"
	"github.com/registrum/registrum/internal/documents"
	"github.com/registrum/registrum/internal/reviewers"
	"github.com/registrum/registrum/internal/revisions"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents documents.System
	Revisions revisions.System
	Audit     audit.System
	Reviewers reviewers.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	revisionsSystem := revisions.New(db, runtime.Logger, runtime.Pagination)
	auditSystem := audit.New(db, runtime.Logger, runtime.Pagination)
	reviewersSystem := reviewers.New(db, runtime.Logger)

	documentsSystem := documents.New(
		db,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
		revisionsSystem,
		auditSystem,
		reviewersSystem,
		runtime.Metrics,
	)

	return &Domain{
		Documents: documentsSystem,
		Revisions: revisionsSystem,
		Audit:     auditSystem,
		Reviewers: reviewersSystem,
	}
}
