package documents

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/registrum/registrum/internal/audit"
	"github.com/registrum/registrum/internal/authz"
	"github.com/registrum/registrum/internal/reviewers"
	"github.com/registrum/registrum/internal/revisions"
	"github.com/registrum/registrum/pkg/handlers"
	"github.com/registrum/registrum/pkg/pagination"
	"github.com/registrum/registrum/pkg/routes"
)

const (
	batchConcurrency   = 4
	defaultLeaderboard = 7 * 24 * time.Hour
	leaderboardLimit   = 20
)

// Handler provides HTTP endpoints for document workflow operations.
type Handler struct {
	sys           System
	revisions     revisions.System
	audit         audit.System
	reviewers     reviewers.System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler for the document workflow routes.
func NewHandler(
	sys System,
	revs revisions.System,
	trail audit.System,
	stats reviewers.System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		revisions:     revs,
		audit:         trail,
		reviewers:     stats,
		logger:        logger.With("handler", "documents"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for document endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/assigned", Handler: h.Assigned},
			{Method: "GET", Pattern: "/counts", Handler: h.Counts},
			{Method: "GET", Pattern: "/leaderboard", Handler: h.Leaderboard},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/revisions", Handler: h.Revisions},
			{Method: "GET", Pattern: "/{id}/audit", Handler: h.Audit},
			{Method: "POST", Pattern: "", Handler: h.Upload},
			{Method: "POST", Pattern: "/batch", Handler: h.BatchUpload},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "POST", Pattern: "/{id}/claim", Handler: h.Claim},
			{Method: "POST", Pattern: "/{id}/release", Handler: h.Release},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update},
			{Method: "POST", Pattern: "/{id}/approve", Handler: h.Approve},
			{Method: "POST", Pattern: "/{id}/reject", Handler: h.Reject},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Archive},
		},
	}
}

// List returns the review queue, highest priority first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single document by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
		return
	}

	doc, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

// Search accepts a JSON body with pagination and filter criteria.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Assigned returns the documents currently claimed by the caller.
func (h *Handler) Assigned(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromRequest(r)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, authz.ErrForbidden)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.AssignedTo(r.Context(), actor, page)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Counts returns the number of active documents per workflow status.
func (h *Handler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.sys.StatusCounts(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, counts)
}

// Leaderboard returns approvals per reviewer over a time window
// (default one week, override with ?window=48h).
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	window := defaultLeaderboard
	if v := r.URL.Query().Get("window"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed <= 0 {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
			return
		}
		window = parsed
	}

	limit := leaderboardLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= leaderboardLimit {
			limit = n
		}
	}

	standings, err := h.sys.Leaderboard(r.Context(), window, limit)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, standings)
}

// Upload registers one scanned document: the file, its extraction payload,
// and form metadata arrive as multipart form data. The response embeds the
// validation report alongside the created document.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromRequest(r)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, authz.ErrForbidden)
		return
	}
	if !authz.CanAct(actor, authz.ActionUpload, authz.Resource{}) {
		handlers.RespondError(w, h.logger, http.StatusForbidden, authz.ErrForbidden)
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
		return
	}
	defer file.Close()

	cmd, err := h.buildCreateCommand(r, actor, file, header)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.sys.Create(r.Context(), *cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// BatchUpload registers several scans in one request. Files and their
// extraction payloads arrive as parallel multipart arrays; each file
// succeeds or fails independently.
func (h *Handler) BatchUpload(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromRequest(r)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, authz.ErrForbidden)
		return
	}
	if !authz.CanAct(actor, authz.ActionUpload, authz.Resource{}) {
		handlers.RespondError(w, h.logger, http.StatusForbidden, authz.ErrForbidden)
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	files := r.MultipartForm.File["files"]
	extractions := r.MultipartForm.Value["extractions"]
	if len(files) == 0 || len(files) != len(extractions) {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
		return
	}

	results := make([]BatchResult, len(files))

	g, gctx := errgroup.WithContext(r.Context())
	g.SetLimit(batchConcurrency)

	for i, header := range files {
		g.Go(func() error {
			results[i] = BatchResult{Filename: header.Filename}

			file, err := header.Open()
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			defer file.Close()

			cmd, err := h.buildCommand(r, actor, file, header, []byte(extractions[i]))
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}

			result, err := h.sys.Create(gctx, *cmd)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}

			results[i].Result = result
			return nil
		})
	}

	// per-file errors are captured in results; the group never fails
	_ = g.Wait()

	handlers.RespondJSON(w, http.StatusCreated, results)
}

// Claim assigns the document to the caller.
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID, actor authz.Principal) (*Document, error) {
		return h.sys.Claim(r.Context(), id, actor)
	})
}

// Release returns the document to the queue with an optional reason.
func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := decodeOptional(r, &body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	h.transition(w, r, func(id uuid.UUID, actor authz.Principal) (*Document, error) {
		return h.sys.Release(r.Context(), id, actor, body.Reason)
	})
}

// Update replaces the document's edited data and appends a revision.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data json.RawMessage `json:"data"`
		Note string          `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
		return
	}

	h.transition(w, r, func(id uuid.UUID, actor authz.Principal) (*Document, error) {
		return h.sys.Update(r.Context(), id, actor, body.Data, body.Note)
	})
}

// Approve finalizes the document with an optional note.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Note string `json:"note"`
	}
	if err := decodeOptional(r, &body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	h.transition(w, r, func(id uuid.UUID, actor authz.Principal) (*Document, error) {
		return h.sys.Approve(r.Context(), id, actor, body.Note)
	})
}

// Reject finalizes the document. Reason and a valid rejection type are required.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string        `json:"reason"`
		Type   RejectionType `json:"rejection_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrReasonRequired)
		return
	}

	h.transition(w, r, func(id uuid.UUID, actor authz.Principal) (*Document, error) {
		return h.sys.Reject(r.Context(), id, actor, body.Reason, body.Type)
	})
}

// Archive soft-hides the document. Administrators only.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.FromRequest(r)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, authz.ErrForbidden)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
		return
	}

	if err := h.sys.Archive(r.Context(), id, actor); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Revisions returns the document's edit ledger, newest first.
func (h *Handler) Revisions(w http.ResponseWriter, r *http.Request) {
	h.documentChildren(w, r, func(id uuid.UUID, page pagination.PageRequest) (any, error) {
		return h.revisions.ForDocument(r.Context(), id, page)
	})
}

// Audit returns the document's workflow transition trail, newest first.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	h.documentChildren(w, r, func(id uuid.UUID, page pagination.PageRequest) (any, error) {
		return h.audit.ForDocument(r.Context(), id, page)
	})
}

// transition runs a workflow mutation with the caller's principal and
// touches the reviewer's last-seen timestamp on success, best-effort.
func (h *Handler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(uuid.UUID, authz.Principal) (*Document, error),
) {
	actor, ok := authz.FromRequest(r)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, authz.ErrForbidden)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
		return
	}

	doc, err := op(id, actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	h.reviewers.TouchAsync(actor.ID, actor.Name)
	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) documentChildren(
	w http.ResponseWriter,
	r *http.Request,
	list func(uuid.UUID, pagination.PageRequest) (any, error),
) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
		return
	}

	// 404 for unknown documents instead of an empty page
	if _, err := h.sys.Find(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := list(id, page)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) buildCreateCommand(
	r *http.Request,
	actor authz.Principal,
	file multipart.File,
	header *multipart.FileHeader,
) (*CreateCommand, error) {
	extraction := r.FormValue("extraction")
	if extraction == "" {
		return nil, ErrInvalidUpload
	}
	return h.buildCommand(r, actor, file, header, []byte(extraction))
}

func (h *Handler) buildCommand(
	r *http.Request,
	actor authz.Principal,
	file multipart.File,
	header *multipart.FileHeader,
	extraction []byte,
) (*CreateCommand, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, ErrInvalidUpload
	}

	priority := 0
	if v := r.FormValue("priority"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			priority = n
		}
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), data)

	return &CreateCommand{
		Data:        data,
		Filename:    header.Filename,
		ContentType: contentType,
		Extraction:  extraction,
		FormType:    r.FormValue("form_type"),
		Priority:    priority,
		OwnerID:     actor.ID,
		OwnerName:   actor.Name,
		PageCount:   extractPDFPageCount(h.logger, data, contentType),
	}, nil
}

// decodeOptional decodes a JSON body when one is present. An absent or empty
// body is fine for endpoints whose fields are all optional; a body that is
// present but unparseable is rejected rather than silently dropped.
func decodeOptional(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return ErrInvalidUpload
	}
	return nil
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}

func extractPDFPageCount(logger *slog.Logger, data []byte, contentType string) *int {
	if contentType != "application/pdf" {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}

	return &count
}
