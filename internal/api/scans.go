package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"

	"github.com/google/uuid"

	"github.com/registrum/registrum/internal/documents"
	"github.com/registrum/registrum/pkg/handlers"
	"github.com/registrum/registrum/pkg/routes"
	"github.com/registrum/registrum/pkg/storage"
)

// scanHandler streams the original uploaded scan for a document, so a
// reviewer can compare the extraction against the source image.
type scanHandler struct {
	docs   documents.System
	store  storage.System
	logger *slog.Logger
}

func newScanHandler(docs documents.System, store storage.System, logger *slog.Logger) *scanHandler {
	return &scanHandler{
		docs:   docs,
		store:  store,
		logger: logger.With("handler", "scans"),
	}
}

func (h *scanHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/scans",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}", Handler: h.download},
		},
	}
}

func (h *scanHandler) download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, documents.ErrInvalidUpload)
		return
	}

	doc, err := h.docs.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, documents.MapHTTPStatus(err), err)
		return
	}

	body, err := h.store.Download(r.Context(), doc.StorageKey)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(doc.StorageKey)),
	)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}
