// Package handler exposes the deed lifecycle over HTTP. Authenticated
// endpoints read the caller from verified token claims; the verification
// endpoint is public.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"deedledger/internal/access"
	"deedledger/internal/deed"
	"deedledger/internal/deed/service"
	"deedledger/internal/docs"
	"deedledger/internal/platform/middleware"
	dErrors "deedledger/pkg/domain-errors"
	"deedledger/pkg/platform/httputil"
)

// maxDocumentBytes caps a single deed document upload.
const maxDocumentBytes = 10 << 20

// Service defines the deed operations the handler needs.
type Service interface {
	Register(ctx context.Context, caller access.Identity, in service.RegisterInput) (deed.Deed, error)
	Transfer(ctx context.Context, caller access.Identity, id string, in service.TransferInput) (deed.Deed, error)
	Update(ctx context.Context, caller access.Identity, id string, fields deed.UpdateFields) (deed.Deed, error)
	Delete(ctx context.Context, caller access.Identity, id string) error
	Get(ctx context.Context, id string) (deed.Deed, error)
	Search(ctx context.Context, filter deed.QueryFilter) ([]deed.Deed, error)
	Verify(ctx context.Context, number string) (service.VerifyResult, error)
}

// Handler wires deed endpoints to the deed service.
type Handler struct {
	service   Service
	documents docs.Storage
	logger    *slog.Logger
}

func New(service Service, documents docs.Storage, logger *slog.Logger) *Handler {
	return &Handler{service: service, documents: documents, logger: logger}
}

// Register mounts the authenticated deed endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/deeds", h.HandleRegister)
	r.Get("/deeds", h.HandleSearch)
	r.Get("/deeds/{id}", h.HandleGet)
	r.Put("/deeds/{id}", h.HandleUpdate)
	r.Delete("/deeds/{id}", h.HandleDelete)
	r.Put("/deeds/{id}/transfer", h.HandleTransfer)
	r.Post("/deeds/documents", h.HandleUploadDocument)
}

// RegisterPublic mounts the unauthenticated verification endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/verify/{deedNumber}", h.HandleVerify)
}

// HandleRegister handles POST /deeds.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[*RegisterRequest](w, r)
	if !ok {
		return
	}

	d, err := h.service.Register(ctx, caller, req.toInput())
	if err != nil {
		h.logger.ErrorContext(ctx, "deed registration failed",
			"request_id", middleware.GetRequestID(ctx),
			"deed_number", req.DeedNumber,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "deed registered",
		"request_id", middleware.GetRequestID(ctx),
		"deed_number", d.DeedNumber,
		"performed_by", caller.Username,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, d)
}

// HandleSearch handles GET /deeds with optional query-parameter filters.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.caller(w, r); !ok {
		return
	}

	q := r.URL.Query()
	filter := deed.QueryFilter{
		LandTitleNumber: q.Get("landTitleNumber"),
		DeedNumber:      q.Get("deedNumber"),
		OwnerName:       q.Get("ownerName"),
		OwnerNIC:        q.Get("ownerNIC"),
		District:        q.Get("district"),
		Status:          deed.Status(q.Get("status")),
		Search:          q.Get("search"),
	}

	deeds, err := h.service.Search(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "deed search failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if deeds == nil {
		deeds = []deed.Deed{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"deeds": deeds, "count": len(deeds)})
}

// HandleGet handles GET /deeds/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.caller(w, r); !ok {
		return
	}

	d, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

// HandleUpdate handles PUT /deeds/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[*UpdateRequest](w, r)
	if !ok {
		return
	}

	d, err := h.service.Update(ctx, caller, chi.URLParam(r, "id"), req.toFields())
	if err != nil {
		h.logger.ErrorContext(ctx, "deed update failed",
			"request_id", middleware.GetRequestID(ctx),
			"deed_id", chi.URLParam(r, "id"),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

// HandleDelete handles DELETE /deeds/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, caller, chi.URLParam(r, "id")); err != nil {
		h.logger.ErrorContext(ctx, "deed deletion failed",
			"request_id", middleware.GetRequestID(ctx),
			"deed_id", chi.URLParam(r, "id"),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTransfer handles PUT /deeds/{id}/transfer.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[*TransferRequest](w, r)
	if !ok {
		return
	}

	d, err := h.service.Transfer(ctx, caller, chi.URLParam(r, "id"), service.TransferInput{
		OwnerName: req.OwnerName,
		OwnerNIC:  req.OwnerNIC,
		Reason:    req.Reason,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "ownership transfer failed",
			"request_id", middleware.GetRequestID(ctx),
			"deed_id", chi.URLParam(r, "id"),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "ownership transferred",
		"request_id", middleware.GetRequestID(ctx),
		"deed_number", d.DeedNumber,
		"performed_by", caller.Username,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, d)
}

// HandleUploadDocument handles POST /deeds/documents (multipart form, field
// "document"). The returned URL and id go into a subsequent register or
// update call.
func (h *Handler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := h.caller(w, r); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes)
	file, header, err := r.FormFile("document")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "multipart field 'document' is required"))
		return
	}
	defer file.Close()

	url, id, err := h.documents.Store(ctx, header.Filename, file)
	if err != nil {
		h.logger.ErrorContext(ctx, "document upload failed",
			"request_id", middleware.GetRequestID(ctx),
			"filename", header.Filename,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "store document", err))
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"documentUrl": url, "documentId": id})
}

// HandleVerify handles GET /verify/{deedNumber}. No authentication; the
// response carries only the public fields.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.service.Verify(ctx, chi.URLParam(r, "deedNumber"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// caller resolves the verified identity and enforces the read-only gate for
// mutating verbs.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (access.Identity, bool) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return access.Identity{}, false
	}
	caller := claims.Identity()
	if !access.ReadOnlyGate(caller, r.Method) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "external accounts have read-only access"))
		return access.Identity{}, false
	}
	return caller, true
}
