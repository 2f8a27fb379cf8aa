// Package handler serves the audit trail query endpoint. The trail itself is
// written by the domain services; HTTP exposes reads only.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"deedledger/internal/access"
	"deedledger/internal/audit"
	"deedledger/internal/platform/middleware"
	dErrors "deedledger/pkg/domain-errors"
	"deedledger/pkg/platform/httputil"
)

// Service defines the audit query operation the handler needs.
type Service interface {
	Query(ctx context.Context, f audit.Filter, page, limit int) (audit.Page, error)
}

// Handler wires the audit endpoint to the recorder.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the audit endpoint. The trail is readable by internal staff
// only; only services write to it.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit", h.HandleQuery)
}

// HandleQuery handles GET /audit with pagination and optional filters.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := middleware.GetClaims(ctx)
	if claims == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	if !access.IsInternal(claims.Identity()) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "audit trail is restricted to internal staff"))
		return
	}

	q := r.URL.Query()
	page, ok := intParam(w, q.Get("page"), "page")
	if !ok {
		return
	}
	limit, ok := intParam(w, q.Get("limit"), "limit")
	if !ok {
		return
	}

	filter := audit.Filter{
		DeedNumber:  q.Get("deedNumber"),
		Action:      audit.Action(q.Get("action")),
		Username:    q.Get("username"),
		PerformedBy: q.Get("performedBy"),
	}

	result, err := h.service.Query(ctx, filter, page, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit query failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if result.Entries == nil {
		result.Entries = []audit.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// intParam parses a positive integer query parameter; empty means zero, which
// the recorder replaces with its default.
func intParam(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, name+" must be a positive integer"))
		return 0, false
	}
	return v, true
}
