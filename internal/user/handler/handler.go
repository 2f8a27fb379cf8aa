// Package handler exposes authentication and account management over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"deedledger/internal/access"
	"deedledger/internal/jwttoken"
	"deedledger/internal/platform/middleware"
	"deedledger/internal/user"
	dErrors "deedledger/pkg/domain-errors"
	"deedledger/pkg/platform/httputil"
)

// Service defines the account operations the handler needs.
type Service interface {
	Login(ctx context.Context, username, password, userAgent string) (string, user.User, error)
	Logout(ctx context.Context, claims *jwttoken.Claims) error
	Create(ctx context.Context, caller access.Identity, in user.CreateInput) (user.User, error)
	Delete(ctx context.Context, caller access.Identity, id string) error
	Approve(ctx context.Context, caller access.Identity, id string) error
	Reject(ctx context.Context, caller access.Identity, id string) error
	VerifyEmail(ctx context.Context, caller access.Identity) error
	Get(ctx context.Context, id string) (user.User, error)
}

// Handler wires account endpoints to the user service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the login endpoint, which must work without a token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

// Register mounts the authenticated account endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
	r.Post("/users", h.HandleCreate)
	r.Get("/users/{id}", h.HandleGet)
	r.Delete("/users/{id}", h.HandleDelete)
	r.Post("/users/{id}/approve", h.HandleApprove)
	r.Post("/users/{id}/reject", h.HandleReject)
	r.Post("/users/verify-email", h.HandleVerifyEmail)
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[*LoginRequest](w, r)
	if !ok {
		return
	}

	token, u, err := h.service.Login(ctx, req.Username, req.Password, r.UserAgent())
	if err != nil {
		h.logger.WarnContext(ctx, "login rejected",
			"request_id", middleware.GetRequestID(ctx),
			"username", req.Username,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "login succeeded",
		"request_id", middleware.GetRequestID(ctx),
		"username", u.Username,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"accessToken": token,
		"user":        u,
	})
}

// HandleLogout handles POST /auth/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := middleware.GetClaims(ctx)
	if claims == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	if err := h.service.Logout(ctx, claims); err != nil {
		h.logger.ErrorContext(ctx, "logout failed",
			"request_id", middleware.GetRequestID(ctx),
			"username", claims.Username,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCreate handles POST /users.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[*CreateUserRequest](w, r)
	if !ok {
		return
	}

	u, err := h.service.Create(ctx, caller, req.toInput())
	if err != nil {
		h.logger.ErrorContext(ctx, "user creation failed",
			"request_id", middleware.GetRequestID(ctx),
			"username", req.Username,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, u)
}

// HandleGet handles GET /users/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := h.caller(w, r); !ok {
		return
	}

	u, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

// HandleDelete handles DELETE /users/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, caller, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleApprove handles POST /users/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Approve)
}

// HandleReject handles POST /users/{id}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Reject)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, op func(context.Context, access.Identity, string) error) {
	ctx := r.Context()

	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := op(ctx, caller, chi.URLParam(r, "id")); err != nil {
		h.logger.ErrorContext(ctx, "registration review failed",
			"request_id", middleware.GetRequestID(ctx),
			"user_id", chi.URLParam(r, "id"),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleVerifyEmail handles POST /users/verify-email. The caller verifies
// their own address.
func (h *Handler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := middleware.GetClaims(ctx)
	if claims == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	if err := h.service.VerifyEmail(ctx, claims.Identity()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (access.Identity, bool) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return access.Identity{}, false
	}
	return claims.Identity(), true
}
