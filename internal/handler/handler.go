// Package handler exposes the HTTP API: the public assessment endpoints a
// respondent walks through and the authenticated review surface.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/onevent/flowscore/internal/catalog"
	"github.com/onevent/flowscore/internal/flow"
	appI18n "github.com/onevent/flowscore/internal/i18n"
	"github.com/onevent/flowscore/internal/model"
	"github.com/onevent/flowscore/internal/store"
	"github.com/onevent/flowscore/internal/webhook"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store      *store.Store
	catalog    *catalog.Catalog
	sessions   *flow.Manager
	webhook    *webhook.Client
	translator *appI18n.Translator
	config     model.ServeConfig
}

// New creates a new Handler.
func New(s *store.Store, cat *catalog.Catalog, sessions *flow.Manager, wh *webhook.Client, tr *appI18n.Translator, cfg model.ServeConfig) *Handler {
	return &Handler{
		store:      s,
		catalog:    cat,
		sessions:   sessions,
		webhook:    wh,
		translator: tr,
		config:     cfg,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Use(h.translator.Middleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/assessment/start", h.handleStart)
		r.Route("/assessment/{sessionID}", func(r chi.Router) {
			r.Get("/question", h.handleQuestion)
			r.Get("/helper", h.handleHelper)
			r.Post("/answer", h.handleAnswer)
			r.Post("/next", h.handleNext)
			r.Post("/prev", h.handlePrev)
			r.Post("/finalize", h.handleFinalize)
		})
		r.Post("/results/{resultID}/resend-email", h.handleResendEmail)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Get("/results", h.handleListResults)
			r.Get("/results/{resultID}", h.handleGetResult)
			r.With(requireRole(model.UserRoleAdmin)).Delete("/results/{resultID}", h.handleDeleteResult)
			r.With(requireRole(model.UserRoleAdmin)).Get("/users", h.handleListUsers)
			r.With(requireRole(model.UserRoleAdmin)).Post("/users", h.handleCreateUser)
			r.With(requireRole(model.UserRoleAdmin)).Post("/users/{userID}/toggle", h.handleToggleUser)
		})
	})

	r.Get("/healthz", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError writes a localized error message for the given message ID.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	loc := h.translator.FromContext(r.Context())
	respondJSON(w, status, map[string]string{"error": appI18n.T(loc, msgID, nil)})
}

// respondFlowError maps flow errors to HTTP statuses.
func (h *Handler) respondFlowError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, flow.ErrNotFound):
		h.respondError(w, r, http.StatusNotFound, "error.session_not_found")
	case errors.Is(err, flow.ErrFinalized):
		h.respondError(w, r, http.StatusConflict, "error.already_complete")
	case errors.Is(err, flow.ErrNotComplete):
		h.respondError(w, r, http.StatusConflict, "error.not_complete")
	case errors.Is(err, flow.ErrUnknownQuestion), errors.Is(err, flow.ErrInvalidAnswer):
		h.respondError(w, r, http.StatusUnprocessableEntity, "error.invalid_answer")
	default:
		slog.Error("session operation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
