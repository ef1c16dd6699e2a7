package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/onevent/flowscore/internal/model"
)

// resultSummary is the list view of a stored result.
type resultSummary struct {
	ID             int64                    `json:"id"`
	Company        string                   `json:"company"`
	Email          string                   `json:"email"`
	Recommendation model.RecommendationType `json:"recommendation"`
	Scores         model.Scores             `json:"scores"`
	CompletedAt    string                   `json:"completed_at"`
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.ListResults()
	if err != nil {
		slog.Error("failed to list results", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	summaries := make([]resultSummary, 0, len(results))
	for _, res := range results {
		summaries = append(summaries, resultSummary{
			ID:             res.ID,
			Company:        res.Contact.Company,
			Email:          res.Contact.Email,
			Recommendation: res.Recommendation,
			Scores:         res.Scores,
			CompletedAt:    res.CompletedAt.Format("2006-01-02 15:04"),
		})
	}
	respondJSON(w, http.StatusOK, summaries)
}

func (h *Handler) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "resultID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid result id", http.StatusBadRequest)
		return
	}
	result, err := h.store.GetResult(id)
	if err != nil {
		slog.Error("failed to get result", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if result == nil {
		http.Error(w, "result not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "resultID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid result id", http.StatusBadRequest)
		return
	}
	if err := h.store.DeleteResult(id); err != nil {
		slog.Error("failed to delete result", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// userView hides the password hash from API responses.
type userView struct {
	ID          int64          `json:"id"`
	Username    string         `json:"username"`
	DisplayName string         `json:"display_name"`
	Role        model.UserRole `json:"role"`
	Active      bool           `json:"active"`
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{
			ID:          u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Role:        u.Role,
			Active:      u.Active,
		})
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string         `json:"username"`
		DisplayName string         `json:"display_name"`
		Password    string         `json:"password"`
		Role        model.UserRole `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || len(req.Password) < 8 {
		http.Error(w, "username and a password of at least 8 characters are required", http.StatusUnprocessableEntity)
		return
	}
	if req.Role != model.UserRoleAdmin && req.Role != model.UserRoleViewer {
		req.Role = model.UserRoleViewer
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	id, err := h.store.CreateUser(model.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	})
	if err != nil {
		http.Error(w, "could not create user", http.StatusConflict)
		return
	}
	respondJSON(w, http.StatusCreated, userView{
		ID: id, Username: req.Username, DisplayName: req.DisplayName, Role: req.Role, Active: true,
	})
}

func (h *Handler) handleToggleUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	if err := h.store.ToggleUserActive(id); err != nil {
		slog.Error("failed to toggle user", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "toggled"})
}
