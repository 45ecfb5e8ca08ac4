package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"agency-dashboard-backend/internal/analytics"
)

// ListRequests: GET /admin/signup-requests?status=pending
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	var status Status
	if s := r.URL.Query().Get("status"); s != "" {
		st, err := ParseStatus(s)
		if err != nil {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		status = st
	}

	users, err := h.Users.List(r.Context(), status)
	if err != nil {
		h.Logger.Error("list signup requests failed", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []User{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(users)
}

// Approve: POST /admin/signup-requests/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, StatusApproved)
}

// Reject: POST /admin/signup-requests/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, StatusRejected)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, status Status) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	u, err := h.Users.SetStatus(r.Context(), id, status)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "request not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, ErrNotPending) {
		http.Error(w, "request already reviewed", http.StatusConflict)
		return
	}
	if err != nil {
		h.Logger.Error("review signup request failed", zap.String("user_id", id), zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	analytics.Track(r, h.Analytics, "", "signup_reviewed", map[string]any{
		"subject_id": u.ID,
		"status":     status,
		"role":       u.DesiredRole,
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(u)
}
