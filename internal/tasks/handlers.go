package tasks

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"agency-dashboard-backend/internal/ai"
	"agency-dashboard-backend/internal/analytics"
	"agency-dashboard-backend/internal/auth"
)

type Handler struct {
	Tasks     Store
	Users     auth.Store
	AI        ai.Prioritizer
	Analytics analytics.Recorder
	Logger    *zap.Logger

	now func() time.Time
}

func New(store Store, users auth.Store, prioritizer ai.Prioritizer, rec analytics.Recorder, logger *zap.Logger) *Handler {
	return &Handler{
		Tasks:     store,
		Users:     users,
		AI:        prioritizer,
		Analytics: rec,
		Logger:    logger.Named("tasks"),
		now:       time.Now,
	}
}

// PrioritizeResponse pairs the reordered board with the service's ranking.
type PrioritizeResponse struct {
	Tasks      []Task               `json:"tasks"`
	Priorities []ai.PrioritizedTask `json:"priorities"`
}

// Prioritize: POST /tasks/prioritize
//
// The returned order is a view; nothing is persisted.
func (h *Handler) Prioritize(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req PrioritizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	board, err := ParseBoard(req.Board)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !CanAccess(p.Role, board) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	ts, err := h.Tasks.List(r.Context(), Filter{Board: board})
	if err != nil {
		h.Logger.Error("list tasks for prioritization failed", zap.String("board", string(board)), zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if len(ts) == 0 {
		http.Error(w, "no tasks to prioritize", http.StatusBadRequest)
		return
	}

	result, err := h.AI.Prioritize(r.Context(), BuildRequest(ts))
	if err != nil {
		h.Logger.Warn("prioritization failed", zap.String("board", string(board)), zap.Int("tasks", len(ts)), zap.Error(err))
		w.Header().Set("X-AI-Error", "1")
		http.Error(w, "prioritization failed", http.StatusBadGateway)
		return
	}

	analytics.Track(r, h.Analytics, "", "tasks_prioritized", map[string]any{
		"board":    board,
		"tasks":    len(ts),
		"returned": len(result),
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(PrioritizeResponse{
		Tasks:      ReconcileResult(ts, result),
		Priorities: ai.SortByPriority(result),
	})
}
