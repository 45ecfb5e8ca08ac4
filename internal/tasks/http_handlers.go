package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agency-dashboard-backend/internal/analytics"
	"agency-dashboard-backend/internal/auth"
)

var errBadAssignee = errors.New("assignee is not an approved user on this board")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// checkAssignee accepts an empty id or an approved user allowed on board.
func (h *Handler) checkAssignee(ctx context.Context, id string, board Board) error {
	if id == "" {
		return nil
	}
	u, err := h.Users.ByID(ctx, id)
	if errors.Is(err, auth.ErrNotFound) {
		return errBadAssignee
	}
	if err != nil {
		return err
	}
	if u.Status != auth.StatusApproved || !CanAccess(u.DesiredRole, board) {
		return errBadAssignee
	}
	return nil
}

// loadAccessible fetches the task named in the path and writes the error
// response itself when it is missing or out of reach.
func (h *Handler) loadAccessible(w http.ResponseWriter, r *http.Request, p auth.Principal) (Task, bool) {
	id := r.PathValue("id")
	t, err := h.Tasks.ByID(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "task not found", http.StatusNotFound)
		return Task{}, false
	}
	if err != nil {
		h.Logger.Error("load task failed", zap.String("task_id", id), zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return Task{}, false
	}
	if !CanAccess(p.Role, t.Board) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return Task{}, false
	}
	return t, true
}

// List: GET /tasks?board=&q=&status=&importance=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	f := Filter{Query: q.Get("q")}

	if s := q.Get("board"); s != "" {
		b, err := ParseBoard(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.Board = b
	} else {
		f.Board = HomeBoard(p.Role)
	}
	if (f.Board == "" && p.Role != auth.RoleAdmin) || (f.Board != "" && !CanAccess(p.Role, f.Board)) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if s := q.Get("status"); s != "" {
		st, err := ParseStatus(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.Status = st
	}
	if s := q.Get("importance"); s != "" {
		imp, err := ParseImportance(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.Importance = imp
	}

	ts, err := h.Tasks.List(r.Context(), f)
	if err != nil {
		h.Logger.Error("list tasks failed", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if ts == nil {
		ts = []Task{}
	}
	writeJSON(w, http.StatusOK, ts)
}

// Create: POST /tasks
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	t := Task{ID: uuid.NewString(), CreatedAt: h.now().UTC()}
	req.apply(&t)
	if err := t.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !CanAccess(p.Role, t.Board) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if !h.assigneeOK(w, r, t) {
		return
	}

	created, err := h.Tasks.Create(r.Context(), t)
	if err != nil {
		h.Logger.Error("create task failed", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	analytics.Track(r, h.Analytics, "", "task_created", map[string]any{
		"task_id":      created.ID,
		"board":        created.Board,
		"kind":         created.Kind,
		"importance":   created.Importance,
		"has_assignee": created.AssignedToID != "",
	})

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) assigneeOK(w http.ResponseWriter, r *http.Request, t Task) bool {
	err := h.checkAssignee(r.Context(), t.AssignedToID, t.Board)
	if errors.Is(err, errBadAssignee) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	if err != nil {
		h.Logger.Error("load assignee failed", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return false
	}
	return true
}

// Update: PUT /tasks/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	t, ok := h.loadAccessible(w, r, p)
	if !ok {
		return
	}
	req.apply(&t)
	if err := t.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !CanAccess(p.Role, t.Board) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if !h.assigneeOK(w, r, t) {
		return
	}

	updated, err := h.Tasks.Update(r.Context(), t)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("update task failed", zap.String("task_id", t.ID), zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// SetStatus: PATCH /tasks/{id}/status
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	t, ok := h.loadAccessible(w, r, p)
	if !ok {
		return
	}

	updated, err := h.Tasks.SetStatus(r.Context(), t.ID, status)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("set task status failed", zap.String("task_id", t.ID), zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	if t.Status != status {
		analytics.Track(r, h.Analytics, "", "task_status_changed", map[string]any{
			"task_id": t.ID,
			"board":   t.Board,
			"from":    t.Status,
			"to":      status,
		})
	}

	writeJSON(w, http.StatusOK, updated)
}

// Delete: DELETE /tasks/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	t, ok := h.loadAccessible(w, r, p)
	if !ok {
		return
	}

	err := h.Tasks.Delete(r.Context(), t.ID)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("delete task failed", zap.String("task_id", t.ID), zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Assignee is the public view of a user who can take tasks.
type Assignee struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  auth.Role `json:"role"`
}

// AssignableUsers: GET /users/assignable?board=
func (h *Handler) AssignableUsers(w http.ResponseWriter, r *http.Request) {
	var board Board
	if s := r.URL.Query().Get("board"); s != "" {
		b, err := ParseBoard(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		board = b
	}

	users, err := h.Users.List(r.Context(), auth.StatusApproved)
	if err != nil {
		h.Logger.Error("list assignable users failed", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	out := []Assignee{}
	for _, u := range users {
		if board != "" && !CanAccess(u.DesiredRole, board) {
			continue
		}
		out = append(out, Assignee{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.DesiredRole})
	}
	writeJSON(w, http.StatusOK, out)
}
