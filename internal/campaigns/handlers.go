package campaigns

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"agency-dashboard-backend/internal/analytics"
	"agency-dashboard-backend/internal/auth"
	"agency-dashboard-backend/internal/tasks"
)

// MaxImportBytes caps the size of an uploaded CSV file.
const MaxImportBytes = 10 << 20

// TaskCreator stores the tasks generated from leads.
type TaskCreator interface {
	CreateMany(ctx context.Context, ts []tasks.Task) error
}

type Handler struct {
	Campaigns Store
	Tasks     TaskCreator
	Users     auth.Store
	Analytics analytics.Recorder
	Logger    *zap.Logger

	now func() time.Time
}

func NewHandler(store Store, taskStore TaskCreator, users auth.Store, rec analytics.Recorder, logger *zap.Logger) *Handler {
	return &Handler{
		Campaigns: store,
		Tasks:     taskStore,
		Users:     users,
		Analytics: rec,
		Logger:    logger.Named("campaigns"),
		now:       time.Now,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// principal returns the caller when they may work with campaigns, writing
// 401 or 403 otherwise.
func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return auth.Principal{}, false
	}
	if !CanManage(p.Role) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return auth.Principal{}, false
	}
	return p, true
}

// load fetches the campaign named in the path if p can see it. Campaigns
// the caller cannot see are reported as missing.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, p auth.Principal) (Campaign, bool) {
	id := r.PathValue("id")
	c, err := h.Campaigns.ByID(r.Context(), id)
	if errors.Is(err, ErrNotFound) || (err == nil && !CanView(p, c.AssignedToID)) {
		http.Error(w, "campaign not found", http.StatusNotFound)
		return Campaign{}, false
	}
	if err != nil {
		h.Logger.Error("load campaign failed", zap.String("campaign_id", id), zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return Campaign{}, false
	}
	return c, true
}

// Import: POST /campaigns/import (multipart: file, name)
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxImportBytes)
	if err := r.ParseMultipartForm(MaxImportBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "could not read file", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		base := filepath.Base(header.Filename)
		name = strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	if name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}

	c, err := FromCSV(name, string(raw), p, h.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Campaigns.Create(r.Context(), c); err != nil {
		h.Logger.Error("create campaign failed", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	h.Logger.Info("campaign imported",
		zap.String("campaign_id", c.ID),
		zap.Int("leads", len(c.Leads)),
		zap.Int("columns", len(c.Headers)),
	)
	analytics.Track(r, h.Analytics, "", "campaign_imported", map[string]any{
		"campaign_id": c.ID,
		"leads":       len(c.Leads),
		"columns":     len(c.Headers),
	})

	writeJSON(w, http.StatusCreated, c)
}

// List: GET /campaigns
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	all, err := h.Campaigns.List(r.Context())
	if err != nil {
		h.Logger.Error("list campaigns failed", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	out := []Summary{}
	for _, c := range all {
		if CanView(p, c.AssignedToID) {
			out = append(out, c)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Get: GET /campaigns/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	c, ok := h.load(w, r, p)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete: DELETE /campaigns/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	c, ok := h.load(w, r, p)
	if !ok {
		return
	}

	err := h.Campaigns.Delete(r.Context(), c.ID)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "campaign not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("delete campaign failed", zap.String("campaign_id", c.ID), zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export: GET /campaigns/{id}/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	c, ok := h.load(w, r, p)
	if !ok {
		return
	}

	analytics.Track(r, h.Analytics, "", "campaign_exported", map[string]any{
		"campaign_id": c.ID,
		"leads":       len(c.Leads),
	})

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": ExportFilename(c.Name)}))
	_, _ = io.WriteString(w, c.CSV())
}

type indicesRequest struct {
	Indices []int `json:"indices"`
}

// DeleteLeads: POST /campaigns/{id}/leads/delete
func (h *Handler) DeleteLeads(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req indicesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(req.Indices) == 0 {
		http.Error(w, "indices required", http.StatusBadRequest)
		return
	}

	c, ok := h.load(w, r, p)
	if !ok {
		return
	}

	updated, err := h.Campaigns.SetLeads(r.Context(), c.ID, WithoutLeads(c.Leads, req.Indices))
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "campaign not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("delete leads failed", zap.String("campaign_id", c.ID), zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Assign: PUT /campaigns/{id}/assignee (admin only)
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssignedToID string `json:"assigned_to_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	assignee := strings.TrimSpace(req.AssignedToID)
	if assignee == "unassigned" {
		assignee = ""
	}
	if assignee != "" {
		u, err := h.Users.ByID(r.Context(), assignee)
		if errors.Is(err, auth.ErrNotFound) || (err == nil && (u.Status != auth.StatusApproved || !tasks.CanAccess(u.DesiredRole, tasks.BoardMarketing))) {
			http.Error(w, "assignee must be an approved marketer", http.StatusBadRequest)
			return
		}
		if err != nil {
			h.Logger.Error("load assignee failed", zap.Error(err))
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
	}

	id := r.PathValue("id")
	c, err := h.Campaigns.SetAssignee(r.Context(), id, assignee)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "campaign not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("assign campaign failed", zap.String("campaign_id", id), zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateTasks: POST /campaigns/{id}/tasks
func (h *Handler) CreateTasks(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req indicesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(req.Indices) == 0 {
		http.Error(w, "indices required", http.StatusBadRequest)
		return
	}

	c, ok := h.load(w, r, p)
	if !ok {
		return
	}

	assignee := c.AssignedToID
	if assignee == "" {
		assignee = p.UserID
	}

	ts, err := TasksFromLeads(c, req.Indices, assignee, h.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Tasks.CreateMany(r.Context(), ts); err != nil {
		h.Logger.Error("create tasks from leads failed", zap.String("campaign_id", c.ID), zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	h.Logger.Info("tasks created from leads", zap.String("campaign_id", c.ID), zap.Int("tasks", len(ts)))
	writeJSON(w, http.StatusCreated, ts)
}
