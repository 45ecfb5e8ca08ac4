package campaigns

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"agency-dashboard-backend/internal/auth"
	"agency-dashboard-backend/internal/csvio"
	"agency-dashboard-backend/internal/tasks"
)

var (
	ErrNotFound = errors.New("campaign not found")
	ErrEmptyCSV = errors.New("empty or invalid CSV")
)

// Campaign is an imported lead list.
type Campaign struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Headers        []string            `json:"headers"`
	Leads          []map[string]string `json:"leads"`
	UploadedByRole auth.Role           `json:"uploaded_by_role,omitempty"`
	UploaderID     string              `json:"uploader_id,omitempty"`
	AssignedToID   string              `json:"assigned_to_id,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

// Summary is a campaign without its leads.
type Summary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	LeadCount      int       `json:"lead_count"`
	UploadedByRole auth.Role `json:"uploaded_by_role,omitempty"`
	UploaderID     string    `json:"uploader_id,omitempty"`
	AssignedToID   string    `json:"assigned_to_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// FromCSV builds a new campaign from CSV text. A file without headers or
// without a single lead is rejected with ErrEmptyCSV.
func FromCSV(name, text string, uploader auth.Principal, now time.Time) (Campaign, error) {
	table := csvio.Parse(text)
	if len(table.Headers) == 0 || len(table.Rows) == 0 {
		return Campaign{}, ErrEmptyCSV
	}
	return Campaign{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(name),
		Headers:        table.Headers,
		Leads:          table.Rows,
		UploadedByRole: uploader.Role,
		UploaderID:     uploader.UserID,
		CreatedAt:      now.UTC(),
	}, nil
}

// CSV renders the campaign's leads back to CSV text.
func (c Campaign) CSV() string {
	return csvio.Generate(c.Headers, c.Leads)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ExportFilename is the attachment name offered for an exported campaign.
func ExportFilename(name string) string {
	return whitespaceRun.ReplaceAllString(name, "_") + "_export.csv"
}

// CanManage reports whether role works with campaigns at all.
func CanManage(role auth.Role) bool {
	switch role {
	case auth.RoleAdmin, auth.RoleMarketer:
		return true
	case auth.RoleDeveloper:
		return false
	}
	return false
}

// CanView reports whether p sees a campaign assigned to assignedToID.
// Marketers see their own campaigns and unassigned ones.
func CanView(p auth.Principal, assignedToID string) bool {
	switch p.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleMarketer:
		return assignedToID == "" || assignedToID == p.UserID
	case auth.RoleDeveloper:
		return false
	}
	return false
}

// WithoutLeads returns leads minus the given indices. Indices out of range
// are ignored.
func WithoutLeads(leads []map[string]string, indices []int) []map[string]string {
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		drop[i] = true
	}
	out := make([]map[string]string, 0, len(leads))
	for i, l := range leads {
		if !drop[i] {
			out = append(out, l)
		}
	}
	return out
}

// TasksFromLeads creates one follow-up task on the marketing board per
// selected lead, in selection order.
func TasksFromLeads(c Campaign, indices []int, assignee string, now time.Time) ([]tasks.Task, error) {
	deadline := now.AddDate(0, 0, 7).Format(tasks.DateLayout)

	out := make([]tasks.Task, 0, len(indices))
	for n, i := range indices {
		if i < 0 || i >= len(c.Leads) {
			return nil, fmt.Errorf("lead index %d out of range", i)
		}
		lead := c.Leads[i]

		name := lead["Name"]
		if name == "" {
			name = fmt.Sprintf("Lead %d", n+1)
		}

		details := make([]string, 0, len(c.Headers))
		for _, h := range c.Headers {
			details = append(details, h+": "+lead[h])
		}

		kind := tasks.KindColdCall
		if lead["Email"] != "" {
			kind = tasks.KindEmail
		}

		out = append(out, tasks.Task{
			ID:           uuid.NewString(),
			Board:        tasks.BoardMarketing,
			Title:        "Follow up with " + name,
			Description:  "Campaign: " + c.Name + ". Lead details: " + strings.Join(details, ", "),
			AssignedToID: assignee,
			Status:       tasks.StatusPending,
			Kind:         kind,
			Deadline:     deadline,
			Importance:   tasks.ImportanceMedium,
			CreatedAt:    now.UTC(),
		})
	}
	return out, nil
}
