package tasks

import "strings"

// TaskRequest is the body of POST /tasks and PUT /tasks/{id}.
type TaskRequest struct {
	Board        string `json:"board"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	AssignedToID string `json:"assigned_to_id"`
	Status       string `json:"status"`
	Kind         string `json:"kind"`
	Deadline     string `json:"deadline"`
	Importance   string `json:"importance"`
}

// apply copies the request onto t. A missing status keeps t's status, or
// pending for a new task.
func (req TaskRequest) apply(t *Task) {
	t.Board = Board(strings.TrimSpace(req.Board))
	t.Title = strings.TrimSpace(req.Title)
	t.Description = strings.TrimSpace(req.Description)
	t.AssignedToID = strings.TrimSpace(req.AssignedToID)
	t.Kind = Kind(strings.TrimSpace(req.Kind))
	t.Deadline = strings.TrimSpace(req.Deadline)
	t.Importance = Importance(strings.TrimSpace(req.Importance))

	switch {
	case req.Status != "":
		t.Status = Status(strings.TrimSpace(req.Status))
	case t.Status == "":
		t.Status = StatusPending
	}
}

type StatusRequest struct {
	Status string `json:"status"`
}

type PrioritizeRequest struct {
	Board string `json:"board"`
}

// Filter narrows a task listing. Zero fields match everything.
type Filter struct {
	Board      Board
	Query      string
	Status     Status
	Importance Importance
}
