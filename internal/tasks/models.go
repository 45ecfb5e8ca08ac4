package tasks

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"agency-dashboard-backend/internal/auth"
)

var ErrNotFound = errors.New("task not found")

// Board is the kanban board a task lives on.
type Board string

const (
	BoardMarketing Board = "marketing"
	BoardDeveloper Board = "developer"
)

func ParseBoard(s string) (Board, error) {
	switch b := Board(s); b {
	case BoardMarketing, BoardDeveloper:
		return b, nil
	}
	return "", fmt.Errorf("invalid board %q", s)
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusInProgress, StatusCompleted, StatusBlocked:
		return st, nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// Kind is what sort of work a task is.
type Kind string

const (
	KindColdCall        Kind = "cold-call"
	KindEmail           Kind = "email"
	KindDevelopment     Kind = "development"
	KindDesign          Kind = "design"
	KindResearch        Kind = "research"
	KindContentCreation Kind = "content-creation"
	KindMeeting         Kind = "meeting"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindColdCall, KindEmail, KindDevelopment, KindDesign, KindResearch, KindContentCreation, KindMeeting:
		return k, nil
	}
	return "", fmt.Errorf("invalid kind %q", s)
}

type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

func ParseImportance(s string) (Importance, error) {
	switch i := Importance(s); i {
	case ImportanceHigh, ImportanceMedium, ImportanceLow:
		return i, nil
	}
	return "", fmt.Errorf("invalid importance %q", s)
}

const DateLayout = "2006-01-02"

type Task struct {
	ID           string     `json:"id"`
	Board        Board      `json:"board"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	AssignedToID string     `json:"assigned_to_id,omitempty"`
	Status       Status     `json:"status"`
	Kind         Kind       `json:"kind"`
	Deadline     string     `json:"deadline"` // YYYY-MM-DD
	Importance   Importance `json:"importance"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Validate reports the first field that breaks the task rules.
func (t Task) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(t.Title)) < 3 {
		return errors.New("title must be at least 3 characters")
	}
	if utf8.RuneCountInString(strings.TrimSpace(t.Description)) < 5 {
		return errors.New("description must be at least 5 characters")
	}
	if _, err := ParseBoard(string(t.Board)); err != nil {
		return err
	}
	if _, err := ParseStatus(string(t.Status)); err != nil {
		return err
	}
	if _, err := ParseKind(string(t.Kind)); err != nil {
		return err
	}
	if _, err := ParseImportance(string(t.Importance)); err != nil {
		return err
	}
	if !ValidDate(t.Deadline) {
		return errors.New("deadline must be a calendar date in YYYY-MM-DD format")
	}
	return nil
}

// ValidDate reports whether s is a real calendar date written as YYYY-MM-DD.
func ValidDate(s string) bool {
	d, err := time.Parse(DateLayout, s)
	return err == nil && d.Format(DateLayout) == s
}

// CanAccess reports whether role may read and edit tasks on board.
func CanAccess(role auth.Role, board Board) bool {
	switch role {
	case auth.RoleAdmin:
		return true
	case auth.RoleDeveloper:
		return board == BoardDeveloper
	case auth.RoleMarketer:
		return board == BoardMarketing
	}
	return false
}

// HomeBoard is the board a role lands on. Admins have none: they see every
// board.
func HomeBoard(role auth.Role) Board {
	switch role {
	case auth.RoleAdmin:
		return ""
	case auth.RoleDeveloper:
		return BoardDeveloper
	case auth.RoleMarketer:
		return BoardMarketing
	}
	return ""
}
