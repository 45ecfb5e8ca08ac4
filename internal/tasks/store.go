package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"agency-dashboard-backend/internal/db"
)

type Store interface {
	// List returns matching tasks, newest first.
	List(ctx context.Context, f Filter) ([]Task, error)
	ByID(ctx context.Context, id string) (Task, error)
	Create(ctx context.Context, t Task) (Task, error)
	// CreateMany inserts all tasks or none.
	CreateMany(ctx context.Context, ts []Task) error
	Update(ctx context.Context, t Task) (Task, error)
	SetStatus(ctx context.Context, id string, status Status) (Task, error)
	Delete(ctx context.Context, id string) error
}

// PGStore is the Postgres-backed Store.
type PGStore struct {
	DB *sql.DB
}

const taskColumns = `id, board, title, description, COALESCE(assigned_to_id,''), status, kind, deadline, importance, created_at`

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Board, &t.Title, &t.Description, &t.AssignedToID, &t.Status, &t.Kind, &t.Deadline, &t.Importance, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return t, err
}

// likePattern escapes q for use inside an ILIKE '%q%' pattern.
func likePattern(q string) string {
	if q == "" {
		return ""
	}
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

func (s *PGStore) List(ctx context.Context, f Filter) ([]Task, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE ($1 = '' OR board = $1)
		  AND ($2 = '' OR title ILIKE $2 OR description ILIKE $2)
		  AND ($3 = '' OR status = $3)
		  AND ($4 = '' OR importance = $4)
		ORDER BY created_at DESC, id
	`, string(f.Board), likePattern(strings.TrimSpace(f.Query)), string(f.Status), string(f.Importance))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PGStore) ByID(ctx context.Context, id string) (Task, error) {
	t, err := scanTask(s.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=$1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Task{}, fmt.Errorf("select task %s: %w", id, err)
	}
	return t, err
}

const insertTask = `
	INSERT INTO tasks (id, board, title, description, assigned_to_id, status, kind, deadline, importance, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING ` + taskColumns

func insertArgs(t Task) []any {
	return []any{t.ID, t.Board, t.Title, t.Description, db.NullIfEmpty(t.AssignedToID), t.Status, t.Kind, t.Deadline, t.Importance, t.CreatedAt}
}

func (s *PGStore) Create(ctx context.Context, t Task) (Task, error) {
	out, err := scanTask(s.DB.QueryRowContext(ctx, insertTask, insertArgs(t)...))
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return out, nil
}

func (s *PGStore) CreateMany(ctx context.Context, ts []Task) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, t := range ts {
		if _, err := tx.ExecContext(ctx, insertTask, insertArgs(t)...); err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

func (s *PGStore) Update(ctx context.Context, t Task) (Task, error) {
	out, err := scanTask(s.DB.QueryRowContext(ctx, `
		UPDATE tasks
		SET board=$2, title=$3, description=$4, assigned_to_id=$5, status=$6, kind=$7, deadline=$8, importance=$9
		WHERE id=$1
		RETURNING `+taskColumns,
		t.ID, t.Board, t.Title, t.Description, db.NullIfEmpty(t.AssignedToID), t.Status, t.Kind, t.Deadline, t.Importance))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Task{}, fmt.Errorf("update task %s: %w", t.ID, err)
	}
	return out, err
}

func (s *PGStore) SetStatus(ctx context.Context, id string, status Status) (Task, error) {
	out, err := scanTask(s.DB.QueryRowContext(ctx, `
		UPDATE tasks SET status=$2 WHERE id=$1
		RETURNING `+taskColumns, id, status))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Task{}, fmt.Errorf("update task status %s: %w", id, err)
	}
	return out, err
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
