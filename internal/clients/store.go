package clients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

type Store interface {
	// List returns clients whose name, contact or email contains q, newest
	// first. An empty q matches all.
	List(ctx context.Context, q string) ([]Client, error)
	Create(ctx context.Context, c Client) error
	Update(ctx context.Context, c Client) (Client, error)
	Delete(ctx context.Context, id string) error
}

type PGStore struct {
	DB *sql.DB
}

const clientColumns = `id, name, contact_person, email, phone, projects, created_at`

func scanClient(row interface{ Scan(...any) error }) (Client, error) {
	var (
		c        Client
		projects []string
	)
	err := row.Scan(&c.ID, &c.Name, &c.ContactPerson, &c.Email, &c.Phone, pq.Array(&projects), &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Client{}, ErrNotFound
	}
	c.Projects = cleanProjects(projects)
	return c, err
}

func (s *PGStore) List(ctx context.Context, q string) ([]Client, error) {
	pattern := ""
	if q = strings.TrimSpace(q); q != "" {
		pattern = "%" + strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q) + "%"
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE $1 = '' OR name ILIKE $1 OR contact_person ILIKE $1 OR email ILIKE $1
		ORDER BY created_at DESC, id
	`, pattern)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PGStore) Create(ctx context.Context, c Client) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO clients (id, name, contact_person, email, phone, projects, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Name, c.ContactPerson, c.Email, c.Phone, pq.Array([]string(c.Projects)), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (s *PGStore) Update(ctx context.Context, c Client) (Client, error) {
	out, err := scanClient(s.DB.QueryRowContext(ctx, `
		UPDATE clients
		SET name=$2, contact_person=$3, email=$4, phone=$5, projects=$6
		WHERE id=$1
		RETURNING `+clientColumns,
		c.ID, c.Name, c.ContactPerson, c.Email, c.Phone, pq.Array([]string(c.Projects))))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Client{}, fmt.Errorf("update client %s: %w", c.ID, err)
	}
	return out, err
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM clients WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
