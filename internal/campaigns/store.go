package campaigns

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"agency-dashboard-backend/internal/db"
)

type Store interface {
	// List returns every campaign, newest first.
	List(ctx context.Context) ([]Summary, error)
	ByID(ctx context.Context, id string) (Campaign, error)
	Create(ctx context.Context, c Campaign) error
	SetLeads(ctx context.Context, id string, leads []map[string]string) (Campaign, error)
	SetAssignee(ctx context.Context, id, assignedToID string) (Campaign, error)
	Delete(ctx context.Context, id string) error
}

// PGStore keeps campaigns in Postgres with headers as TEXT[] and leads as
// JSONB.
type PGStore struct {
	DB *sql.DB
}

const campaignColumns = `id, name, headers, leads, COALESCE(uploaded_by_role,''), COALESCE(uploader_id,''), COALESCE(assigned_to_id,''), created_at`

func scanCampaign(row interface{ Scan(...any) error }) (Campaign, error) {
	var (
		c     Campaign
		leads []byte
	)
	err := row.Scan(&c.ID, &c.Name, pq.Array(&c.Headers), &leads, &c.UploadedByRole, &c.UploaderID, &c.AssignedToID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	if err != nil {
		return Campaign{}, err
	}
	if err := json.Unmarshal(leads, &c.Leads); err != nil {
		return Campaign{}, fmt.Errorf("decode leads of %s: %w", c.ID, err)
	}
	if c.Headers == nil {
		c.Headers = []string{}
	}
	if c.Leads == nil {
		c.Leads = []map[string]string{}
	}
	return c, nil
}

func (s *PGStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, jsonb_array_length(leads), COALESCE(uploaded_by_role,''), COALESCE(uploader_id,''), COALESCE(assigned_to_id,''), created_at
		FROM campaigns
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var c Summary
		if err := rows.Scan(&c.ID, &c.Name, &c.LeadCount, &c.UploadedByRole, &c.UploaderID, &c.AssignedToID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PGStore) ByID(ctx context.Context, id string) (Campaign, error) {
	c, err := scanCampaign(s.DB.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id=$1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Campaign{}, fmt.Errorf("select campaign %s: %w", id, err)
	}
	return c, err
}

func (s *PGStore) Create(ctx context.Context, c Campaign) error {
	leads, err := json.Marshal(c.Leads)
	if err != nil {
		return fmt.Errorf("encode leads: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, headers, leads, uploaded_by_role, uploader_id, assigned_to_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.Name, pq.Array(c.Headers), string(leads),
		db.NullIfEmpty(string(c.UploadedByRole)), db.NullIfEmpty(c.UploaderID), db.NullIfEmpty(c.AssignedToID), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (s *PGStore) SetLeads(ctx context.Context, id string, leads []map[string]string) (Campaign, error) {
	b, err := json.Marshal(leads)
	if err != nil {
		return Campaign{}, fmt.Errorf("encode leads: %w", err)
	}
	c, err := scanCampaign(s.DB.QueryRowContext(ctx, `
		UPDATE campaigns SET leads=$2 WHERE id=$1
		RETURNING `+campaignColumns, id, string(b)))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Campaign{}, fmt.Errorf("update campaign leads %s: %w", id, err)
	}
	return c, err
}

func (s *PGStore) SetAssignee(ctx context.Context, id, assignedToID string) (Campaign, error) {
	c, err := scanCampaign(s.DB.QueryRowContext(ctx, `
		UPDATE campaigns SET assigned_to_id=$2 WHERE id=$1
		RETURNING `+campaignColumns, id, db.NullIfEmpty(assignedToID)))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Campaign{}, fmt.Errorf("update campaign assignee %s: %w", id, err)
	}
	return c, err
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign %s: %w", id, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
