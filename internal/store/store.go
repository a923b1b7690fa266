package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/briefdhq/briefd/models"
)

// Store archives normalized items and generated briefs in Postgres. The
// index remains the query surface for aggregation; this is durable history.
type Store struct {
	DB *sql.DB
}

// NewWithDSN opens a Postgres connection and verifies it.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

// SaveItems upserts normalized items keyed by id.
func (s *Store) SaveItems(ctx context.Context, items []*models.UnifiedDataItem) error {
	const q = `INSERT INTO items (id, source_type, source_id, indexed_at, payload)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, indexed_at = EXCLUDED.indexed_at`
	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal item %s: %w", item.ID, err)
		}
		if _, err := s.DB.ExecContext(ctx, q, item.ID, string(item.SourceType), item.SourceID, item.IndexedAt, payload); err != nil {
			return fmt.Errorf("save item %s: %w", item.ID, err)
		}
	}
	return nil
}

// SaveBrief archives one generated brief.
func (s *Store) SaveBrief(ctx context.Context, brief *models.GeneratedBrief) error {
	payload, err := json.Marshal(brief)
	if err != nil {
		return fmt.Errorf("marshal brief %s: %w", brief.ID, err)
	}
	const q = `INSERT INTO briefs (id, user_id, org_id, brief_type, content_hash, generated_at, payload)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := s.DB.ExecContext(ctx, q, brief.ID, brief.UserID, brief.OrgID, brief.BriefType, brief.ContentHash, brief.GeneratedAt, payload); err != nil {
		return fmt.Errorf("save brief %s: %w", brief.ID, err)
	}
	return nil
}

// GetBrief fetches an archived brief by id.
func (s *Store) GetBrief(ctx context.Context, id string) (*models.GeneratedBrief, error) {
	const q = `SELECT payload FROM briefs WHERE id=$1`
	var payload []byte
	if err := s.DB.QueryRowContext(ctx, q, id).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBriefNotFound
		}
		return nil, err
	}
	var brief models.GeneratedBrief
	if err := json.Unmarshal(payload, &brief); err != nil {
		return nil, fmt.Errorf("unmarshal brief %s: %w", id, err)
	}
	return &brief, nil
}

// LatestBriefTime returns the most recent generation time for a recipient
// and brief type, or nil if none exists. The scheduler uses this for
// cron due checks.
func (s *Store) LatestBriefTime(ctx context.Context, userID, briefType string) (*time.Time, error) {
	const q = `SELECT MAX(generated_at) FROM briefs WHERE user_id=$1 AND brief_type=$2`
	var t sql.NullTime
	if err := s.DB.QueryRowContext(ctx, q, userID, briefType).Scan(&t); err != nil {
		return nil, err
	}
	if !t.Valid {
		return nil, nil
	}
	return &t.Time, nil
}

// ListBriefs returns recent briefs for a recipient, newest first.
func (s *Store) ListBriefs(ctx context.Context, userID string, limit int) ([]*models.GeneratedBrief, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `SELECT payload FROM briefs WHERE user_id=$1 ORDER BY generated_at DESC LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.GeneratedBrief
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var brief models.GeneratedBrief
		if err := json.Unmarshal(payload, &brief); err != nil {
			return nil, err
		}
		out = append(out, &brief)
	}
	return out, rows.Err()
}
