package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SnapshotRecord is a persisted dashboard snapshot; Payload is its JSON encoding.
type SnapshotRecord struct {
	ID          uuid.UUID
	GeneratedAt time.Time
	Version     string
	UserGroup   string
	Payload     json.RawMessage
}

// SnapshotMeta describes a snapshot without its payload.
type SnapshotMeta struct {
	ID          uuid.UUID `json:"id"`
	GeneratedAt time.Time `json:"generatedAt"`
	Version     string    `json:"version"`
	UserGroup   string    `json:"userGroup"`
	SizeBytes   int64     `json:"sizeBytes"`
}

// SaveSnapshot inserts rec; saving the same ID twice is a no-op.
func (s *Store) SaveSnapshot(ctx context.Context, rec SnapshotRecord) error {
	query := `
		INSERT INTO dashboard_snapshots (id, generated_at, app_version, user_group, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, query, rec.ID, rec.GeneratedAt, rec.Version, rec.UserGroup, []byte(rec.Payload)); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recently generated snapshot.
func (s *Store) LatestSnapshot(ctx context.Context) (SnapshotRecord, error) {
	query := `
		SELECT id, generated_at, app_version, user_group, payload
		FROM dashboard_snapshots
		ORDER BY generated_at DESC
		LIMIT 1
	`
	var (
		rec     SnapshotRecord
		payload []byte
	)
	err := s.pool.QueryRow(ctx, query).Scan(&rec.ID, &rec.GeneratedAt, &rec.Version, &rec.UserGroup, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return SnapshotRecord{}, ErrNotFound
	}
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("query latest snapshot: %w", err)
	}
	rec.Payload = payload
	return rec, nil
}

// ListSnapshots returns up to limit snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]SnapshotMeta, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, generated_at, app_version, user_group, octet_length(payload::text)
		FROM dashboard_snapshots
		ORDER BY generated_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	out := []SnapshotMeta{}
	for rows.Next() {
		var m SnapshotMeta
		if err := rows.Scan(&m.ID, &m.GeneratedAt, &m.Version, &m.UserGroup, &m.SizeBytes); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// PruneSnapshots keeps the newest keep snapshots and returns how many were deleted.
func (s *Store) PruneSnapshots(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	query := `
		DELETE FROM dashboard_snapshots
		WHERE id NOT IN (
			SELECT id FROM dashboard_snapshots
			ORDER BY generated_at DESC
			LIMIT $1
		)
	`
	ct, err := s.pool.Exec(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return ct.RowsAffected(), nil
}
