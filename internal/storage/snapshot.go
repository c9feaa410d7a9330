// Package storage persists the entity collections as a flat key-value
// snapshot in a local SQLite database, and keeps the audit log written by the
// worker. Persistence failures degrade to in-memory operation; they are
// logged, never surfaced.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"rette/internal/core"

	_ "modernc.org/sqlite"
)

// Snapshot keys, one independently overwritten JSON array per collection.
const (
	KeyStudyPlans = "payment_system_study_plans"
	KeyStudents   = "payment_system_students"
	KeyPayments   = "payment_system_payments"
)

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(dbPath string) (*SnapshotRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SnapshotRepository{db: db}, nil
}

func (r *SnapshotRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveCollection overwrites the whole value under key with the marshaled
// records. Saves are whole-value, never incremental patches.
func (r *SnapshotRepository) SaveCollection(ctx context.Context, key string, records any) error {
	value, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal collection %s: %w", key, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("save collection %s: %w", key, err)
	}

	slog.DebugContext(ctx, "Collection snapshot saved", "key", key, "bytes", len(value))
	return nil
}

// SaveAll overwrites all three collection values.
func (r *SnapshotRepository) SaveAll(ctx context.Context, c core.Collections) error {
	if err := r.SaveCollection(ctx, KeyStudyPlans, c.StudyPlans); err != nil {
		return err
	}
	if err := r.SaveCollection(ctx, KeyStudents, c.Students); err != nil {
		return err
	}
	return r.SaveCollection(ctx, KeyPayments, c.Payments)
}

// Load reads all three collections. A missing key or a value that fails to
// parse falls back to that key's seed slice with a warning; Load never fails.
func (r *SnapshotRepository) Load(ctx context.Context, seed core.Collections) core.Collections {
	out := core.Collections{
		StudyPlans: seed.StudyPlans,
		Students:   seed.Students,
		Payments:   seed.Payments,
	}

	if plans, ok := loadKey[core.StudyPlan](ctx, r.db, KeyStudyPlans); ok {
		out.StudyPlans = plans
	}
	if students, ok := loadKey[core.Student](ctx, r.db, KeyStudents); ok {
		out.Students = students
	}
	if payments, ok := loadKey[core.Payment](ctx, r.db, KeyPayments); ok {
		out.Payments = payments
	}
	return out
}

func loadKey[T any](ctx context.Context, db *sql.DB, key string) ([]T, bool) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM snapshots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		slog.InfoContext(ctx, "No snapshot for key, using seed data", "key", key)
		return nil, false
	}
	if err != nil {
		slog.WarnContext(ctx, "Snapshot read failed, using seed data", "key", key, "error", err)
		return nil, false
	}

	var records []T
	if err := json.Unmarshal([]byte(value), &records); err != nil {
		slog.WarnContext(ctx, "Snapshot value is malformed, using seed data", "key", key, "error", err)
		return nil, false
	}
	return records, true
}
