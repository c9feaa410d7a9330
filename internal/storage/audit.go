package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// AuditEntry is one recorded entity change, written by the audit worker from
// consumed change events.
type AuditEntry struct {
	EventID    string
	Entity     string
	Op         string
	EntityID   string
	Version    uint64
	OccurredAt time.Time
}

// AppendAudit records a change event. Re-delivered events (same event id) are
// ignored, which keeps the handler idempotent under AMQP redelivery.
func (r *SnapshotRepository) AppendAudit(ctx context.Context, e AuditEntry) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_id, entity, op, entity_id, version, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING`,
		e.EventID, e.Entity, e.Op, e.EntityID, int64(e.Version), e.OccurredAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		slog.DebugContext(ctx, "Duplicate change event ignored", "event_id", e.EventID)
	}
	return nil
}

// CountAudit returns the total number of recorded changes.
func (r *SnapshotRepository) CountAudit(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return n, nil
}

// RecentAudit returns the most recent entries, newest first.
func (r *SnapshotRepository) RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_id, entity, op, entity_id, version, occurred_at
		FROM audit_log ORDER BY id DESC LIMIT ?`, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var version int64
		var occurredAt string
		if err := rows.Scan(&e.EventID, &e.Entity, &e.Op, &e.EntityID, &version, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Version = uint64(version)
		if t, err := time.Parse(time.RFC3339, occurredAt); err == nil {
			e.OccurredAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
