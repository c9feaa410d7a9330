// Package worker records consumed entity change events into the audit log.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rette/internal/amqp"
	applog "rette/internal/log"
	"rette/internal/storage"
)

// AuditStore is the slice of the repository the worker writes to.
type AuditStore interface {
	AppendAudit(ctx context.Context, e storage.AuditEntry) error
	CountAudit(ctx context.Context) (int64, error)
}

// AuditWorker turns change events into audit log rows. Appends are keyed by
// event id, so AMQP redeliveries are harmless.
type AuditWorker struct {
	store  AuditStore
	logger *slog.Logger
}

func NewAuditWorker(store AuditStore) *AuditWorker {
	return &AuditWorker{
		store:  store,
		logger: applog.ForComponent(slog.Default(), applog.ComponentWorker),
	}
}

// HandleChangeEvent processes a single change event from AMQP.
func (w *AuditWorker) HandleChangeEvent(ctx context.Context, event *amqp.ChangeEvent) error {
	w.logger.InfoContext(ctx, "Processing change event",
		applog.FieldEventID, event.EventID,
		"entity", event.Entity,
		"op", event.Op,
		"entity_id", event.EntityID,
		applog.FieldStoreVersion, event.Version)

	entry := storage.AuditEntry{
		EventID:    event.EventID,
		Entity:     event.Entity,
		Op:         event.Op,
		EntityID:   event.EntityID,
		Version:    event.Version,
		OccurredAt: event.Timestamp,
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	if err := w.store.AppendAudit(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// LogAuditStats logs the current audit log size. Called periodically by the
// worker binary as a liveness signal.
func (w *AuditWorker) LogAuditStats(ctx context.Context) error {
	count, err := w.store.CountAudit(ctx)
	if err != nil {
		return fmt.Errorf("count audit entries: %w", err)
	}
	w.logger.InfoContext(ctx, "Audit log status", "entries", count)
	return nil
}
