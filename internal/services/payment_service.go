// Package services orchestrates the entity store, snapshot persistence, and
// change-event publishing.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"rette/internal/amqp"
	"rette/internal/core"
	applog "rette/internal/log"
	"rette/internal/storage"
	"rette/internal/store"
)

// Persister saves one collection as a whole-value snapshot. Implemented by
// the SQLite repository and by the memory backend's no-op persister.
type Persister interface {
	SaveCollection(ctx context.Context, key string, records any) error
	Close() error
}

// EventPublisher publishes entity change events. May be absent.
type EventPublisher interface {
	PublishChange(ctx context.Context, event *amqp.ChangeEvent) error
}

// PaymentService applies mutations to the store and persists the affected
// collections immediately afterwards, under one mutex, so every saved
// snapshot reflects the collections at the moment of the triggering mutation.
// Persistence and publish failures are logged and absorbed: the in-memory
// state remains authoritative and the system degrades to session-only
// operation (nothing here ever fails the caller after the store applied the
// mutation).
type PaymentService struct {
	mu        sync.Mutex
	store     *store.Store
	persister Persister
	publisher EventPublisher
	logger    *slog.Logger
}

func NewPaymentService(st *store.Store, persister Persister, publisher EventPublisher) *PaymentService {
	return &PaymentService{
		store:     st,
		persister: persister,
		publisher: publisher,
		logger:    applog.ForComponent(slog.Default(), applog.ComponentPayment),
	}
}

// Store exposes the underlying store for read-only derivation.
func (s *PaymentService) Store() *store.Store {
	return s.store
}

// CreateStudyPlan validates and stores a new plan, then persists the plan
// collection.
func (s *PaymentService) CreateStudyPlan(ctx context.Context, name string, value core.Money) (core.StudyPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.store.AddStudyPlan(name, value)
	if err != nil {
		return core.StudyPlan{}, fmt.Errorf("add study plan: %w", err)
	}
	s.persist(ctx, storage.KeyStudyPlans, s.store.StudyPlans())
	s.publish(ctx, amqp.EntityStudyPlan, amqp.OpCreated, plan.ID)

	s.logger.InfoContext(ctx, "Study plan created",
		applog.FieldStudyPlanID, plan.ID, "name", plan.Name, applog.FieldAmountCents, plan.Value.Cents)
	return plan, nil
}

// CreateStudent stores a new student, then persists the student collection.
func (s *PaymentService) CreateStudent(ctx context.Context, name, studyPlanID string) (core.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	student, err := s.store.AddStudent(name, studyPlanID)
	if err != nil {
		return core.Student{}, fmt.Errorf("add student: %w", err)
	}
	s.persist(ctx, storage.KeyStudents, s.store.Students())
	s.publish(ctx, amqp.EntityStudent, amqp.OpCreated, student.ID)

	s.logger.InfoContext(ctx, "Student created",
		applog.FieldStudentID, student.ID, "name", student.Name, applog.FieldStudyPlanID, student.StudyPlanID)
	return student, nil
}

// RecordPayment stores a payment for the given billing period, then persists
// the payment collection.
func (s *PaymentService) RecordPayment(ctx context.Context, studentID string, date core.Date, month, year int, amount core.Money) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, err := s.store.AddPayment(studentID, date, month, year, amount)
	if err != nil {
		return core.Payment{}, fmt.Errorf("add payment: %w", err)
	}
	s.persist(ctx, storage.KeyPayments, s.store.Payments())
	s.publish(ctx, amqp.EntityPayment, amqp.OpCreated, payment.ID)

	s.logger.InfoContext(ctx, "Payment recorded",
		applog.PaymentAttrs(payment.ID, payment.StudentID, payment.Month, payment.Year, payment.Amount.Cents)...)
	return payment, nil
}

// DeleteStudent removes the student and cascades to its payments; both
// affected collections are persisted. Reports false for unknown ids.
func (s *PaymentService) DeleteStudent(ctx context.Context, studentID string) (removedPayments int, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removedPayments, found = s.store.RemoveStudent(studentID)
	if !found {
		return 0, false
	}
	s.persist(ctx, storage.KeyStudents, s.store.Students())
	s.persist(ctx, storage.KeyPayments, s.store.Payments())
	s.publish(ctx, amqp.EntityStudent, amqp.OpDeleted, studentID)

	s.logger.InfoContext(ctx, "Student deleted",
		applog.FieldStudentID, studentID, "cascaded_payments", removedPayments)
	return removedPayments, true
}

// DeletePayment removes one payment. Reports false for unknown ids.
func (s *PaymentService) DeletePayment(ctx context.Context, paymentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.RemovePayment(paymentID) {
		return false
	}
	s.persist(ctx, storage.KeyPayments, s.store.Payments())
	s.publish(ctx, amqp.EntityPayment, amqp.OpDeleted, paymentID)

	s.logger.InfoContext(ctx, "Payment deleted", applog.FieldPaymentID, paymentID)
	return true
}

// CorrectPayment replaces a payment's amount, the only field edit in the
// model. Reports false for unknown ids or non-positive amounts.
func (s *PaymentService) CorrectPayment(ctx context.Context, paymentID string, amount core.Money) (core.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, ok := s.store.UpdatePaymentAmount(paymentID, amount)
	if !ok {
		return core.Payment{}, false
	}
	s.persist(ctx, storage.KeyPayments, s.store.Payments())
	s.publish(ctx, amqp.EntityPayment, amqp.OpCorrected, paymentID)

	s.logger.InfoContext(ctx, "Payment corrected",
		applog.FieldPaymentID, paymentID, applog.FieldAmountCents, amount.Cents)
	return payment, true
}

func (s *PaymentService) persist(ctx context.Context, key string, records any) {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveCollection(ctx, key, records); err != nil {
		s.logger.ErrorContext(ctx, "Snapshot save failed, continuing in memory",
			applog.FieldKey, key, applog.FieldError, err)
	}
}

func (s *PaymentService) publish(ctx context.Context, entity, op, entityID string) {
	if s.publisher == nil {
		return
	}
	event := amqp.NewChangeEvent(entity, op, entityID, s.store.Version())
	if err := s.publisher.PublishChange(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Change event publish failed",
			"entity", entity, "op", op, "entity_id", entityID, applog.FieldError, err)
	}
}

// Close releases the persister.
func (s *PaymentService) Close() error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Close(); err != nil {
		return fmt.Errorf("close persister: %w", err)
	}
	return nil
}
