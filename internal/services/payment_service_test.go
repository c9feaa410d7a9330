package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"rette/internal/amqp"
	"rette/internal/core"
	"rette/internal/storage"
	"rette/internal/store"
)

// fakePersister records every saved collection as marshaled JSON, in order.
type fakePersister struct {
	saves  []savedCollection
	failOn string
	closed bool
}

type savedCollection struct {
	key  string
	json string
}

func (f *fakePersister) SaveCollection(_ context.Context, key string, records any) error {
	if f.failOn == key {
		return errors.New("disk full")
	}
	b, err := json.Marshal(records)
	if err != nil {
		return err
	}
	f.saves = append(f.saves, savedCollection{key: key, json: string(b)})
	return nil
}

func (f *fakePersister) Close() error {
	f.closed = true
	return nil
}

type fakePublisher struct {
	events []*amqp.ChangeEvent
	err    error
}

func (f *fakePublisher) PublishChange(_ context.Context, e *amqp.ChangeEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func newService(t *testing.T) (*PaymentService, *fakePersister, *fakePublisher) {
	t.Helper()
	persister := &fakePersister{}
	publisher := &fakePublisher{}
	return NewPaymentService(store.New(), persister, publisher), persister, publisher
}

func TestRecordPaymentPersistsAndPublishes(t *testing.T) {
	svc, persister, publisher := newService(t)
	ctx := context.Background()

	plan, err := svc.CreateStudyPlan(ctx, "Piano Base", core.Money{Cents: 25000})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	student, err := svc.CreateStudent(ctx, "Martina", plan.ID)
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	payment, err := svc.RecordPayment(ctx, student.ID, core.NewDate(2025, 5, 10), 5, 2025, core.Money{Cents: 10000})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}

	wantKeys := []string{storage.KeyStudyPlans, storage.KeyStudents, storage.KeyPayments}
	if len(persister.saves) != len(wantKeys) {
		t.Fatalf("expected %d saves, got %d", len(wantKeys), len(persister.saves))
	}
	for i, key := range wantKeys {
		if persister.saves[i].key != key {
			t.Fatalf("save %d expected key %s, got %s", i, key, persister.saves[i].key)
		}
	}

	if len(publisher.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(publisher.events))
	}
	last := publisher.events[2]
	if last.Entity != amqp.EntityPayment || last.Op != amqp.OpCreated || last.EntityID != payment.ID {
		t.Fatalf("unexpected event %+v", last)
	}
}

func TestSaveReflectsStateAtMutation(t *testing.T) {
	svc, persister, _ := newService(t)
	ctx := context.Background()

	plan, _ := svc.CreateStudyPlan(ctx, "Piano Base", core.Money{Cents: 25000})
	student, _ := svc.CreateStudent(ctx, "Martina", plan.ID)

	first, _ := svc.RecordPayment(ctx, student.ID, core.NewDate(2025, 5, 10), 5, 2025, core.Money{Cents: 100})
	svc.RecordPayment(ctx, student.ID, core.NewDate(2025, 5, 20), 5, 2025, core.Money{Cents: 200})

	var paymentSaves []string
	for _, s := range persister.saves {
		if s.key == storage.KeyPayments {
			paymentSaves = append(paymentSaves, s.json)
		}
	}
	if len(paymentSaves) != 2 {
		t.Fatalf("expected 2 payment saves, got %d", len(paymentSaves))
	}

	var snap []core.Payment
	if err := json.Unmarshal([]byte(paymentSaves[0]), &snap); err != nil {
		t.Fatalf("unmarshal first save: %v", err)
	}
	if len(snap) != 1 || snap[0].ID != first.ID {
		t.Fatalf("first save must hold exactly the first payment, got %+v", snap)
	}
	if err := json.Unmarshal([]byte(paymentSaves[1]), &snap); err != nil {
		t.Fatalf("unmarshal second save: %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("second save must hold both payments, got %+v", snap)
	}
}

func TestDeleteStudentPersistsBothCollections(t *testing.T) {
	svc, persister, publisher := newService(t)
	ctx := context.Background()

	plan, _ := svc.CreateStudyPlan(ctx, "Piano Base", core.Money{Cents: 25000})
	student, _ := svc.CreateStudent(ctx, "Martina", plan.ID)
	svc.RecordPayment(ctx, student.ID, core.NewDate(2025, 5, 10), 5, 2025, core.Money{Cents: 100})
	svc.RecordPayment(ctx, student.ID, core.NewDate(2025, 5, 20), 5, 2025, core.Money{Cents: 200})

	persister.saves = nil
	publisher.events = nil

	removed, found := svc.DeleteStudent(ctx, student.ID)
	if !found || removed != 2 {
		t.Fatalf("expected 2 cascaded payments, got removed=%d found=%v", removed, found)
	}
	if len(persister.saves) != 2 ||
		persister.saves[0].key != storage.KeyStudents ||
		persister.saves[1].key != storage.KeyPayments {
		t.Fatalf("expected students then payments saves, got %+v", persister.saves)
	}
	if len(publisher.events) != 1 || publisher.events[0].Op != amqp.OpDeleted {
		t.Fatalf("expected one delete event, got %+v", publisher.events)
	}

	if _, found := svc.DeleteStudent(ctx, student.ID); found {
		t.Fatalf("second delete should report not found")
	}
}

func TestDegradedModeOnPersistFailure(t *testing.T) {
	svc, persister, _ := newService(t)
	persister.failOn = storage.KeyStudyPlans
	ctx := context.Background()

	plan, err := svc.CreateStudyPlan(ctx, "Piano Base", core.Money{Cents: 25000})
	if err != nil {
		t.Fatalf("persist failure must not fail the mutation: %v", err)
	}
	if _, ok := svc.Store().StudyPlanByID(plan.ID); !ok {
		t.Fatalf("plan must remain in memory after persist failure")
	}
}

func TestPublishFailureIsAbsorbed(t *testing.T) {
	persister := &fakePersister{}
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc := NewPaymentService(store.New(), persister, publisher)

	if _, err := svc.CreateStudyPlan(context.Background(), "Piano Base", core.Money{Cents: 25000}); err != nil {
		t.Fatalf("publish failure must not fail the mutation: %v", err)
	}
}

func TestCorrectPayment(t *testing.T) {
	svc, persister, _ := newService(t)
	ctx := context.Background()

	plan, _ := svc.CreateStudyPlan(ctx, "Piano Base", core.Money{Cents: 25000})
	student, _ := svc.CreateStudent(ctx, "Martina", plan.ID)
	payment, _ := svc.RecordPayment(ctx, student.ID, core.NewDate(2025, 5, 10), 5, 2025, core.Money{Cents: 100})

	persister.saves = nil
	updated, ok := svc.CorrectPayment(ctx, payment.ID, core.Money{Cents: 250})
	if !ok || updated.Amount.Cents != 250 {
		t.Fatalf("expected corrected amount, got %+v (ok=%v)", updated, ok)
	}
	if len(persister.saves) != 1 || persister.saves[0].key != storage.KeyPayments {
		t.Fatalf("expected one payments save, got %+v", persister.saves)
	}

	if _, ok := svc.CorrectPayment(ctx, "nobody", core.Money{Cents: 250}); ok {
		t.Fatalf("unknown id should report false")
	}
}

func TestCloseReleasesPersister(t *testing.T) {
	svc, persister, _ := newService(t)
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !persister.closed {
		t.Fatalf("persister should be closed")
	}
}
