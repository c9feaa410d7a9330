package store

import (
	"strings"
	"testing"

	"rette/internal/core"
)

func seeded(t *testing.T) (*Store, core.Student, core.Student) {
	t.Helper()
	s := New()
	plan, err := s.AddStudyPlan("Piano Intermedio", core.Money{Cents: 32000})
	if err != nil {
		t.Fatalf("add plan: %v", err)
	}
	a, err := s.AddStudent("Martina", plan.ID)
	if err != nil {
		t.Fatalf("add student: %v", err)
	}
	b, err := s.AddStudent("Luca", plan.ID)
	if err != nil {
		t.Fatalf("add student: %v", err)
	}
	return s, a, b
}

func addPayment(t *testing.T, s *Store, studentID string, month int, cents int64) core.Payment {
	t.Helper()
	p, err := s.AddPayment(studentID, core.NewDate(2025, month, 10), month, 2025, core.Money{Cents: cents})
	if err != nil {
		t.Fatalf("add payment: %v", err)
	}
	return p
}

func TestIDGeneration(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := newID("payment")
		if !strings.HasPrefix(id, "payment") {
			t.Fatalf("expected payment prefix, got %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestAddValidation(t *testing.T) {
	s := New()
	if _, err := s.AddStudyPlan("", core.Money{Cents: 100}); err == nil {
		t.Fatalf("empty plan name expected error")
	}
	if _, err := s.AddStudyPlan("Piano", core.Money{Cents: 0}); err == nil {
		t.Fatalf("zero value expected error")
	}
	if _, err := s.AddStudent("", "plan1"); err == nil {
		t.Fatalf("empty student name expected error")
	}
	if _, err := s.AddPayment("s", core.NewDate(2025, 1, 1), 13, 2025, core.Money{Cents: 100}); err == nil {
		t.Fatalf("month 13 expected error")
	}
	if s.Version() != 0 {
		t.Fatalf("rejected mutations must not bump the version")
	}
}

func TestDanglingReferencesTolerated(t *testing.T) {
	s := New()
	if _, err := s.AddStudent("Martina", "no-such-plan"); err != nil {
		t.Fatalf("dangling plan reference should be accepted: %v", err)
	}
	if _, err := s.AddPayment("no-such-student", core.NewDate(2025, 1, 1), 1, 2025, core.Money{Cents: 100}); err != nil {
		t.Fatalf("dangling student reference should be accepted: %v", err)
	}
}

func TestRemoveStudentCascades(t *testing.T) {
	s, a, b := seeded(t)
	addPayment(t, s, a.ID, 5, 30000)
	addPayment(t, s, a.ID, 5, 20000)
	addPayment(t, s, b.ID, 5, 5000)
	addPayment(t, s, b.ID, 4, 5000)
	addPayment(t, s, b.ID, 3, 5000)

	removed, found := s.RemoveStudent(b.ID)
	if !found {
		t.Fatalf("student should exist")
	}
	if removed != 3 {
		t.Fatalf("expected 3 cascaded payments, got %d", removed)
	}
	left := s.Payments()
	if len(left) != 2 {
		t.Fatalf("expected 2 payments left, got %d", len(left))
	}
	for _, p := range left {
		if p.StudentID != a.ID {
			t.Fatalf("payment %s should belong to the surviving student", p.ID)
		}
	}
	if _, ok := s.StudentByID(b.ID); ok {
		t.Fatalf("removed student still present")
	}
}

func TestRemoveStudentUnknownIsNoOp(t *testing.T) {
	s, a, _ := seeded(t)
	addPayment(t, s, a.ID, 5, 100)
	before := s.Version()

	removed, found := s.RemoveStudent("nobody")
	if found || removed != 0 {
		t.Fatalf("expected no-op, got removed=%d found=%v", removed, found)
	}
	if len(s.Payments()) != 1 || len(s.Students()) != 2 {
		t.Fatalf("collections must be untouched")
	}
	if s.Version() != before {
		t.Fatalf("no-op must not bump the version")
	}
}

func TestRemovePayment(t *testing.T) {
	s, a, _ := seeded(t)
	p := addPayment(t, s, a.ID, 5, 100)
	addPayment(t, s, a.ID, 5, 200)

	if !s.RemovePayment(p.ID) {
		t.Fatalf("existing payment should be removed")
	}
	if len(s.Payments()) != 1 {
		t.Fatalf("expected size to shrink by exactly 1")
	}
	if s.RemovePayment(p.ID) {
		t.Fatalf("second removal should report false")
	}
	if len(s.Payments()) != 1 {
		t.Fatalf("failed removal must not change the size")
	}
}

func TestUpdatePaymentAmount(t *testing.T) {
	s, a, _ := seeded(t)
	p := addPayment(t, s, a.ID, 5, 30000)

	updated, ok := s.UpdatePaymentAmount(p.ID, core.Money{Cents: 25000})
	if !ok {
		t.Fatalf("expected update to apply")
	}
	if updated.Amount.Cents != 25000 {
		t.Fatalf("expected new amount, got %d", updated.Amount.Cents)
	}
	if updated.ID != p.ID || updated.StudentID != p.StudentID || updated.Month != p.Month ||
		updated.Year != p.Year || !updated.Date.Equal(p.Date.Time) {
		t.Fatalf("only the amount may change: %+v vs %+v", updated, p)
	}

	if _, ok := s.UpdatePaymentAmount("nobody", core.Money{Cents: 100}); ok {
		t.Fatalf("unknown id should report false")
	}
	if _, ok := s.UpdatePaymentAmount(p.ID, core.Money{Cents: 0}); ok {
		t.Fatalf("non-positive amount should be rejected")
	}
	if got, _ := s.PaymentByID(p.ID); got.Amount.Cents != 25000 {
		t.Fatalf("rejected update must leave the amount alone, got %d", got.Amount.Cents)
	}
}

func TestVersionMonotonic(t *testing.T) {
	s, a, _ := seeded(t)
	v := s.Version()
	addPayment(t, s, a.ID, 5, 100)
	if s.Version() <= v {
		t.Fatalf("mutation must bump the version")
	}
	v = s.Version()
	s.RemoveStudent(a.ID)
	if s.Version() <= v {
		t.Fatalf("remove must bump the version")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s, a, _ := seeded(t)
	addPayment(t, s, a.ID, 5, 100)

	snap := s.Snapshot()
	snap.Payments[0].Amount = core.Money{Cents: 999999}
	snap.Students[0].Name = "changed"

	if got := s.Payments()[0].Amount.Cents; got != 100 {
		t.Fatalf("snapshot mutation leaked into the store: %d", got)
	}
	if got := s.Students()[0].Name; got == "changed" {
		t.Fatalf("snapshot mutation leaked into the store")
	}
}

func TestDerivationDelegates(t *testing.T) {
	s, a, _ := seeded(t)
	addPayment(t, s, a.ID, 5, 30000)
	addPayment(t, s, a.ID, 5, 20000)

	if got := s.TotalPaid(a.ID, 5, 2025); got.Cents != 50000 {
		t.Fatalf("expected 50000, got %d", got.Cents)
	}
	if got := s.Remaining(a.ID, 5, 2025); got.Cents != 0 {
		t.Fatalf("expected clamp at 0, got %d", got.Cents)
	}
	sum := s.Summary(a.ID, 5, 2025)
	if sum.TotalPaid.Cents != 50000 || sum.Remaining.Cents != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if got := s.FilteredPayments(a.ID, 5, 2025); len(got) != 2 {
		t.Fatalf("expected 2 filtered payments, got %d", len(got))
	}
	if plan, ok := s.StudentPlan(a.ID); !ok || plan.Name != "Piano Intermedio" {
		t.Fatalf("unexpected plan %+v (ok=%v)", plan, ok)
	}
}
