package session

import (
	"context"
	"errors"
	"testing"

	"rette/internal/core"
	"rette/internal/store"
)

type fakeRecorder struct {
	calls []recordedCall
	err   error
}

type recordedCall struct {
	studentID string
	month     int
	year      int
	amount    core.Money
}

func (f *fakeRecorder) RecordPayment(_ context.Context, studentID string, date core.Date, month, year int, amount core.Money) (core.Payment, error) {
	if f.err != nil {
		return core.Payment{}, f.err
	}
	f.calls = append(f.calls, recordedCall{studentID: studentID, month: month, year: year, amount: amount})
	return core.Payment{ID: "pay_test", StudentID: studentID, Date: date, Month: month, Year: year, Amount: amount}, nil
}

func fixtureStore() *store.Store {
	return store.NewFromCollections(core.Collections{
		StudyPlans: []core.StudyPlan{
			{ID: "plan1", Name: "Piano Intermedio", Value: core.Money{Cents: 32000}},
		},
		Students: []core.Student{
			{ID: "s1", Name: "Martina", StudyPlanID: "plan1"},
		},
		Payments: []core.Payment{
			{ID: "p1", StudentID: "s1", Date: core.NewDate(2025, 5, 10), Month: 5, Year: 2025, Amount: core.Money{Cents: 30000}},
		},
	})
}

func TestSelectPeriodValidatesRange(t *testing.T) {
	s := New(fixtureStore(), &fakeRecorder{})

	if err := s.SelectPeriod(5, 2025); err != nil {
		t.Fatalf("valid period: %v", err)
	}
	if got := s.Period(); got.Month != 5 || got.Year != 2025 {
		t.Fatalf("unexpected period %+v", got)
	}

	for _, bad := range []core.Period{{Month: 0, Year: 2025}, {Month: 13, Year: 2025}, {Month: 5, Year: 0}} {
		if err := s.SelectPeriod(bad.Month, bad.Year); err == nil {
			t.Fatalf("expected error for %+v", bad)
		}
	}
	// Rejected input leaves the previous period in place.
	if got := s.Period(); got.Month != 5 || got.Year != 2025 {
		t.Fatalf("period changed by rejected input: %+v", got)
	}
}

func TestSetPendingAmountCoercion(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"150", 15000},
		{"150.50", 15050},
		{"150,50", 15050},
		{"abc", 0},
		{"", 0},
		{"-10", 0},
		{"0", 0},
	}

	s := New(fixtureStore(), &fakeRecorder{})
	for _, tt := range tests {
		s.SetPendingAmount(tt.input)
		if got := s.PendingAmount().Cents; got != tt.want {
			t.Errorf("SetPendingAmount(%q) = %d cents, want %d", tt.input, got, tt.want)
		}
	}
}

func TestSelectStudentKeepsPendingAmount(t *testing.T) {
	s := New(fixtureStore(), &fakeRecorder{})
	s.SetPendingAmount("150")
	s.SelectStudent("s1")
	s.SelectStudent("")

	if got := s.PendingAmount().Cents; got != 15000 {
		t.Fatalf("pending amount lost on selection change: %d", got)
	}
}

func TestCommitPaymentGating(t *testing.T) {
	recorder := &fakeRecorder{}
	s := New(fixtureStore(), recorder)
	ctx := context.Background()

	// No student selected.
	s.SetPendingAmount("150")
	if _, ok := s.CommitPayment(ctx); ok {
		t.Fatalf("commit without selection must be a no-op")
	}

	// Selected but zero pending.
	s.SelectStudent("s1")
	s.SetPendingAmount("abc")
	if _, ok := s.CommitPayment(ctx); ok {
		t.Fatalf("commit with zero pending must be a no-op")
	}
	if len(recorder.calls) != 0 {
		t.Fatalf("recorder called despite gating: %+v", recorder.calls)
	}
}

func TestCommitPaymentRecordsAndResets(t *testing.T) {
	recorder := &fakeRecorder{}
	s := New(fixtureStore(), recorder)
	ctx := context.Background()

	s.SelectStudent("s1")
	if err := s.SelectPeriod(6, 2025); err != nil {
		t.Fatalf("select period: %v", err)
	}
	s.SetPendingAmount("150.50")

	payment, ok := s.CommitPayment(ctx)
	if !ok {
		t.Fatalf("commit should succeed")
	}
	if payment.StudentID != "s1" || payment.Month != 6 || payment.Year != 2025 || payment.Amount.Cents != 15050 {
		t.Fatalf("unexpected payment %+v", payment)
	}
	if len(recorder.calls) != 1 {
		t.Fatalf("expected one recorded call, got %d", len(recorder.calls))
	}
	if got := s.PendingAmount().Cents; got != 0 {
		t.Fatalf("pending amount not reset: %d", got)
	}

	// Nothing pending anymore, so a second commit is a no-op.
	if _, ok := s.CommitPayment(ctx); ok {
		t.Fatalf("second commit must be a no-op")
	}
}

func TestCommitPaymentKeepsPendingOnError(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("store rejected")}
	s := New(fixtureStore(), recorder)

	s.SelectStudent("s1")
	s.SetPendingAmount("150")
	if _, ok := s.CommitPayment(context.Background()); ok {
		t.Fatalf("commit should report false on recorder error")
	}
	if got := s.PendingAmount().Cents; got != 15000 {
		t.Fatalf("pending amount must survive a failed commit: %d", got)
	}
}

func TestSummaryFollowsSelection(t *testing.T) {
	s := New(fixtureStore(), &fakeRecorder{})

	if got := s.Summary(); got.TotalPaid.Cents != 0 || got.Remaining.Cents != 0 {
		t.Fatalf("summary without selection must be zero, got %+v", got)
	}

	s.SelectStudent("s1")
	if err := s.SelectPeriod(5, 2025); err != nil {
		t.Fatalf("select period: %v", err)
	}
	got := s.Summary()
	if got.TotalPaid.Cents != 30000 || got.Remaining.Cents != 2000 {
		t.Fatalf("unexpected summary %+v", got)
	}

	payments := s.FilteredPayments()
	if len(payments) != 1 || payments[0].ID != "p1" {
		t.Fatalf("unexpected filtered payments %+v", payments)
	}
}
