// Package session holds the per-user selection state: the selected student,
// the active billing period, and the pending payment amount. It is a single
// logical actor; operations are plain assignments guarded for safety.
package session

import (
	"context"
	"sync"
	"time"

	"rette/internal/core"
	"rette/internal/store"
)

// PaymentRecorder is the slice of the payment service the session needs.
type PaymentRecorder interface {
	RecordPayment(ctx context.Context, studentID string, date core.Date, month, year int, amount core.Money) (core.Payment, error)
}

type Session struct {
	mu       sync.Mutex
	store    *store.Store
	recorder PaymentRecorder

	studentID string // empty means no selection
	period    core.Period
	pending   core.Money
}

// New starts with no student selected, the current month/year as the active
// period, and a zero pending amount.
func New(st *store.Store, recorder PaymentRecorder) *Session {
	now := time.Now()
	return &Session{
		store:    st,
		recorder: recorder,
		period:   core.Period{Month: int(now.Month()), Year: now.Year()},
	}
}

// SelectStudent sets the selection; an empty id clears it. The pending
// amount is deliberately left alone.
func (s *Session) SelectStudent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.studentID = id
}

// SelectedStudent returns the selected student id, empty when none.
func (s *Session) SelectedStudent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.studentID
}

// SelectPeriod sets the active billing period.
func (s *Session) SelectPeriod(month, year int) error {
	p := core.Period{Month: month, Year: year}
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.period = p
	return nil
}

// Period returns the active billing period.
func (s *Session) Period() core.Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// SetPendingAmount parses a decimal input. Anything unparsable or
// non-positive coerces the pending amount to zero; no error is reported.
func (s *Session) SetPendingAmount(input string) {
	cents, err := core.ParseDecimalToCents(input)
	if err != nil {
		cents = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = core.Money{Cents: cents}
}

// PendingAmount returns the pending payment amount.
func (s *Session) PendingAmount() core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// CommitPayment records a payment of the pending amount for the selected
// student and period, dated today, then resets the pending amount. Without a
// selected student or a positive pending amount it is a no-op and reports
// false.
func (s *Session) CommitPayment(ctx context.Context) (core.Payment, bool) {
	s.mu.Lock()
	studentID := s.studentID
	period := s.period
	pending := s.pending
	s.mu.Unlock()

	if studentID == "" || !pending.IsPositive() {
		return core.Payment{}, false
	}

	payment, err := s.recorder.RecordPayment(ctx, studentID, core.Today(), period.Month, period.Year, pending)
	if err != nil {
		return core.Payment{}, false
	}

	s.mu.Lock()
	s.pending = core.Money{}
	s.mu.Unlock()
	return payment, true
}

// Summary derives the paid/remaining pair for the current selection. With no
// student selected both values are zero.
func (s *Session) Summary() core.Summary {
	s.mu.Lock()
	studentID := s.studentID
	period := s.period
	s.mu.Unlock()

	if studentID == "" {
		return core.Summary{}
	}
	return s.store.Summary(studentID, period.Month, period.Year)
}

// FilteredPayments lists the payments for the current selection, in
// insertion order. Empty without a selection.
func (s *Session) FilteredPayments() []core.Payment {
	s.mu.Lock()
	studentID := s.studentID
	period := s.period
	s.mu.Unlock()

	if studentID == "" {
		return nil
	}
	return s.store.FilteredPayments(studentID, period.Month, period.Year)
}
