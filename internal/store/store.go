// Package store implements the owned in-memory entity store: the three
// collections, id generation, and cascade delete. One Store instance exists
// per process (or per test); nothing in here touches global state.
package store

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"sync"
	"time"

	"rette/internal/core"
)

// Store guards the three collections behind one mutex. Every mutation bumps
// the version, so cached derivations keyed by version can never serve stale
// data.
type Store struct {
	mu      sync.Mutex
	plans   []core.StudyPlan
	stud    []core.Student
	pay     []core.Payment
	version uint64
}

func New() *Store {
	return &Store{}
}

// NewFromCollections hydrates a store from a loaded snapshot. The load must
// happen before any mutation is applied.
func NewFromCollections(c core.Collections) *Store {
	s := New()
	s.Replace(c)
	return s
}

// Replace swaps in a full snapshot, e.g. at startup after loading
// persisted state.
func (s *Store) Replace(c core.Collections) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = append([]core.StudyPlan(nil), c.StudyPlans...)
	s.stud = append([]core.Student(nil), c.Students...)
	s.pay = append([]core.Payment(nil), c.Payments...)
	s.version++
}

// AddStudyPlan generates a fresh id, validates, and appends the plan.
func (s *Store) AddStudyPlan(name string, value core.Money) (core.StudyPlan, error) {
	plan := core.StudyPlan{ID: newID("plan"), Name: name, Value: value}
	if err := plan.Validate(); err != nil {
		return core.StudyPlan{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = append(s.plans, plan)
	s.version++
	return plan, nil
}

// AddStudent appends a student. The plan reference is not resolved here;
// dangling references are tolerated.
func (s *Store) AddStudent(name, studyPlanID string) (core.Student, error) {
	student := core.Student{ID: newID("student"), Name: name, StudyPlanID: studyPlanID}
	if err := student.Validate(); err != nil {
		return core.Student{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stud = append(s.stud, student)
	s.version++
	return student, nil
}

// AddPayment appends a payment attributed to the given billing period.
func (s *Store) AddPayment(studentID string, date core.Date, month, year int, amount core.Money) (core.Payment, error) {
	payment := core.Payment{
		ID:        newID("payment"),
		StudentID: studentID,
		Date:      date,
		Month:     month,
		Year:      year,
		Amount:    amount,
	}
	if err := payment.Validate(); err != nil {
		return core.Payment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pay = append(s.pay, payment)
	s.version++
	return payment, nil
}

// RemoveStudent removes the student and every payment referencing it, as one
// operation from the caller's point of view. The payment slice is rebuilt by
// filtering rather than spliced by index. Returns how many payments went with
// the student and whether the student existed.
func (s *Store) RemoveStudent(studentID string) (removedPayments int, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.stud[:0]
	for _, st := range s.stud {
		if st.ID == studentID {
			found = true
			continue
		}
		kept = append(kept, st)
	}
	if !found {
		return 0, false
	}
	s.stud = kept

	keptPay := make([]core.Payment, 0, len(s.pay))
	for _, p := range s.pay {
		if p.StudentID == studentID {
			removedPayments++
			continue
		}
		keptPay = append(keptPay, p)
	}
	s.pay = keptPay
	s.version++
	return removedPayments, true
}

// RemovePayment removes exactly the matching payment. Unknown ids leave the
// collection untouched and report false.
func (s *Store) RemovePayment(paymentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.pay {
		if p.ID == paymentID {
			s.pay = append(s.pay[:i], s.pay[i+1:]...)
			s.version++
			return true
		}
	}
	return false
}

// UpdatePaymentAmount replaces the amount of the matching payment, the only
// in-place mutation in the model. All other fields stay untouched.
func (s *Store) UpdatePaymentAmount(paymentID string, amount core.Money) (core.Payment, bool) {
	if err := amount.Validate(); err != nil {
		return core.Payment{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.pay {
		if s.pay[i].ID == paymentID {
			s.pay[i].Amount = amount
			s.version++
			return s.pay[i], true
		}
	}
	return core.Payment{}, false
}

func (s *Store) StudyPlanByID(id string) (core.StudyPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.plans {
		if p.ID == id {
			return p, true
		}
	}
	return core.StudyPlan{}, false
}

func (s *Store) StudentByID(id string) (core.Student, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.stud {
		if st.ID == id {
			return st, true
		}
	}
	return core.Student{}, false
}

func (s *Store) PaymentByID(id string) (core.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pay {
		if p.ID == id {
			return p, true
		}
	}
	return core.Payment{}, false
}

// StudyPlans returns a copy of the plan collection in insertion order.
func (s *Store) StudyPlans() []core.StudyPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.StudyPlan(nil), s.plans...)
}

// Students returns a copy of the student collection in insertion order.
func (s *Store) Students() []core.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Student(nil), s.stud...)
}

// Payments returns a copy of the payment collection in insertion order.
func (s *Store) Payments() []core.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Payment(nil), s.pay...)
}

// Snapshot returns an independent copy of all three collections.
func (s *Store) Snapshot() core.Collections {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Collections{
		StudyPlans: append([]core.StudyPlan(nil), s.plans...),
		Students:   append([]core.Student(nil), s.stud...),
		Payments:   append([]core.Payment(nil), s.pay...),
	}
}

// Version increments on every mutation and never decreases.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// StudentPlan resolves a student's plan from the current collections.
func (s *Store) StudentPlan(studentID string) (core.StudyPlan, bool) {
	return s.Snapshot().StudentPlan(studentID)
}

// TotalPaid derives the total paid for the student and period.
func (s *Store) TotalPaid(studentID string, month, year int) core.Money {
	return s.Snapshot().TotalPaid(studentID, month, year)
}

// Remaining derives the clamped remaining balance for the student and period.
func (s *Store) Remaining(studentID string, month, year int) core.Money {
	return s.Snapshot().Remaining(studentID, month, year)
}

// FilteredPayments derives the student's payments for the period.
func (s *Store) FilteredPayments(studentID string, month, year int) []core.Payment {
	return s.Snapshot().FilteredPayments(studentID, month, year)
}

// Summary derives the paid/remaining pair for the student and period.
func (s *Store) Summary(studentID string, month, year int) core.Summary {
	return s.Snapshot().ComputeSummary(studentID, month, year)
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// newID builds a collection-prefixed id from the current timestamp in base36
// plus a five character random suffix. Ids are unique within a collection and
// never reused.
func newID(prefix string) string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	suffix := make([]byte, 5)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(base36))))
		if err != nil {
			// crypto/rand is unavailable; degrade to a nanosecond digit
			suffix[i] = base36[time.Now().UnixNano()%36]
			continue
		}
		suffix[i] = base36[n.Int64()]
	}
	return prefix + ts + string(suffix)
}
