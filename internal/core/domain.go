package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Date is a calendar date serialized as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	// Money is a fixed-point amount in cents.
	Money struct {
		Cents int64
	}

	// Period is a billing period. Payments aggregate on it, not on their
	// calendar date.
	Period struct {
		Month int // 1-12
		Year  int
	}

	// StudyPlan is a named tuition package with a fixed total value.
	StudyPlan struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Value Money  `json:"value"`
	}

	// Student is enrolled under exactly one study plan.
	Student struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		StudyPlanID string `json:"studyPlanId"`
	}

	// Payment is one transaction attributed to a student and a billing
	// period. Month and Year need not match the calendar month of Date.
	Payment struct {
		ID        string `json:"id"`
		StudentID string `json:"studentId"`
		Date      Date   `json:"date"`
		Month     int    `json:"month"`
		Year      int    `json:"year"`
		Amount    Money  `json:"amount"`
	}

	// Summary is the paid/remaining pair for one student and period.
	Summary struct {
		TotalPaid Money `json:"total_paid"`
		Remaining Money `json:"remaining"`
	}

	// Collections is a snapshot of the three entity collections.
	Collections struct {
		StudyPlans []StudyPlan
		Students   []Student
		Payments   []Payment
	}
)

var (
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidYear     = errors.New("invalid year")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyPlanRef    = errors.New("empty study plan reference")
	ErrEmptyStudentRef = errors.New("empty student reference")
)

// NewDate creates a new Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.Cents > 0
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	if p.Year < 1 {
		return ErrInvalidYear
	}
	return nil
}

func (sp StudyPlan) Validate() error {
	if len(strings.TrimSpace(sp.Name)) == 0 {
		return ErrEmptyName
	}
	if len(sp.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	return sp.Value.Validate()
}

func (s Student) Validate() error {
	if len(strings.TrimSpace(s.Name)) == 0 {
		return ErrEmptyName
	}
	if len(s.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	// The reference must be present; whether it resolves is not checked
	// here. The store tolerates dangling plan references.
	if strings.TrimSpace(s.StudyPlanID) == "" {
		return ErrEmptyPlanRef
	}
	return nil
}

func (p Payment) Validate() error {
	if strings.TrimSpace(p.StudentID) == "" {
		return ErrEmptyStudentRef
	}
	if err := p.Date.Validate(); err != nil {
		return err
	}
	if err := (Period{Month: p.Month, Year: p.Year}).Validate(); err != nil {
		return err
	}
	return p.Amount.Validate()
}
