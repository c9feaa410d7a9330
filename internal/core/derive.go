package core

// Derivation functions. All of them are pure reads over a Collections
// snapshot; callers decide when to recompute and whether to cache.

// StudentPlan resolves a student's study plan. It returns false when either
// the student or the referenced plan is missing.
func (c Collections) StudentPlan(studentID string) (StudyPlan, bool) {
	var student *Student
	for i := range c.Students {
		if c.Students[i].ID == studentID {
			student = &c.Students[i]
			break
		}
	}
	if student == nil {
		return StudyPlan{}, false
	}
	for _, plan := range c.StudyPlans {
		if plan.ID == student.StudyPlanID {
			return plan, true
		}
	}
	return StudyPlan{}, false
}

// TotalPaid sums every payment matching the student and billing period
// exactly. Call order of the underlying AddPayment calls does not matter.
func (c Collections) TotalPaid(studentID string, month, year int) Money {
	var cents int64
	for _, p := range c.Payments {
		if p.StudentID == studentID && p.Month == month && p.Year == year {
			cents += p.Amount.Cents
		}
	}
	return Money{Cents: cents}
}

// Remaining is the plan value minus the total paid for the period, floored
// at zero. A student without a resolvable plan owes nothing.
func (c Collections) Remaining(studentID string, month, year int) Money {
	plan, ok := c.StudentPlan(studentID)
	if !ok {
		return Money{}
	}
	rest := plan.Value.Cents - c.TotalPaid(studentID, month, year).Cents
	if rest < 0 {
		rest = 0
	}
	return Money{Cents: rest}
}

// FilteredPayments returns the payments matching all three keys, preserving
// insertion order.
func (c Collections) FilteredPayments(studentID string, month, year int) []Payment {
	var out []Payment
	for _, p := range c.Payments {
		if p.StudentID == studentID && p.Month == month && p.Year == year {
			out = append(out, p)
		}
	}
	return out
}

// ComputeSummary derives the paid/remaining pair for one student and period.
func (c Collections) ComputeSummary(studentID string, month, year int) Summary {
	return Summary{
		TotalPaid: c.TotalPaid(studentID, month, year),
		Remaining: c.Remaining(studentID, month, year),
	}
}
