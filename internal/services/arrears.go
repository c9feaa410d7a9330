package services

import "rette/internal/core"

// ArrearsEntry is one student still owing for a billing period.
type ArrearsEntry struct {
	StudentID   string     `json:"student_id"`
	StudentName string     `json:"student_name"`
	PlanName    string     `json:"plan_name"`
	PlanValue   core.Money `json:"plan_value"`
	TotalPaid   core.Money `json:"total_paid"`
	Remaining   core.Money `json:"remaining"`
}

// ArrearsReport lists every student whose remaining balance for the period is
// positive, in student insertion order. Students without a resolvable plan
// owe nothing and are skipped.
func ArrearsReport(c core.Collections, month, year int) []ArrearsEntry {
	var out []ArrearsEntry
	for _, student := range c.Students {
		plan, ok := c.StudentPlan(student.ID)
		if !ok {
			continue
		}
		remaining := c.Remaining(student.ID, month, year)
		if !remaining.IsPositive() {
			continue
		}
		out = append(out, ArrearsEntry{
			StudentID:   student.ID,
			StudentName: student.Name,
			PlanName:    plan.Name,
			PlanValue:   plan.Value,
			TotalPaid:   c.TotalPaid(student.ID, month, year),
			Remaining:   remaining,
		})
	}
	return out
}
