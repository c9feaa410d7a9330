package services

import (
	"testing"

	"rette/internal/core"
)

func arrearsFixture() core.Collections {
	return core.Collections{
		StudyPlans: []core.StudyPlan{
			{ID: "plan1", Name: "Piano Base", Value: core.Money{Cents: 25000}},
			{ID: "plan2", Name: "Piano Intermedio", Value: core.Money{Cents: 32000}},
		},
		Students: []core.Student{
			{ID: "s1", Name: "Martina", StudyPlanID: "plan2"},
			{ID: "s2", Name: "Luca", StudyPlanID: "plan1"},
			{ID: "s3", Name: "Anna", StudyPlanID: "missing"},
		},
		Payments: []core.Payment{
			{ID: "p1", StudentID: "s1", Date: core.NewDate(2025, 5, 10), Month: 5, Year: 2025, Amount: core.Money{Cents: 32000}},
			{ID: "p2", StudentID: "s2", Date: core.NewDate(2025, 5, 10), Month: 5, Year: 2025, Amount: core.Money{Cents: 10000}},
		},
	}
}

func TestArrearsReport(t *testing.T) {
	report := ArrearsReport(arrearsFixture(), 5, 2025)

	// s1 paid in full, s3 has no resolvable plan; only s2 is in arrears.
	if len(report) != 1 {
		t.Fatalf("expected 1 entry, got %d: %+v", len(report), report)
	}
	e := report[0]
	if e.StudentID != "s2" || e.PlanName != "Piano Base" {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.TotalPaid.Cents != 10000 || e.Remaining.Cents != 15000 {
		t.Fatalf("unexpected amounts %+v", e)
	}
}

func TestArrearsReportUntouchedPeriod(t *testing.T) {
	report := ArrearsReport(arrearsFixture(), 6, 2025)

	// Nobody paid anything for June; both resolvable students owe in full.
	if len(report) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(report))
	}
	if report[0].StudentID != "s1" || report[0].Remaining.Cents != 32000 {
		t.Fatalf("unexpected first entry %+v", report[0])
	}
	if report[1].StudentID != "s2" || report[1].Remaining.Cents != 25000 {
		t.Fatalf("unexpected second entry %+v", report[1])
	}
}

func TestArrearsReportEmptyCollections(t *testing.T) {
	if report := ArrearsReport(core.Collections{}, 5, 2025); len(report) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}
