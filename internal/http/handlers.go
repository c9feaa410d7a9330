package http

import (
	"log/slog"
	"net/http"
	"time"

	"rette/internal/core"
	applog "rette/internal/log"
	"rette/internal/services"
)

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}

	name := parser.Get("name")
	cents, err := core.ParseDecimalToCents(parser.Get("value"))
	if err != nil {
		UnprocessableEntityError("invalid plan value").Write(w)
		return
	}

	plan, err := s.service.CreateStudyPlan(r.Context(), name, core.Money{Cents: cents})
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).JSON(plan).Write(w)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.store.StudyPlans()).Write(w)
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}

	student, err := s.service.CreateStudent(r.Context(), parser.Get("name"), parser.Get("study_plan_id"))
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).JSON(student).Write(w)
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.store.Students()).Write(w)
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	removed, found := s.service.DeleteStudent(r.Context(), id)
	if !found {
		NotFoundError("student not found").Write(w)
		return
	}

	NewJSONResponse().JSON(map[string]int{"removed_payments": removed}).Write(w)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}

	date := core.Today()
	if v := parser.Get("date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			UnprocessableEntityError("invalid date, expected YYYY-MM-DD").Write(w)
			return
		}
		date = core.Date{Time: t}
	}

	month, _ := parser.GetInt("month")
	year, _ := parser.GetInt("year")
	cents, err := core.ParseDecimalToCents(parser.Get("amount"))
	if err != nil {
		UnprocessableEntityError("invalid payment amount").Write(w)
		return
	}

	payment, err := s.service.RecordPayment(r.Context(), parser.Get("student_id"), date, month, year, core.Money{Cents: cents})
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).JSON(payment).Write(w)
}

// handleListPayments lists all payments, or the insertion-ordered slice for
// one student and period when ?student= is given.
func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	studentID := query.Get("student")
	if studentID == "" {
		NewJSONResponse().JSON(s.store.Payments()).Write(w)
		return
	}

	period := ParsePeriodParams(query)
	payments := s.store.FilteredPayments(studentID, period.Month, period.Year)
	if payments == nil {
		payments = []core.Payment{}
	}
	NewJSONResponse().JSON(payments).Write(w)
}

func (s *Server) handleCorrectPayment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	cents, err := core.ParseDecimalToCents(parser.Get("amount"))
	if err != nil {
		UnprocessableEntityError("invalid payment amount").Write(w)
		return
	}

	payment, ok := s.service.CorrectPayment(r.Context(), id, core.Money{Cents: cents})
	if !ok {
		NotFoundError("payment not found").Write(w)
		return
	}

	NewJSONResponse().JSON(payment).Write(w)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if !s.service.DeletePayment(r.Context(), id) {
		NotFoundError("payment not found").Write(w)
		return
	}

	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleStudentSummary derives the paid/remaining pair for one student and
// period. Unknown students and unresolvable plans yield a zero summary, the
// same answer the derivation gives everywhere else.
func (s *Server) handleStudentSummary(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	period := ParsePeriodParams(r.URL.Query())

	key := s.summaryCache.Key(id, period.Month, period.Year, s.store.Version())
	summary, ok := s.summaryCache.Get(key)
	if !ok {
		summary = s.store.Summary(id, period.Month, period.Year)
		s.summaryCache.Set(key, summary)
	} else {
		slog.DebugContext(r.Context(), "Summary cache hit",
			applog.FieldStudentID, id, applog.FieldMonth, period.Month, applog.FieldYear, period.Year)
	}

	NewJSONResponse().JSON(summary).Write(w)
}

func (s *Server) handleStudentPlan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	plan, ok := s.store.StudentPlan(id)
	if !ok {
		NotFoundError("no study plan for student").Write(w)
		return
	}

	NewJSONResponse().JSON(plan).Write(w)
}

type arrearsResponse struct {
	Month   int                     `json:"month"`
	Year    int                     `json:"year"`
	Entries []services.ArrearsEntry `json:"entries"`
}

func (s *Server) handleArrears(w http.ResponseWriter, r *http.Request) {
	period := ParsePeriodParams(r.URL.Query())

	entries := services.ArrearsReport(s.store.Snapshot(), period.Month, period.Year)
	if entries == nil {
		entries = []services.ArrearsEntry{}
	}

	NewJSONResponse().JSON(arrearsResponse{
		Month:   period.Month,
		Year:    period.Year,
		Entries: entries,
	}).Write(w)
}
