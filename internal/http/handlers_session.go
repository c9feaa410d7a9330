package http

import (
	"net/http"

	"rette/internal/core"
)

// sessionState is the JSON view of the operator session.
type sessionState struct {
	StudentID string     `json:"student_id"`
	Month     int        `json:"month"`
	Year      int        `json:"year"`
	Pending   core.Money `json:"pending_amount"`
}

func (s *Server) sessionStateView() sessionState {
	period := s.session.Period()
	return sessionState{
		StudentID: s.session.SelectedStudent(),
		Month:     period.Month,
		Year:      period.Year,
		Pending:   s.session.PendingAmount(),
	}
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.sessionStateView()).Write(w)
}

// handleSessionSelectStudent sets or clears the selection; an empty id clears
// it and is not an error.
func (s *Server) handleSessionSelectStudent(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}

	s.session.SelectStudent(parser.Get("student_id"))
	NewJSONResponse().JSON(s.sessionStateView()).Write(w)
}

func (s *Server) handleSessionSelectPeriod(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}

	month, _ := parser.GetInt("month")
	year, _ := parser.GetInt("year")
	if err := s.session.SelectPeriod(month, year); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	NewJSONResponse().JSON(s.sessionStateView()).Write(w)
}

// handleSessionSetAmount stores the pending amount. Unparsable or
// non-positive input coerces to zero; the response carries the coerced value.
func (s *Server) handleSessionSetAmount(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}

	s.session.SetPendingAmount(parser.Get("amount"))
	NewJSONResponse().JSON(s.sessionStateView()).Write(w)
}

type sessionCommitResponse struct {
	Committed bool          `json:"committed"`
	Payment   *core.Payment `json:"payment,omitempty"`
}

// handleSessionCommit records the pending payment. Without a selected student
// or a positive pending amount nothing happens and committed is false.
func (s *Server) handleSessionCommit(w http.ResponseWriter, r *http.Request) {
	payment, ok := s.session.CommitPayment(r.Context())
	if !ok {
		NewJSONResponse().JSON(sessionCommitResponse{Committed: false}).Write(w)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).JSON(sessionCommitResponse{
		Committed: true,
		Payment:   &payment,
	}).Write(w)
}

func (s *Server) handleSessionSummary(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.session.Summary()).Write(w)
}

func (s *Server) handleSessionPayments(w http.ResponseWriter, r *http.Request) {
	payments := s.session.FilteredPayments()
	if payments == nil {
		payments = []core.Payment{}
	}
	NewJSONResponse().JSON(payments).Write(w)
}
