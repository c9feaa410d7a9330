package log

// Field names shared across packages so log lines stay greppable.
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatusCode   = "status_code"
	FieldDurationMS   = "duration_ms"
	FieldError        = "error"
	FieldKey          = "key"
	FieldMonth        = "month"
	FieldYear         = "year"
	FieldStudentID    = "student_id"
	FieldStudyPlanID  = "study_plan_id"
	FieldPaymentID    = "payment_id"
	FieldAmountCents  = "amount_cents"
	FieldEventID      = "event_id"
	FieldStoreVersion = "store_version"
)

// Component names for the component field.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentPayment = "payment"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSession = "session"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
)

// PaymentAttrs returns the standard attribute set for one payment, keeping
// payment log lines identical in shape across the service and the workers.
func PaymentAttrs(paymentID, studentID string, month, year int, amountCents int64) []any {
	return []any{
		FieldPaymentID, paymentID,
		FieldStudentID, studentID,
		FieldMonth, month,
		FieldYear, year,
		FieldAmountCents, amountCents,
	}
}
