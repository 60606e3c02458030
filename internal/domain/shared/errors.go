package shared

// DomainError is an error with a stable machine-readable code. Handlers
// map the code to an HTTP status; the message is safe to show callers.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError builds a DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Errors shared across domain packages.
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "The requested resource does not exist")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "A resource with this identity already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "The request contained invalid input")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "The resource changed under a concurrent update")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "The operation is not allowed in the current state")

	// ErrBusy is returned when the per-user critical section could not be
	// entered within the configured timeout. Retryable.
	ErrBusy = NewDomainError("BUSY", "Timed out waiting for the user's critical section")

	// Caller contract violations. These indicate bugs in the calling code and
	// are surfaced loudly rather than swallowed.
	ErrDuplicateReservation = NewDomainError("DUPLICATE_RESERVATION", "A live reservation already exists for this job")

	// ErrUnrecognizedTransition is returned when a plan-change event carries an
	// event type this system does not know how to apply.
	ErrUnrecognizedTransition = NewDomainError("UNRECOGNIZED_TRANSITION", "Unrecognized subscription transition event")
)
