package dto

import "net/http"

// Machine-readable error codes, format ERR_<CATEGORY>_<DESCRIPTION>.
// Clients branch on these rather than on response text.
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	// ErrCodeInvalidState covers operations rejected by the current
	// subscription or reservation state.
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeDuplicateReservation signals a job ID that already holds a live slot.
	ErrCodeDuplicateReservation = "ERR_DUPLICATE_RESERVATION"
	// ErrCodeUnrecognizedTransition signals an unknown subscription event type.
	ErrCodeUnrecognizedTransition = "ERR_UNRECOGNIZED_TRANSITION"

	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"

	// ErrCodeBusy signals a user critical section contended past the
	// configured wait bound.
	ErrCodeBusy        = "ERR_BUSY"
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// httpStatusByCode picks the response status for each error code.
var httpStatusByCode = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:           http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:           http.StatusUnprocessableEntity,
	ErrCodeDuplicateReservation:   http.StatusConflict,
	ErrCodeUnrecognizedTransition: http.StatusUnprocessableEntity,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeBusy:        http.StatusTooManyRequests,
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting to
// 500 for codes the map does not know.
func GetHTTPStatus(code string) int {
	if status, ok := httpStatusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping translates raw domain error codes into the
// ERR_-prefixed wire format.
var domainCodeMapping = map[string]string{
	"NOT_FOUND":               ErrCodeNotFound,
	"ALREADY_EXISTS":          ErrCodeAlreadyExists,
	"INVALID_INPUT":           ErrCodeInvalidInput,
	"INVALID_STATE":           ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT":    ErrCodeConcurrencyConflict,
	"BUSY":                    ErrCodeBusy,
	"DUPLICATE_RESERVATION":   ErrCodeDuplicateReservation,
	"UNRECOGNIZED_TRANSITION": ErrCodeUnrecognizedTransition,
	"PERIOD_ENDED":            ErrCodeInvalidState,
	"INVALID_USER":            ErrCodeUnauthorized,
	"INVALID_PLAN":            ErrCodeInvalidInput,
	"INVALID_JOB":             ErrCodeInvalidInput,
	"INVALID_OPERATION":       ErrCodeInvalidInput,
	"INVALID_AMOUNT":          ErrCodeInvalidInput,
	"INVALID_PERIOD":          ErrCodeInvalidInput,
	"BAD_REQUEST":             ErrCodeBadRequest,
	"INTERNAL_ERROR":          ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized
// format. Codes already normalized, or unknown ones, pass through as is.
func NormalizeErrorCode(code string) string {
	if normalized, ok := domainCodeMapping[code]; ok {
		return normalized
	}
	return code
}
