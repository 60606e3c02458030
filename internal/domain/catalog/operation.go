package catalog

import "github.com/leadscout/backend/internal/domain/shared"

// OperationKind classifies a billable operation for admission purposes.
// Metered operations debit the period quota; job-class operations additionally
// occupy one of the user's concurrency slots until released.
type OperationKind string

const (
	// OperationKeywordSearch starts a background keyword search job.
	// Metered and job-class.
	OperationKeywordSearch OperationKind = "keyword_search"

	// OperationOpportunityScan generates opportunities from collected results.
	// Metered only.
	OperationOpportunityScan OperationKind = "opportunity_scan"

	// OperationAPICall is a metered request against the public API.
	OperationAPICall OperationKind = "api_call"
)

// String returns the string representation of OperationKind
func (k OperationKind) String() string {
	return string(k)
}

// IsValid returns true if the operation kind is known
func (k OperationKind) IsValid() bool {
	switch k {
	case OperationKeywordSearch, OperationOpportunityScan, OperationAPICall:
		return true
	}
	return false
}

// IsMetered reports whether the operation debits the period quota
func (k OperationKind) IsMetered() bool {
	return k.IsValid()
}

// IsJobClass reports whether the operation requires a concurrency slot
func (k OperationKind) IsJobClass() bool {
	return k == OperationKeywordSearch
}

// ParseOperationKind validates an external operation kind
func ParseOperationKind(s string) (OperationKind, error) {
	k := OperationKind(s)
	if !k.IsValid() {
		return "", shared.NewDomainError("INVALID_OPERATION", "Unknown operation kind: "+s)
	}
	return k, nil
}
