package dto

import (
	"time"

	"github.com/leadscout/backend/internal/application/admission"
)

// AdmissionRequest asks the gateway whether an operation may start now.
// JobID is required for job-class operations and ignored for metered-only ones.
type AdmissionRequest struct {
	OperationKind string `json:"operation_kind" binding:"required"`
	JobID         string `json:"job_id" binding:"omitempty,uuid"`
}

// AdmissionDecisionResponse is the outcome of one admission request. A denial
// is a successful HTTP exchange with Granted=false and a Reason.
type AdmissionDecisionResponse struct {
	Granted   bool       `json:"granted"`
	Reason    string     `json:"reason,omitempty"`
	Plan      string     `json:"plan,omitempty"`
	JobID     string     `json:"job_id,omitempty"`
	Remaining int64      `json:"remaining,omitempty"`
	PeriodEnd *time.Time `json:"period_end,omitempty"`
}

// ReleaseRequest identifies the reservation to release
type ReleaseRequest struct {
	JobID string `uri:"job_id" binding:"required,uuid"`
}

// UsageStatusResponse reports consumption against the plan in force
type UsageStatusResponse struct {
	Plan              string     `json:"plan"`
	Status            string     `json:"status"`
	Consumed          int64      `json:"consumed"`
	Limit             int64      `json:"limit"`
	PeriodEnd         *time.Time `json:"period_end,omitempty"`
	LiveJobs          int64      `json:"live_jobs"`
	MaxConcurrentJobs int        `json:"max_concurrent_jobs"`
}

// SubscriptionWebhookRequest is one verified billing-provider event.
// EventID deduplicates redelivered events. Plan is required only for
// trial_started and plan_changed events.
type SubscriptionWebhookRequest struct {
	EventID    string    `json:"event_id" binding:"required"`
	UserID     string    `json:"user_id" binding:"required,uuid"`
	EventType  string    `json:"event_type" binding:"required"`
	Plan       string    `json:"plan"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SubscriptionWebhookResponse acknowledges a processed or deduplicated event
type SubscriptionWebhookResponse struct {
	EventID   string `json:"event_id"`
	Processed bool   `json:"processed"`
	Duplicate bool   `json:"duplicate"`
}

// ToAdmissionDecisionResponse converts a gateway decision to its transport shape
func ToAdmissionDecisionResponse(d *admission.Decision) *AdmissionDecisionResponse {
	resp := &AdmissionDecisionResponse{
		Granted: d.Granted,
		Plan:    d.Plan.String(),
	}
	if !d.Granted {
		resp.Reason = d.Reason.String()
		return resp
	}
	resp.Remaining = d.Remaining
	if !d.PeriodEnd.IsZero() {
		end := d.PeriodEnd
		resp.PeriodEnd = &end
	}
	if d.Reservation != nil {
		resp.JobID = d.Reservation.JobID.String()
	}
	return resp
}

// ToUsageStatusResponse converts a gateway usage view to its transport shape
func ToUsageStatusResponse(s *admission.UsageStatus) *UsageStatusResponse {
	resp := &UsageStatusResponse{
		Plan:              s.Plan.String(),
		Status:            s.Status,
		Consumed:          s.Consumed,
		Limit:             s.Limit,
		LiveJobs:          s.LiveJobs,
		MaxConcurrentJobs: s.MaxConcurrentJobs,
	}
	if !s.PeriodEnd.IsZero() {
		end := s.PeriodEnd
		resp.PeriodEnd = &end
	}
	return resp
}
