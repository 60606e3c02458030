package handler

import "github.com/leadscout/backend/internal/interfaces/http/dto"

// Envelope types referenced by the swagger annotations. The runtime
// envelope lives in the dto package; these exist so codegen can express
// the typed data field.

// APIResponse is the success envelope with a typed payload
// @Description Success envelope carrying a typed payload
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the failure envelope
// @Description Failure envelope with a machine-readable code
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// SuccessResponse is the bare acknowledgement envelope
// @Description Acknowledgement without a payload
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}
