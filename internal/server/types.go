package server

import (
	"github.com/collegemail/idverify/internal/fields"
)

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// VerifyResponse acknowledges an accepted upload. Processing is
// asynchronous; the outcome is fetched later by request id.
type VerifyResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// OutcomeResponse is the stored verification result for one request.
type OutcomeResponse struct {
	RequestID       string                  `json:"request_id"`
	Category        string                  `json:"category"`
	ConfidenceScore float64                 `json:"confidence_score"`
	NameMatchScore  float64                 `json:"name_match_score"`
	RollMatchScore  float64                 `json:"roll_match_score"`
	Extraction      fields.ExtractionResult `json:"extraction"`
}

// EmailResponse carries the institutional address issued for an approved
// request.
type EmailResponse struct {
	RequestID string `json:"request_id"`
	Address   string `json:"address"`
}

// ErrorResponse is the common error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
