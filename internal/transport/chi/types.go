package chi

// ErrorCode is the machine-readable error kind in an ErrorResponse.
type ErrorCode string

// Error codes returned by the API.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeValidationFailed  ErrorCode = "validation_failed"
	ErrorCodeUnauthorized      ErrorCode = "unauthorized"
	ErrorCodeClauseNotFound    ErrorCode = "clause_not_found"
	ErrorCodeClauseExists      ErrorCode = "clause_already_exists"
	ErrorCodeVectorDimMismatch ErrorCode = "vector_dim_mismatch"
	ErrorCodeProviderError     ErrorCode = "provider_error"
	ErrorCodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// QARequest is the body of POST /qa.
type QARequest struct {
	Question string `json:"question" validate:"required"`
}

// QAResponse is returned by POST /qa.
type QAResponse struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

// ClauseRequest is the body of POST /clauses.
type ClauseRequest struct {
	ID          string `json:"id" validate:"required,max=64"`
	Heading     string `json:"heading" validate:"required,max=256"`
	Summary     string `json:"summary" validate:"max=8192"`
	EditionYear string `json:"edition_year" validate:"omitempty,numeric,len=4"`
}

// ClauseResponse is a clause as returned by the API.
type ClauseResponse struct {
	ID          string `json:"id"`
	Heading     string `json:"heading"`
	Summary     string `json:"summary"`
	EditionYear string `json:"edition_year"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// MessageResponse is returned by GET /.
type MessageResponse struct {
	Message string `json:"message"`
}
