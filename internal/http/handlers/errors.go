// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them rather
// than on messages. Generic codes mirror HTTP status semantics; domain codes
// name engine outcomes that a status alone cannot convey.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "conflict",
//	  "message": "plan generation conflicted with a concurrent write, retry"
//	}
package handlers

const (
	ErrCodeBadRequest        = "bad_request"
	ErrCodeValidation        = "validation_failed"
	ErrCodeUnauthorized      = "unauthorized"
	ErrCodeNotFound          = "not_found"
	ErrCodeConflict          = "conflict"
	ErrCodeRateLimited       = "too_many_requests"
	ErrCodeGenerationLimited = "generation_rate_limited"
	ErrCodeInternal          = "internal_error"
	ErrCodeMethodNotAllowed  = "method_not_allowed"

	// Domain-specific:
	ErrCodeDuplicateLog    = "duplicate_log"
	ErrCodeProgramInactive = "program_inactive"
	ErrCodeNoPlan          = "no_plan"
	ErrCodeChainCorrupt    = "chain_corrupt"
	ErrCodeGenerateFailed  = "generate_failed"
	ErrCodeListFailed      = "list_failed"
)
