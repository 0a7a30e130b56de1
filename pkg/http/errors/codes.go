package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound         = "not_found"
	ErrCodeCategoryNotFound = "category_not_found"
	ErrCodeQuestionNotFound = "question_not_found"

	// Business logic errors
	ErrCodeAddQuestionFailed    = "add_question_failed"
	ErrCodeDeleteQuestionFailed = "delete_question_failed"
	ErrCodeQuizExhausted        = "quiz_exhausted"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
)
