package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound          = "not_found"
	ErrCodeCandidateNotFound = "candidate_not_found"
	ErrCodeNoActiveCandidate = "no_active_candidate"

	// Resume upload errors
	ErrCodeUnsupportedFileType = "unsupported_file_type"
	ErrCodeFileTooLarge        = "file_too_large"
	ErrCodeExtractionFailed    = "extraction_failed"

	// Session errors
	ErrCodeSwitchFailed   = "switch_failed"
	ErrCodeSessionStopped = "session_stopped"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"

	// Scoreboard errors
	ErrCodeScoreboardFetchFailed = "scoreboard_fetch_failed"
	ErrCodeFeatureNotAvailable   = "feature_not_available"
)
