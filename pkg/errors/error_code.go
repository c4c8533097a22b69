package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidTemplate      ErrorCode = 102
	ErrCodeInsufficientData     ErrorCode = 103

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeParseFailed           ErrorCode = 203

	// Engine errors (300-399)
	ErrCodeEngineNotInitialized ErrorCode = 300
	ErrCodeEngineNoDataPath     ErrorCode = 301
	ErrCodeEngineNoTemplates    ErrorCode = 302
	ErrCodeEngineNoResultsDir   ErrorCode = 303
	ErrCodeCallbackFailed       ErrorCode = 304

	// Writer errors (400-499)
	ErrCodeWriteFailed ErrorCode = 400
)
