package errors

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// ConfigLoadError represents an error when parsing the environment configuration.
	ConfigLoadError ErrorCode = "config_load_error"
	// BrokerAuthError represents an error when requesting an API token.
	BrokerAuthError ErrorCode = "broker_auth_error"
	// BrokerRegisterError represents an error when registering the derivative symbol.
	BrokerRegisterError ErrorCode = "broker_register_error"
)

// ErrorDetails represents detailed information about an error.
type ErrorDetails struct {
	// Message (required) is the user-defined error message.
	// E.g. "broker returned an empty token".
	Message string

	// Code (required) is the user-defined error code string.
	// E.g. "broker_auth_error".
	Code string

	// Field (optional) is the related field the error occurred on, if any.
	Field string
}

// NewErrorDetails creates a new ErrorDetails struct with the given parameters.
func NewErrorDetails(message, code, field string) *ErrorDetails {
	return &ErrorDetails{
		Message: message,
		Code:    code,
		Field:   field,
	}
}

// Error is used to implement the Golang `error` interface.
func (e *ErrorDetails) Error() string {
	return e.Message
}

// ErrorCodeEquals checks whether a given `error` has a specific code.
func ErrorCodeEquals(err error, code ErrorCode) bool {
	errDetails, ok := err.(*ErrorDetails)
	if !ok {
		return false
	}

	return errDetails.Code == string(code)
}
