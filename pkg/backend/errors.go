package backend

// ValidationError rejects a write before anything is persisted. The message
// is safe to relay to clients verbatim.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// ErrEmptyURL rejects writes whose URL is missing, empty, or whitespace-only.
var ErrEmptyURL = &ValidationError{Message: "backendUrl is required"}
