package types

// Response is the envelope returned by every JSON endpoint the gateway
// serves itself. Exactly one of Data and Error is populated.
type Response struct {
	// Success reports whether the operation succeeded.
	Success bool `json:"success"`

	// Data holds the payload of a successful response.
	Data any `json:"data,omitempty"`

	// Error holds the failure details of an unsuccessful response.
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail contains the failure half of the envelope.
type ErrorDetail struct {
	// Code is a stable machine-readable identifier. Validation failures
	// carry no code and the field is omitted from the serialized form.
	Code string `json:"code,omitempty"`

	// Message is human-readable text safe to surface in the client UI.
	Message string `json:"message"`
}

// BackendLocation is the data payload of the backend config endpoint.
// The same shape is accepted as the body of a write.
type BackendLocation struct {
	// BackendURL is the origin requests are forwarded to.
	BackendURL string `json:"backendUrl"`
}

// Error code constants for machine-readable failure classes.
const (
	// CodeBackendUnavailable indicates the configured backend could not be
	// reached (502).
	CodeBackendUnavailable = "BACKEND_UNAVAILABLE"

	// CodeInternalError indicates an unexpected gateway-side failure (500).
	CodeInternalError = "INTERNAL_ERROR"

	// CodeRateLimited indicates the client exceeded the config-endpoint
	// write budget (429).
	CodeRateLimited = "RATE_LIMITED"
)

// Fixed messages relayed to the client UI verbatim.
const (
	// MessageBackendUnavailable is shown when a forward attempt fails.
	MessageBackendUnavailable = "Backend service is unavailable. Please try again later."

	// MessageBackendURLRequired rejects a write with a missing, empty, or
	// whitespace-only backendUrl field.
	MessageBackendURLRequired = "backendUrl is required"
)

// NewSuccess creates a success envelope wrapping data.
func NewSuccess(data any) *Response {
	return &Response{
		Success: true,
		Data:    data,
	}
}

// NewError creates an error envelope with an explicit code. An empty code
// is omitted when serialized.
func NewError(code, message string) *Response {
	return &Response{
		Success: false,
		Error: &ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// NewValidationError creates the envelope for a rejected client request (400).
// Validation errors carry no code.
func NewValidationError(message string) *Response {
	return NewError("", message)
}

// NewBackendUnavailable creates the envelope for a failed backend round
// trip (502).
func NewBackendUnavailable() *Response {
	return NewError(CodeBackendUnavailable, MessageBackendUnavailable)
}

// NewInternalError creates the envelope for an unexpected gateway failure (500).
func NewInternalError(message string) *Response {
	return NewError(CodeInternalError, message)
}

// NewRateLimited creates the envelope for a throttled request (429).
func NewRateLimited() *Response {
	return NewError(CodeRateLimited, "too many requests")
}

// HTTPStatusCode returns the status code implied by the envelope.
func (r *Response) HTTPStatusCode() int {
	if r.Success || r.Error == nil {
		return 200
	}
	switch r.Error.Code {
	case CodeBackendUnavailable:
		return 502
	case CodeInternalError:
		return 500
	case CodeRateLimited:
		return 429
	default:
		return 400
	}
}
