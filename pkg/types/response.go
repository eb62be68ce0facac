package types

// SuccessEnvelope wraps every 2xx body from the admin API.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorEnvelope wraps every non-2xx body. Dashboard clients switch on
// Error.Code, never on the message.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
