package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// MessageBody carries a user-facing confirmation.
type MessageBody struct {
	Message string `json:"message"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
