package dtos

// ErrorResponse is the single error envelope every endpoint answers with.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Kind             string `json:"kind"`
	Code             string `json:"code"`
	Message          string `json:"message"`
	MinutesRemaining int    `json:"minutes_remaining,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}
