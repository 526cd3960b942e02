package types

// SuccessEnvelope is the wire shape of every 2xx JSON body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError carries a machine-readable code alongside the human message.
// Details is populated only for codes that opt in (validation field maps,
// balance shortfalls).
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope is the wire shape of every non-2xx JSON body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
