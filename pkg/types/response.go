package types

// ErrorBody is the single error shape returned by both services.
type ErrorBody struct {
	Error string `json:"error"`
}
