package handler

// errorResponse is the envelope the central error handler writes for
// non-authorization errors. Domain errors are returned unchanged from handlers
// and mapped to a status there.
type errorResponse struct {
	Error string `json:"error"`
}
