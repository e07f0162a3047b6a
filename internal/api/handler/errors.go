package handler

// ErrorResponse is the canonical error envelope for all API errors.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}
