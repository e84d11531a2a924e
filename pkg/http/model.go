package http

// APIResponse is the standard response envelope. Status mirrors the logical
// HTTP status; the transport-level code is always 200 for JSON bodies.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes one failed request field.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"symbol"`
	Message string                 `json:"message,omitempty" example:"symbol is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// ListDataResponse is the payload shape for list endpoints.
type ListDataResponse struct {
	Rows  interface{} `json:"rows"`
	Total int64       `json:"total"`
}
