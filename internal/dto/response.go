package dto

type ErrorResponse struct {
	Message string `json:"message"`
}

// ValidationErrorResponse carries field-scoped input errors.
type ValidationErrorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
