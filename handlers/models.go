package handlers

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

type ResetResponse struct {
	Status string `json:"status"`
}

type HealthResponse struct {
	ServerStatus string `json:"status"`
	EventsStatus string `json:"events"`
}
