package api

type (
	// SessionResponse is returned by session inspection endpoints
	SessionResponse struct {
		Session *Session `json:"session"`
		Step    *Step    `json:"step,omitempty"`
	}

	// FlowsListResponse contains a list of flow definitions
	FlowsListResponse struct {
		Flows []*Flow `json:"flows"`
		Count int     `json:"count"`
	}

	// FlowRegisteredResponse is returned when a flow registration succeeds
	FlowRegisteredResponse struct {
		Flow    *Flow  `json:"flow"`
		Message string `json:"message"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service string `json:"service"`
		Version string `json:"version"`
		Status  string `json:"status"`
	}

	// MessageResponse contains a simple message string
	MessageResponse struct {
		Message string `json:"message"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)
