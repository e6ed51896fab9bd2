package httpserver

// Response types for JSON serialization. The batch body itself is
// feed.NextBatchResponse, shared with feed.RemoteSource.

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
