package mcp

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response from the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
	Timestamp string `json:"timestamp"`
}

// DocumentCounter reports how many parsed documents are resident.
// The reader service implements this.
type DocumentCounter interface {
	Documents() int
}

// NewHealthHandler creates an HTTP handler for the /health endpoint.
// The server has no external dependencies, so health is liveness plus the
// current cache occupancy.
func NewHealthHandler(counter DocumentCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:    "healthy",
			Documents: counter.Documents(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
