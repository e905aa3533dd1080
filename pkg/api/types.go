package api

import (
	"time"

	"github.com/fikri/chatstore/pkg/store"
)

// ServerOptions configures the API server
type ServerOptions struct {
	Host               string
	Port               int
	RateLimitPerMinute int
	ShutdownTimeout    time.Duration
	Environment        string
}

// saveRequest is the POST /chat/save body
type saveRequest struct {
	SessionID string                 `json:"sessionId"`
	Messages  []store.Message        `json:"messages"`
	Timestamp string                 `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// saveResponse acknowledges a successful save with the effective identifier
type saveResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// errorResponse is the body of every non-2xx JSON response
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// messageResponse acknowledges an operation with no payload
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// getResponse wraps a single session
type getResponse struct {
	Success bool           `json:"success"`
	Data    *store.Session `json:"data"`
}

// listResponse wraps the full session listing
type listResponse struct {
	Success bool             `json:"success"`
	Count   int              `json:"count"`
	Data    []*store.Session `json:"data"`
}

// databaseStatus reports store connectivity inside the health response
type databaseStatus struct {
	Connected    bool `json:"connected"`
	SessionCount int  `json:"sessionCount"`
}

// healthResponse is the GET /health body
type healthResponse struct {
	Success     bool           `json:"success"`
	Status      string         `json:"status"`
	Timestamp   string         `json:"timestamp"`
	Uptime      float64        `json:"uptime"`
	Database    databaseStatus `json:"database"`
	Environment string         `json:"environment"`
}

// RateLimitState tracks request timestamps for one client IP
type RateLimitState struct {
	Requests    []int64
	WindowStart int64
}
