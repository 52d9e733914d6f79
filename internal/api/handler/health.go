package handler

import (
	"net/http"

	"github.com/daap14/roster/internal/api/middleware"
	"github.com/daap14/roster/internal/api/response"
)

// StoreStatus is the part of the record store the health check reports on.
type StoreStatus interface {
	Pinger
	Len() int
	PersistFailures() int64
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	store   StoreStatus
	backend string
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store StoreStatus, backend, version string) *HealthHandler {
	return &HealthHandler{
		store:   store,
		backend: backend,
		version: version,
	}
}

type storageStatus struct {
	Backend         string `json:"backend"`
	Connected       bool   `json:"connected"`
	PersistFailures int64  `json:"persistFailures"`
}

type healthData struct {
	Status  string        `json:"status"`
	Version string        `json:"version"`
	Records int           `json:"records"`
	Storage storageStatus `json:"storage"`
}

// ServeHTTP handles the health check request. Storage that cannot be
// reached reports "degraded"; the in-memory list keeps serving.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	connected := h.store.Ping(r.Context()) == nil

	status := "healthy"
	if !connected {
		status = "degraded"
	}

	data := healthData{
		Status:  status,
		Version: h.version,
		Records: h.store.Len(),
		Storage: storageStatus{
			Backend:         h.backend,
			Connected:       connected,
			PersistFailures: h.store.PersistFailures(),
		},
	}

	response.Success(w, http.StatusOK, data, requestID)
}
