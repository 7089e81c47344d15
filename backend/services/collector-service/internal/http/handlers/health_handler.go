package handlers

import (
	"net/http"

	"powerlog/backend/services/collector-service/internal/service"
)

// StatsProvider exposes collector counters.
type StatsProvider interface {
	Stats() service.Stats
}

// ConnectionState reports broker connectivity.
type ConnectionState interface {
	IsConnected() bool
}

type healthResponse struct {
	Status        string `json:"status"`
	MQTTConnected bool   `json:"mqtt_connected"`
	service.Stats
}

// NewHealthHandler returns GET /health handler.
func NewHealthHandler(stats StatsProvider, broker ConnectionState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:        "ok",
			MQTTConnected: broker.IsConnected(),
			Stats:         stats.Stats(),
		})
	}
}
