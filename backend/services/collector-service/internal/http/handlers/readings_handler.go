package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"powerlog/backend/services/collector-service/internal/models"
)

const (
	defaultLimit = 50
	maxLimit     = 1000
)

// LatestReader returns the last written row.
type LatestReader interface {
	Latest(ctx context.Context) (*models.Snapshot, error)
}

// RecentReader returns mirrored rows, newest first.
type RecentReader interface {
	Recent(ctx context.Context, limit int) ([]models.ReadingRecord, error)
}

// NewLatestHandler returns GET /api/readings/latest handler.
func NewLatestHandler(svc LatestReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.Latest(r.Context())
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no reading written yet")
			return
		}
		if err != nil {
			logger.Error("failed to load latest reading", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load latest reading")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// NewRecentHandler returns GET /api/readings handler.
func NewRecentHandler(svc RecentReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r.URL.Query().Get("limit"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}

		records, err := svc.Recent(r.Context(), limit)
		if err != nil {
			logger.Error("failed to load readings", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load readings")
			return
		}
		if records == nil {
			records = []models.ReadingRecord{}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"columns":  models.Header.Fields(),
			"readings": records,
		})
	}
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, nil
}
