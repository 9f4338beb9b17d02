package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"vidrelay/internal/db"
)

const recentRunLimit = 50

// RunsHandler returns the most recent pipeline runs, newest first.
func RunsHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := db.RecentRuns(database, recentRunLimit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
	}
}

// HealthHandler reports service liveness.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
