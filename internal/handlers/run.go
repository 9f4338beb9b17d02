package handlers

import (
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"vidrelay/internal/db"
	"vidrelay/internal/db/models"
)

type runSuccess struct {
	OK     bool   `json:"ok"`
	Status int    `json:"n8n_status"`
	Text   string `json:"n8n_text"`
	Count  int    `json:"count"`
}

type runFailure struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// RunHandler triggers the full pipeline: ensure a valid token, collect every
// video, relay them to the webhook. Failures are encoded in the body; the
// transport-level status is always 200.
func RunHandler(tokens TokenSource, lister VideoLister, sender RelaySender, database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		accessToken, err := tokens.GetValidToken(ctx)
		if err != nil {
			failRun(w, database, start, err)
			return
		}

		videos, err := lister.ListAllVideos(ctx, accessToken)
		if err != nil {
			failRun(w, database, start, err)
			return
		}

		result, err := sender.Send(ctx, videos)
		if err != nil {
			failRun(w, database, start, err)
			return
		}

		recordRun(database, models.RunLog{
			StartedAt:     start.Unix(),
			Duration:      time.Since(start).Milliseconds(),
			Count:         result.Count,
			WebhookStatus: result.Status,
		})

		writeJSON(w, http.StatusOK, runSuccess{
			OK:     true,
			Status: result.Status,
			Text:   result.Body,
			Count:  result.Count,
		})
	}
}

func failRun(w http.ResponseWriter, database *gorm.DB, start time.Time, err error) {
	log.Printf("[run] pipeline failed: %v", err)
	recordRun(database, models.RunLog{
		StartedAt: start.Unix(),
		Duration:  time.Since(start).Milliseconds(),
		Error:     err.Error(),
	})
	writeJSON(w, http.StatusOK, runFailure{OK: false, Error: err.Error()})
}

// recordRun is best-effort: a broken history DB never affects the response.
func recordRun(database *gorm.DB, run models.RunLog) {
	if database == nil {
		return
	}
	if err := db.RecordRun(database, &run); err != nil {
		log.Printf("[run] recording run failed (ignored): %v", err)
	}
}
