package db

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"vidrelay/internal/db/models"
)

// RecordRun persists one pipeline run. Callers treat failures as
// best-effort: a broken history DB never fails the pipeline.
func RecordRun(database *gorm.DB, run *models.RunLog) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	return database.Create(run).Error
}

// RecentRuns returns the most recent runs, newest first.
func RecentRuns(database *gorm.DB, limit int) ([]models.RunLog, error) {
	var runs []models.RunLog
	err := database.Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
