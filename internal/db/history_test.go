package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"vidrelay/internal/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := database.AutoMigrate(&models.RunLog{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func TestRecordRun_GeneratesID(t *testing.T) {
	database := newTestDB(t)

	run := models.RunLog{StartedAt: 1700000000, Count: 3, WebhookStatus: 200}
	if err := RecordRun(database, &run); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if run.ID == "" {
		t.Error("expected generated run ID")
	}
}

func TestRecentRuns_NewestFirst(t *testing.T) {
	database := newTestDB(t)

	for i, ts := range []int64{1700000000, 1700000100, 1700000200} {
		run := models.RunLog{StartedAt: ts, Count: i}
		if err := RecordRun(database, &run); err != nil {
			t.Fatalf("RecordRun %d failed: %v", i, err)
		}
	}

	runs, err := RecentRuns(database, 2)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].StartedAt != 1700000200 || runs[1].StartedAt != 1700000100 {
		t.Errorf("unexpected order: %d, %d", runs[0].StartedAt, runs[1].StartedAt)
	}
}

func TestRecordRun_KeepsErrorDetail(t *testing.T) {
	database := newTestDB(t)

	run := models.RunLog{StartedAt: 1700000000, Error: "oauth.refresh: upstream status 400"}
	if err := RecordRun(database, &run); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	runs, err := RecentRuns(database, 1)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if runs[0].Error != run.Error {
		t.Errorf("Error = %q, want %q", runs[0].Error, run.Error)
	}
}
