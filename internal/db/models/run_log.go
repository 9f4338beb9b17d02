package models

// RunLog records one pipeline run for the /runs history endpoint.
type RunLog struct {
	ID            string `gorm:"primaryKey" json:"id"`
	StartedAt     int64  `gorm:"index" json:"started_at"`
	Duration      int64  `json:"duration"` // milliseconds
	Count         int    `json:"count"`
	WebhookStatus int    `json:"webhook_status,omitempty"`
	Error         string `json:"error,omitempty"`
}
