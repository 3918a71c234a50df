package model

import "time"

const (
	GenerationStatusOK     = "ok"
	GenerationStatusEmpty  = "empty"
	GenerationStatusFailed = "failed"
)

// GenerationRecord is the audit row written for every generate request.
type GenerationRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	RequestID       string    `gorm:"size:36;not null;uniqueIndex" json:"request_id"`
	Subject         string    `gorm:"size:128;index" json:"subject"`
	Kind            string    `gorm:"size:8;not null" json:"kind"`
	Query           string    `gorm:"type:text;not null" json:"query"`
	RequestedCount  int       `gorm:"not null" json:"requested_count"`
	ReturnedCount   int       `gorm:"not null" json:"returned_count"`
	Similarity      *float64  `json:"similarity,omitempty"`
	UsedWebFallback bool      `gorm:"not null" json:"used_web_fallback"`
	ContextChars    int       `gorm:"not null" json:"context_chars"`
	Status          string    `gorm:"size:16;not null;index" json:"status"`
	Error           string    `gorm:"type:text" json:"error,omitempty"`
	DurationMS      int64     `gorm:"not null" json:"duration_ms"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}
