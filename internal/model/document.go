package model

import "time"

// Document is an ingested upload whose chunks live in the vector index.
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:256;not null" json:"name"`
	Ext       string    `gorm:"size:16;not null" json:"ext"`
	Sections  int       `gorm:"not null" json:"sections"`
	Chunks    int       `gorm:"not null" json:"chunks"`
	SizeBytes int64     `gorm:"not null" json:"size_bytes"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Document) TableName() string { return "rag_documents" }
