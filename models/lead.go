package models

import (
	"time"
)

// Lead represents a CRM lead with its monetary value
type Lead struct {
	ID                int64
	Name              string
	Price             int64
	ResponsibleUserID int64
	StatusID          int64
	PipelineID        int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Manager represents a CRM user that leads are assigned to
type Manager struct {
	ID   int64
	Name string
}
