package model

import "time"

// RunStatus represents the current state of a resolution run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusResolving RunStatus = "resolving"
	RunStatusComplete  RunStatus = "complete"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents a single geo-referencing run for one extracted document.
type Run struct {
	ID        string              `json:"id"`
	Input     ExtractionRecord    `json:"input"`
	Status    RunStatus           `json:"status"`
	Result    *GeoReferenceResult `json:"result,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}
