package model

import "time"

// AssessmentStatus tracks the lifecycle of a recorded computation.
type AssessmentStatus string

const (
	AssessmentRunning  AssessmentStatus = "running"
	AssessmentComplete AssessmentStatus = "complete"
	AssessmentFailed   AssessmentStatus = "failed"
)

// Assessment is the audit record of one impact computation request.
type Assessment struct {
	ID        string           `json:"id"`
	Kind      string           `json:"kind"` // "server", "cloud", "component:processor", ...
	Spec      []byte           `json:"spec"`
	Status    AssessmentStatus `json:"status"`
	Result    *ImpactResult    `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
