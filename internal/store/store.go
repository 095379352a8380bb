// Package store persists assessment records so past computations can be
// audited and listed. SQLite backs the single-binary CLI workflow,
// Postgres backs shared deployments.
package store

import (
	"context"

	"github.com/verdant-group/impact-cli/internal/model"
)

// Filter specifies criteria for listing assessments.
type Filter struct {
	Status model.AssessmentStatus `json:"status,omitempty"`
	Kind   string                 `json:"kind,omitempty"`
	Limit  int                    `json:"limit,omitempty"`
	Offset int                    `json:"offset,omitempty"`
}

// Store defines the persistence interface for assessment records.
type Store interface {
	// CreateAssessment records a computation that has started, keeping
	// the raw request spec for audit.
	CreateAssessment(ctx context.Context, kind string, spec []byte) (*model.Assessment, error)
	// CompleteAssessment attaches the result and marks the record done.
	CompleteAssessment(ctx context.Context, id string, result *model.ImpactResult) error
	// FailAssessment marks the record failed with the error message.
	FailAssessment(ctx context.Context, id string, errMsg string) error
	GetAssessment(ctx context.Context, id string) (*model.Assessment, error)
	ListAssessments(ctx context.Context, filter Filter) ([]model.Assessment, error)

	Migrate(ctx context.Context) error
	Close() error
}
