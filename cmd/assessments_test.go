package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/verdant-group/impact-cli/internal/model"
)

func TestFormatAssessmentsList(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	assessments := []model.Assessment{
		{
			ID:     "0d9f3c44-7a11-4a2e-9b68-1f4f44f0a1aa",
			Kind:   "server",
			Status: model.AssessmentComplete,
			Result: &model.ImpactResult{
				Totals: model.PhaseImpact{
					model.CriterionGWP: {Value: 404, Min: 380, Max: 430, Unit: "kgCO2eq"},
				},
			},
			CreatedAt: created,
		},
		{
			ID:        "f81b2a10-59cc-49d0-b6d2-5a8f9be02c3b",
			Kind:      "component:processor",
			Status:    model.AssessmentFailed,
			CreatedAt: created,
		},
	}

	var buf bytes.Buffer
	formatAssessmentsList(&buf, assessments)
	out := buf.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "GWP_TOTAL")
	assert.Contains(t, out, "0d9f3c44")
	assert.NotContains(t, out, "0d9f3c44-7a11")
	assert.Contains(t, out, "404 kgCO2eq")
	assert.Contains(t, out, "component:processor")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "2026-03-14 09:30")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "0d9f3c44", truncateID("0d9f3c44-7a11-4a2e-9b68-1f4f44f0a1aa"))
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "", truncateID(""))
}
