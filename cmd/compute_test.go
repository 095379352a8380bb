package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-group/impact-cli/internal/aggregate"
	"github.com/verdant-group/impact-cli/internal/device"
	"github.com/verdant-group/impact-cli/internal/model"
)

func TestBuildRequest(t *testing.T) {
	req, err := buildRequest([]string{"gwp", "pe"}, 8760, 0.5, true)
	require.NoError(t, err)

	assert.Equal(t, []model.Criterion{model.CriterionGWP, model.CriterionPE}, req.Criteria)
	assert.Equal(t, 8760.0, req.Duration)
	assert.Equal(t, 0.5, req.Allocation)
	assert.True(t, req.Verbose)
}

func TestBuildRequestEmptyCriteria(t *testing.T) {
	req, err := buildRequest(nil, 0, 1, false)
	require.NoError(t, err)

	assert.Nil(t, req.Criteria)
	assert.Equal(t, aggregate.Request{Allocation: 1}, req)
}

func TestBuildRequestBadCriterion(t *testing.T) {
	_, err := buildRequest([]string{"gwp", "bogus"}, 0, 1, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestLoadSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	raw := `
archetype: rack_generic
processor:
  core_units: 16
memory:
  - capacity_gb: 32
  - capacity_gb: 32
usage:
  location: FRA
  avg_power_watts: 250
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	spec, err := loadSpec(path)
	require.NoError(t, err)

	assert.Equal(t, "rack_generic", spec.Archetype)
	require.NotNil(t, spec.Processor)
	assert.Equal(t, 16, (*spec.Processor)["core_units"])
	assert.Len(t, spec.Memory, 2)
	require.NotNil(t, spec.Usage)
	assert.Equal(t, "FRA", spec.Usage.Location)
	assert.Equal(t, 250.0, *spec.Usage.AvgPowerWatts)
}

func TestLoadSpecEmptyPath(t *testing.T) {
	spec, err := loadSpec("")
	require.NoError(t, err)
	assert.Equal(t, device.Spec{}, spec)
}

func TestLoadSpecMissingFile(t *testing.T) {
	_, err := loadSpec(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read spec")
}

func TestComputeDeviceRecordsAssessment(t *testing.T) {
	st := newMemStore()
	spec := device.Spec{Archetype: "rack_generic"}

	result, err := computeDevice(context.Background(), newTestEngine(), st, "server", spec, aggregate.Request{Allocation: 1})
	require.NoError(t, err)
	require.NotNil(t, result)

	recorded, err := st.GetAssessment(context.Background(), "assessment-0001")
	require.NoError(t, err)
	assert.Equal(t, "server", recorded.Kind)
	assert.Equal(t, model.AssessmentComplete, recorded.Status)
	require.NotNil(t, recorded.Result)
	assert.Contains(t, string(recorded.Spec), "rack_generic")
}

func TestComputeDeviceFailureRecorded(t *testing.T) {
	st := newMemStore()
	spec := device.Spec{Archetype: "does_not_exist"}

	_, err := computeDevice(context.Background(), newTestEngine(), st, "server", spec, aggregate.Request{Allocation: 1})
	require.Error(t, err)

	recorded, err := st.GetAssessment(context.Background(), "assessment-0001")
	require.NoError(t, err)
	assert.Equal(t, model.AssessmentFailed, recorded.Status)
	assert.NotEmpty(t, recorded.Error)
}
