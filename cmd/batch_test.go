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

func TestLoadBatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	raw := `
- name: rack
  spec:
    archetype: rack_generic
- name: custom
  spec:
    processor:
      core_units: 8
    usage:
      avg_power_watts: 120
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	entries, err := loadBatchFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "rack", entries[0].Name)
	assert.Equal(t, "rack_generic", entries[0].Spec.Archetype)
	assert.Equal(t, "custom", entries[1].Name)
	require.NotNil(t, entries[1].Spec.Usage)
	assert.Equal(t, 120.0, *entries[1].Spec.Usage.AvgPowerWatts)
}

func TestLoadBatchFileMissing(t *testing.T) {
	_, err := loadBatchFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestProcessBatch(t *testing.T) {
	st := newMemStore()
	entries := []batchEntry{
		{Name: "ok-1", Spec: device.Spec{Archetype: "rack_generic"}},
		{Name: "broken", Spec: device.Spec{Archetype: "does_not_exist"}},
		{Name: "ok-2", Spec: device.Spec{Archetype: "blade_small"}},
	}
	req := aggregate.Request{Allocation: 1}

	outcomes, err := processBatch(context.Background(), newTestEngine(), st, entries, 0, 2, req)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, "ok-1", outcomes[0].Name)
	require.NotNil(t, outcomes[0].Result)
	assert.Empty(t, outcomes[0].Error)

	assert.Equal(t, "broken", outcomes[1].Name)
	assert.Nil(t, outcomes[1].Result)
	assert.Contains(t, outcomes[1].Error, "does_not_exist")

	require.NotNil(t, outcomes[2].Result)

	assert.Equal(t, 2, st.byStatus(model.AssessmentComplete))
	assert.Equal(t, 1, st.byStatus(model.AssessmentFailed))
}

func TestProcessBatchLimit(t *testing.T) {
	st := newMemStore()
	entries := []batchEntry{
		{Name: "first", Spec: device.Spec{Archetype: "rack_generic"}},
		{Name: "second", Spec: device.Spec{Archetype: "rack_generic"}},
		{Name: "third", Spec: device.Spec{Archetype: "rack_generic"}},
	}

	outcomes, err := processBatch(context.Background(), newTestEngine(), st, entries, 2, 1, aggregate.Request{Allocation: 1})
	require.NoError(t, err)
	assert.Len(t, outcomes, 2)
	assert.Equal(t, 2, st.byStatus(model.AssessmentComplete))
}

func TestProcessBatchEmpty(t *testing.T) {
	outcomes, err := processBatch(context.Background(), newTestEngine(), newMemStore(), nil, 0, 4, aggregate.Request{Allocation: 1})
	require.NoError(t, err)
	assert.Nil(t, outcomes)
}
