package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-group/impact-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleResult() *model.ImpactResult {
	return &model.ImpactResult{
		Phases: map[model.Phase]model.PhaseImpact{
			model.PhaseManufacture: {
				model.CriterionGWP: {Value: 636, Min: 580, Max: 710, Unit: "kgCO2eq"},
			},
			model.PhaseUse: {
				model.CriterionGWP: {Value: 1200, Min: 1100, Max: 1300, Unit: "kgCO2eq"},
			},
		},
		Totals: model.PhaseImpact{
			model.CriterionGWP: {Value: 1840, Min: 1680, Max: 2010, Unit: "kgCO2eq"},
		},
	}
}

func TestSQLite_CreateAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	spec := []byte(`{"archetype":"rack_generic"}`)
	a, err := st.CreateAssessment(ctx, "server", spec)
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)
	assert.Equal(t, model.AssessmentRunning, a.Status)

	got, err := st.GetAssessment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "server", got.Kind)
	assert.JSONEq(t, string(spec), string(got.Spec))
	assert.Nil(t, got.Result)
}

func TestSQLite_Complete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.CreateAssessment(ctx, "server", []byte(`{}`))
	require.NoError(t, err)

	require.NoError(t, st.CompleteAssessment(ctx, a.ID, sampleResult()))

	got, err := st.GetAssessment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssessmentComplete, got.Status)
	require.NotNil(t, got.Result)

	use, ok := got.Result.Phase(model.PhaseUse, model.CriterionGWP)
	require.True(t, ok)
	assert.Equal(t, 1200.0, use.Value)
}

func TestSQLite_Fail(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.CreateAssessment(ctx, "component:processor", []byte(`{}`))
	require.NoError(t, err)

	require.NoError(t, st.FailAssessment(ctx, a.ID, "country not supported: ATLANTIS"))

	got, err := st.GetAssessment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssessmentFailed, got.Status)
	assert.Equal(t, "country not supported: ATLANTIS", got.Error)
	assert.Nil(t, got.Result)
}

func TestSQLite_UpdateMissing(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	err := st.CompleteAssessment(ctx, "no-such-id", sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	err = st.FailAssessment(ctx, "no-such-id", "boom")
	require.Error(t, err)
}

func TestSQLite_List(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a1, err := st.CreateAssessment(ctx, "server", []byte(`{}`))
	require.NoError(t, err)
	a2, err := st.CreateAssessment(ctx, "server", []byte(`{}`))
	require.NoError(t, err)
	_, err = st.CreateAssessment(ctx, "component:memory", []byte(`{}`))
	require.NoError(t, err)

	require.NoError(t, st.CompleteAssessment(ctx, a1.ID, sampleResult()))

	all, err := st.ListAssessments(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	servers, err := st.ListAssessments(ctx, Filter{Kind: "server"})
	require.NoError(t, err)
	assert.Len(t, servers, 2)

	running, err := st.ListAssessments(ctx, Filter{Status: model.AssessmentRunning})
	require.NoError(t, err)
	assert.Len(t, running, 2)

	complete, err := st.ListAssessments(ctx, Filter{Status: model.AssessmentComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, a1.ID, complete[0].ID)

	limited, err := st.ListAssessments(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
	_ = a2
}
