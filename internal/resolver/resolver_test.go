package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-group/impact-cli/internal/attribute"
	"github.com/verdant-group/impact-cli/internal/device"
	"github.com/verdant-group/impact-cli/internal/model"
)

type fakeArchetypes struct {
	profiles map[string]Archetype // "<kind>/<id>" -> archetype
}

func (f *fakeArchetypes) ResolveArchetype(_ context.Context, kind, id string) (Archetype, error) {
	if a, ok := f.profiles[kind+"/"+id]; ok {
		return a, nil
	}
	return nil, &ArchetypeNotFoundError{Kind: kind, Archetype: id}
}

type fakeConfig struct {
	duration    float64
	criteria    []model.Criterion
	location    string
	figures     int
	uncertainty float64
}

func (f fakeConfig) DefaultDuration() float64           { return f.duration }
func (f fakeConfig) DefaultCriteria() []model.Criterion { return f.criteria }
func (f fakeConfig) DefaultLocation() string            { return f.location }
func (f fakeConfig) SignificantFigures() int            { return f.figures }
func (f fakeConfig) UncertaintyPercent() float64        { return f.uncertainty }

func num(v float64) ArchetypeValue { return ArchetypeValue{Num: &v} }

func testConfig() fakeConfig {
	return fakeConfig{
		duration:    35040,
		criteria:    model.AllCriteria(),
		location:    "EEE",
		figures:     3,
		uncertainty: 10,
	}
}

func TestCompleteWithArchetype(t *testing.T) {
	t.Parallel()

	repo := &fakeArchetypes{profiles: map[string]Archetype{
		"server/platform_compute_medium": {
			"processor.core_units": num(24),
			"processor.tdp":        num(150),
			"memory.capacity_gb":   num(64),
			"usage.location":       {Text: "FRA"},
		},
	}}
	r := New(repo, testConfig())

	d, err := device.FromSpec(device.Spec{Archetype: "platform_compute_medium"})
	require.NoError(t, err)
	require.NoError(t, r.Complete(context.Background(), d))

	cpu := d.ComponentsOf(device.TypeProcessor)[0]
	v, err := cpu.Attr("tdp").Value()
	require.NoError(t, err)
	assert.Equal(t, 150.0, v)
	assert.Equal(t, attribute.StatusArchetype, cpu.Attr("tdp").Status())
	assert.Equal(t, "platform_compute_medium", cpu.Attr("tdp").Source())

	// Attributes absent from the archetype fall back to hard defaults.
	assert.Equal(t, attribute.StatusDefault, cpu.Attr("die_size_per_core").Status())

	loc, err := d.Usage.Location().Value()
	require.NoError(t, err)
	assert.Equal(t, "FRA", loc)
	assert.Equal(t, attribute.StatusArchetype, d.Usage.Location().Status())

	// Power draw was derived after component completion.
	assert.Equal(t, attribute.StatusCompleted, d.Usage.AvgPower().Status())
}

func TestCompleteWithoutArchetypeUsesDefaults(t *testing.T) {
	t.Parallel()

	r := New(&fakeArchetypes{}, testConfig())
	d, err := device.FromSpec(device.Spec{})
	require.NoError(t, err)
	require.NoError(t, r.Complete(context.Background(), d))

	loc, err := d.Usage.Location().Value()
	require.NoError(t, err)
	assert.Equal(t, "EEE", loc)
	assert.Equal(t, attribute.StatusDefault, d.Usage.Location().Status())

	cpu := d.ComponentsOf(device.TypeProcessor)[0]
	assert.Equal(t, attribute.StatusDefault, cpu.Attr("core_units").Status())
}

func TestCompleteWithoutAnyLocationFails(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.location = ""
	r := New(&fakeArchetypes{}, cfg)

	d, err := device.FromSpec(device.Spec{})
	require.NoError(t, err)

	err = r.Complete(context.Background(), d)
	var cns *CountryNotSupportedError
	require.ErrorAs(t, err, &cns)
	assert.Empty(t, cns.Location)
	assert.False(t, d.Usage.Location().Status().Resolved())
}

func TestCompleteUnknownArchetype(t *testing.T) {
	t.Parallel()

	r := New(&fakeArchetypes{}, testConfig())
	d, err := device.FromSpec(device.Spec{Archetype: "does-not-exist"})
	require.NoError(t, err)

	err = r.Complete(context.Background(), d)
	var anf *ArchetypeNotFoundError
	require.ErrorAs(t, err, &anf)
	assert.Equal(t, "does-not-exist", anf.Archetype)
	assert.Equal(t, "server", anf.Kind)
}

func TestCompletePreservesInput(t *testing.T) {
	t.Parallel()

	repo := &fakeArchetypes{profiles: map[string]Archetype{
		"server/big": {"processor.core_units": num(64)},
	}}
	r := New(repo, testConfig())

	d, err := device.FromSpec(device.Spec{
		Archetype: "big",
		Processor: &device.ComponentSpec{"core_units": 2},
	})
	require.NoError(t, err)
	require.NoError(t, r.Complete(context.Background(), d))

	cpu := d.ComponentsOf(device.TypeProcessor)[0]
	v, err := cpu.Attr("core_units").Value()
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
	assert.Equal(t, attribute.StatusInput, cpu.Attr("core_units").Status())
}

func TestCompleteIsIdempotent(t *testing.T) {
	t.Parallel()

	r := New(&fakeArchetypes{}, testConfig())
	d, err := device.FromSpec(device.Spec{})
	require.NoError(t, err)

	require.NoError(t, r.Complete(context.Background(), d))
	first := d.Traces()

	require.NoError(t, r.Complete(context.Background(), d))
	assert.Equal(t, first, d.Traces())
}

func TestCompleteComponent(t *testing.T) {
	t.Parallel()

	repo := &fakeArchetypes{profiles: map[string]Archetype{
		"processor/xeon-like": {"core_units": num(16), "tdp": num(120)},
	}}
	r := New(repo, testConfig())

	c, err := device.ComponentFromSpec(device.TypeProcessor, nil)
	require.NoError(t, err)
	require.NoError(t, r.CompleteComponent(context.Background(), c, "xeon-like"))

	v, err := c.Attr("core_units").Value()
	require.NoError(t, err)
	assert.Equal(t, 16.0, v)
	assert.Equal(t, attribute.StatusArchetype, c.Attr("core_units").Status())

	err = r.CompleteComponent(context.Background(), c, "nope")
	var anf *ArchetypeNotFoundError
	assert.ErrorAs(t, err, &anf)
}

func TestRequestDefaults(t *testing.T) {
	t.Parallel()

	r := New(&fakeArchetypes{}, testConfig())

	criteria, duration, err := r.RequestDefaults(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, model.AllCriteria(), criteria)
	assert.Equal(t, 35040.0, duration)

	criteria, duration, err = r.RequestDefaults([]model.Criterion{model.CriterionGWP}, 8760)
	require.NoError(t, err)
	assert.Equal(t, []model.Criterion{model.CriterionGWP}, criteria)
	assert.Equal(t, 8760.0, duration)

	_, _, err = New(&fakeArchetypes{}, fakeConfig{}).RequestDefaults(nil, 0)
	assert.Error(t, err)
}
