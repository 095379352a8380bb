package refdata

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-group/impact-cli/internal/model"
	"github.com/verdant-group/impact-cli/internal/resolver"
)

func TestResolveArchetypeServer(t *testing.T) {
	t.Parallel()

	s := NewStore("testdata", nil)
	arch, err := s.ResolveArchetype(context.Background(), "server", "rack_generic")
	require.NoError(t, err)

	cores, ok := arch["processor.core_units"]
	require.True(t, ok)
	require.NotNil(t, cores.Num)
	assert.Equal(t, 24.0, *cores.Num)
	require.NotNil(t, cores.Min)
	assert.Equal(t, 16.0, *cores.Min)
	require.NotNil(t, cores.Max)
	assert.Equal(t, 32.0, *cores.Max)

	tdp, ok := arch["processor.tdp"]
	require.True(t, ok)
	require.NotNil(t, tdp.Num)
	assert.Equal(t, 150.0, *tdp.Num)
	assert.Nil(t, tdp.Min)

	storageType, ok := arch["storage.storage_type"]
	require.True(t, ok)
	assert.Equal(t, "ssd", storageType.Text)

	location, ok := arch["usage.location"]
	require.True(t, ok)
	assert.Equal(t, "EEE", location.Text)
}

func TestResolveArchetypeComponent(t *testing.T) {
	t.Parallel()

	s := NewStore("testdata", nil)
	arch, err := s.ResolveArchetype(context.Background(), "processor", "xeon_generic")
	require.NoError(t, err)

	cores, ok := arch["core_units"]
	require.True(t, ok)
	require.NotNil(t, cores.Num)
	assert.Equal(t, 28.0, *cores.Num)
}

func TestResolveArchetypeDefaultAlias(t *testing.T) {
	t.Parallel()

	s := NewStore("testdata", map[string]string{"server": "blade_small"})
	arch, err := s.ResolveArchetype(context.Background(), "server", "default")
	require.NoError(t, err)

	tdp := arch["processor.tdp"]
	require.NotNil(t, tdp.Num)
	assert.Equal(t, 95.0, *tdp.Num)
}

func TestResolveArchetypeUnknown(t *testing.T) {
	t.Parallel()

	s := NewStore("testdata", nil)
	_, err := s.ResolveArchetype(context.Background(), "server", "mainframe")
	var notFound *resolver.ArchetypeNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "server", notFound.Kind)
	assert.Equal(t, "mainframe", notFound.Archetype)
}

func TestResolveArchetypeMissingTable(t *testing.T) {
	t.Parallel()

	s := NewStore("testdata", nil)
	_, err := s.ResolveArchetype(context.Background(), "mainframe", "anything")
	require.Error(t, err)
}

func TestListArchetypes(t *testing.T) {
	t.Parallel()

	s := NewStore("testdata", nil)
	ids, err := s.ListArchetypes(context.Background(), "server")
	require.NoError(t, err)
	assert.Equal(t, []string{"rack_generic", "blade_small"}, ids)
}

func TestComponentFactor(t *testing.T) {
	t.Parallel()

	s := NewStore("testdata", nil)

	f, err := s.ComponentFactor(context.Background(), "processor", model.CriterionGWP)
	require.NoError(t, err)
	assert.Equal(t, 1.97, f.Range.Value)
	assert.Equal(t, 1.8, f.Range.Min)
	assert.Equal(t, 2.2, f.Range.Max)
	assert.Equal(t, "die-area regression", f.Source)

	// Scalar entries collapse to exact ranges.
	f, err = s.ComponentFactor(context.Background(), "memory", model.CriterionGWP)
	require.NoError(t, err)
	assert.Equal(t, 2.2, f.Range.Value)
	assert.Equal(t, 2.2, f.Range.Min)
	assert.Equal(t, 2.2, f.Range.Max)

	_, err = s.ComponentFactor(context.Background(), "abacus", model.CriterionGWP)
	require.Error(t, err)
}

func TestElectricityFactor(t *testing.T) {
	t.Parallel()

	s := NewStore("testdata", nil)

	f, err := s.ElectricityFactor(context.Background(), "FRA", model.CriterionGWP)
	require.NoError(t, err)
	assert.Equal(t, 0.098, f.Range.Value)
	assert.Equal(t, "national mix", f.Source)

	_, err = s.ElectricityFactor(context.Background(), "ATLANTIS", model.CriterionGWP)
	var cns *resolver.CountryNotSupportedError
	require.ErrorAs(t, err, &cns)
	assert.Equal(t, "ATLANTIS", cns.Location)
}

func TestConcurrentLoads(t *testing.T) {
	t.Parallel()

	s := NewStore("testdata", nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ResolveArchetype(context.Background(), "server", "rack_generic")
			assert.NoError(t, err)
			_, err = s.ComponentFactor(context.Background(), "ssd", model.CriterionPE)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestParseCell(t *testing.T) {
	t.Parallel()

	v, err := parseCell("1.5")
	require.NoError(t, err)
	require.NotNil(t, v.Num)
	assert.Equal(t, 1.5, *v.Num)

	v, err = parseCell("rack")
	require.NoError(t, err)
	assert.Equal(t, "rack", v.Text)

	_, err = parseCell("1;2")
	require.Error(t, err)

	_, err = parseCell("1;two;3")
	require.Error(t, err)
}
