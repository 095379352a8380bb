package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/verdant-group/impact-cli/internal/config"
	"github.com/verdant-group/impact-cli/internal/model"
	"github.com/verdant-group/impact-cli/internal/refdata"
	"github.com/verdant-group/impact-cli/internal/resolver"
	"github.com/verdant-group/impact-cli/internal/store"
)

// newTestEngine wires the computation collaborators against the fixture
// reference data in testdata/.
func newTestEngine() *engine {
	defaults := config.NewComputationDefaults(config.DefaultsConfig{
		DurationHours:      35040,
		Criteria:           []string{"gwp"},
		Location:           "EEE",
		SignificantFigures: 3,
		UncertaintyPercent: 0,
	})
	ref := refdata.NewStore("testdata", map[string]string{
		"server":    "rack_generic",
		"processor": "xeon_generic",
	})
	return &engine{
		Refdata:  ref,
		Resolver: resolver.New(ref, defaults),
		Defaults: defaults,
	}
}

// memStore is an in-memory assessment store for command tests.
type memStore struct {
	mu          sync.Mutex
	next        int
	assessments map[string]*model.Assessment
	order       []string
}

func newMemStore() *memStore {
	return &memStore{assessments: map[string]*model.Assessment{}}
}

func (m *memStore) CreateAssessment(_ context.Context, kind string, spec []byte) (*model.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	a := &model.Assessment{
		ID:        fmt.Sprintf("assessment-%04d", m.next),
		Kind:      kind,
		Spec:      spec,
		Status:    model.AssessmentRunning,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	m.assessments[a.ID] = a
	m.order = append(m.order, a.ID)
	return a, nil
}

func (m *memStore) CompleteAssessment(_ context.Context, id string, result *model.ImpactResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[id]
	if !ok {
		return fmt.Errorf("assessment not found: %s", id)
	}
	a.Status = model.AssessmentComplete
	a.Result = result
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memStore) FailAssessment(_ context.Context, id string, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[id]
	if !ok {
		return fmt.Errorf("assessment not found: %s", id)
	}
	a.Status = model.AssessmentFailed
	a.Error = errMsg
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memStore) GetAssessment(_ context.Context, id string) (*model.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[id]
	if !ok {
		return nil, fmt.Errorf("assessment not found: %s", id)
	}
	return a, nil
}

func (m *memStore) ListAssessments(_ context.Context, filter store.Filter) ([]model.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Assessment
	for i := len(m.order) - 1; i >= 0; i-- {
		a := m.assessments[m.order[i]]
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Kind != "" && a.Kind != filter.Kind {
			continue
		}
		out = append(out, *a)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) Migrate(context.Context) error { return nil }

func (m *memStore) Close() error { return nil }

// byStatus counts stored assessments per status.
func (m *memStore) byStatus(status model.AssessmentStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.assessments {
		if a.Status == status {
			n++
		}
	}
	return n
}
