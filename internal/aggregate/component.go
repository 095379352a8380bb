package aggregate

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/verdant-group/impact-cli/internal/device"
	"github.com/verdant-group/impact-cli/internal/model"
	"github.com/verdant-group/impact-cli/internal/resolver"
)

// Component computes the embodied impact of one completed component.
// Standalone component assessment has no use phase; totals equal the
// manufacture phase.
func Component(ctx context.Context, c *device.Component, factors resolver.FactorProvider, cfg resolver.ConfigProvider, criteria []model.Criterion) (*model.ImpactResult, error) {
	if len(criteria) == 0 {
		criteria = cfg.DefaultCriteria()
	}

	need, err := c.ManufactureNeed()
	if err != nil {
		return nil, eris.Wrapf(err, "aggregate: component %s", c.ID())
	}

	figures := cfg.SignificantFigures()
	manufacture := make(model.PhaseImpact, len(criteria))
	for _, crit := range criteria {
		factor, err := factors.ComponentFactor(ctx, need.FactorKey, crit)
		if err != nil {
			return nil, err
		}
		impact, err := need.Quantity.Mul(factor.Range)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: component %s", c.ID())
		}
		if impact.Negative() {
			return nil, &ComputationError{Phase: model.PhaseManufacture, Criterion: crit, Value: impact.Value}
		}
		manufacture[crit] = toImpactValue(impact, crit, figures)
	}

	return &model.ImpactResult{
		Phases: map[model.Phase]model.PhaseImpact{model.PhaseManufacture: manufacture},
		Totals: manufacture,
	}, nil
}
