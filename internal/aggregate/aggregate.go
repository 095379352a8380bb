// Package aggregate walks a completed device and produces the final
// phase-broken-down, uncertainty-bounded impact result. One Aggregator
// serves exactly one computation and refuses to be reused.
package aggregate

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/verdant-group/impact-cli/internal/device"
	"github.com/verdant-group/impact-cli/internal/interval"
	"github.com/verdant-group/impact-cli/internal/model"
	"github.com/verdant-group/impact-cli/internal/resolver"
)

// state tracks the single-request lifecycle. No phase may be skipped or
// reordered, and aggregation must never observe an unset attribute.
type state int

const (
	stateBuilt state = iota
	stateCompleting
	stateCompleted
	stateAggregating
	stateDone
)

// Request parameterizes one computation.
type Request struct {
	Criteria   []model.Criterion
	Duration   float64 // hours; 0 means the configured default
	Allocation float64 // resource share for cloud instances; 0 means 1
	Verbose    bool
}

// Aggregator computes the impact of one device. Construct with New,
// call Run once.
type Aggregator struct {
	dev     *device.Device
	res     *resolver.Resolver
	factors resolver.FactorProvider
	cfg     resolver.ConfigProvider
	state   state
}

// New creates an Aggregator for a freshly built device.
func New(dev *device.Device, res *resolver.Resolver, factors resolver.FactorProvider, cfg resolver.ConfigProvider) *Aggregator {
	return &Aggregator{dev: dev, res: res, factors: factors, cfg: cfg, state: stateBuilt}
}

// Run completes the device and aggregates its impacts. Failure at any
// step discards the whole computation; a partial result is never
// returned.
func (a *Aggregator) Run(ctx context.Context, req Request) (*model.ImpactResult, error) {
	if a.state != stateBuilt {
		return nil, eris.New("aggregate: computation already ran")
	}

	criteria, duration, err := a.res.RequestDefaults(req.Criteria, req.Duration)
	if err != nil {
		return nil, err
	}
	allocation := req.Allocation
	if allocation == 0 {
		allocation = 1
	}
	if allocation < 0 || allocation > 1 {
		return nil, eris.Errorf("aggregate: allocation %v out of range", allocation)
	}

	a.state = stateCompleting
	if err := a.res.Complete(ctx, a.dev); err != nil {
		return nil, err
	}
	a.state = stateCompleted

	a.state = stateAggregating
	manufacture, err := a.manufacture(ctx, criteria, allocation)
	if err != nil {
		return nil, err
	}
	use, err := a.use(ctx, criteria, duration, allocation)
	if err != nil {
		return nil, err
	}

	figures := a.cfg.SignificantFigures()
	result := &model.ImpactResult{
		Phases: map[model.Phase]model.PhaseImpact{
			model.PhaseManufacture: roundPhase(manufacture, figures),
			model.PhaseUse:         roundPhase(use, figures),
		},
		Totals: model.PhaseImpact{},
	}
	for _, c := range criteria {
		total := manufacture[c].Add(use[c])
		result.Totals[c] = toImpactValue(total, c, figures)
	}
	if req.Verbose {
		result.Trace = traces(a.dev)
	}

	a.state = stateDone
	return result, nil
}

// manufacture sums every component's embodied impact per criterion
// using interval addition.
func (a *Aggregator) manufacture(ctx context.Context, criteria []model.Criterion, allocation float64) (map[model.Criterion]interval.Range, error) {
	out := make(map[model.Criterion]interval.Range, len(criteria))
	for _, crit := range criteria {
		var total interval.Range
		for _, c := range a.dev.Components {
			need, err := c.ManufactureNeed()
			if err != nil {
				return nil, eris.Wrapf(err, "aggregate: manufacture %s", c.ID())
			}
			factor, err := a.factors.ComponentFactor(ctx, need.FactorKey, crit)
			if err != nil {
				return nil, err
			}
			if factor.Range.Negative() {
				return nil, &ComputationError{Phase: model.PhaseManufacture, Criterion: crit, Value: factor.Range.Value}
			}
			impact, err := need.Quantity.Mul(factor.Range)
			if err != nil {
				return nil, &ComputationError{Phase: model.PhaseManufacture, Criterion: crit, Value: need.Quantity.Value}
			}
			total = total.Add(impact)
		}
		scaled, err := total.Scale(allocation)
		if err != nil {
			return nil, err
		}
		if scaled.Negative() {
			return nil, &ComputationError{Phase: model.PhaseManufacture, Criterion: crit, Value: scaled.Value}
		}
		out[crit] = scaled
	}
	return out, nil
}

// use computes the operational impact: power draw times powered-on
// hours, converted to kWh, times the location's electrical-mix factor.
func (a *Aggregator) use(ctx context.Context, criteria []model.Criterion, duration, allocation float64) (map[model.Criterion]interval.Range, error) {
	power, err := a.dev.Usage.AvgPower().Range()
	if err != nil {
		return nil, eris.Wrap(err, "aggregate: use phase")
	}
	ratio, err := a.dev.Usage.UseTimeRatio().Value()
	if err != nil {
		return nil, eris.Wrap(err, "aggregate: use phase")
	}
	location, err := a.dev.Usage.Location().Value()
	if err != nil {
		return nil, eris.Wrap(err, "aggregate: use phase")
	}

	energyKWh, err := power.Scale(duration * ratio / 1000)
	if err != nil {
		return nil, err
	}

	out := make(map[model.Criterion]interval.Range, len(criteria))
	for _, crit := range criteria {
		factor, err := a.electricityFactor(ctx, location, crit)
		if err != nil {
			return nil, err
		}
		if factor.Range.Negative() {
			return nil, &ComputationError{Phase: model.PhaseUse, Criterion: crit, Value: factor.Range.Value}
		}
		impact, err := energyKWh.Mul(factor.Range)
		if err != nil {
			return nil, &ComputationError{Phase: model.PhaseUse, Criterion: crit, Value: energyKWh.Value}
		}
		scaled, err := impact.Scale(allocation)
		if err != nil {
			return nil, err
		}
		if scaled.Negative() {
			return nil, &ComputationError{Phase: model.PhaseUse, Criterion: crit, Value: scaled.Value}
		}
		out[crit] = scaled
	}
	return out, nil
}

// electricityFactor resolves the mix factor for a location, falling
// back to the configured default location when the requested one has no
// entry. Without a configured fallback the lookup failure propagates.
func (a *Aggregator) electricityFactor(ctx context.Context, location string, crit model.Criterion) (resolver.Factor, error) {
	factor, err := a.factors.ElectricityFactor(ctx, location, crit)
	if err == nil {
		return factor, nil
	}
	var cns *resolver.CountryNotSupportedError
	if !eris.As(err, &cns) {
		return resolver.Factor{}, err
	}
	fallback := a.cfg.DefaultLocation()
	if fallback == "" || fallback == location {
		return resolver.Factor{}, err
	}
	return a.factors.ElectricityFactor(ctx, fallback, crit)
}

func roundPhase(impacts map[model.Criterion]interval.Range, figures int) model.PhaseImpact {
	out := make(model.PhaseImpact, len(impacts))
	for crit, r := range impacts {
		out[crit] = toImpactValue(r, crit, figures)
	}
	return out
}

// toImpactValue applies the one and only rounding step.
func toImpactValue(r interval.Range, crit model.Criterion, figures int) model.ImpactValue {
	rounded := r.Round(figures)
	return model.ImpactValue{
		Value: rounded.Value,
		Min:   rounded.Min,
		Max:   rounded.Max,
		Unit:  crit.Unit(),
	}
}

func traces(d *device.Device) []model.AttributeTrace {
	src := d.Traces()
	out := make([]model.AttributeTrace, 0, len(src))
	for _, tr := range src {
		out = append(out, model.AttributeTrace{
			Scope:  tr.Scope,
			Name:   tr.Name,
			Value:  tr.Value,
			Min:    tr.Min,
			Max:    tr.Max,
			Status: tr.Status,
			Source: tr.Source,
		})
	}
	return out
}
