package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/verdant-group/impact-cli/internal/aggregate"
	"github.com/verdant-group/impact-cli/internal/device"
	"github.com/verdant-group/impact-cli/internal/model"
	"github.com/verdant-group/impact-cli/internal/store"
)

var (
	computeSpecPath   string
	computeArchetype  string
	computeLocation   string
	computeCriteria   []string
	computeDuration   float64
	computeAllocation float64
	computeVerbose    bool
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute the impact of a server",
	Long:  "Builds a server from a YAML spec file or an archetype, completes missing attributes, and prints the phase-broken-down impacts as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		spec, err := loadSpec(computeSpecPath)
		if err != nil {
			return err
		}
		if computeArchetype != "" {
			spec.Archetype = computeArchetype
		}
		if computeLocation != "" {
			if spec.Usage == nil {
				spec.Usage = &device.UsageSpec{}
			}
			spec.Usage.Location = computeLocation
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		req, err := buildRequest(computeCriteria, computeDuration, computeAllocation, computeVerbose)
		if err != nil {
			return err
		}

		result, err := computeDevice(ctx, initEngine(), st, "server", spec, req)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	computeCmd.Flags().StringVar(&computeSpecPath, "spec", "", "path to a YAML server spec")
	computeCmd.Flags().StringVar(&computeArchetype, "archetype", "", "archetype profile to complete from")
	computeCmd.Flags().StringVar(&computeLocation, "location", "", "usage location trigram (default from config)")
	computeCmd.Flags().StringSliceVar(&computeCriteria, "criteria", nil, "impact criteria (default from config)")
	computeCmd.Flags().Float64Var(&computeDuration, "duration", 0, "lifetime hours (default from config)")
	computeCmd.Flags().Float64Var(&computeAllocation, "allocation", 1, "resource share attributed to the workload, 0 to 1")
	computeCmd.Flags().BoolVar(&computeVerbose, "verbose", false, "include attribute provenance in the output")
	rootCmd.AddCommand(computeCmd)
}

func loadSpec(path string) (device.Spec, error) {
	var spec device.Spec
	if path == "" {
		return spec, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return spec, eris.Wrap(err, "read spec")
	}
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return spec, eris.Wrap(err, "parse spec")
	}
	return spec, nil
}

func buildRequest(criteria []string, duration, allocation float64, verbose bool) (aggregate.Request, error) {
	req := aggregate.Request{Duration: duration, Allocation: allocation, Verbose: verbose}
	if len(criteria) > 0 {
		parsed, err := model.ParseCriteria(criteria)
		if err != nil {
			return req, eris.Wrap(err, "criteria")
		}
		req.Criteria = parsed
	}
	return req, nil
}

// computeDevice runs one device computation and records it in the
// assessment store under the given kind.
func computeDevice(ctx context.Context, eng *engine, st store.Store, kind string, spec device.Spec, req aggregate.Request) (*model.ImpactResult, error) {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return nil, eris.Wrap(err, "marshal spec")
	}

	record, err := st.CreateAssessment(ctx, kind, specJSON)
	if err != nil {
		return nil, err
	}

	dev, err := device.FromSpec(spec)
	if err != nil {
		failAssessment(ctx, st, record.ID, err)
		return nil, err
	}

	agg := aggregate.New(dev, eng.Resolver, eng.Refdata, eng.Defaults)
	result, err := agg.Run(ctx, req)
	if err != nil {
		failAssessment(ctx, st, record.ID, err)
		return nil, err
	}

	if err := st.CompleteAssessment(ctx, record.ID, result); err != nil {
		return nil, err
	}

	zap.L().Info("computation complete",
		zap.String("assessment_id", record.ID),
		zap.String("kind", kind),
		zap.String("archetype", spec.Archetype))
	return result, nil
}

func failAssessment(ctx context.Context, st store.Store, id string, cause error) {
	if err := st.FailAssessment(ctx, id, cause.Error()); err != nil {
		zap.L().Warn("failed to record assessment failure",
			zap.String("assessment_id", id),
			zap.Error(err))
	}
}
