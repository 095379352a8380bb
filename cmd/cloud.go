package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/verdant-group/impact-cli/internal/device"
)

var (
	cloudArchetype  string
	cloudLocation   string
	cloudCriteria   []string
	cloudDuration   float64
	cloudAllocation float64
	cloudVerbose    bool
)

var cloudCmd = &cobra.Command{
	Use:   "cloud",
	Short: "Compute the impact of a cloud instance",
	Long:  "Resolves the underlying hardware from an archetype profile and attributes the given share of both phases to the instance.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cloudAllocation <= 0 || cloudAllocation > 1 {
			return eris.Errorf("allocation must be in (0, 1], got %v", cloudAllocation)
		}

		spec := device.Spec{Archetype: cloudArchetype}
		if cloudLocation != "" {
			spec.Usage = &device.UsageSpec{Location: cloudLocation}
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		req, err := buildRequest(cloudCriteria, cloudDuration, cloudAllocation, cloudVerbose)
		if err != nil {
			return err
		}

		result, err := computeDevice(ctx, initEngine(), st, "cloud", spec, req)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	cloudCmd.Flags().StringVar(&cloudArchetype, "archetype", "", "underlying hardware archetype (required)")
	cloudCmd.Flags().StringVar(&cloudLocation, "location", "", "usage location trigram (default from config)")
	cloudCmd.Flags().StringSliceVar(&cloudCriteria, "criteria", nil, "impact criteria (default from config)")
	cloudCmd.Flags().Float64Var(&cloudDuration, "duration", 0, "lifetime hours (default from config)")
	cloudCmd.Flags().Float64Var(&cloudAllocation, "allocation", 0, "instance share of the host, 0 to 1 (required)")
	cloudCmd.Flags().BoolVar(&cloudVerbose, "verbose", false, "include attribute provenance in the output")
	_ = cloudCmd.MarkFlagRequired("archetype")
	_ = cloudCmd.MarkFlagRequired("allocation")
	rootCmd.AddCommand(cloudCmd)
}
