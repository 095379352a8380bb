package main

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/verdant-group/impact-cli/internal/aggregate"
	"github.com/verdant-group/impact-cli/internal/device"
	"github.com/verdant-group/impact-cli/internal/model"
)

var (
	componentArchetype string
	componentCriteria  []string
	componentSet       []string
)

var componentCmd = &cobra.Command{
	Use:       "component <type>",
	Short:     "Compute the embodied impact of a single component",
	Long:      "Assesses one component in isolation: attributes given with --set are kept, the rest come from the archetype and defaults. Only the manufacture phase applies.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: componentTypeNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		typ, err := device.ParseType(args[0])
		if err != nil {
			return err
		}

		spec, err := parseSetFlags(componentSet)
		if err != nil {
			return err
		}
		c, err := device.ComponentFromSpec(typ, spec)
		if err != nil {
			return err
		}

		var criteria []model.Criterion
		if len(componentCriteria) > 0 {
			criteria, err = model.ParseCriteria(componentCriteria)
			if err != nil {
				return eris.Wrap(err, "criteria")
			}
		}

		eng := initEngine()
		if err := eng.Resolver.CompleteComponent(ctx, c, componentArchetype); err != nil {
			return err
		}
		result, err := aggregate.Component(ctx, c, eng.Refdata, eng.Defaults, criteria)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	componentCmd.Flags().StringVar(&componentArchetype, "archetype", "", "component archetype profile")
	componentCmd.Flags().StringSliceVar(&componentCriteria, "criteria", nil, "impact criteria (default from config)")
	componentCmd.Flags().StringArrayVar(&componentSet, "set", nil, "attribute value, as name=value (repeatable)")
	rootCmd.AddCommand(componentCmd)
}

func componentTypeNames() []string {
	types := device.AllTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}

// parseSetFlags turns name=value pairs into a component spec, keeping
// numeric values numeric so domain checks apply.
func parseSetFlags(pairs []string) (device.ComponentSpec, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	spec := device.ComponentSpec{}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, eris.Errorf("invalid --set %q, want name=value", pair)
		}
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			spec[name] = n
		} else {
			spec[name] = value
		}
	}
	return spec, nil
}
