package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/verdant-group/impact-cli/internal/resolver"
)

var archetypesKind string

var archetypesCmd = &cobra.Command{
	Use:   "archetypes",
	Short: "Inspect archetype profiles",
}

var archetypesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the profiles of one archetype kind",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		eng := initEngine()
		ids, err := eng.Refdata.ListArchetypes(ctx, archetypesKind)
		if err != nil {
			return eris.Wrapf(err, "list %s archetypes", archetypesKind)
		}

		for _, id := range ids {
			fmt.Fprintln(os.Stdout, id)
		}
		return nil
	},
}

var archetypesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the attribute defaults of one profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		eng := initEngine()
		arch, err := eng.Refdata.ResolveArchetype(ctx, archetypesKind, args[0])
		if err != nil {
			return err
		}

		formatArchetype(os.Stdout, arch)
		return nil
	},
}

func init() {
	archetypesCmd.PersistentFlags().StringVar(&archetypesKind, "kind", "server", "archetype kind")
	archetypesCmd.AddCommand(archetypesListCmd)
	archetypesCmd.AddCommand(archetypesShowCmd)
	rootCmd.AddCommand(archetypesCmd)
}

func formatArchetype(w io.Writer, arch resolver.Archetype) {
	for _, name := range sortedKeys(arch) {
		v := arch[name]
		switch {
		case v.Num != nil && v.Min != nil && v.Max != nil:
			fmt.Fprintf(w, "%s\t%v [%v, %v]\n", name, *v.Num, *v.Min, *v.Max)
		case v.Num != nil:
			fmt.Fprintf(w, "%s\t%v\n", name, *v.Num)
		default:
			fmt.Fprintf(w, "%s\t%s\n", name, v.Text)
		}
	}
}

func sortedKeys(arch resolver.Archetype) []string {
	keys := make([]string, 0, len(arch))
	for k := range arch {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
