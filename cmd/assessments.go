package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/verdant-group/impact-cli/internal/model"
	"github.com/verdant-group/impact-cli/internal/store"
)

var assessmentsCmd = &cobra.Command{
	Use:   "assessments",
	Short: "Inspect recorded assessments",
	Long:  "Commands for listing and viewing past impact computations.",
}

// -- assessments list --

var assessmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded assessments",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		kind, _ := cmd.Flags().GetString("kind")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.Filter{
			Status: model.AssessmentStatus(status),
			Kind:   kind,
			Limit:  limit,
		}

		assessments, err := st.ListAssessments(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "assessments list")
		}

		if len(assessments) == 0 {
			fmt.Fprintln(os.Stderr, "No assessments found.")
			return nil
		}

		formatAssessmentsList(os.Stdout, assessments)
		return nil
	},
}

// -- assessments show --

var assessmentsShowCmd = &cobra.Command{
	Use:   "show <assessment-id>",
	Short: "Show full details of an assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		a, err := st.GetAssessment(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "assessments show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	},
}

func init() {
	assessmentsListCmd.Flags().String("status", "", "filter by status (running, complete, failed)")
	assessmentsListCmd.Flags().String("kind", "", "filter by kind (server, component:processor, ...)")
	assessmentsListCmd.Flags().Int("limit", 50, "max number of assessments to display")

	assessmentsCmd.AddCommand(assessmentsListCmd)
	assessmentsCmd.AddCommand(assessmentsShowCmd)
	rootCmd.AddCommand(assessmentsCmd)
}

// formatAssessmentsList writes a tabular list of assessments to w.
func formatAssessmentsList(out io.Writer, assessments []model.Assessment) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKIND\tSTATUS\tGWP_TOTAL\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t---------\t-------")

	for _, a := range assessments {
		gwp := ""
		if a.Result != nil {
			if v, ok := a.Result.Totals[model.CriterionGWP]; ok {
				gwp = fmt.Sprintf("%v %s", v.Value, v.Unit)
			}
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncateID(a.ID),
			a.Kind,
			a.Status,
			gwp,
			a.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
