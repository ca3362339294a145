package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"safeguard-go/internal/views"

	"github.com/spf13/cobra"
)

func incidentCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "incident",
		Short: "Report incidents and attach evidence",
	}

	var report views.IncidentReport
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Report an incident",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			incidents, err := app.Incidents.Report(cmd.Context(), report)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Incident reported.")
			printIncidents(cmd.OutOrStdout(), incidents)
			return nil
		},
	}
	reportCmd.Flags().StringVar(&report.Type, "type", "", "incident type (see `safeguard incident types`)")
	reportCmd.Flags().StringVar(&report.Title, "title", "", "short title")
	reportCmd.Flags().StringVar(&report.Description, "description", "", "what happened")
	reportCmd.Flags().BoolVar(&report.Anonymous, "anonymous", false, "hide your identity from reviewers")
	reportCmd.Flags().BoolVar(&report.UseCurrentLocation, "here", false, "attach your current location")

	cmd.AddCommand(
		reportCmd,
		&cobra.Command{
			Use:   "list",
			Short: "List your reports",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				incidents, err := app.Incidents.List(cmd.Context())
				if err != nil {
					return err
				}
				printIncidents(cmd.OutOrStdout(), incidents)
				return nil
			},
		},
		&cobra.Command{
			Use:   "types",
			Short: "List incident types",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				printOptions(cmd.OutOrStdout(), app.Incidents.Types())
			},
		},
		&cobra.Command{
			Use:   "evidence <incident-id> <file>",
			Short: "Attach a file to one of your reports",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				file, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer file.Close()
				incidents, err := app.Incidents.AttachEvidence(cmd.Context(), args[0], filepath.Base(args[1]), file)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Evidence attached.")
				printIncidents(cmd.OutOrStdout(), incidents)
				return nil
			},
		},
	)
	return cmd
}
