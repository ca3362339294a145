package cli

import (
	"fmt"

	"safeguard-go/internal/models"

	"github.com/spf13/cobra"
)

type resourceFlags struct {
	input models.ResourceInput
	order int
}

func (f *resourceFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.input.Category, "category", "", "resource category")
	cmd.Flags().StringVar(&f.input.Title, "title", "", "resource title")
	cmd.Flags().StringVar(&f.input.Content, "content", "", "resource text")
	cmd.Flags().IntVar(&f.order, "order", 0, "position within the category")
}

func (f *resourceFlags) value(cmd *cobra.Command) models.ResourceInput {
	input := f.input
	if cmd.Flags().Changed("order") {
		order := f.order
		input.Order = &order
	}
	return input
}

func adminCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Moderate incidents, users and legal resources (admins only)",
	}

	var status string
	incidentsCmd := &cobra.Command{
		Use:   "incidents",
		Short: "List every incident report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			incidents, err := app.Admin.Incidents(cmd.Context(), models.IncidentStatus(status))
			if err != nil {
				return err
			}
			printIncidents(cmd.OutOrStdout(), incidents)
			return nil
		},
	}
	incidentsCmd.Flags().StringVar(&status, "status", "", "new, in_progress or resolved")

	var create, update resourceFlags
	addCmd := &cobra.Command{
		Use:   "resource-add",
		Short: "Add a legal resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resources, err := app.Admin.CreateResource(cmd.Context(), create.value(cmd))
			if err != nil {
				return err
			}
			printAdminResources(cmd.OutOrStdout(), resources)
			return nil
		},
	}
	create.bind(addCmd)
	updateCmd := &cobra.Command{
		Use:   "resource-update <resource-id>",
		Short: "Replace a legal resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resources, err := app.Admin.UpdateResource(cmd.Context(), args[0], update.value(cmd))
			if err != nil {
				return err
			}
			printAdminResources(cmd.OutOrStdout(), resources)
			return nil
		},
	}
	update.bind(updateCmd)

	var filter string
	statusCmd := &cobra.Command{
		Use:   "incident-status <incident-id> <status>",
		Short: "Move an incident to new, in_progress or resolved",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			incidents, err := app.Admin.SetIncidentStatus(cmd.Context(), args[0], models.IncidentStatus(args[1]), models.IncidentStatus(filter))
			if err != nil {
				return err
			}
			printIncidents(cmd.OutOrStdout(), incidents)
			return nil
		},
	}
	statusCmd.Flags().StringVar(&filter, "filter", "", "list only incidents with this status afterwards")

	cmd.AddCommand(
		incidentsCmd,
		statusCmd,
		&cobra.Command{
			Use:   "users",
			Short: "List users",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				users, err := app.Admin.Users(cmd.Context())
				if err != nil {
					return err
				}
				printUsers(cmd.OutOrStdout(), users)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-role <user-id> <role>",
			Short: "Change a user's role (user, moderator, admin)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				users, err := app.Admin.SetUserRole(cmd.Context(), args[0], models.Role(args[1]))
				if err != nil {
					return err
				}
				printUsers(cmd.OutOrStdout(), users)
				return nil
			},
		},
		addCmd,
		updateCmd,
		&cobra.Command{
			Use:   "resource-rm <resource-id>",
			Short: "Delete a legal resource",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				resources, err := app.Admin.DeleteResource(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Resource deleted.")
				printAdminResources(cmd.OutOrStdout(), resources)
				return nil
			},
		},
	)
	return cmd
}
