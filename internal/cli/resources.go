package cli

import (
	"safeguard-go/internal/models"

	"github.com/spf13/cobra"
)

func resourcesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Browse legal resources",
	}
	var filter models.ResourceFilter
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List resources by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resources, err := app.Resources.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printResources(cmd.OutOrStdout(), resources)
			return nil
		},
	}
	listCmd.Flags().StringVar(&filter.Category, "category", "", "only this category")
	listCmd.Flags().StringVar(&filter.Search, "search", "", "match title or content")

	cmd.AddCommand(
		listCmd,
		&cobra.Command{
			Use:   "categories",
			Short: "List resource categories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				categories, err := app.Resources.Categories(cmd.Context())
				if err != nil {
					return err
				}
				printOptions(cmd.OutOrStdout(), categories)
				return nil
			},
		},
	)
	return cmd
}
