package cli

import (
	"github.com/spf13/cobra"
)

func sosCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sos",
		Short: "Raise, check or resolve an SOS alert",
	}
	// Each invocation starts from the backend's view of the alert.
	refresh := func(cmd *cobra.Command) error {
		_, err := app.SOS.RefreshStatus(cmd.Context())
		return err
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "activate",
			Short: "Alert your emergency contacts with your current location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := refresh(cmd); err != nil {
					return err
				}
				status, err := app.SOS.Activate(cmd.Context())
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), status)
				return nil
			},
		},
		&cobra.Command{
			Use:   "deactivate",
			Short: "Resolve the active alert",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := refresh(cmd); err != nil {
					return err
				}
				status, err := app.SOS.Deactivate(cmd.Context())
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), status)
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether an alert is active",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := refresh(cmd); err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), app.SOS.Status())
				return nil
			},
		},
	)
	return cmd
}
