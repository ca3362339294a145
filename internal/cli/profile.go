package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"safeguard-go/internal/apperr"
	"safeguard-go/internal/models"

	"github.com/spf13/cobra"
)

func profileCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View and edit your profile and emergency contacts",
	}

	var name, phone string
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Change your name or phone number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var namePtr, phonePtr *string
			if cmd.Flags().Changed("name") {
				namePtr = &name
			}
			if cmd.Flags().Changed("phone") {
				phonePtr = &phone
			}
			user, err := app.Profile.Update(cmd.Context(), namePtr, phonePtr)
			if err != nil {
				return err
			}
			printUser(cmd.OutOrStdout(), user, app.link)
			return nil
		},
	}
	updateCmd.Flags().StringVar(&name, "name", "", "full name")
	updateCmd.Flags().StringVar(&phone, "phone", "", "phone number")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show your profile",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := app.Profile.Show()
				if err != nil {
					return err
				}
				printUser(cmd.OutOrStdout(), user, app.link)
				return nil
			},
		},
		updateCmd,
		&cobra.Command{
			Use:   "picture <image-file>",
			Short: "Upload a profile picture",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				file, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer file.Close()
				user, err := app.Profile.SetPicture(cmd.Context(), filepath.Base(args[0]), file)
				if err != nil {
					return err
				}
				printUser(cmd.OutOrStdout(), user, app.link)
				return nil
			},
		},
		contactCommand(app),
	)
	return cmd
}

func contactCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Manage emergency contacts",
	}
	var contact models.EmergencyContact
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add an emergency contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.Profile.AddContact(cmd.Context(), contact)
			if err != nil {
				return err
			}
			printUser(cmd.OutOrStdout(), user, app.link)
			return nil
		},
	}
	addCmd.Flags().StringVar(&contact.Name, "name", "", "contact name")
	addCmd.Flags().StringVar(&contact.Email, "email", "", "contact email")
	addCmd.Flags().StringVar(&contact.Phone, "phone", "", "contact phone")

	cmd.AddCommand(
		addCmd,
		&cobra.Command{
			Use:   "remove <position>",
			Short: "Remove the contact at a listed position",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				position, err := strconv.Atoi(args[0])
				if err != nil {
					return apperr.Validation("remove emergency contact", "position must be a number, got %q", args[0])
				}
				user, err := app.Profile.RemoveContact(cmd.Context(), position-1)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Contact removed.")
				printUser(cmd.OutOrStdout(), user, app.link)
				return nil
			},
		},
	)
	return cmd
}
