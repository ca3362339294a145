package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"safeguard-go/internal/apperr"
	"safeguard-go/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type credentialFlags struct {
	email    string
	password string
}

func (f *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.email, "email", "", "account email")
	cmd.Flags().StringVar(&f.password, "password", "", "account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
}

func (f *credentialFlags) resolvePassword(cmd *cobra.Command) (string, error) {
	if f.password != "" {
		return f.password, nil
	}
	return readSecret(cmd, "Password: ")
}

func signUpCommand(app *App) *cobra.Command {
	var creds credentialFlags
	var fullName string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := creds.resolvePassword(cmd)
			if err != nil {
				return err
			}
			user, err := app.Session.SignUp(cmd.Context(), creds.email, password, fullName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s. Add emergency contacts with `safeguard profile contact add`.\n", deref(user.FullName, user.Email))
			return nil
		},
	}
	creds.bind(cmd)
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	return cmd
}

func signInCommand(app *App) *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in to an existing account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := creds.resolvePassword(cmd)
			if err != nil {
				return err
			}
			user, err := app.Session.SignIn(cmd.Context(), creds.email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s).\n", user.Email, user.Role)
			return nil
		},
	}
	creds.bind(cmd)
	return cmd
}

func signOutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Session.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func whoAmICommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Session.Err(); err != nil {
				return err
			}
			user := app.Session.Current()
			if user == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) %s\n", user.Email, user.Role, deref(user.FullName, ""))
			return nil
		},
	}
}

func watchCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow session changes made from other devices until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Watcher == nil {
				return fmt.Errorf("this backend does not push session events")
			}
			if !app.Session.IsAuthenticated() {
				if err := app.Session.Err(); err != nil {
					return err
				}
				return apperr.NotAuthenticated("watch")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			unsubscribe := app.Session.Subscribe(func(user *models.User) {
				if user == nil {
					fmt.Fprintln(out, "session ended")
					stop()
					return
				}
				fmt.Fprintf(out, "session active: %s (%s)\n", user.Email, user.Role)
			})
			defer unsubscribe()

			fmt.Fprintln(out, "Watching session events. Press Ctrl+C to stop.")
			err := app.Watcher.WatchSessionEvents(ctx)
			if ctx.Err() != nil {
				return nil
			}
			app.Logger.Debug("session watch ended", zap.Error(err))
			return err
		},
	}
}
