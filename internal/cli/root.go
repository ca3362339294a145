package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// NewRootCommand builds the command tree. Every invocation resolves the
// stored session before its command runs.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "safeguard",
		Short:         "Personal safety: SOS alerts, incident reports, community forum and legal resources",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.Session.Start(cmd.Context())
			if err := app.Session.Err(); err != nil {
				app.Logger.Debug("session not restored", zap.Error(err))
			}
		},
	}
	root.AddCommand(
		signUpCommand(app),
		signInCommand(app),
		signOutCommand(app),
		whoAmICommand(app),
		watchCommand(app),
		sosCommand(app),
		incidentCommand(app),
		forumCommand(app),
		resourcesCommand(app),
		profileCommand(app),
		adminCommand(app),
	)
	return root
}

// Execute runs root and releases the session subscription however the
// command ends; cobra skips post-run hooks when a command fails.
func Execute(ctx context.Context, app *App, root *cobra.Command) error {
	defer app.Close()
	return root.ExecuteContext(ctx)
}

// readSecret reads a password without echo from a terminal, or one line
// from any other input.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
