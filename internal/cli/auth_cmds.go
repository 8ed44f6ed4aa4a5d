package cli

import (
	"errors"

	"github.com/jrsteele09/marketplace-client/access"
	"github.com/jrsteele09/marketplace-client/sessions"
	"github.com/jrsteele09/marketplace-client/users"
	"github.com/spf13/cobra"
)

func profileRow(p *users.Profile) []string {
	return []string{p.ID, p.Email, p.Name, string(p.Role)}
}

var profileHeader = []string{"ID", "EMAIL", "NAME", "ROLE"}

func newLoginCmd(app *App) *cobra.Command {
	var email, next string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an email address (development login)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			user, err := app.session.Login(cmd.Context(), email, sessions.WithReturnTo(next))
			if err != nil {
				return err
			}
			return app.signedIn(user)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&next, "next", "", "location to open after sign-in")
	return cmd
}

func (a *App) signedIn(user *users.Profile) error {
	a.printer.message("Signed in as %s (%s), opening %s", user.Email, user.Role, a.location)
	return a.printer.print(user, profileHeader, [][]string{profileRow(user)})
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.session.Logout(cmd.Context()); err != nil {
				return err
			}
			app.printer.message("Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter(cmd.Context(), "/profile"); err != nil {
				return err
			}
			user := app.session.CurrentUser()
			app.printer.message("Home: %s", access.RouteForRole(user.Role))
			return app.printer.print(user, profileHeader, [][]string{profileRow(user)})
		},
	}
}

func newOAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oauth",
		Short: "Sign in through Google or GitHub",
	}

	var provider string
	urlCmd := &cobra.Command{
		Use:   "url",
		Short: "Print the provider consent URL to open in a browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.session.ProviderURL(cmd.Context(), provider)
			if err != nil {
				return err
			}
			return app.printer.print(map[string]string{"url": u}, []string{"URL"}, [][]string{{u}})
		},
	}
	urlCmd.Flags().StringVar(&provider, "provider", sessions.ProviderGoogle, "google or github")

	var code, next string
	callbackCmd := &cobra.Command{
		Use:   "callback",
		Short: "Finish a provider sign-in with the code from the redirect",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.session.LoginWithProvider(cmd.Context(), provider, code, sessions.WithReturnTo(next))
			if err != nil {
				return err
			}
			return app.signedIn(user)
		},
	}
	callbackCmd.Flags().StringVar(&provider, "provider", sessions.ProviderGoogle, "google or github")
	callbackCmd.Flags().StringVar(&code, "code", "", "authorization code")
	callbackCmd.Flags().StringVar(&next, "next", "", "location to open after sign-in")

	cmd.AddCommand(urlCmd, callbackCmd)
	return cmd
}
