package cli

import (
	"fmt"

	"github.com/jrsteele09/marketplace-client/marketplace"
	"github.com/jrsteele09/marketplace-client/users"
	"github.com/spf13/cobra"
)

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administer accounts (admins)",
	}

	var params marketplace.ListParams
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter(cmd.Context(), "/admin/users"); err != nil {
				return err
			}
			page, err := app.api.ListUsers(cmd.Context(), params)
			if err != nil {
				return app.explain(err)
			}
			rows := make([][]string, len(page.Data))
			for i := range page.Data {
				rows[i] = profileRow(&page.Data[i])
			}
			if err := app.printer.print(page, profileHeader, rows); err != nil {
				return err
			}
			pageFooter(app, page)
			return nil
		},
	}
	addPageFlags(listCmd, &params)

	getCmd := &cobra.Command{
		Use:   "get [USER_ID]",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter(cmd.Context(), "/admin/users/"+args[0]); err != nil {
				return err
			}
			u, err := app.api.GetUser(cmd.Context(), args[0])
			if err != nil {
				return app.explain(err)
			}
			return app.printer.print(u, profileHeader, [][]string{profileRow(&u)})
		},
	}

	setRoleCmd := &cobra.Command{
		Use:   "set-role [USER_ID] [BUYER|SOLVER]",
		Short: "Change an account's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := users.ParseRole(args[1])
			if role != users.RoleBuyer && role != users.RoleSolver {
				return fmt.Errorf("role must be BUYER or SOLVER, got %q", args[1])
			}
			if err := app.enter(cmd.Context(), "/admin/users/"+args[0]); err != nil {
				return err
			}
			u, err := app.api.UpdateUserRole(cmd.Context(), args[0], role)
			if err != nil {
				return app.explain(err)
			}
			return app.printer.print(u, profileHeader, [][]string{profileRow(&u)})
		},
	}

	cmd.AddCommand(listCmd, getCmd, setRoleCmd)
	return cmd
}
