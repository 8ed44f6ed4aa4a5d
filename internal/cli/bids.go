package cli

import (
	"errors"

	"github.com/jrsteele09/marketplace-client/marketplace"
	"github.com/spf13/cobra"
)

var requestHeader = []string{"ID", "PROJECT", "SOLVER", "STATUS", "CREATED"}

func requestRow(r marketplace.Request) []string {
	return []string{r.ID, r.ProjectID, r.SolverID, string(r.Status), formatTime(r.CreatedAt)}
}

func printRequests(app *App, page marketplace.Page[marketplace.Request]) error {
	rows := make([][]string, len(page.Data))
	for i, r := range page.Data {
		rows[i] = requestRow(r)
	}
	if err := app.printer.print(page, requestHeader, rows); err != nil {
		return err
	}
	pageFooter(app, page)
	return nil
}

// newBidsCmd covers project requests: a solver's bid to take on a project.
func newBidsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bids",
		Short:   "Bid on projects and review bids",
		Aliases: []string{"requests"},
	}

	var coverLetter string
	createCmd := &cobra.Command{
		Use:   "create [PROJECT_ID]",
		Short: "Bid on an open project (solvers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if coverLetter == "" {
				return errors.New("--cover-letter is required")
			}
			if err := app.enter(cmd.Context(), "/solver/projects/"+args[0]); err != nil {
				return err
			}
			r, err := app.api.CreateRequest(cmd.Context(), args[0], marketplace.RequestCreate{CoverLetter: coverLetter})
			if err != nil {
				return app.explain(err)
			}
			return app.printer.print(r, requestHeader, [][]string{requestRow(r)})
		},
	}
	createCmd.Flags().StringVar(&coverLetter, "cover-letter", "", "why you are the right fit")

	var params marketplace.ListParams
	mineCmd := &cobra.Command{
		Use:   "mine",
		Short: "List your bids (solvers)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter(cmd.Context(), "/solver/requests"); err != nil {
				return err
			}
			page, err := app.api.ListMyRequests(cmd.Context(), params)
			if err != nil {
				return app.explain(err)
			}
			return printRequests(app, page)
		},
	}
	addPageFlags(mineCmd, &params)

	listCmd := &cobra.Command{
		Use:   "list [PROJECT_ID]",
		Short: "List the bids on your project (buyers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter(cmd.Context(), "/buyer/projects/"+args[0]+"/requests"); err != nil {
				return err
			}
			page, err := app.api.ListProjectRequests(cmd.Context(), args[0], params)
			if err != nil {
				return app.explain(err)
			}
			return printRequests(app, page)
		},
	}
	addPageFlags(listCmd, &params)

	decide := func(use, short string, fn func(app *App, cmd *cobra.Command, id string) (marketplace.Request, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " [REQUEST_ID]",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app.enter(cmd.Context(), "/buyer/requests/"+args[0]); err != nil {
					return err
				}
				r, err := fn(app, cmd, args[0])
				if err != nil {
					return app.explain(err)
				}
				return app.printer.print(r, requestHeader, [][]string{requestRow(r)})
			},
		}
	}
	acceptCmd := decide("accept", "Accept a bid and assign the solver (buyers)", func(app *App, cmd *cobra.Command, id string) (marketplace.Request, error) {
		return app.api.AcceptRequest(cmd.Context(), id)
	})
	rejectCmd := decide("reject", "Reject a bid (buyers)", func(app *App, cmd *cobra.Command, id string) (marketplace.Request, error) {
		return app.api.RejectRequest(cmd.Context(), id)
	})

	cmd.AddCommand(createCmd, mineCmd, listCmd, acceptCmd, rejectCmd)
	return cmd
}
