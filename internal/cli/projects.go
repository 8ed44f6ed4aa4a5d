package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jrsteele09/marketplace-client/internal/jsontime"
	"github.com/jrsteele09/marketplace-client/internal/utils"
	"github.com/jrsteele09/marketplace-client/marketplace"
	"github.com/spf13/cobra"
)

func addPageFlags(cmd *cobra.Command, p *marketplace.ListParams) {
	cmd.Flags().IntVar(&p.Page, "page", marketplace.DefaultPage, "page number")
	cmd.Flags().IntVar(&p.Limit, "limit", marketplace.DefaultLimit, "items per page")
}

func pageFooter[T any](app *App, page marketplace.Page[T]) {
	app.printer.message("Page %d of %d (%d total)", page.Meta.Page, page.Meta.TotalPages, page.Meta.Total)
}

func parseDeadline(s string) (*jsontime.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := jsontime.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --deadline %q: %w", s, err)
	}
	return &t, nil
}

func formatTime(t jsontime.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func lifecycleLabel(l marketplace.Lifecycle) string {
	if step, ok := l.Current(); ok {
		return step.Label
	}
	return "-"
}

var projectHeader = []string{"ID", "TITLE", "STATUS", "BUDGET", "DEADLINE", "STAGE"}

func projectRow(p marketplace.Project) []string {
	return []string{
		p.ID,
		p.Title,
		string(p.Status),
		deref(p.Budget, func(d marketplace.Decimal) string { return string(d) }),
		deref(p.Deadline, formatTime),
		lifecycleLabel(marketplace.ProjectLifecycle(p.Status)),
	}
}

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Short:   "Browse and manage projects",
		Aliases: []string{"project"},
	}

	var params marketplace.ListParams
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the projects you can see",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter(cmd.Context(), "/projects"); err != nil {
				return err
			}
			page, err := app.api.ListProjects(cmd.Context(), params)
			if err != nil {
				return app.explain(err)
			}
			rows := make([][]string, len(page.Data))
			for i, p := range page.Data {
				rows[i] = projectRow(p)
			}
			if err := app.printer.print(page, projectHeader, rows); err != nil {
				return err
			}
			pageFooter(app, page)
			return nil
		},
	}
	addPageFlags(listCmd, &params)

	getCmd := &cobra.Command{
		Use:   "get [PROJECT_ID]",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter(cmd.Context(), "/projects/"+args[0]); err != nil {
				return err
			}
			p, err := app.api.GetProject(cmd.Context(), args[0])
			if err != nil {
				return app.explain(err)
			}
			return app.printer.print(p, projectHeader, [][]string{projectRow(p)})
		},
	}

	var title, description, budget, deadline string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Post a new project (buyers)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" || description == "" {
				return errors.New("--title and --description are required")
			}
			if err := app.enter(cmd.Context(), "/buyer/projects/new"); err != nil {
				return err
			}
			in := marketplace.ProjectCreate{Title: title, Description: description}
			if budget != "" {
				if _, err := strconv.ParseFloat(budget, 64); err != nil {
					return fmt.Errorf("invalid --budget %q", budget)
				}
				d := marketplace.Decimal(budget)
				in.Budget = &d
			}
			var err error
			if in.Deadline, err = parseDeadline(deadline); err != nil {
				return err
			}
			p, err := app.api.CreateProject(cmd.Context(), in)
			if err != nil {
				return app.explain(err)
			}
			app.printer.message("Created project %s", p.ID)
			return app.printer.print(p, projectHeader, [][]string{projectRow(p)})
		},
	}
	createCmd.Flags().StringVar(&title, "title", "", "project title")
	createCmd.Flags().StringVar(&description, "description", "", "what needs doing")
	createCmd.Flags().StringVar(&budget, "budget", "", "budget, e.g. 1500.00")
	createCmd.Flags().StringVar(&deadline, "deadline", "", "deadline, e.g. 2026-12-31")

	updateCmd := &cobra.Command{
		Use:   "update [PROJECT_ID]",
		Short: "Edit an open project (buyers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter(cmd.Context(), "/buyer/projects/"+args[0]); err != nil {
				return err
			}
			var in marketplace.ProjectUpdate
			if cmd.Flags().Changed("title") {
				in.Title = utils.Ptr(title)
			}
			if cmd.Flags().Changed("description") {
				in.Description = utils.Ptr(description)
			}
			if cmd.Flags().Changed("budget") {
				d := marketplace.Decimal(budget)
				in.Budget = &d
			}
			var err error
			if in.Deadline, err = parseDeadline(deadline); err != nil {
				return err
			}
			p, err := app.api.UpdateProject(cmd.Context(), args[0], in)
			if err != nil {
				return app.explain(err)
			}
			return app.printer.print(p, projectHeader, [][]string{projectRow(p)})
		},
	}
	updateCmd.Flags().StringVar(&title, "title", "", "new title")
	updateCmd.Flags().StringVar(&description, "description", "", "new description")
	updateCmd.Flags().StringVar(&budget, "budget", "", "new budget")
	updateCmd.Flags().StringVar(&deadline, "deadline", "", "new deadline")

	cmd.AddCommand(listCmd, getCmd, createCmd, updateCmd)
	return cmd
}
