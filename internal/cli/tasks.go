package cli

import (
	"errors"

	"github.com/jrsteele09/marketplace-client/internal/utils"
	"github.com/jrsteele09/marketplace-client/marketplace"
	"github.com/spf13/cobra"
)

var taskHeader = []string{"ID", "PROJECT", "TITLE", "STATUS", "DEADLINE", "STAGE"}

func taskRow(t marketplace.Task) []string {
	return []string{
		t.ID,
		t.ProjectID,
		t.Title,
		string(t.Status),
		deref(t.Deadline, formatTime),
		lifecycleLabel(marketplace.TaskLifecycle(t.Status)),
	}
}

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Short:   "Plan and track the work on an assigned project",
		Aliases: []string{"task"},
	}

	var title, description, deadline string
	createCmd := &cobra.Command{
		Use:   "create [PROJECT_ID]",
		Short: "Add a task to a project assigned to you (solvers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return errors.New("--title is required")
			}
			if err := app.enter(cmd.Context(), "/solver/projects/"+args[0]+"/tasks"); err != nil {
				return err
			}
			in := marketplace.TaskCreate{Title: title, Description: description}
			var err error
			if in.Deadline, err = parseDeadline(deadline); err != nil {
				return err
			}
			t, err := app.api.CreateTask(cmd.Context(), args[0], in)
			if err != nil {
				return app.explain(err)
			}
			return app.printer.print(t, taskHeader, [][]string{taskRow(t)})
		},
	}
	createCmd.Flags().StringVar(&title, "title", "", "task title")
	createCmd.Flags().StringVar(&description, "description", "", "task description")
	createCmd.Flags().StringVar(&deadline, "deadline", "", "deadline, e.g. 2026-12-31")

	var params marketplace.ListParams
	listCmd := &cobra.Command{
		Use:   "list [PROJECT_ID]",
		Short: "List the tasks of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter(cmd.Context(), "/projects/"+args[0]+"/tasks"); err != nil {
				return err
			}
			page, err := app.api.ListTasks(cmd.Context(), args[0], params)
			if err != nil {
				return app.explain(err)
			}
			rows := make([][]string, len(page.Data))
			for i, t := range page.Data {
				rows[i] = taskRow(t)
			}
			if err := app.printer.print(page, taskHeader, rows); err != nil {
				return err
			}
			pageFooter(app, page)
			return nil
		},
	}
	addPageFlags(listCmd, &params)

	getCmd := &cobra.Command{
		Use:   "get [TASK_ID]",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter(cmd.Context(), "/tasks/"+args[0]); err != nil {
				return err
			}
			t, err := app.api.GetTask(cmd.Context(), args[0])
			if err != nil {
				return app.explain(err)
			}
			return app.printer.print(t, taskHeader, [][]string{taskRow(t)})
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update [TASK_ID]",
		Short: "Edit a task that is not yet completed (solvers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter(cmd.Context(), "/solver/tasks/"+args[0]); err != nil {
				return err
			}
			var in marketplace.TaskUpdate
			if cmd.Flags().Changed("title") {
				in.Title = utils.Ptr(title)
			}
			if cmd.Flags().Changed("description") {
				in.Description = utils.Ptr(description)
			}
			var err error
			if in.Deadline, err = parseDeadline(deadline); err != nil {
				return err
			}
			t, err := app.api.UpdateTask(cmd.Context(), args[0], in)
			if err != nil {
				return app.explain(err)
			}
			return app.printer.print(t, taskHeader, [][]string{taskRow(t)})
		},
	}
	updateCmd.Flags().StringVar(&title, "title", "", "new title")
	updateCmd.Flags().StringVar(&description, "description", "", "new description")
	updateCmd.Flags().StringVar(&deadline, "deadline", "", "new deadline")

	cmd.AddCommand(createCmd, listCmd, getCmd, updateCmd)
	return cmd
}
