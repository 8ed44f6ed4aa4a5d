package cli

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jrsteele09/marketplace-client/internal/utils"
	"github.com/jrsteele09/marketplace-client/marketplace"
	"github.com/spf13/cobra"
)

var submissionHeader = []string{"ID", "TASK", "FILE", "SIZE", "STATUS", "SUBMITTED", "REVIEW NOTES"}

func submissionRow(s marketplace.Submission) []string {
	return []string{
		s.ID,
		s.TaskID,
		s.FileName,
		strconv.FormatInt(s.FileSize, 10),
		string(s.Status),
		formatTime(s.SubmittedAt),
		orDash(utils.Value(s.ReviewerNotes)),
	}
}

func newSubmissionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "submissions",
		Short:   "Deliver work and review deliveries",
		Aliases: []string{"submission"},
	}

	var notes string
	var progress bool
	uploadCmd := &cobra.Command{
		Use:   "upload [TASK_ID] [FILE]",
		Short: "Upload a deliverable for a task (solvers)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, file := args[0], args[1]
			if err := app.enter(cmd.Context(), "/solver/tasks/"+taskID); err != nil {
				return err
			}
			var (
				s   marketplace.Submission
				err error
			)
			if progress {
				s, err = uploadStreaming(app, cmd, taskID, file, notes)
			} else {
				s, err = uploadBuffered(app, cmd, taskID, file, notes)
			}
			if err != nil {
				return app.explain(err)
			}
			return app.printer.print(s, submissionHeader, [][]string{submissionRow(s)})
		},
	}
	uploadCmd.Flags().StringVar(&notes, "notes", "", "notes for the reviewer")
	uploadCmd.Flags().BoolVar(&progress, "progress", false, "stream the file and report progress on stderr")

	var params marketplace.ListParams
	listCmd := &cobra.Command{
		Use:   "list [TASK_ID]",
		Short: "List the submissions for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter(cmd.Context(), "/tasks/"+args[0]+"/submissions"); err != nil {
				return err
			}
			page, err := app.api.ListSubmissions(cmd.Context(), args[0], params)
			if err != nil {
				return app.explain(err)
			}
			rows := make([][]string, len(page.Data))
			for i, s := range page.Data {
				rows[i] = submissionRow(s)
			}
			if err := app.printer.print(page, submissionHeader, rows); err != nil {
				return err
			}
			pageFooter(app, page)
			return nil
		},
	}
	addPageFlags(listCmd, &params)

	downloadCmd := &cobra.Command{
		Use:   "download [SUBMISSION_ID]",
		Short: "Print a short-lived download URL for a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter(cmd.Context(), "/submissions/"+args[0]); err != nil {
				return err
			}
			u, err := app.api.DownloadURL(cmd.Context(), args[0])
			if err != nil {
				return app.explain(err)
			}
			return app.printer.print(marketplace.SubmissionDownload{DownloadURL: u}, []string{"DOWNLOAD URL"}, [][]string{{u}})
		},
	}

	acceptCmd := &cobra.Command{
		Use:   "accept [SUBMISSION_ID]",
		Short: "Accept a submission and complete its task (buyers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter(cmd.Context(), "/buyer/submissions/"+args[0]); err != nil {
				return err
			}
			s, err := app.api.AcceptSubmission(cmd.Context(), args[0])
			if err != nil {
				return app.explain(err)
			}
			return app.printer.print(s, submissionHeader, [][]string{submissionRow(s)})
		},
	}

	var reviewerNotes string
	rejectCmd := &cobra.Command{
		Use:   "reject [SUBMISSION_ID]",
		Short: "Send a submission back for revision (buyers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reviewerNotes == "" {
				return errors.New("--notes is required when rejecting")
			}
			if err := app.enter(cmd.Context(), "/buyer/submissions/"+args[0]); err != nil {
				return err
			}
			s, err := app.api.RejectSubmission(cmd.Context(), args[0], reviewerNotes)
			if err != nil {
				return app.explain(err)
			}
			return app.printer.print(s, submissionHeader, [][]string{submissionRow(s)})
		},
	}
	rejectCmd.Flags().StringVar(&reviewerNotes, "notes", "", "what needs to change")

	cmd.AddCommand(uploadCmd, listCmd, downloadCmd, acceptCmd, rejectCmd)
	return cmd
}

func uploadBuffered(app *App, cmd *cobra.Command, taskID, file, notes string) (marketplace.Submission, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return marketplace.Submission{}, err
	}
	return app.api.UploadSubmission(cmd.Context(), taskID, marketplace.Upload{
		Filename:    filepath.Base(file),
		ContentType: mime.TypeByExtension(filepath.Ext(file)),
		Content:     content,
		Notes:       notes,
	})
}

func uploadStreaming(app *App, cmd *cobra.Command, taskID, file, notes string) (marketplace.Submission, error) {
	f, err := os.Open(file)
	if err != nil {
		return marketplace.Submission{}, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return marketplace.Submission{}, err
	}

	w := cmd.ErrOrStderr()
	last := -1
	s, err := app.api.UploadSubmissionWithProgress(cmd.Context(), taskID, filepath.Base(file), f, info.Size(), notes,
		func(sent, total int64) {
			if total <= 0 {
				return
			}
			pct := int(sent * 100 / total)
			if pct != last {
				fmt.Fprintf(w, "\ruploading %s: %3d%%", filepath.Base(file), pct)
				last = pct
			}
		})
	if last >= 0 {
		fmt.Fprintln(w)
	}
	return s, err
}
