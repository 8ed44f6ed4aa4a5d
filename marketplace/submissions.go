package marketplace

import (
	"context"
	"io"
	"net/http"

	"github.com/jrsteele09/marketplace-client/apiclient"
	"github.com/jrsteele09/marketplace-client/querycache"
)

const (
	submissionFileField  = "file"
	submissionNotesField = "notes"
)

// Upload is a deliverable for a task.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
	Notes       string
}

func (u Upload) fields() []apiclient.Field {
	if u.Notes == "" {
		return nil
	}
	return []apiclient.Field{{Name: submissionNotesField, Value: u.Notes}}
}

// UploadSubmission sends the file as multipart form data. The form is held in
// memory so it can be replayed after a token refresh.
func (a *API) UploadSubmission(ctx context.Context, taskID string, u Upload) (Submission, error) {
	if err := requireID("task", taskID); err != nil {
		return Submission{}, err
	}
	form := apiclient.Multipart{
		Files: []apiclient.FilePart{{
			Field:       submissionFileField,
			Filename:    u.Filename,
			ContentType: u.ContentType,
			Content:     u.Content,
		}},
		Fields: u.fields(),
	}
	return send[Submission](ctx, a, http.MethodPost, path("/tasks/%s/submissions", taskID), form, keySubmissions, keyTasks)
}

// UploadSubmissionWithProgress streams r and reports progress. A 401 is not
// retried; the caller sees ErrAuthExpired.
func (a *API) UploadSubmissionWithProgress(ctx context.Context, taskID, filename string, r io.Reader, size int64, notes string, fn apiclient.ProgressFunc) (Submission, error) {
	if err := requireID("task", taskID); err != nil {
		return Submission{}, err
	}
	return querycache.Mutate(ctx, a.cache, func(ctx context.Context) (Submission, error) {
		var out Submission
		err := a.client.UploadWithProgress(ctx, path("/tasks/%s/submissions", taskID),
			apiclient.FilePart{Field: submissionFileField, Filename: filename}, r, size,
			Upload{Notes: notes}.fields(), fn, &out)
		return out, err
	}, keySubmissions, keyTasks)
}

func (a *API) ListSubmissions(ctx context.Context, taskID string, p ListParams) (Page[Submission], error) {
	if err := requireID("task", taskID); err != nil {
		return Page[Submission]{}, err
	}
	p = p.normalised()
	return get[Page[Submission]](ctx, a, querycache.Key(keySubmissions, "task", taskID, p.Page, p.Limit), path("/tasks/%s/submissions", taskID), pageQuery(p))
}

// DownloadURL returns a short-lived presigned link; it is never cached.
func (a *API) DownloadURL(ctx context.Context, submissionID string) (string, error) {
	if err := requireID("submission", submissionID); err != nil {
		return "", err
	}
	var out SubmissionDownload
	if err := a.client.Get(ctx, path("/submissions/%s/download", submissionID), nil, &out); err != nil {
		return "", err
	}
	return out.DownloadURL, nil
}

// AcceptSubmission completes the task, and the project once every task is
// complete.
func (a *API) AcceptSubmission(ctx context.Context, submissionID string) (Submission, error) {
	if err := requireID("submission", submissionID); err != nil {
		return Submission{}, err
	}
	return send[Submission](ctx, a, http.MethodPatch, path("/submissions/%s/accept", submissionID), nil, keySubmissions, keyTasks, keyProjects)
}

func (a *API) RejectSubmission(ctx context.Context, submissionID, reviewerNotes string) (Submission, error) {
	if err := requireID("submission", submissionID); err != nil {
		return Submission{}, err
	}
	return send[Submission](ctx, a, http.MethodPatch, path("/submissions/%s/reject", submissionID),
		apiclient.JSON(SubmissionReject{ReviewerNotes: reviewerNotes}), keySubmissions, keyTasks)
}
