package fakeapi

import (
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/marketplace-client/marketplace"
	"github.com/jrsteele09/marketplace-client/users"
)

func (s *Server) uploadSubmission(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	contentType := r.Header.Get("Content-Type")
	mr, err := r.MultipartReader()
	if err != nil {
		writeMissing(w, "file")
		return
	}
	rec := RecordedUpload{ContentType: contentType}
	var notes *string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Malformed multipart body")
			return
		}
		rec.Parts = append(rec.Parts, part.FormName())
		switch part.FormName() {
		case "file":
			rec.Filename = part.FileName()
			rec.Size, err = io.Copy(io.Discard, io.LimitReader(part, maxUploadBytes+1))
		case "notes":
			var b []byte
			b, err = io.ReadAll(part)
			rec.Notes = string(b)
			n := rec.Notes
			notes = &n
		}
		_ = part.Close()
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Malformed multipart body")
			return
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, rec)

	if rec.Filename == "" {
		writeMissing(w, "file")
		return
	}
	if rec.Size > maxUploadBytes {
		writeDetail(w, http.StatusBadRequest, "File exceeds 50MB limit")
		return
	}
	t, ok := s.tasks[r.PathValue("id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}
	if _, ok := s.taskProject(w, t.ProjectID, user); !ok {
		return
	}
	if t.Status != marketplace.TaskInProgress && t.Status != marketplace.TaskRevisionRequested {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Cannot submit when task is %s", t.Status))
		return
	}
	ts := now()
	sub := &marketplace.Submission{
		ID:          uuid.NewString(),
		TaskID:      t.ID,
		FileName:    rec.Filename,
		FileSize:    rec.Size,
		Notes:       notes,
		Status:      marketplace.SubmissionPendingReview,
		SubmittedAt: ts,
	}
	s.submissions[sub.ID] = sub
	t.Status = marketplace.TaskSubmitted
	t.UpdatedAt = ts
	writeJSON(w, http.StatusCreated, *sub)
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, ok := s.task(w, r.PathValue("id"), user)
	if !ok {
		return
	}
	items := sortedValues(s.submissions, func(sub *marketplace.Submission) bool {
		return sub.TaskID == t.ID
	}, func(a, b *marketplace.Submission) bool {
		return a.SubmittedAt.After(b.SubmittedAt.Time)
	})
	writeJSON(w, http.StatusOK, paginate(items, listParams(r)))
}

// submission returns a submission with its task and project. The caller
// holds s.mu.
func (s *Server) submission(w http.ResponseWriter, id string, user *users.Profile) (*marketplace.Submission, *marketplace.Task, *marketplace.Project, bool) {
	sub, ok := s.submissions[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Submission not found")
		return nil, nil, nil, false
	}
	t, p, ok := s.task(w, sub.TaskID, user)
	if !ok {
		return nil, nil, nil, false
	}
	return sub, t, p, true
}

func (s *Server) downloadSubmission(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, _, _, ok := s.submission(w, r.PathValue("id"), user)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, marketplace.SubmissionDownload{
		DownloadURL: fmt.Sprintf("https://storage.example.com/submissions/%s/%s?X-Amz-Expires=3600", sub.ID, sub.FileName),
	})
}

// acceptSubmission completes the task, and the project once no task is left
// open.
func (s *Server) acceptSubmission(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, t, p, ok := s.submission(w, r.PathValue("id"), user)
	if !ok {
		return
	}
	if sub.Status != marketplace.SubmissionPendingReview {
		writeDetail(w, http.StatusBadRequest, "Submission is not pending review")
		return
	}
	ts := now()
	sub.Status = marketplace.SubmissionAccepted
	sub.ReviewedAt = &ts
	t.Status = marketplace.TaskCompleted
	t.UpdatedAt = ts

	open := 0
	for _, other := range s.tasks {
		if other.ProjectID == p.ID && other.Status != marketplace.TaskCompleted {
			open++
		}
	}
	if open == 0 {
		p.Status = marketplace.ProjectCompleted
		p.UpdatedAt = ts
	}
	writeJSON(w, http.StatusOK, *sub)
}

func (s *Server) rejectSubmission(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	var in marketplace.SubmissionReject
	if !decodeBody(w, r, &in) {
		return
	}
	if in.ReviewerNotes == "" {
		writeMissing(w, "reviewer_notes")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, t, _, ok := s.submission(w, r.PathValue("id"), user)
	if !ok {
		return
	}
	if sub.Status != marketplace.SubmissionPendingReview {
		writeDetail(w, http.StatusBadRequest, "Submission is not pending review")
		return
	}
	ts := now()
	notes := in.ReviewerNotes
	sub.Status = marketplace.SubmissionRejected
	sub.ReviewerNotes = &notes
	sub.ReviewedAt = &ts
	t.Status = marketplace.TaskRevisionRequested
	t.UpdatedAt = ts
	writeJSON(w, http.StatusOK, *sub)
}
