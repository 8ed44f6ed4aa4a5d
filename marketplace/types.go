package marketplace

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/jrsteele09/marketplace-client/internal/jsontime"
)

// Meta is the pagination block of every list response.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type Page[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

// Clone copies Data so a cached page can be handed out safely. Pointer
// fields of the items are still shared.
func (p Page[T]) Clone() Page[T] {
	if p.Data != nil {
		p.Data = append([]T(nil), p.Data...)
	}
	return p
}

// ListParams selects a page. Zero values fall back to the API defaults.
type ListParams struct {
	Page  int
	Limit int
}

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

func (p ListParams) normalised() ListParams {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	return p
}

// Decimal is a monetary amount as the API sends it: a JSON string or number.
// It is kept as text so no precision is lost.
type Decimal string

func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(d))
}

func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Decimal(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*d = Decimal(n.String())
	return nil
}

type ProjectStatus string

const (
	ProjectOpen      ProjectStatus = "OPEN"
	ProjectAssigned  ProjectStatus = "ASSIGNED"
	ProjectCompleted ProjectStatus = "COMPLETED"
)

type Project struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Budget           *Decimal       `json:"budget,omitempty"`
	Deadline         *jsontime.Time `json:"deadline,omitempty"`
	Status           ProjectStatus  `json:"status"`
	BuyerID          string         `json:"buyer_id"`
	AssignedSolverID *string        `json:"assigned_solver_id,omitempty"`
	CreatedAt        jsontime.Time  `json:"created_at"`
	UpdatedAt        jsontime.Time  `json:"updated_at"`
}

type ProjectCreate struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Budget      *Decimal       `json:"budget,omitempty"`
	Deadline    *jsontime.Time `json:"deadline,omitempty"`
}

// ProjectUpdate only sends the fields that are set. The API accepts it for
// OPEN projects.
type ProjectUpdate struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Budget      *Decimal       `json:"budget,omitempty"`
	Deadline    *jsontime.Time `json:"deadline,omitempty"`
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestAccepted RequestStatus = "ACCEPTED"
	RequestRejected RequestStatus = "REJECTED"
)

// Request is a solver's bid to work on a project.
type Request struct {
	ID          string        `json:"id"`
	ProjectID   string        `json:"project_id"`
	SolverID    string        `json:"solver_id"`
	CoverLetter string        `json:"cover_letter"`
	Status      RequestStatus `json:"status"`
	CreatedAt   jsontime.Time `json:"created_at"`
	UpdatedAt   jsontime.Time `json:"updated_at"`
}

type RequestCreate struct {
	CoverLetter string `json:"cover_letter"`
}

type TaskStatus string

const (
	TaskInProgress        TaskStatus = "IN_PROGRESS"
	TaskSubmitted         TaskStatus = "SUBMITTED"
	TaskCompleted         TaskStatus = "COMPLETED"
	TaskRevisionRequested TaskStatus = "REVISION_REQUESTED"
)

type Task struct {
	ID          string         `json:"id"`
	ProjectID   string         `json:"project_id"`
	CreatedBy   string         `json:"created_by"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Deadline    *jsontime.Time `json:"deadline,omitempty"`
	Status      TaskStatus     `json:"status"`
	CreatedAt   jsontime.Time  `json:"created_at"`
	UpdatedAt   jsontime.Time  `json:"updated_at"`
}

type TaskCreate struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Deadline    *jsontime.Time `json:"deadline,omitempty"`
}

// TaskUpdate cannot change status; submissions drive it.
type TaskUpdate struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Deadline    *jsontime.Time `json:"deadline,omitempty"`
}

type SubmissionStatus string

const (
	SubmissionPendingReview SubmissionStatus = "PENDING_REVIEW"
	SubmissionAccepted      SubmissionStatus = "ACCEPTED"
	SubmissionRejected      SubmissionStatus = "REJECTED"
)

type Submission struct {
	ID            string           `json:"id"`
	TaskID        string           `json:"task_id"`
	FileName      string           `json:"file_name"`
	FileSize      int64            `json:"file_size"`
	Notes         *string          `json:"notes,omitempty"`
	Status        SubmissionStatus `json:"status"`
	ReviewerNotes *string          `json:"reviewer_notes,omitempty"`
	SubmittedAt   jsontime.Time    `json:"submitted_at"`
	ReviewedAt    *jsontime.Time   `json:"reviewed_at,omitempty"`
}

type SubmissionReject struct {
	ReviewerNotes string `json:"reviewer_notes"`
}

type SubmissionDownload struct {
	DownloadURL string `json:"download_url"`
}
