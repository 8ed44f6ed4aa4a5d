package fakeapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/marketplace-client/marketplace"
	"github.com/jrsteele09/marketplace-client/users"
)

// taskProject checks that user takes part in the project: its buyer, its
// assigned solver, or an admin. The caller holds s.mu.
func (s *Server) taskProject(w http.ResponseWriter, projectID string, user *users.Profile) (*marketplace.Project, bool) {
	p, ok := s.projects[projectID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Project not found")
		return nil, false
	}
	switch user.Role {
	case users.RoleBuyer:
		if p.BuyerID != user.ID {
			writeDetail(w, http.StatusForbidden, "Not your project")
			return nil, false
		}
	case users.RoleSolver:
		if p.AssignedSolverID == nil || *p.AssignedSolverID != user.ID {
			writeDetail(w, http.StatusForbidden, "Not assigned to this project")
			return nil, false
		}
	}
	return p, true
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	var in marketplace.TaskCreate
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Title == "" || in.Description == "" {
		writeMissing(w, missing(map[string]string{"title": in.Title, "description": in.Description})...)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[r.PathValue("id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Project not found")
		return
	}
	if p.Status != marketplace.ProjectAssigned {
		writeDetail(w, http.StatusBadRequest, "Project must be in ASSIGNED status")
		return
	}
	if p.AssignedSolverID == nil || *p.AssignedSolverID != user.ID {
		writeDetail(w, http.StatusForbidden, "You are not assigned to this project")
		return
	}
	ts := now()
	t := &marketplace.Task{
		ID:          uuid.NewString(),
		ProjectID:   p.ID,
		CreatedBy:   user.ID,
		Title:       in.Title,
		Description: in.Description,
		Deadline:    in.Deadline,
		Status:      marketplace.TaskInProgress,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	s.tasks[t.ID] = t
	writeJSON(w, http.StatusCreated, *t)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	projectID := r.PathValue("id")
	if _, ok := s.taskProject(w, projectID, user); !ok {
		return
	}
	items := sortedValues(s.tasks, func(t *marketplace.Task) bool {
		return t.ProjectID == projectID
	}, func(a, b *marketplace.Task) bool {
		return a.CreatedAt.Before(b.CreatedAt.Time)
	})
	writeJSON(w, http.StatusOK, paginate(items, listParams(r)))
}

// task returns a task the user may see. The caller holds s.mu.
func (s *Server) task(w http.ResponseWriter, id string, user *users.Profile) (*marketplace.Task, *marketplace.Project, bool) {
	t, ok := s.tasks[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return nil, nil, false
	}
	p, ok := s.taskProject(w, t.ProjectID, user)
	if !ok {
		return nil, nil, false
	}
	return t, p, true
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, ok := s.task(w, r.PathValue("id"), user)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, *t)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	var in marketplace.TaskUpdate
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, ok := s.task(w, r.PathValue("id"), user)
	if !ok {
		return
	}
	if t.Status == marketplace.TaskCompleted {
		writeDetail(w, http.StatusBadRequest, "Cannot update a completed task")
		return
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Deadline != nil {
		t.Deadline = in.Deadline
	}
	t.UpdatedAt = now()
	writeJSON(w, http.StatusOK, *t)
}
