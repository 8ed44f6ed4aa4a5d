package fakeapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/marketplace-client/internal/jsontime"
	"github.com/jrsteele09/marketplace-client/marketplace"
	"github.com/jrsteele09/marketplace-client/users"
)

func now() jsontime.Time {
	return jsontime.New(time.Now().UTC())
}

func (s *Server) visibleProject(p *marketplace.Project, user *users.Profile) bool {
	switch user.Role {
	case users.RoleAdmin:
		return true
	case users.RoleBuyer:
		return p.BuyerID == user.ID
	}
	return p.Status == marketplace.ProjectOpen || (p.AssignedSolverID != nil && *p.AssignedSolverID == user.ID)
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	s.mu.Lock()
	items := sortedValues(s.projects, func(p *marketplace.Project) bool {
		return s.visibleProject(p, user)
	}, func(a, b *marketplace.Project) bool {
		return a.CreatedAt.After(b.CreatedAt.Time)
	})
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, paginate(items, listParams(r)))
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	var in marketplace.ProjectCreate
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Title == "" || in.Description == "" {
		writeMissing(w, missing(map[string]string{"title": in.Title, "description": in.Description})...)
		return
	}
	ts := now()
	p := &marketplace.Project{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Budget:      in.Budget,
		Deadline:    in.Deadline,
		Status:      marketplace.ProjectOpen,
		BuyerID:     user.ID,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	s.mu.Lock()
	s.projects[p.ID] = p
	out := *p
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, out)
}

// project returns the project when user may see it. The caller holds s.mu.
func (s *Server) project(w http.ResponseWriter, id string, user *users.Profile) (*marketplace.Project, bool) {
	p, ok := s.projects[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Project not found")
		return nil, false
	}
	if user.Role == users.RoleBuyer && p.BuyerID != user.ID {
		writeDetail(w, http.StatusForbidden, "Not your project")
		return nil, false
	}
	return p, true
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.project(w, r.PathValue("id"), user)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, *p)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	var in marketplace.ProjectUpdate
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.project(w, r.PathValue("id"), user)
	if !ok {
		return
	}
	if p.Status != marketplace.ProjectOpen {
		writeDetail(w, http.StatusBadRequest, "Only OPEN projects can be edited")
		return
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Budget != nil {
		p.Budget = in.Budget
	}
	if in.Deadline != nil {
		p.Deadline = in.Deadline
	}
	p.UpdatedAt = now()
	writeJSON(w, http.StatusOK, *p)
}

func missing(fields map[string]string) []string {
	var out []string
	for _, name := range []string{"title", "description", "cover_letter", "reviewer_notes", "role"} {
		if v, ok := fields[name]; ok && v == "" {
			out = append(out, name)
		}
	}
	return out
}
