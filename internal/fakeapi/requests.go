package fakeapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/marketplace-client/marketplace"
	"github.com/jrsteele09/marketplace-client/users"
)

func newestRequestFirst(a, b *marketplace.Request) bool {
	return a.CreatedAt.After(b.CreatedAt.Time)
}

func (s *Server) createRequest(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	var in marketplace.RequestCreate
	if !decodeBody(w, r, &in) {
		return
	}
	if in.CoverLetter == "" {
		writeMissing(w, "cover_letter")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	projectID := r.PathValue("id")
	p, ok := s.projects[projectID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Project not found")
		return
	}
	if p.Status != marketplace.ProjectOpen {
		writeDetail(w, http.StatusBadRequest, "Project is not open for requests")
		return
	}
	for _, existing := range s.requests {
		if existing.ProjectID == projectID && existing.SolverID == user.ID {
			writeDetail(w, http.StatusBadRequest, "You already requested this project")
			return
		}
	}
	ts := now()
	req := &marketplace.Request{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		SolverID:    user.ID,
		CoverLetter: in.CoverLetter,
		Status:      marketplace.RequestPending,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	s.requests[req.ID] = req
	writeJSON(w, http.StatusCreated, *req)
}

func (s *Server) listMyRequests(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	s.mu.Lock()
	items := sortedValues(s.requests, func(req *marketplace.Request) bool {
		return req.SolverID == user.ID
	}, newestRequestFirst)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, paginate(items, listParams(r)))
}

func (s *Server) listProjectRequests(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	projectID := r.PathValue("id")
	if _, ok := s.project(w, projectID, user); !ok {
		return
	}
	items := sortedValues(s.requests, func(req *marketplace.Request) bool {
		return req.ProjectID == projectID
	}, newestRequestFirst)
	writeJSON(w, http.StatusOK, paginate(items, listParams(r)))
}

// decideRequest accepts or rejects a pending bid. Accepting assigns the
// solver and rejects every other pending bid on the project.
func (s *Server) decideRequest(decision marketplace.RequestStatus) handlerWithUser {
	return func(w http.ResponseWriter, r *http.Request, user *users.Profile) {
		s.mu.Lock()
		defer s.mu.Unlock()
		req, ok := s.requests[r.PathValue("id")]
		if !ok {
			writeDetail(w, http.StatusNotFound, "Request not found")
			return
		}
		p, ok := s.project(w, req.ProjectID, user)
		if !ok {
			return
		}
		if req.Status != marketplace.RequestPending {
			writeDetail(w, http.StatusBadRequest, "Request is not pending")
			return
		}
		if decision == marketplace.RequestAccepted && p.Status != marketplace.ProjectOpen {
			writeDetail(w, http.StatusBadRequest, "Project is not open")
			return
		}
		ts := now()
		req.Status = decision
		req.UpdatedAt = ts
		if decision == marketplace.RequestAccepted {
			solver := req.SolverID
			p.AssignedSolverID = &solver
			p.Status = marketplace.ProjectAssigned
			p.UpdatedAt = ts
			for _, other := range s.requests {
				if other.ProjectID == p.ID && other.ID != req.ID && other.Status == marketplace.RequestPending {
					other.Status = marketplace.RequestRejected
					other.UpdatedAt = ts
				}
			}
		}
		writeJSON(w, http.StatusOK, *req)
	}
}
