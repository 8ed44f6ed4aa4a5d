package fakeapi

import (
	"net/http"

	"github.com/jrsteele09/marketplace-client/marketplace"
	"github.com/jrsteele09/marketplace-client/users"
)

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, _ *users.Profile) {
	p := listParams(r)
	list, total, err := s.users.List((p.Page-1)*p.Limit, p.Limit)
	if err != nil {
		writeErr(w, err, "User")
		return
	}
	items := make([]users.Profile, len(list))
	for i, u := range list {
		items[i] = *u
	}
	writeJSON(w, http.StatusOK, marketplace.Page[users.Profile]{
		Data: items,
		Meta: marketplace.Meta{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: (total + p.Limit - 1) / p.Limit},
	})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request, _ *users.Profile) {
	u, err := s.users.GetByID(r.PathValue("id"))
	if err != nil {
		writeErr(w, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// updateRole lets an admin move a user between BUYER and SOLVER. Admins
// cannot change their own role or another admin's.
func (s *Server) updateRole(w http.ResponseWriter, r *http.Request, admin *users.Profile) {
	var in users.RoleUpdate
	if !decodeBody(w, r, &in) {
		return
	}
	role := users.ParseRole(string(in.Role))
	if role != users.RoleBuyer && role != users.RoleSolver {
		writeDetail(w, http.StatusBadRequest, "Role must be BUYER or SOLVER")
		return
	}
	id := r.PathValue("id")
	if id == admin.ID {
		writeDetail(w, http.StatusBadRequest, "Cannot change your own role")
		return
	}
	target, err := s.users.GetByID(id)
	if err != nil {
		writeErr(w, err, "User")
		return
	}
	if target.Role == users.RoleAdmin {
		writeDetail(w, http.StatusBadRequest, "Cannot change another admin's role")
		return
	}
	if err := s.users.SetRole(id, role); err != nil {
		writeErr(w, err, "User")
		return
	}
	target.Role = role
	writeJSON(w, http.StatusOK, target)
}

func (s *Server) myProfile(w http.ResponseWriter, _ *http.Request, user *users.Profile) {
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) updateMyProfile(w http.ResponseWriter, r *http.Request, user *users.Profile) {
	var in users.ProfileUpdate
	if !decodeBody(w, r, &in) {
		return
	}
	updated, err := s.users.Update(user.ID, in)
	if err != nil {
		writeErr(w, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
