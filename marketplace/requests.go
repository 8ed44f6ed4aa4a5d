package marketplace

import (
	"context"
	"net/http"

	"github.com/jrsteele09/marketplace-client/apiclient"
	"github.com/jrsteele09/marketplace-client/querycache"
)

// CreateRequest places a solver's bid on an open project.
func (a *API) CreateRequest(ctx context.Context, projectID string, in RequestCreate) (Request, error) {
	if err := requireID("project", projectID); err != nil {
		return Request{}, err
	}
	return send[Request](ctx, a, http.MethodPost, path("/projects/%s/requests", projectID), apiclient.JSON(in), keyRequests, keyProjects)
}

func (a *API) ListMyRequests(ctx context.Context, p ListParams) (Page[Request], error) {
	p = p.normalised()
	return get[Page[Request]](ctx, a, querycache.Key(keyRequests, "me", p.Page, p.Limit), "/requests/me", pageQuery(p))
}

// ListProjectRequests is the buyer's view of the bids on their project.
func (a *API) ListProjectRequests(ctx context.Context, projectID string, p ListParams) (Page[Request], error) {
	if err := requireID("project", projectID); err != nil {
		return Page[Request]{}, err
	}
	p = p.normalised()
	return get[Page[Request]](ctx, a, querycache.Key(keyRequests, "project", projectID, p.Page, p.Limit), path("/projects/%s/requests", projectID), pageQuery(p))
}

// AcceptRequest assigns the bidding solver; the API rejects the other bids
// and moves the project to ASSIGNED.
func (a *API) AcceptRequest(ctx context.Context, requestID string) (Request, error) {
	if err := requireID("request", requestID); err != nil {
		return Request{}, err
	}
	return send[Request](ctx, a, http.MethodPatch, path("/requests/%s/accept", requestID), nil, keyRequests, keyProjects)
}

func (a *API) RejectRequest(ctx context.Context, requestID string) (Request, error) {
	if err := requireID("request", requestID); err != nil {
		return Request{}, err
	}
	return send[Request](ctx, a, http.MethodPatch, path("/requests/%s/reject", requestID), nil, keyRequests, keyProjects)
}
