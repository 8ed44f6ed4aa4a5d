package marketplace

import (
	"context"
	"net/http"

	"github.com/jrsteele09/marketplace-client/apiclient"
	"github.com/jrsteele09/marketplace-client/querycache"
)

// ListProjects returns the projects visible to the caller's role.
func (a *API) ListProjects(ctx context.Context, p ListParams) (Page[Project], error) {
	p = p.normalised()
	return get[Page[Project]](ctx, a, querycache.Key(keyProjects, "list", p.Page, p.Limit), "/projects", pageQuery(p))
}

func (a *API) GetProject(ctx context.Context, id string) (Project, error) {
	if err := requireID("project", id); err != nil {
		return Project{}, err
	}
	return get[Project](ctx, a, querycache.Key(keyProjects, id), path("/projects/%s", id), nil)
}

// CreateProject is available to buyers.
func (a *API) CreateProject(ctx context.Context, in ProjectCreate) (Project, error) {
	return send[Project](ctx, a, http.MethodPost, "/projects", apiclient.JSON(in), keyProjects)
}

func (a *API) UpdateProject(ctx context.Context, id string, in ProjectUpdate) (Project, error) {
	if err := requireID("project", id); err != nil {
		return Project{}, err
	}
	return send[Project](ctx, a, http.MethodPatch, path("/projects/%s", id), apiclient.JSON(in), keyProjects)
}
