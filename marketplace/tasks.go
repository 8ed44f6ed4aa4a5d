package marketplace

import (
	"context"
	"net/http"

	"github.com/jrsteele09/marketplace-client/apiclient"
	"github.com/jrsteele09/marketplace-client/querycache"
)

func (a *API) CreateTask(ctx context.Context, projectID string, in TaskCreate) (Task, error) {
	if err := requireID("project", projectID); err != nil {
		return Task{}, err
	}
	return send[Task](ctx, a, http.MethodPost, path("/projects/%s/tasks", projectID), apiclient.JSON(in), keyTasks)
}

func (a *API) ListTasks(ctx context.Context, projectID string, p ListParams) (Page[Task], error) {
	if err := requireID("project", projectID); err != nil {
		return Page[Task]{}, err
	}
	p = p.normalised()
	return get[Page[Task]](ctx, a, querycache.Key(keyTasks, "project", projectID, p.Page, p.Limit), path("/projects/%s/tasks", projectID), pageQuery(p))
}

func (a *API) GetTask(ctx context.Context, id string) (Task, error) {
	if err := requireID("task", id); err != nil {
		return Task{}, err
	}
	return get[Task](ctx, a, querycache.Key(keyTasks, id), path("/tasks/%s", id), nil)
}

func (a *API) UpdateTask(ctx context.Context, id string, in TaskUpdate) (Task, error) {
	if err := requireID("task", id); err != nil {
		return Task{}, err
	}
	return send[Task](ctx, a, http.MethodPatch, path("/tasks/%s", id), apiclient.JSON(in), keyTasks)
}
