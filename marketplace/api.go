// Package marketplace is the typed surface of the marketplace REST API.
// Reads are served through the query cache; writes invalidate the keys the
// change affects.
package marketplace

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jrsteele09/marketplace-client/apiclient"
	"github.com/jrsteele09/marketplace-client/internal/errors"
	"github.com/jrsteele09/marketplace-client/querycache"
)

// Cache key roots. Invalidating a root drops everything under it.
const (
	keyProjects    = "projects"
	keyRequests    = "requests"
	keyTasks       = "tasks"
	keySubmissions = "submissions"
	keyUsers       = "users"
)

type API struct {
	client *apiclient.Client
	cache  *querycache.Cache
}

func New(client *apiclient.Client, cache *querycache.Cache) (*API, error) {
	if client == nil || cache == nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[marketplace.New] client and cache are required")
	}
	return &API{client: client, cache: cache}, nil
}

func pageQuery(p ListParams) url.Values {
	p = p.normalised()
	return url.Values{
		"page":  {strconv.Itoa(p.Page)},
		"limit": {strconv.Itoa(p.Limit)},
	}
}

func requireID(kind, id string) error {
	if id == "" {
		return errors.Wrapf(errors.ErrInvalidRequest, "%s id is required", kind)
	}
	return nil
}

func path(format string, ids ...string) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...)
}

func get[T any](ctx context.Context, a *API, key, p string, query url.Values) (T, error) {
	return querycache.Query(ctx, a.cache, key, func(ctx context.Context) (T, error) {
		var out T
		err := a.client.Get(ctx, p, query, &out)
		return out, err
	})
}

func send[T any](ctx context.Context, a *API, method, p string, body apiclient.Body, invalidate ...string) (T, error) {
	return querycache.Mutate(ctx, a.cache, func(ctx context.Context) (T, error) {
		var out T
		err := a.client.Do(ctx, apiclient.Request{Method: method, Path: p, Body: body}, &out)
		return out, err
	}, invalidate...)
}
