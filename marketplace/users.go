package marketplace

import (
	"context"
	"net/http"

	"github.com/jrsteele09/marketplace-client/apiclient"
	"github.com/jrsteele09/marketplace-client/querycache"
	"github.com/jrsteele09/marketplace-client/users"
)

// ListUsers is admin only.
func (a *API) ListUsers(ctx context.Context, p ListParams) (Page[users.Profile], error) {
	p = p.normalised()
	return get[Page[users.Profile]](ctx, a, querycache.Key(keyUsers, "list", p.Page, p.Limit), "/users", pageQuery(p))
}

func (a *API) GetUser(ctx context.Context, id string) (users.Profile, error) {
	if err := requireID("user", id); err != nil {
		return users.Profile{}, err
	}
	return get[users.Profile](ctx, a, querycache.Key(keyUsers, id), path("/users/%s", id), nil)
}

func (a *API) UpdateUserRole(ctx context.Context, id string, role users.Role) (users.Profile, error) {
	if err := requireID("user", id); err != nil {
		return users.Profile{}, err
	}
	return send[users.Profile](ctx, a, http.MethodPatch, path("/users/%s/role", id), apiclient.JSON(users.RoleUpdate{Role: role}), keyUsers)
}

func (a *API) MyProfile(ctx context.Context) (users.Profile, error) {
	return get[users.Profile](ctx, a, querycache.Key(keyUsers, "me"), "/users/me/profile", nil)
}

func (a *API) UpdateMyProfile(ctx context.Context, in users.ProfileUpdate) (users.Profile, error) {
	return send[users.Profile](ctx, a, http.MethodPatch, "/users/me/profile", apiclient.JSON(in), keyUsers)
}
