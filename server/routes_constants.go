package server

// Route path constants
// Shell pages are served for every section; the client-side app takes over
// once the page has loaded.
const (
	// Public pages
	RouteIndex        = "/"
	RouteLogin        = "/login"
	RouteAuthCallback = "/auth/callback"

	// Role sections
	RouteAdmin    = "/admin/"
	RouteBuyer    = "/buyer/"
	RouteSolver   = "/solver/"
	RouteProfile  = "/profile"
	RouteProjects = "/projects/"

	// Edge endpoints
	RouteHealth = "/health"
	RouteConfig = "/config.json"

	// Static Asset Routes (patterns)
	RouteStatic = "/static/{file}"
)
