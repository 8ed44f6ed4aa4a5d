package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteConfig, ChainMiddleware(s.ConfigHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteStatic, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleWare()...))

	// Public pages. "GET /" also catches unknown paths, which the boundary
	// treats as shared sections.
	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(s.ShellHandler(), s.GuardedMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.ShellHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthCallback, ChainMiddleware(s.ShellHandler(), s.HTMLMiddleWare()...))

	// Sections the boundary protects
	for _, route := range []string{RouteAdmin, RouteBuyer, RouteSolver, RouteProfile, RouteProjects} {
		s.RegisterRouteHandler("GET "+route, ChainMiddleware(s.ShellHandler(), s.GuardedMiddleWare()...))
	}
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := r.PathValue("file")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		if err := StreamFile(w, r, filePath); err != nil {
			s.logError(r.Method, filePath, err)
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
