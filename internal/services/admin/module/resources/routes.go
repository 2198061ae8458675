package resources

import (
	"net/http"

	"github.com/louisbranch/avo/internal/services/admin/httpx"
	"github.com/louisbranch/avo/internal/services/admin/module/actions"
	sharedpath "github.com/louisbranch/avo/internal/services/admin/module/sharedpath"
	routepath "github.com/louisbranch/avo/internal/services/admin/routepath"
)

// Service defines resource route handlers consumed by this route module.
type Service interface {
	HandleResourcesRoot(w http.ResponseWriter, r *http.Request)
	HandleResourceIndex(w http.ResponseWriter, r *http.Request, resourceName string)
}

// RegisterRoutes wires resource and action routes into the provided mux.
func RegisterRoutes(mux *http.ServeMux, service Service, actionService actions.Service) {
	if mux == nil || service == nil {
		return
	}
	mux.HandleFunc(routepath.Resources, service.HandleResourcesRoot)
	mux.HandleFunc(routepath.ResourcesPrefix, func(w http.ResponseWriter, r *http.Request) {
		HandleResourcePath(w, r, service, actionService)
	})
}

// HandleResourcePath parses resource subroutes and dispatches to handlers.
func HandleResourcePath(w http.ResponseWriter, r *http.Request, service Service, actionService actions.Service) {
	if service == nil {
		http.NotFound(w, r)
		return
	}
	if sharedpath.RedirectTrailingSlash(w, r) {
		return
	}

	parts := sharedpath.Segments(r, routepath.ResourcesPrefix)
	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			httpx.MethodNotAllowed(w, http.MethodGet)
			return
		}
		service.HandleResourceIndex(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "actions":
		actions.HandleActionPath(w, r, actionService, parts[0], parts[2])
	default:
		http.NotFound(w, r)
	}
}
