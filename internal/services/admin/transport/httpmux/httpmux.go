package httpmux

import (
	"net/http"

	routepath "github.com/louisbranch/avo/internal/services/admin/routepath"
)

// MountOperational wires the unauthenticated health and metrics endpoints.
func MountOperational(rootMux *http.ServeMux, health http.Handler, metrics http.Handler) {
	if rootMux == nil {
		return
	}
	if health != nil {
		rootMux.Handle(routepath.Healthz, health)
	}
	if metrics != nil {
		rootMux.Handle(routepath.Metrics, metrics)
	}
}

// MountAdminRoutes mounts admin application routes under root path.
func MountAdminRoutes(rootMux *http.ServeMux, adminHandler http.Handler) {
	if rootMux == nil || adminHandler == nil {
		return
	}
	rootMux.Handle(routepath.Root, adminHandler)
}
