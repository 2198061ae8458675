package actions

import (
	"net/http"

	"github.com/louisbranch/avo/internal/services/admin/httpx"
)

// Service defines action route handlers consumed by this route module.
type Service interface {
	HandleActionShow(w http.ResponseWriter, r *http.Request, resourceName string, actionID string)
	HandleActionRun(w http.ResponseWriter, r *http.Request, resourceName string, actionID string)
}

// HandleActionPath dispatches one action route by method.
func HandleActionPath(w http.ResponseWriter, r *http.Request, service Service, resourceName string, actionID string) {
	if service == nil {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		service.HandleActionShow(w, r, resourceName, actionID)
	case http.MethodPost:
		service.HandleActionRun(w, r, resourceName, actionID)
	default:
		httpx.MethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}
