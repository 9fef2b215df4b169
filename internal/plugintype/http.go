// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package plugintype

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/kurso/internal/platform/middleware"
	requestutil "github.com/taibuivan/kurso/internal/platform/request"
	"github.com/taibuivan/kurso/internal/platform/respond"
	"github.com/taibuivan/kurso/internal/platform/sec"
)

// # Handler Implementation

// Handler implements the HTTP layer for the plugin registry.
type Handler struct {
	service *Service
}

// NewHandler constructs a new plugintype [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the registry listing endpoints,
// intended to be mounted under /plugins.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireRole(sec.RoleAuthor))
	router.Get("/{kind}", handler.listByKind)

	return router
}

// MenuRoutes returns the legacy-shaped menu activation route, mounted
// under /menu.
func (handler *Handler) MenuRoutes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireRole(sec.RoleAuthor))
	router.Post("/{menuID}/makeitso/{courseID}", handler.activateMenu)

	return router
}

// # Registry Endpoints

/*
GET /api/plugins/{kind}.

Description: Lists the installed plugin descriptors of one kind
(component, extension, theme or menu).

Response:
  - 200: []Descriptor: Installed plugins
*/
func (handler *Handler) listByKind(writer http.ResponseWriter, request *http.Request) {
	kind := Kind(requestutil.ID(request, "kind"))

	descriptors, err := handler.service.ListByKind(request.Context(), kind)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, descriptors)
}

// activateMenuResponse mirrors the legacy activation payload.
type activateMenuResponse struct {
	Success bool `json:"success"`
}

/*
POST /api/menu/{menuID}/makeitso/{courseID}.

Description: Switches the course onto the given menu plugin, flags the
course for a forced rebuild and starts that rebuild in the background.

Response:
  - 200: {success: true}
  - 404: ErrNotFound: Menu or course config not found
*/
func (handler *Handler) activateMenu(writer http.ResponseWriter, request *http.Request) {
	claims := middleware.GetUser(request.Context())
	menuID := requestutil.ID(request, "menuID")
	courseID := requestutil.ID(request, "courseID")

	if err := handler.service.ActivateMenu(request.Context(), claims.TenantID, courseID, menuID, claims.UserID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, activateMenuResponse{Success: true})
}
