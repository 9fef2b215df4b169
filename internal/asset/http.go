// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package asset

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/kurso/internal/platform/middleware"
	requestutil "github.com/taibuivan/kurso/internal/platform/request"
	"github.com/taibuivan/kurso/internal/platform/respond"
	"github.com/taibuivan/kurso/internal/platform/sec"
)

// # Handler Implementation

// Handler implements the HTTP layer for course asset hygiene.
type Handler struct {
	service *Service
}

// NewHandler constructs a new asset [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the cleanup endpoint, mounted under
// /cleanassets.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireRole(sec.RoleAuthor))
	router.Get("/course/{courseID}", handler.cleanCourse)

	return router
}

// cleanAssetsResponse mirrors the legacy cleanup payload.
type cleanAssetsResponse struct {
	Success       bool `json:"success"`
	AssetsCleaned int  `json:"assetsCleaned"`
}

/*
GET /api/cleanassets/course/{courseID}.

Description: Removes asset join rows whose owning content item no longer
exists on the course.

Response:
  - 200: {success, assetsCleaned}
*/
func (handler *Handler) cleanCourse(writer http.ResponseWriter, request *http.Request) {
	courseID := requestutil.ID(request, "courseID")

	cleaned, err := handler.service.CleanupCourse(request.Context(), courseID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, cleanAssetsResponse{Success: true, AssetsCleaned: cleaned})
}
