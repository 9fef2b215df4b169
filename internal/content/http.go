// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package content

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/kurso/internal/platform/apperr"
	"github.com/taibuivan/kurso/internal/platform/middleware"
	requestutil "github.com/taibuivan/kurso/internal/platform/request"
	"github.com/taibuivan/kurso/internal/platform/respond"
	"github.com/taibuivan/kurso/internal/platform/sec"
	"github.com/taibuivan/kurso/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for course browsing and duplication.
type Handler struct {
	service    *Service
	duplicator *Duplicator
}

// NewHandler constructs a new content [Handler].
func NewHandler(service *Service, duplicator *Duplicator) *Handler {
	return &Handler{service: service, duplicator: duplicator}
}

// Routes returns a [chi.Router] configured with the course endpoints.
//
// All routes require an authenticated author; attributing a copy to another
// user takes tenant admin rights and a cross-tenant destination takes super
// admin rights, both enforced in the handler because same-tenant
// duplication stays open to authors.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireRole(sec.RoleAuthor))

	router.Get("/", handler.listCourses)
	router.Get("/{courseID}", handler.getCourse)

	return router
}

// DuplicateRoutes returns the legacy-shaped duplication route, mounted
// separately because its path does not nest under /courses.
func (handler *Handler) DuplicateRoutes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireRole(sec.RoleAuthor))
	router.Get("/{courseID}/{userID}", handler.duplicateCourse)

	return router
}

// # Course Endpoints

/*
GET /api/courses.

Description: Retrieves a paginated list of the authenticated tenant's
courses for the authoring dashboard, most recently updated first.

Request:
  - limit: int
  - page: int

Response:
  - 200: []Record: Paginated course list
*/
func (handler *Handler) listCourses(writer http.ResponseWriter, request *http.Request) {
	claims := middleware.GetUser(request.Context())
	paginationParams := pagination.FromRequest(request)

	courses, total, err := handler.service.ListCourses(request.Context(), claims.TenantID, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, courses, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /api/courses/{courseID}.

Description: Retrieves a single course root record.

Response:
  - 200: Record: Success
  - 404: ErrNotFound: Course not found in the tenant
*/
func (handler *Handler) getCourse(writer http.ResponseWriter, request *http.Request) {
	claims := middleware.GetUser(request.Context())
	courseID := requestutil.ID(request, "courseID")

	course, err := handler.service.GetCourse(request.Context(), claims.TenantID, courseID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, course)
}

// duplicateCourseResponse is the legacy-shaped duplication result payload.
type duplicateCourseResponse struct {
	Success     bool   `json:"success"`
	NewCourseID string `json:"newCourseId"`
}

/*
GET /api/duplicatecourse/{courseID}/{userID}.

Description: Clones a course and its entire content graph under a fresh
identifier space, attributing the copy to the given user. The copy lands in
the caller's tenant unless a tenant query parameter names another
destination; cross-tenant copies are restricted to super admins, and
cloning somebody else's record as creator requires tenant admin rights.

Request:
  - tenant: string (optional destination tenant id)

Response:
  - 200: {success, newCourseId}
  - 403: ErrForbidden: Attribution to another user without admin rights, or
    a cross-tenant destination without super admin rights
  - 404: ErrNotFound: Course not found
*/
func (handler *Handler) duplicateCourse(writer http.ResponseWriter, request *http.Request) {
	claims := middleware.GetUser(request.Context())
	courseID := requestutil.ID(request, "courseID")
	userID := requestutil.ID(request, "userID")

	if userID != claims.UserID && !sec.UserRole(claims.Role).AtLeast(sec.RoleTenantAdmin) {
		respond.Error(writer, request, apperr.Forbidden("cannot attribute a course copy to another user"))
		return
	}

	targetTenantID := request.URL.Query().Get("tenant")
	if targetTenantID == "" {
		targetTenantID = claims.TenantID
	}
	if targetTenantID != claims.TenantID && !sec.UserRole(claims.Role).AtLeast(sec.RoleSuperAdmin) {
		respond.Error(writer, request, apperr.Forbidden("cannot copy a course into another tenant"))
		return
	}

	newCourseID, err := handler.duplicator.Duplicate(request.Context(), claims.TenantID, courseID, Target{
		TenantID: targetTenantID,
		UserID:   userID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, duplicateCourseResponse{Success: true, NewCourseID: newCourseID})
}
