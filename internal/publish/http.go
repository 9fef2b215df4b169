// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/kurso/internal/platform/middleware"
	requestutil "github.com/taibuivan/kurso/internal/platform/request"
	"github.com/taibuivan/kurso/internal/platform/respond"
	"github.com/taibuivan/kurso/internal/platform/sec"
	"github.com/taibuivan/kurso/pkg/pointer"
)

// # Handler Implementation

// Handler implements the HTTP layer for publishing and downloads.
type Handler struct {
	service *Service
	layout  Layout
}

// NewHandler constructs a new publish [Handler].
func NewHandler(service *Service, layout Layout) *Handler {
	return &Handler{service: service, layout: layout}
}

// Routes returns the authenticated output routes, mounted under /output.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireRole(sec.RoleAuthor))

	router.Post("/{plugin}/publish/{courseID}", handler.publish)
	router.Get("/{plugin}/publish/{courseID}", handler.publish)
	router.Get("/{plugin}/poll/{jobID}", handler.poll)

	return router
}

// DownloadRoutes returns the archive download route, mounted under
// /download. The path carries everything needed to locate the archive.
func (handler *Handler) DownloadRoutes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireRole(sec.RoleAuthor))
	router.Get("/{tenantID}/{courseID}/{zipName}/download.zip", handler.download)

	return router
}

// BuildRoutes returns the preview build trigger, mounted under /build.
func (handler *Handler) BuildRoutes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireRole(sec.RoleAuthor))
	router.Get("/{tenantID}/{courseID}", handler.buildPreview)

	return router
}

// publishResponse is the legacy-shaped publish envelope.
type publishResponse struct {
	Success bool           `json:"success"`
	Payload publishPayload `json:"payload"`
}

type publishPayload struct {
	PollURL  string `json:"pollUrl,omitempty"`
	Progress *int   `json:"progress,omitempty"`
	ZipName  string `json:"zipName,omitempty"`
	Filename string `json:"filename,omitempty"`
	Message  string `json:"message,omitempty"`
}

// trackingForPlugin maps the output plugin path segment onto a tracking
// substitution. The plain framework plugin keeps the course's own tracking.
func trackingForPlugin(plugin string) Tracking {
	switch plugin {
	case "scorm":
		return TrackingSCORM
	case "xapi":
		return TrackingXAPI
	default:
		return ""
	}
}

/*
POST /api/output/{plugin}/publish/{courseID}.

Description: Launches a background publish run. The plugin segment selects
the tracking technology (scorm, xapi, or the plain framework plugin), the
mode query selects what is produced (preview, build, export, publish) and
force=true discards reusable output. The response carries the poll URL to
follow; the zip name and filename appear on the final poll response.

Request:
  - mode: string (query, default publish)
  - force: bool (query)

Response:
  - 200: {success, payload{pollUrl}}
  - 404: ErrNotFound: Course not found
  - 409: ErrConflict: A build of this course is already running
*/
func (handler *Handler) publish(writer http.ResponseWriter, request *http.Request) {
	claims := middleware.GetUser(request.Context())
	courseID := requestutil.ID(request, "courseID")
	plugin := requestutil.ID(request, "plugin")

	mode := Mode(request.URL.Query().Get("mode"))
	if mode == "" {
		mode = ModePublish
	}

	job, err := handler.service.Start(request.Context(), Request{
		TenantID: claims.TenantID,
		CourseID: courseID,
		UserID:   claims.UserID,
		Mode:     mode,
		Tracking: trackingForPlugin(plugin),
		Force:    request.URL.Query().Get("force") == "true",
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, publishResponse{
		Success: true,
		Payload: publishPayload{
			PollURL: "/api/output/" + plugin + "/poll/" + job.ID,
		},
	})
}

/*
GET /api/output/{plugin}/poll/{jobID}.

Description: Returns the job's progress. Clients poll until progress
reaches 100, then read success, zipName and filename.

Response:
  - 200: {success, payload{progress, zipName?, filename?, message?}}
  - 404: ErrNotFound: Unknown or expired job
*/
func (handler *Handler) poll(writer http.ResponseWriter, request *http.Request) {
	jobID := requestutil.ID(request, "jobID")

	job, err := handler.service.Poll(request.Context(), jobID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, publishResponse{
		Success: job.Success || job.Progress < 100,
		Payload: publishPayload{
			Progress: pointer.To(job.Progress),
			ZipName:  job.ZipName,
			Filename: job.Filename,
			Message:  job.Message,
		},
	})
}

/*
GET /download/{tenantID}/{courseID}/{zipName}/download.zip.

Description: Streams the packaged course archive. The zipName segment is
the client-facing suggested filename; the archive itself lives at the
deterministic per-course path.

Response:
  - 200: application/zip stream
  - 404: ErrNotFound: No archive has been packaged for this course
*/
func (handler *Handler) download(writer http.ResponseWriter, request *http.Request) {
	tenantID := requestutil.ID(request, "tenantID")
	courseID := requestutil.ID(request, "courseID")
	zipName := requestutil.ID(request, "zipName")

	archivePath := handler.layout.DownloadFile(tenantID, courseID)
	if _, err := os.Stat(archivePath); err != nil {
		http.NotFound(writer, request)
		return
	}

	writer.Header().Set("Content-Type", "application/zip")
	writer.Header().Set("Content-Disposition", `attachment; filename="`+zipName+`.zip"`)
	http.ServeFile(writer, request, archivePath)
}

/*
GET /build/{tenantID}/{courseID}.

Description: Triggers a background preview build of the course, used after
menu activation and other config changes.

Response:
  - 200: {success, payload{pollUrl}}
*/
func (handler *Handler) buildPreview(writer http.ResponseWriter, request *http.Request) {
	claims := middleware.GetUser(request.Context())
	tenantID := requestutil.ID(request, "tenantID")
	courseID := requestutil.ID(request, "courseID")

	job, err := handler.service.Start(request.Context(), Request{
		TenantID: tenantID,
		CourseID: courseID,
		UserID:   claims.UserID,
		Mode:     ModePreview,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, publishResponse{
		Success: true,
		Payload: publishPayload{
			PollURL: "/api/output/adapt/poll/" + job.ID,
		},
	})
}
