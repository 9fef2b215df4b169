// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package translate

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/kurso/internal/platform/middleware"
	requestutil "github.com/taibuivan/kurso/internal/platform/request"
	"github.com/taibuivan/kurso/internal/platform/respond"
	"github.com/taibuivan/kurso/internal/platform/sec"
)

// # Handler Implementation

// Handler implements the HTTP layer for the translation service.
type Handler struct {
	service *Service
}

// NewHandler constructs a new translate [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the translate routes, mounted under /translate.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireRole(sec.RoleAuthor))

	router.Post("/text", handler.translateText)
	router.Get("/languages", handler.languages)
	router.Post("/course/{courseID}", handler.translateCourse)

	return router
}

type translateTextRequest struct {
	Text string `json:"text"`
	To   string `json:"to"`
}

/*
POST /api/translate/text.

Description: Translates a single string through the external translation
service.

Request:
  - text: string
  - to: string (target language code)

Response:
  - 200: the translated string
  - 502: ErrTranslationService: Upstream translation failure
*/
func (handler *Handler) translateText(writer http.ResponseWriter, request *http.Request) {
	var body translateTextRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	translated, err := handler.service.TranslateText(request.Context(), body.Text, body.To)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, translated)
}

/*
GET /api/translate/languages.

Description: Lists the supported target languages: code → name, native name
and text direction. Served from cache when possible.

Response:
  - 200: {"fr": {"name": "French", "nativeName": "Français", "dir": "ltr"}, ...}
*/
func (handler *Handler) languages(writer http.ResponseWriter, request *http.Request) {
	languages, err := handler.service.Languages(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, languages)
}

type translateCourseRequest struct {
	TargetLang string `json:"targetLang"`
}

type translateCourseResponse struct {
	Success     bool   `json:"success"`
	NewCourseID string `json:"newCourseId"`
}

/*
POST /api/translate/course/{courseID}.

Description: Translates a whole course into the target language and creates
it as a new course. The call is synchronous; large courses take as long as
their unit count times the upstream latency.

Request:
  - targetLang: string

Response:
  - 200: {success, newCourseId}
  - 404: ErrNotFound: Course not found
  - 502: ErrTranslationService: Upstream translation failure
*/
func (handler *Handler) translateCourse(writer http.ResponseWriter, request *http.Request) {
	claims := middleware.GetUser(request.Context())
	courseID := requestutil.ID(request, "courseID")

	var body translateCourseRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	newCourseID, err := handler.service.TranslateCourse(request.Context(), claims.TenantID, courseID, claims.UserID, body.TargetLang)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, translateCourseResponse{
		Success:     true,
		NewCourseID: newCourseID,
	})
}
