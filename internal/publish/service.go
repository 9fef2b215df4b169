// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/taibuivan/kurso/internal/platform/apperr"
	"github.com/taibuivan/kurso/internal/platform/validate"
	"github.com/taibuivan/kurso/pkg/uuid"
)

// # Publish Orchestration

// Request describes one publish run.
type Request struct {
	TenantID string
	CourseID string
	UserID   string
	Mode     Mode

	// Tracking optionally swaps the course's tracking technology for this
	// build. Empty keeps whatever the course has enabled.
	Tracking Tracking

	// Force rebuilds even when built output already exists.
	Force bool
}

// Service orchestrates the pipeline stages strictly sequentially. Builds
// run in the background; callers follow the returned job via the poll URL.
type Service struct {
	assembler    *Assembler
	tracker      *Tracker
	materializer *Materializer
	externalizer *Externalizer
	invoker      *Invoker
	packager     *Packager
	jobs         *JobStore
	layout       Layout
	logger       *slog.Logger
}

// NewService constructs the publish [Service].
func NewService(
	assembler *Assembler,
	tracker *Tracker,
	materializer *Materializer,
	externalizer *Externalizer,
	invoker *Invoker,
	packager *Packager,
	jobs *JobStore,
	layout Layout,
	logger *slog.Logger,
) *Service {
	return &Service{
		assembler:    assembler,
		tracker:      tracker,
		materializer: materializer,
		externalizer: externalizer,
		invoker:      invoker,
		packager:     packager,
		jobs:         jobs,
		layout:       layout,
		logger:       logger,
	}
}

/*
Start validates a publish request, takes the course lock and launches the
pipeline in the background.

Description: The course must exist before anything else happens; a publish
of a missing course fails fast with NotFound and no side effects. The
per-(tenant,course) lock serializes concurrent publishes of the same course
server-side; a second caller gets a Conflict instead of a corrupted scratch
space. On success a job record at progress 0 is returned immediately and
the run continues detached from the caller's request context.

Parameters:
  - ctx: context.Context (used only for the synchronous validation phase)
  - request: Request

Returns:
  - *Job: The poll-able job record
  - error: NotFound, Conflict or validation errors
*/
func (service *Service) Start(ctx context.Context, request Request) (*Job, error) {
	validator := &validate.Validator{}
	validator.Custom("mode", !request.Mode.Valid(), "unknown publish mode "+string(request.Mode))
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if _, err := service.assembler.repo.FindCourse(ctx, request.TenantID, request.CourseID); err != nil {
		return nil, err
	}

	acquired, err := service.jobs.AcquireLock(ctx, request.TenantID, request.CourseID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, apperr.Conflict("a build of this course is already running")
	}

	job := &Job{
		ID:       uuid.New(),
		TenantID: request.TenantID,
		CourseID: request.CourseID,
		Mode:     request.Mode,
	}
	if err := service.jobs.Save(ctx, job); err != nil {
		_ = service.jobs.ReleaseLock(ctx, request.TenantID, request.CourseID)
		return nil, err
	}

	// The run outlives the HTTP request that started it.
	go service.run(context.WithoutCancel(ctx), job, request)

	return job, nil
}

// RequestRebuild flags the course so the next build cannot reuse stale
// output. Satisfies the plugin registry's Rebuilder dependency.
func (service *Service) RequestRebuild(ctx context.Context, tenantID, courseID string) error {
	return service.invoker.RequestRebuild(ctx, tenantID, courseID)
}

// RebuildCourse launches a background preview build so a configuration
// change, such as a menu switch, is visible without waiting for the next
// download. Satisfies the plugin registry's Rebuilder dependency.
func (service *Service) RebuildCourse(ctx context.Context, tenantID, courseID, userID string) error {
	_, err := service.Start(ctx, Request{
		TenantID: tenantID,
		CourseID: courseID,
		UserID:   userID,
		Mode:     ModePreview,
	})
	return err
}

// Poll returns the current state of a job.
func (service *Service) Poll(ctx context.Context, jobID string) (*Job, error) {
	return service.jobs.Get(ctx, jobID)
}

// run executes the pipeline stages in order, advancing the job's progress
// after each stage. The first failing stage aborts the run.
func (service *Service) run(ctx context.Context, job *Job, request Request) {
	defer func() {
		if err := service.jobs.ReleaseLock(ctx, request.TenantID, request.CourseID); err != nil {
			service.logger.Error("failed to release course lock", slog.String("error", err.Error()))
		}
	}()

	fail := func(stage string, err error) {
		service.logger.Error("publish failed",
			slog.String("course_id", request.CourseID),
			slog.String("stage", stage),
			slog.String("error", err.Error()),
		)
		if storeErr := service.jobs.Fail(ctx, job, err.Error()); storeErr != nil {
			service.logger.Error("failed to record job failure", slog.String("error", storeErr.Error()))
		}
	}

	tree, err := service.assembler.Assemble(ctx, request.TenantID, request.CourseID)
	if err != nil {
		fail("assemble", err)
		return
	}
	_ = service.jobs.SetProgress(ctx, job, 10)

	themeName, err := service.materializer.ApplyTheme(ctx, tree, request.UserID)
	if err != nil {
		fail("apply_theme", err)
		return
	}
	_ = service.jobs.SetProgress(ctx, job, 25)

	Sanitize(tree, request.Mode)
	if request.Tracking != "" {
		if err := service.tracker.Apply(ctx, tree, request.Tracking); err != nil {
			fail("tracking_substitution", err)
			return
		}
	}
	_ = service.jobs.SetProgress(ctx, job, 40)

	menuName, err := service.materializer.ApplyMenu(ctx, tree, request.UserID)
	if err != nil {
		fail("apply_menu", err)
		return
	}
	_ = service.jobs.SetProgress(ctx, job, 50)

	// The rebuild decision must read the marker before the folder is wiped.
	rebuildRequired := service.invoker.RebuildRequired(request.TenantID, request.CourseID, request.Mode, request.Force)
	if rebuildRequired {
		if err := service.emptyBuildFolder(request.TenantID, request.CourseID); err != nil {
			fail("empty_build_folder", err)
			return
		}
	}

	lang := tree.DefaultLanguage()
	jsonDir := service.layout.LanguageDir(request.TenantID, request.CourseID, lang)
	assetsDir := service.layout.AssetsDir(request.TenantID, request.CourseID, lang)
	if err := service.externalizer.WriteCourseAssets(ctx, request.CourseID, jsonDir, assetsDir, tree); err != nil {
		fail("write_assets", err)
		return
	}
	_ = service.jobs.SetProgress(ctx, job, 65)

	if err := WriteCourseJSON(service.layout, tree, request.TenantID, request.CourseID); err != nil {
		fail("write_course_json", err)
		return
	}
	_ = service.jobs.SetProgress(ctx, job, 75)

	if _, err := service.invoker.EnsureBuilt(ctx, request.TenantID, request.CourseID, tree, themeName, menuName, request.Mode, rebuildRequired); err != nil {
		fail("build", err)
		return
	}
	_ = service.jobs.SetProgress(ctx, job, 90)

	if request.Mode == ModePreview {
		if err := service.jobs.Complete(ctx, job, "", ""); err != nil {
			service.logger.Error("failed to record job completion", slog.String("error", err.Error()))
		}
		return
	}

	archivePath := service.layout.DownloadFile(request.TenantID, request.CourseID)
	if err := service.packager.Package(service.layout.BuildDir(request.TenantID, request.CourseID), archivePath); err != nil {
		fail("package", err)
		return
	}

	zipName := ZipName(tree.CourseTitle())
	service.logger.Info("zip_created",
		slog.String("tenant_id", request.TenantID),
		slog.String("course_id", request.CourseID),
		slog.String("filename", archivePath),
		slog.String("zip_name", zipName),
	)

	if err := service.jobs.Complete(ctx, job, zipName, archivePath); err != nil {
		service.logger.Error("failed to record job completion", slog.String("error", err.Error()))
	}
}

// emptyBuildFolder enforces the determinism precondition: every rebuild
// starts from an empty output folder.
func (service *Service) emptyBuildFolder(tenantID, courseID string) error {
	buildDir := service.layout.BuildDir(tenantID, courseID)
	if err := os.RemoveAll(buildDir); err != nil {
		return fmt.Errorf("publish: failed to empty build folder: %w", err)
	}
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return fmt.Errorf("publish: failed to recreate build folder: %w", err)
	}
	return nil
}

// WriteCourseJSON serializes the tree into the framework's on-disk layout:
// config.json beside the language folder, the remaining sections inside it.
// Shared with the translation orchestrator, which writes the source tree
// before the export run.
func WriteCourseJSON(layout Layout, tree *CourseJSON, tenantID, courseID string) error {
	lang := tree.DefaultLanguage()
	courseDir := layout.CourseJSONDir(tenantID, courseID)
	langDir := layout.LanguageDir(tenantID, courseID, lang)

	if err := os.MkdirAll(langDir, 0o755); err != nil {
		return fmt.Errorf("publish: failed to create course json folder: %w", err)
	}

	files := map[string]any{
		filepath.Join(courseDir, "config.json"):       tree.Config,
		filepath.Join(langDir, "course.json"):         tree.Course,
		filepath.Join(langDir, "contentObjects.json"): tree.ContentObjects,
		filepath.Join(langDir, "articles.json"):       tree.Articles,
		filepath.Join(langDir, "blocks.json"):         tree.Blocks,
		filepath.Join(langDir, "components.json"):     tree.Components,
	}
	for path, payload := range files {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("publish: failed to serialize %s: %w", filepath.Base(path), err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("publish: failed to write %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}
