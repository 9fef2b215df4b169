// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package asset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/taibuivan/kurso/internal/content"
	"github.com/taibuivan/kurso/internal/platform/dberr"
	"github.com/taibuivan/kurso/pkg/uuid"
)

// # Service Layer

// Service orchestrates asset copying and course asset hygiene. It satisfies
// [content.AssetCloner] for the course duplicator.
type Service struct {
	repo        Repository
	contentRepo content.Repository
	storage     Storage
	logger      *slog.Logger
}

// NewService constructs a new [Service].
func NewService(repo Repository, contentRepo content.Repository, storage Storage, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		contentRepo: contentRepo,
		storage:     storage,
		logger:      logger,
	}
}

// # Cross-Tenant Copy

/*
CopyAssetToTenant makes an asset available in a target tenant.

Description: If the target tenant already holds an asset with the same title
and byte size, that existing record is reused and no bytes move. Otherwise a
new record is created under the target tenant and the binary is streamed
into a tenant-scoped storage path.

Parameters:
  - ctx: context.Context
  - assetID: string (source asset)
  - tenantID: string (target tenant)
  - userID: string (creator attribution on the copy)

Returns:
  - string: The asset identifier valid in the target tenant
  - error: NotFound if the source asset does not exist, or copy errors
*/
func (service *Service) CopyAssetToTenant(ctx context.Context, assetID, tenantID, userID string) (string, error) {
	source, err := service.repo.FindByID(ctx, assetID)
	if err != nil {
		return "", err
	}

	// Same tenant, nothing to copy.
	if source.TenantID == tenantID {
		return source.ID, nil
	}

	existing, err := service.repo.FindByTitleAndSize(ctx, tenantID, source.Title, source.Size)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, dberr.ErrNotFound) {
		return "", err
	}

	copied := &Asset{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Title:       source.Title,
		Description: source.Description,
		Filename:    source.Filename,
		MimeType:    source.MimeType,
		Size:        source.Size,
		Repository:  source.Repository,
		Tags:        source.Tags,
		CreatedBy:   userID,
	}
	copied.Path = path.Join(tenantID, copied.ID+path.Ext(source.Filename))

	reader, err := service.storage.Open(ctx, source.Path)
	if err != nil {
		return "", fmt.Errorf("asset: failed to open source binary: %w", err)
	}
	defer reader.Close()

	if _, err := service.storage.Save(ctx, copied.Path, reader); err != nil {
		return "", fmt.Errorf("asset: failed to copy binary: %w", err)
	}

	if err := service.repo.Create(ctx, copied); err != nil {
		return "", err
	}

	service.logger.Debug("asset copied to tenant",
		slog.String("asset_id", assetID),
		slog.String("new_asset_id", copied.ID),
		slog.String("tenant_id", tenantID),
	)
	return copied.ID, nil
}

// ListCourseAssetIDs returns the distinct asset identifiers a course uses.
func (service *Service) ListCourseAssetIDs(ctx context.Context, courseID string) ([]string, error) {
	return service.repo.ListDistinctAssetIDs(ctx, courseID)
}

/*
CloneCourseAssets copies a course's asset join rows onto another course.

Description: Every join row is re-created against the new course with its
asset and content identifiers remapped through idMap. Rows whose content
parent has no mapping refer to content that was not cloned, so they are
skipped rather than carried over dangling.

Parameters:
  - ctx: context.Context
  - sourceCourseID: string
  - newCourseID: string
  - createdBy: string
  - idMap: map[string]string (old identifier to new identifier)

Returns:
  - int: Number of join rows cloned
  - error: Listing or insert errors
*/
func (service *Service) CloneCourseAssets(ctx context.Context, sourceCourseID, newCourseID, createdBy string, idMap map[string]string) (int, error) {
	courseAssets, err := service.repo.ListCourseAssets(ctx, sourceCourseID)
	if err != nil {
		return 0, err
	}

	cloned := 0
	for _, courseAsset := range courseAssets {
		if idMap[courseAsset.ContentParentID] == "" {
			continue
		}

		clone := &CourseAsset{
			ID:              uuid.New(),
			CourseID:        newCourseID,
			AssetID:         idMap[courseAsset.AssetID],
			ContentType:     courseAsset.ContentType,
			ContentID:       idMap[courseAsset.ContentID],
			ContentParentID: idMap[courseAsset.ContentParentID],
			CreatedBy:       createdBy,
		}
		if clone.AssetID == "" {
			clone.AssetID = courseAsset.AssetID
		}
		if err := service.repo.CreateCourseAsset(ctx, clone); err != nil {
			return cloned, err
		}
		cloned++
	}

	return cloned, nil
}

// # Cleanup

/*
CleanupCourse removes orphaned asset join rows from a course.

Description: Walks every join row of the course and checks whether the
content item it belongs to still exists; rows pointing at deleted content
are removed. The legacy page and menu labels resolve to content objects, so
existence is always checked against the unified content table.

Parameters:
  - ctx: context.Context
  - courseID: string

Returns:
  - int: Number of orphaned rows removed
  - error: Lookup or delete errors
*/
func (service *Service) CleanupCourse(ctx context.Context, courseID string) (int, error) {
	service.logger.Info("assets clean up started", slog.String("course_id", courseID))

	courseAssets, err := service.repo.ListCourseAssets(ctx, courseID)
	if err != nil {
		return 0, err
	}

	used, cleaned := 0, 0
	for _, courseAsset := range courseAssets {
		inUse, err := service.contentRepo.Exists(ctx, courseID, courseAsset.ContentID)
		if err != nil {
			return cleaned, err
		}
		if inUse {
			used++
			continue
		}

		if err := service.repo.DeleteCourseAsset(ctx, courseAsset.ID); err != nil {
			return cleaned, err
		}
		cleaned++
	}

	service.logger.Info("assets clean up finished",
		slog.String("course_id", courseID),
		slog.Int("assets_ok", used),
		slog.Int("assets_cleaned", cleaned),
	)
	return cleaned, nil
}
