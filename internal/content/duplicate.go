// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package content

import (
	"context"
	"fmt"
	"log/slog"
)

// # Course Duplication

// AssetCloner is the slice of the asset domain the duplicator needs: copying
// binary assets into a tenant and cloning a course's asset join rows under a
// remapped identifier space.
type AssetCloner interface {
	// CopyAssetToTenant makes an asset available in the target tenant and
	// returns its identifier there. Assets already present (matched by title
	// and size) are reused rather than copied again.
	CopyAssetToTenant(ctx context.Context, assetID, tenantID, userID string) (string, error)

	// ListCourseAssetIDs returns the distinct asset identifiers referenced
	// by a course.
	ListCourseAssetIDs(ctx context.Context, courseID string) ([]string, error)

	// CloneCourseAssets copies the join rows of sourceCourseID onto
	// newCourseID, remapping asset and content identifiers through idMap.
	// Rows whose content parent has no mapping are skipped.
	CloneCourseAssets(ctx context.Context, sourceCourseID, newCourseID, createdBy string, idMap map[string]string) (int, error)
}

// Target names the destination of a duplication: the tenant the copy lands
// in and the user recorded as its creator.
type Target struct {
	TenantID string
	UserID   string
}

// Duplicator clones entire course graphs, within a tenant or across tenants.
type Duplicator struct {
	repo    Repository
	creator *Creator
	assets  AssetCloner
	logger  *slog.Logger
}

// NewDuplicator constructs a [Duplicator].
func NewDuplicator(repo Repository, creator *Creator, assets AssetCloner, logger *slog.Logger) *Duplicator {
	return &Duplicator{repo: repo, creator: creator, assets: assets, logger: logger}
}

/*
Duplicate clones a course and everything beneath it under a fresh identifier
space.

Description: The source graph is read kind by kind and recreated for the
target, with every old identifier remapped through a shared id map: parent
links, the course's start identifiers, the hero image and the asset join
rows all follow the map. Content objects are recreated parents-first so the
tree is never dangling mid-build. The document graph is written inside one
transaction; a failure at any point leaves no partial course behind. Asset
join rows are cloned after the graph commits, and rows whose owning content
parent did not survive the remap are skipped.

Parameters:
  - ctx: context.Context
  - tenantID: string (tenant owning the source course)
  - courseID: string (the course to clone)
  - target: Target (destination tenant and creator attribution)

Returns:
  - string: The new course identifier
  - error: NotFound if the source course does not exist, or rebuild errors
*/
func (duplicator *Duplicator) Duplicate(ctx context.Context, tenantID, courseID string, target Target) (string, error) {
	source, err := duplicator.repo.FindCourse(ctx, tenantID, courseID)
	if err != nil {
		return "", err
	}

	idMap := map[string]string{}

	// Hero image first so the new course props can point at the copy.
	if heroImage, ok := source.Props["heroImage"].(string); ok && heroImage != "" {
		newAssetID, err := duplicator.assets.CopyAssetToTenant(ctx, heroImage, target.TenantID, target.UserID)
		if err != nil {
			return "", fmt.Errorf("content: failed to copy hero image: %w", err)
		}
		idMap[heroImage] = newAssetID
	}

	var newCourseID string
	err = duplicator.repo.InTx(ctx, func(tx Repository) error {
		creator := duplicator.creator.WithRepository(tx)

		newCourseID, err = duplicator.cloneCourseRoot(ctx, creator, source, target, idMap)
		if err != nil {
			return err
		}
		idMap[source.ID] = newCourseID

		for _, kind := range ChildKinds {
			records, err := tx.ListByCourse(ctx, tenantID, courseID, kind)
			if err != nil {
				return err
			}
			if kind == KindContentObject {
				records = SortForCreation(records)
			}
			for _, record := range records {
				clone := &Record{
					TenantID:  target.TenantID,
					CourseID:  newCourseID,
					Kind:      record.Kind,
					ParentID:  idMap[record.ParentID],
					SortOrder: record.SortOrder,
					CreatedBy: target.UserID,
					Props:     record.Props.Clone(),
				}
				if err := creator.Create(ctx, clone); err != nil {
					return err
				}
				idMap[record.ID] = clone.ID
			}
		}

		return RewriteStartIDs(ctx, tx, newCourseID, source.Props, idMap)
	})
	if err != nil {
		return "", err
	}

	if err := duplicator.cloneAssets(ctx, courseID, newCourseID, target, idMap); err != nil {
		return "", err
	}

	duplicator.logger.Info("course duplicated",
		slog.String("course_id", courseID),
		slog.String("new_course_id", newCourseID),
		slog.String("target_tenant_id", target.TenantID),
	)
	return newCourseID, nil
}

func (duplicator *Duplicator) cloneCourseRoot(ctx context.Context, creator *Creator, source *Record, target Target, idMap map[string]string) (string, error) {
	props := source.Props.Clone()
	if props == nil {
		props = Document{}
	}

	// The copy has no build output yet.
	props["_hasPreview"] = false
	if heroImage, ok := props["heroImage"].(string); ok && heroImage != "" {
		props["heroImage"] = idMap[heroImage]
	}
	if target.TenantID != source.TenantID {
		props["_isShared"] = true
	}

	clone := &Record{
		TenantID:  target.TenantID,
		Kind:      KindCourse,
		SortOrder: source.SortOrder,
		CreatedBy: target.UserID,
		Props:     props,
	}
	if err := creator.Create(ctx, clone); err != nil {
		return "", err
	}
	return clone.ID, nil
}

// RewriteStartIDs points a rebuilt course's start page references at the
// recreated content objects. Start entries are stored as {_id, ...} objects
// under _start._startIds. Used by duplication and translation.
func RewriteStartIDs(ctx context.Context, repo Repository, newCourseID string, sourceProps Document, idMap map[string]string) error {
	start, ok := sourceProps["_start"].(map[string]any)
	if !ok {
		return nil
	}
	startIDs, ok := start["_startIds"].([]any)
	if !ok || len(startIDs) == 0 {
		return nil
	}

	rewritten := make([]any, 0, len(startIDs))
	for _, entry := range startIDs {
		startEntry, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		copied := deepCopyMap(startEntry)
		if oldID, ok := copied["_id"].(string); ok {
			copied["_id"] = idMap[oldID]
		}
		rewritten = append(rewritten, copied)
	}

	newStart := deepCopyMap(start)
	newStart["_startIds"] = rewritten
	return repo.MergeProps(ctx, newCourseID, Document{"_start": newStart})
}

func (duplicator *Duplicator) cloneAssets(ctx context.Context, courseID, newCourseID string, target Target, idMap map[string]string) error {
	assetIDs, err := duplicator.assets.ListCourseAssetIDs(ctx, courseID)
	if err != nil {
		return fmt.Errorf("content: failed to list course assets: %w", err)
	}
	for _, assetID := range assetIDs {
		newAssetID, err := duplicator.assets.CopyAssetToTenant(ctx, assetID, target.TenantID, target.UserID)
		if err != nil {
			return fmt.Errorf("content: failed to copy asset %s: %w", assetID, err)
		}
		idMap[assetID] = newAssetID
	}

	cloned, err := duplicator.assets.CloneCourseAssets(ctx, courseID, newCourseID, target.UserID, idMap)
	if err != nil {
		return fmt.Errorf("content: failed to clone course assets: %w", err)
	}
	if cloned > 0 {
		duplicator.logger.Debug("course assets cloned",
			slog.String("new_course_id", newCourseID),
			slog.Int("count", cloned),
		)
	}
	return nil
}
