// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package asset

import (
	"context"
)

// # Repository Contract

// Repository defines storage access for asset records and course joins.
type Repository interface {
	// FindByID returns an asset by identifier, or a NotFound error.
	FindByID(ctx context.Context, id string) (*Asset, error)

	// FindByTitleAndSize returns a tenant's asset matching both title and
	// byte size, or a NotFound error. Used to deduplicate cross-tenant copies.
	FindByTitleAndSize(ctx context.Context, tenantID, title string, size int64) (*Asset, error)

	// Create persists a new asset record.
	Create(ctx context.Context, asset *Asset) error

	// ListCourseAssets returns every join row of a course.
	ListCourseAssets(ctx context.Context, courseID string) ([]*CourseAsset, error)

	// ListDistinctAssetIDs returns the distinct asset identifiers a course
	// references.
	ListDistinctAssetIDs(ctx context.Context, courseID string) ([]string, error)

	// CreateCourseAsset persists a new join row.
	CreateCourseAsset(ctx context.Context, courseAsset *CourseAsset) error

	// DeleteCourseAsset removes a join row.
	DeleteCourseAsset(ctx context.Context, id string) error
}
