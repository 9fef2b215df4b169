// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package asset_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kurso/internal/asset"
	"github.com/taibuivan/kurso/internal/content"
	"github.com/taibuivan/kurso/internal/platform/dberr"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// # Test Doubles

type memoryAssetRepo struct {
	assets       []*asset.Asset
	courseAssets []*asset.CourseAsset
}

func (repo *memoryAssetRepo) FindByID(_ context.Context, id string) (*asset.Asset, error) {
	for _, record := range repo.assets {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (repo *memoryAssetRepo) FindByTitleAndSize(_ context.Context, tenantID, title string, size int64) (*asset.Asset, error) {
	for _, record := range repo.assets {
		if record.TenantID == tenantID && record.Title == title && record.Size == size {
			return record, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (repo *memoryAssetRepo) Create(_ context.Context, record *asset.Asset) error {
	repo.assets = append(repo.assets, record)
	return nil
}

func (repo *memoryAssetRepo) ListCourseAssets(_ context.Context, courseID string) ([]*asset.CourseAsset, error) {
	var matches []*asset.CourseAsset
	for _, record := range repo.courseAssets {
		if record.CourseID == courseID {
			matches = append(matches, record)
		}
	}
	return matches, nil
}

func (repo *memoryAssetRepo) ListDistinctAssetIDs(_ context.Context, courseID string) ([]string, error) {
	seen := map[string]bool{}
	var assetIDs []string
	for _, record := range repo.courseAssets {
		if record.CourseID == courseID && !seen[record.AssetID] {
			seen[record.AssetID] = true
			assetIDs = append(assetIDs, record.AssetID)
		}
	}
	return assetIDs, nil
}

func (repo *memoryAssetRepo) CreateCourseAsset(_ context.Context, record *asset.CourseAsset) error {
	repo.courseAssets = append(repo.courseAssets, record)
	return nil
}

func (repo *memoryAssetRepo) DeleteCourseAsset(_ context.Context, id string) error {
	for index, record := range repo.courseAssets {
		if record.ID == id {
			repo.courseAssets = append(repo.courseAssets[:index], repo.courseAssets[index+1:]...)
			return nil
		}
	}
	return nil
}

// memoryStorage keeps binaries in a map keyed by path.
type memoryStorage struct {
	files map[string][]byte
}

func (storage *memoryStorage) Save(_ context.Context, path string, r io.Reader) (int64, error) {
	if storage.files == nil {
		storage.files = map[string][]byte{}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	storage.files[path] = data
	return int64(len(data)), nil
}

func (storage *memoryStorage) Open(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := storage.files[path]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// existenceRepo answers Exists from a fixed id set.
type existenceRepo struct {
	content.Repository
	existing map[string]bool
}

func (repo *existenceRepo) Exists(_ context.Context, courseID, id string) (bool, error) {
	return repo.existing[id], nil
}

// # Copy Tests

/*
TestService_CopyAssetToTenant verifies a cross-tenant copy creates a new
record and moves the bytes.
*/
func TestService_CopyAssetToTenant(t *testing.T) {
	repo := &memoryAssetRepo{assets: []*asset.Asset{{
		ID: "asset-1", TenantID: "tenant-1", Title: "logo", Filename: "logo.png",
		Path: "tenant-1/asset-1.png", Size: 4, Repository: asset.RepositoryLocalFS,
	}}}
	storage := &memoryStorage{files: map[string][]byte{"tenant-1/asset-1.png": []byte("PNG!")}}
	service := asset.NewService(repo, nil, storage, discardLogger())

	newID, err := service.CopyAssetToTenant(context.Background(), "asset-1", "tenant-2", "user-1")

	require.NoError(t, err)
	assert.NotEqual(t, "asset-1", newID)
	require.Len(t, repo.assets, 2)

	copied := repo.assets[1]
	assert.Equal(t, "tenant-2", copied.TenantID)
	assert.Equal(t, "user-1", copied.CreatedBy)
	assert.True(t, strings.HasPrefix(copied.Path, "tenant-2/"))
	assert.Equal(t, []byte("PNG!"), storage.files[copied.Path])
}

/*
TestService_CopyAssetToTenant_Dedupe verifies an existing asset with the
same title and size is reused instead of copied.
*/
func TestService_CopyAssetToTenant_Dedupe(t *testing.T) {
	repo := &memoryAssetRepo{assets: []*asset.Asset{
		{ID: "asset-1", TenantID: "tenant-1", Title: "logo", Size: 4, Path: "tenant-1/asset-1.png"},
		{ID: "asset-9", TenantID: "tenant-2", Title: "logo", Size: 4, Path: "tenant-2/asset-9.png"},
	}}
	service := asset.NewService(repo, nil, &memoryStorage{}, discardLogger())

	newID, err := service.CopyAssetToTenant(context.Background(), "asset-1", "tenant-2", "user-1")

	require.NoError(t, err)
	assert.Equal(t, "asset-9", newID)
	assert.Len(t, repo.assets, 2)
}

/*
TestService_CopyAssetToTenant_SameTenant verifies same-tenant copies are a
no-op returning the original identifier.
*/
func TestService_CopyAssetToTenant_SameTenant(t *testing.T) {
	repo := &memoryAssetRepo{assets: []*asset.Asset{
		{ID: "asset-1", TenantID: "tenant-1", Title: "logo", Size: 4},
	}}
	service := asset.NewService(repo, nil, &memoryStorage{}, discardLogger())

	newID, err := service.CopyAssetToTenant(context.Background(), "asset-1", "tenant-1", "user-1")

	require.NoError(t, err)
	assert.Equal(t, "asset-1", newID)
	assert.Len(t, repo.assets, 1)
}

// # Clone Tests

/*
TestService_CloneCourseAssets verifies identifier remapping and that rows
with unmapped content parents are skipped.
*/
func TestService_CloneCourseAssets(t *testing.T) {
	repo := &memoryAssetRepo{courseAssets: []*asset.CourseAsset{
		{ID: "ca-1", CourseID: "course-1", AssetID: "asset-1", ContentType: "component", ContentID: "comp-1", ContentParentID: "block-1"},
		{ID: "ca-2", CourseID: "course-1", AssetID: "asset-2", ContentType: "component", ContentID: "comp-2", ContentParentID: "block-gone"},
	}}
	service := asset.NewService(repo, nil, &memoryStorage{}, discardLogger())

	idMap := map[string]string{
		"asset-1": "new-asset-1",
		"comp-1":  "new-comp-1",
		"block-1": "new-block-1",
	}

	cloned, err := service.CloneCourseAssets(context.Background(), "course-1", "course-2", "user-1", idMap)

	require.NoError(t, err)
	assert.Equal(t, 1, cloned)

	require.Len(t, repo.courseAssets, 3)
	clone := repo.courseAssets[2]
	assert.Equal(t, "course-2", clone.CourseID)
	assert.Equal(t, "new-asset-1", clone.AssetID)
	assert.Equal(t, "new-comp-1", clone.ContentID)
	assert.Equal(t, "new-block-1", clone.ContentParentID)
}

// # Cleanup Tests

/*
TestService_CleanupCourse verifies orphaned join rows are removed and the
count reported.
*/
func TestService_CleanupCourse(t *testing.T) {
	repo := &memoryAssetRepo{courseAssets: []*asset.CourseAsset{
		{ID: "ca-1", CourseID: "course-1", AssetID: "asset-1", ContentID: "comp-1"},
		{ID: "ca-2", CourseID: "course-1", AssetID: "asset-2", ContentID: "comp-deleted"},
		{ID: "ca-3", CourseID: "course-1", AssetID: "asset-3", ContentID: "comp-also-deleted"},
	}}
	contentRepo := &existenceRepo{existing: map[string]bool{"comp-1": true}}
	service := asset.NewService(repo, contentRepo, &memoryStorage{}, discardLogger())

	cleaned, err := service.CleanupCourse(context.Background(), "course-1")

	require.NoError(t, err)
	assert.Equal(t, 2, cleaned)
	require.Len(t, repo.courseAssets, 1)
	assert.Equal(t, "ca-1", repo.courseAssets[0].ID)
}
