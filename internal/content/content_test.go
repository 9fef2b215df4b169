// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package content_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kurso/internal/content"
	"github.com/taibuivan/kurso/internal/platform/ctxkey"
	"github.com/taibuivan/kurso/internal/platform/sec"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// # Test Doubles

// memoryRepository is an in-memory [content.Repository] for unit testing
// graph operations without a database.
type memoryRepository struct {
	records []*content.Record
	failOn  content.Kind
}

func (repo *memoryRepository) FindCourse(_ context.Context, tenantID, courseID string) (*content.Record, error) {
	for _, record := range repo.records {
		if record.Kind == content.KindCourse && record.TenantID == tenantID && record.ID == courseID {
			return record, nil
		}
	}
	return nil, errors.New("course not found")
}

func (repo *memoryRepository) ListCourses(_ context.Context, tenantID string, limit, offset int) ([]*content.Record, int, error) {
	var courses []*content.Record
	for _, record := range repo.records {
		if record.Kind == content.KindCourse && record.TenantID == tenantID {
			courses = append(courses, record)
		}
	}
	return courses, len(courses), nil
}

func (repo *memoryRepository) ListByCourse(_ context.Context, tenantID, courseID string, kind content.Kind) ([]*content.Record, error) {
	var matches []*content.Record
	for _, record := range repo.records {
		if record.TenantID == tenantID && record.CourseID == courseID && record.Kind == kind {
			matches = append(matches, record)
		}
	}
	return matches, nil
}

func (repo *memoryRepository) Exists(_ context.Context, courseID, id string) (bool, error) {
	for _, record := range repo.records {
		if record.CourseID == courseID && record.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (repo *memoryRepository) Create(_ context.Context, record *content.Record) error {
	if repo.failOn != "" && record.Kind == repo.failOn {
		return errors.New("simulated storage failure")
	}
	repo.records = append(repo.records, record)
	return nil
}

func (repo *memoryRepository) MergeProps(_ context.Context, id string, merge content.Document) error {
	for _, record := range repo.records {
		if record.ID == id {
			if record.Props == nil {
				record.Props = content.Document{}
			}
			for key, value := range merge {
				record.Props[key] = value
			}
			return nil
		}
	}
	return errors.New("record not found")
}

func (repo *memoryRepository) InTx(ctx context.Context, fn func(content.Repository) error) error {
	checkpoint := len(repo.records)
	if err := fn(repo); err != nil {
		repo.records = repo.records[:checkpoint]
		return err
	}
	return nil
}

// fakeAssetCloner records asset copy calls and clones nothing by default.
type fakeAssetCloner struct {
	assetIDs    []string
	copied      map[string]string
	clonedCount int
}

func (cloner *fakeAssetCloner) CopyAssetToTenant(_ context.Context, assetID, tenantID, userID string) (string, error) {
	if cloner.copied == nil {
		cloner.copied = map[string]string{}
	}
	newID := "copied-" + assetID
	cloner.copied[assetID] = newID
	return newID, nil
}

func (cloner *fakeAssetCloner) ListCourseAssetIDs(_ context.Context, courseID string) ([]string, error) {
	return cloner.assetIDs, nil
}

func (cloner *fakeAssetCloner) CloneCourseAssets(_ context.Context, sourceCourseID, newCourseID, createdBy string, idMap map[string]string) (int, error) {
	return cloner.clonedCount, nil
}

// # Document Tests

/*
TestDocument_Clone verifies that cloned documents share no nested state.
*/
func TestDocument_Clone(t *testing.T) {
	original := content.Document{
		"title": "Intro",
		"_start": map[string]any{
			"_startIds": []any{map[string]any{"_id": "co-1"}},
		},
	}

	clone := original.Clone()

	// Mutating the clone must not leak into the original
	clone["title"] = "Changed"
	clone["_start"].(map[string]any)["_startIds"] = []any{}

	assert.Equal(t, "Intro", original["title"])
	assert.Len(t, original["_start"].(map[string]any)["_startIds"], 1)
}

/*
TestRecord_Doc verifies that structural identity fields override the
property bag when flattening.
*/
func TestRecord_Doc(t *testing.T) {
	record := &content.Record{
		ID:        "block-1",
		CourseID:  "course-1",
		Kind:      content.KindBlock,
		ParentID:  "article-1",
		SortOrder: 3,
		Props: content.Document{
			"title": "A block",
			"_id":   "stale-id",
		},
	}

	doc := record.Doc()

	assert.Equal(t, "block-1", doc["_id"])
	assert.Equal(t, "block", doc["_type"])
	assert.Equal(t, "course-1", doc["_courseId"])
	assert.Equal(t, "article-1", doc["_parentId"])
	assert.Equal(t, 3, doc["_sortOrder"])
	assert.Equal(t, "A block", doc["title"])
}

// # Creation Ordering Tests

/*
TestSortForCreation verifies parents always precede their children,
regardless of input order.
*/
func TestSortForCreation(t *testing.T) {
	records := []*content.Record{
		{ID: "page-2", ParentID: "menu-1", SortOrder: 2},
		{ID: "page-1", ParentID: "menu-1", SortOrder: 1},
		{ID: "menu-1", ParentID: "course-1", SortOrder: 1},
		{ID: "submenu-1", ParentID: "menu-1", SortOrder: 3},
		{ID: "page-3", ParentID: "submenu-1", SortOrder: 1},
	}

	ordered := content.SortForCreation(records)

	require.Len(t, ordered, 5)
	position := map[string]int{}
	for index, record := range ordered {
		position[record.ID] = index
	}

	// Every child must come after its parent
	assert.Less(t, position["menu-1"], position["page-1"])
	assert.Less(t, position["menu-1"], position["page-2"])
	assert.Less(t, position["menu-1"], position["submenu-1"])
	assert.Less(t, position["submenu-1"], position["page-3"])

	// Siblings follow their sort order
	assert.Less(t, position["page-1"], position["page-2"])
}

/*
TestSortForCreation_OrphanParents verifies records with unknown parents are
treated as roots instead of being dropped.
*/
func TestSortForCreation_OrphanParents(t *testing.T) {
	records := []*content.Record{
		{ID: "page-1", ParentID: "missing-menu", SortOrder: 1},
		{ID: "menu-1", ParentID: "course-1", SortOrder: 2},
	}

	ordered := content.SortForCreation(records)

	assert.Len(t, ordered, 2)
}

// # Creator Tests

type fixedMenuSettings struct {
	settings content.Document
	err      error
}

func (provider *fixedMenuSettings) MenuSettings(_ context.Context, tenantID, courseID string, kind content.Kind) (content.Document, error) {
	return provider.settings, provider.err
}

/*
TestCreator_MenuSettings verifies menu defaults are merged into new content
objects without overwriting authored values.
*/
func TestCreator_MenuSettings(t *testing.T) {
	repo := &memoryRepository{}
	provider := &fixedMenuSettings{settings: content.Document{
		"_boxMenu": map[string]any{"_isEnabled": true},
	}}
	creator := content.NewCreator(repo, provider, discardLogger())

	record := &content.Record{
		TenantID: "tenant-1",
		CourseID: "course-1",
		Kind:     content.KindContentObject,
		Props:    content.Document{"title": "Page"},
	}

	err := creator.Create(context.Background(), record)
	require.NoError(t, err)

	// 1. Identity assigned
	assert.NotEmpty(t, record.ID)

	// 2. Menu defaults merged under menuSettings
	menuSettings, ok := record.Props["menuSettings"].(content.Document)
	require.True(t, ok)
	assert.Contains(t, menuSettings, "_boxMenu")
}

/*
TestCreator_MenuLookupFailure verifies a failing menu lookup does not block
content creation.
*/
func TestCreator_MenuLookupFailure(t *testing.T) {
	repo := &memoryRepository{}
	provider := &fixedMenuSettings{err: errors.New("menu registry unavailable")}
	creator := content.NewCreator(repo, provider, discardLogger())

	record := &content.Record{
		TenantID: "tenant-1",
		CourseID: "course-1",
		Kind:     content.KindContentObject,
	}

	err := creator.Create(context.Background(), record)

	require.NoError(t, err)
	assert.Len(t, repo.records, 1)
}

// # Duplication Tests

func seedCourseGraph(repo *memoryRepository) {
	repo.records = []*content.Record{
		{ID: "course-1", TenantID: "tenant-1", Kind: content.KindCourse, Props: content.Document{
			"title":     "Source course",
			"heroImage": "asset-hero",
			"_start": map[string]any{
				"_isEnabled": true,
				"_startIds":  []any{map[string]any{"_id": "co-1", "_skipIfComplete": false}},
			},
		}},
		{ID: "config-1", TenantID: "tenant-1", CourseID: "course-1", ParentID: "course-1", Kind: content.KindConfig, Props: content.Document{"_theme": "adapt-contrib-vanilla"}},
		{ID: "co-1", TenantID: "tenant-1", CourseID: "course-1", ParentID: "course-1", Kind: content.KindContentObject, Props: content.Document{"title": "Page one"}},
		{ID: "article-1", TenantID: "tenant-1", CourseID: "course-1", ParentID: "co-1", Kind: content.KindArticle},
		{ID: "block-1", TenantID: "tenant-1", CourseID: "course-1", ParentID: "article-1", Kind: content.KindBlock},
		{ID: "component-1", TenantID: "tenant-1", CourseID: "course-1", ParentID: "block-1", Kind: content.KindComponent, Props: content.Document{"_component": "adapt-contrib-text"}},
	}
}

func newDuplicator(repo *memoryRepository, cloner *fakeAssetCloner) *content.Duplicator {
	creator := content.NewCreator(repo, nil, discardLogger())
	return content.NewDuplicator(repo, creator, cloner, discardLogger())
}

/*
TestDuplicator_Duplicate verifies a full graph clone: fresh identifiers,
remapped parent links, rewritten start IDs and hero image.
*/
func TestDuplicator_Duplicate(t *testing.T) {
	repo := &memoryRepository{}
	seedCourseGraph(repo)
	cloner := &fakeAssetCloner{assetIDs: []string{"asset-1"}}
	duplicator := newDuplicator(repo, cloner)

	newCourseID, err := duplicator.Duplicate(context.Background(), "tenant-1", "course-1", content.Target{
		TenantID: "tenant-1",
		UserID:   "user-2",
	})
	require.NoError(t, err)
	require.NotEmpty(t, newCourseID)
	assert.NotEqual(t, "course-1", newCourseID)

	// 1. The whole hierarchy was recreated (course + 5 children)
	assert.Len(t, repo.records, 12)

	newCourse, err := repo.FindCourse(context.Background(), "tenant-1", newCourseID)
	require.NoError(t, err)

	// 2. The copy has no build output and a remapped hero image
	assert.Equal(t, false, newCourse.Props["_hasPreview"])
	assert.Equal(t, "copied-asset-hero", newCourse.Props["heroImage"])
	assert.Equal(t, "user-2", newCourse.CreatedBy)

	// 3. Start IDs point at the cloned content object, not the source one
	start := newCourse.Props["_start"].(map[string]any)
	startIDs := start["_startIds"].([]any)
	require.Len(t, startIDs, 1)
	newStartID := startIDs[0].(map[string]any)["_id"].(string)
	assert.NotEqual(t, "co-1", newStartID)

	newObjects, err := repo.ListByCourse(context.Background(), "tenant-1", newCourseID, content.KindContentObject)
	require.NoError(t, err)
	require.Len(t, newObjects, 1)
	assert.Equal(t, newStartID, newObjects[0].ID)
	assert.Equal(t, newCourseID, newObjects[0].ParentID)

	// 4. The source graph is untouched
	source, err := repo.FindCourse(context.Background(), "tenant-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, "asset-hero", source.Props["heroImage"])
}

/*
TestDuplicator_CrossTenant verifies copies into a different tenant are
flagged as shared and assets are copied across.
*/
func TestDuplicator_CrossTenant(t *testing.T) {
	repo := &memoryRepository{}
	seedCourseGraph(repo)
	cloner := &fakeAssetCloner{assetIDs: []string{"asset-1", "asset-2"}}
	duplicator := newDuplicator(repo, cloner)

	newCourseID, err := duplicator.Duplicate(context.Background(), "tenant-1", "course-1", content.Target{
		TenantID: "tenant-2",
		UserID:   "user-9",
	})
	require.NoError(t, err)

	newCourse, err := repo.FindCourse(context.Background(), "tenant-2", newCourseID)
	require.NoError(t, err)
	assert.Equal(t, true, newCourse.Props["_isShared"])
	assert.Equal(t, "tenant-2", newCourse.TenantID)

	// Hero image plus both referenced assets crossed the tenant boundary
	assert.Len(t, cloner.copied, 3)
}

/*
TestDuplicator_RollbackOnFailure verifies a mid-rebuild failure leaves no
partial course graph behind.
*/
func TestDuplicator_RollbackOnFailure(t *testing.T) {
	repo := &memoryRepository{}
	seedCourseGraph(repo)
	repo.failOn = content.KindBlock
	duplicator := newDuplicator(repo, &fakeAssetCloner{})

	_, err := duplicator.Duplicate(context.Background(), "tenant-1", "course-1", content.Target{
		TenantID: "tenant-1",
		UserID:   "user-2",
	})

	require.Error(t, err)
	// Only the original six records survive
	assert.Len(t, repo.records, 6)
}

// # Duplication Handler Tests

func duplicateRequest(t *testing.T, handler *content.Handler, path string, claims *sec.AuthClaims) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(http.MethodGet, path, nil)
	request = request.WithContext(context.WithValue(request.Context(), ctxkey.KeyUser, claims))
	recorder := httptest.NewRecorder()
	handler.DuplicateRoutes().ServeHTTP(recorder, request)
	return recorder
}

/*
TestHandler_DuplicateCourse_CrossTenant verifies a super admin can name a
destination tenant and the copy lands there.
*/
func TestHandler_DuplicateCourse_CrossTenant(t *testing.T) {
	repo := &memoryRepository{}
	seedCourseGraph(repo)
	cloner := &fakeAssetCloner{assetIDs: []string{"asset-1"}}
	handler := content.NewHandler(content.NewService(repo, discardLogger()), newDuplicator(repo, cloner))

	recorder := duplicateRequest(t, handler, "/course-1/user-2?tenant=tenant-2", &sec.AuthClaims{
		UserID:   "user-1",
		TenantID: "tenant-1",
		Role:     string(sec.RoleSuperAdmin),
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Data struct {
			Success     bool   `json:"success"`
			NewCourseID string `json:"newCourseId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	payload := envelope.Data
	assert.True(t, payload.Success)

	// The copy lives in the destination tenant and is flagged as shared
	newCourse, err := repo.FindCourse(context.Background(), "tenant-2", payload.NewCourseID)
	require.NoError(t, err)
	assert.Equal(t, "tenant-2", newCourse.TenantID)
	assert.Equal(t, true, newCourse.Props["_isShared"])
}

/*
TestHandler_DuplicateCourse_CrossTenantForbidden verifies an author cannot
copy a course into another tenant.
*/
func TestHandler_DuplicateCourse_CrossTenantForbidden(t *testing.T) {
	repo := &memoryRepository{}
	seedCourseGraph(repo)
	handler := content.NewHandler(content.NewService(repo, discardLogger()), newDuplicator(repo, &fakeAssetCloner{}))

	recorder := duplicateRequest(t, handler, "/course-1/user-1?tenant=tenant-2", &sec.AuthClaims{
		UserID:   "user-1",
		TenantID: "tenant-1",
		Role:     string(sec.RoleAuthor),
	})

	assert.Equal(t, http.StatusForbidden, recorder.Code)
	// Nothing was cloned
	assert.Len(t, repo.records, 6)
}

/*
TestHandler_DuplicateCourse_DefaultsToCallerTenant verifies the copy lands
in the caller's tenant when no destination is named.
*/
func TestHandler_DuplicateCourse_DefaultsToCallerTenant(t *testing.T) {
	repo := &memoryRepository{}
	seedCourseGraph(repo)
	handler := content.NewHandler(content.NewService(repo, discardLogger()), newDuplicator(repo, &fakeAssetCloner{}))

	recorder := duplicateRequest(t, handler, "/course-1/user-1", &sec.AuthClaims{
		UserID:   "user-1",
		TenantID: "tenant-1",
		Role:     string(sec.RoleAuthor),
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Data struct {
			NewCourseID string `json:"newCourseId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	payload := envelope.Data

	newCourse, err := repo.FindCourse(context.Background(), "tenant-1", payload.NewCourseID)
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", newCourse.TenantID)
	assert.Nil(t, newCourse.Props["_isShared"])
}
