// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kurso/internal/asset"
	"github.com/taibuivan/kurso/internal/content"
	"github.com/taibuivan/kurso/internal/platform/apperr"
	"github.com/taibuivan/kurso/internal/plugintype"
	"github.com/taibuivan/kurso/internal/publish"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// # Fakes

// stubContentRepo is an in-memory read-only content repository.
type stubContentRepo struct {
	records []*content.Record
}

func (repo *stubContentRepo) FindCourse(_ context.Context, tenantID, courseID string) (*content.Record, error) {
	for _, record := range repo.records {
		if record.TenantID == tenantID && record.CourseID == courseID && record.Kind == content.KindCourse {
			return record, nil
		}
	}
	return nil, apperr.NotFound("Course")
}

func (repo *stubContentRepo) ListCourses(_ context.Context, tenantID string, _, _ int) ([]*content.Record, int, error) {
	var courses []*content.Record
	for _, record := range repo.records {
		if record.TenantID == tenantID && record.Kind == content.KindCourse {
			courses = append(courses, record)
		}
	}
	return courses, len(courses), nil
}

func (repo *stubContentRepo) ListByCourse(_ context.Context, tenantID, courseID string, kind content.Kind) ([]*content.Record, error) {
	var matches []*content.Record
	for _, record := range repo.records {
		if record.TenantID == tenantID && record.CourseID == courseID && record.Kind == kind {
			matches = append(matches, record)
		}
	}
	return matches, nil
}

func (repo *stubContentRepo) Exists(_ context.Context, courseID, id string) (bool, error) {
	for _, record := range repo.records {
		if record.CourseID == courseID && record.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (repo *stubContentRepo) Create(_ context.Context, record *content.Record) error {
	repo.records = append(repo.records, record)
	return nil
}

func (repo *stubContentRepo) MergeProps(_ context.Context, id string, merge content.Document) error {
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
	return apperr.NotFound("Content")
}

func (repo *stubContentRepo) InTx(_ context.Context, fn func(content.Repository) error) error {
	return fn(repo)
}

// stubRegistry is an in-memory plugin registry.
type stubRegistry struct {
	descriptors []*plugintype.Descriptor
}

func (registry *stubRegistry) FindByID(_ context.Context, id string) (*plugintype.Descriptor, error) {
	for _, descriptor := range registry.descriptors {
		if descriptor.ID == id {
			return descriptor, nil
		}
	}
	return nil, apperr.NotFound("Plugin")
}

func (registry *stubRegistry) FindByName(_ context.Context, kind plugintype.Kind, name string) (*plugintype.Descriptor, error) {
	for _, descriptor := range registry.descriptors {
		if descriptor.Kind == kind && descriptor.Name == name {
			return descriptor, nil
		}
	}
	return nil, apperr.NotFound("Plugin")
}

func (registry *stubRegistry) ListByKind(_ context.Context, kind plugintype.Kind) ([]*plugintype.Descriptor, error) {
	var matches []*plugintype.Descriptor
	for _, descriptor := range registry.descriptors {
		if descriptor.Kind == kind {
			matches = append(matches, descriptor)
		}
	}
	return matches, nil
}

// stubAssetRepo serves asset records and course joins from memory.
type stubAssetRepo struct {
	assets map[string]*asset.Asset
	joins  []*asset.CourseAsset
}

func (repo *stubAssetRepo) FindByID(_ context.Context, id string) (*asset.Asset, error) {
	record, ok := repo.assets[id]
	if !ok {
		return nil, apperr.NotFound("Asset")
	}
	return record, nil
}

func (repo *stubAssetRepo) FindByTitleAndSize(_ context.Context, _, _ string, _ int64) (*asset.Asset, error) {
	return nil, apperr.NotFound("Asset")
}

func (repo *stubAssetRepo) Create(_ context.Context, record *asset.Asset) error {
	repo.assets[record.ID] = record
	return nil
}

func (repo *stubAssetRepo) ListCourseAssets(_ context.Context, courseID string) ([]*asset.CourseAsset, error) {
	var matches []*asset.CourseAsset
	for _, join := range repo.joins {
		if join.CourseID == courseID {
			matches = append(matches, join)
		}
	}
	return matches, nil
}

func (repo *stubAssetRepo) ListDistinctAssetIDs(_ context.Context, courseID string) ([]string, error) {
	seen := map[string]bool{}
	var ids []string
	for _, join := range repo.joins {
		if join.CourseID == courseID && !seen[join.AssetID] {
			seen[join.AssetID] = true
			ids = append(ids, join.AssetID)
		}
	}
	return ids, nil
}

func (repo *stubAssetRepo) CreateCourseAsset(_ context.Context, join *asset.CourseAsset) error {
	repo.joins = append(repo.joins, join)
	return nil
}

func (repo *stubAssetRepo) DeleteCourseAsset(_ context.Context, id string) error {
	for i, join := range repo.joins {
		if join.ID == id {
			repo.joins = append(repo.joins[:i], repo.joins[i+1:]...)
			return nil
		}
	}
	return nil
}

// stubStorage keeps binaries in a map keyed by storage path.
type stubStorage struct {
	files map[string][]byte
}

func (storage *stubStorage) Save(_ context.Context, path string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	storage.files[path] = data
	return int64(len(data)), nil
}

func (storage *stubStorage) Open(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := storage.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// buildCall records one builder invocation.
type buildCall struct {
	flavor    string
	outputDir string
	theme     string
	menu      string
}

// stubRunner fakes the external builder and records every call.
type stubRunner struct {
	result publish.ExitResult
	calls  []buildCall
}

func (runner *stubRunner) RunBuild(_ context.Context, flavor, outputDir, theme, menu string) publish.ExitResult {
	runner.calls = append(runner.calls, buildCall{flavor: flavor, outputDir: outputDir, theme: theme, menu: menu})
	return runner.result
}

func (runner *stubRunner) RunExport(_ context.Context, outputDir, targetLang string) publish.ExitResult {
	runner.calls = append(runner.calls, buildCall{flavor: "export", outputDir: outputDir, theme: targetLang})
	return runner.result
}

func (runner *stubRunner) RunImport(_ context.Context, outputDir, targetLang string) publish.ExitResult {
	runner.calls = append(runner.calls, buildCall{flavor: "import", outputDir: outputDir, theme: targetLang})
	return runner.result
}

// # Fixtures

func seedCourseRecords() []*content.Record {
	return []*content.Record{
		{
			ID: "course-1", TenantID: "tenant-1", CourseID: "course-1", Kind: content.KindCourse,
			Props: content.Document{"title": "My First Course", "_isSelected": true},
		},
		{
			ID: "config-1", TenantID: "tenant-1", CourseID: "course-1", Kind: content.KindConfig, ParentID: "course-1",
			Props: content.Document{"_defaultLanguage": "en", "_theme": "adapt-contrib-vanilla"},
		},
		{
			ID: "co-1", TenantID: "tenant-1", CourseID: "course-1", Kind: content.KindContentObject, ParentID: "course-1",
			Props: content.Document{"title": "Page one", "_isExpanded": true},
		},
		{
			ID: "article-1", TenantID: "tenant-1", CourseID: "course-1", Kind: content.KindArticle, ParentID: "co-1",
			Props: content.Document{"title": "Article one"},
		},
		{
			ID: "block-1", TenantID: "tenant-1", CourseID: "course-1", Kind: content.KindBlock, ParentID: "article-1",
			Props: content.Document{"title": "Block one"},
		},
		{
			ID: "component-1", TenantID: "tenant-1", CourseID: "course-1", Kind: content.KindComponent, ParentID: "block-1",
			Props: content.Document{"_component": "text", "_graphic": map[string]any{"src": "course/assets/My Logo.png"}},
		},
	}
}

func trackingDescriptors() []*plugintype.Descriptor {
	return []*plugintype.Descriptor{
		{
			ID: "plugin-spoor", Kind: plugintype.KindExtension, Name: "adapt-contrib-spoor",
			Version: "3.5.0", TargetAttribute: "_spoor",
		},
		{
			ID: "plugin-xapi", Kind: plugintype.KindExtension, Name: "adapt-contrib-xapi",
			Version: "2.1.0", TargetAttribute: "_xapi",
		},
	}
}

func scormTree() *publish.CourseJSON {
	return &publish.CourseJSON{
		Course: content.Document{"title": "My First Course"},
		Config: content.Document{
			"_defaultLanguage": "en",
			"_enabledExtensions": map[string]any{
				"spoor": map[string]any{"_id": "plugin-spoor", "name": "adapt-contrib-spoor"},
			},
			"build": map[string]any{
				"includes": []any{"adapt-contrib-spoor", "adapt-contrib-pageLevelProgress"},
			},
			"_spoor": map[string]any{"_isEnabled": true},
		},
	}
}

// # Assembler

func TestAssembler_Assemble(t *testing.T) {
	// 1. Assemble a fully seeded course.
	repo := &stubContentRepo{records: seedCourseRecords()}
	assembler := publish.NewAssembler(repo)

	tree, err := assembler.Assemble(context.Background(), "tenant-1", "course-1")
	require.NoError(t, err)

	// 2. Singletons land as documents, sections as full sets.
	assert.Equal(t, "My First Course", tree.CourseTitle())
	assert.Equal(t, "en", tree.DefaultLanguage())
	assert.Equal(t, "config-1", tree.Config["_id"])
	require.Len(t, tree.ContentObjects, 1)
	require.Len(t, tree.Articles, 1)
	require.Len(t, tree.Blocks, 1)
	require.Len(t, tree.Components, 1)

	// 3. Structural identity travels with the documents.
	assert.Equal(t, "block-1", tree.Components[0]["_parentId"])
	assert.Equal(t, "contentobject", tree.ContentObjects[0]["_type"])
}

func TestAssembler_Deterministic(t *testing.T) {
	// Assembly is a pure read; two runs over the same records must agree.
	repo := &stubContentRepo{records: seedCourseRecords()}
	assembler := publish.NewAssembler(repo)

	first, err := assembler.Assemble(context.Background(), "tenant-1", "course-1")
	require.NoError(t, err)
	second, err := assembler.Assemble(context.Background(), "tenant-1", "course-1")
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))
}

func TestAssembler_MissingCourse(t *testing.T) {
	assembler := publish.NewAssembler(&stubContentRepo{})

	_, err := assembler.Assemble(context.Background(), "tenant-1", "missing")
	assert.Error(t, err)
}

// # Sanitizer

func TestSanitize_Idempotent(t *testing.T) {
	repo := &stubContentRepo{records: seedCourseRecords()}
	tree, err := publish.NewAssembler(repo).Assemble(context.Background(), "tenant-1", "course-1")
	require.NoError(t, err)

	// 1. First pass strips the authoring-only fields.
	publish.Sanitize(tree, publish.ModePreview)
	assert.NotContains(t, tree.Course, "_isSelected")
	assert.NotContains(t, tree.ContentObjects[0], "_isExpanded")

	// 2. A second pass changes nothing.
	before, err := json.Marshal(tree)
	require.NoError(t, err)
	publish.Sanitize(tree, publish.ModePreview)
	after, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

// # Tracking Substitution

func TestTracker_SwapToXAPI(t *testing.T) {
	tracker := publish.NewTracker(&stubRegistry{descriptors: trackingDescriptors()})
	tree := scormTree()

	require.NoError(t, tracker.Apply(context.Background(), tree, publish.TrackingXAPI))

	// 1. The enabled extension entry is swapped wholesale.
	enabled := tree.Config["_enabledExtensions"].(map[string]any)
	assert.NotContains(t, enabled, "spoor")
	entry := enabled["xapi"].(map[string]any)
	assert.Equal(t, "plugin-xapi", entry["_id"])
	assert.Equal(t, "adapt-contrib-xapi", entry["name"])
	assert.Equal(t, "2.1.0", entry["version"])
	assert.Equal(t, "_xapi", entry["targetAttribute"])

	// 2. build.includes carries exactly one tracking plugin.
	includes := tree.Config["build"].(map[string]any)["includes"].([]any)
	assert.Contains(t, includes, "adapt-contrib-xapi")
	assert.NotContains(t, includes, "adapt-contrib-spoor")
	assert.Contains(t, includes, "adapt-contrib-pageLevelProgress")

	// 3. The config block is replaced and the activity ID derives from the title.
	assert.NotContains(t, tree.Config, "_spoor")
	xapiConfig := tree.Config["_xapi"].(map[string]any)
	assert.Equal(t, "https://kurso.app/xapi/my-first-course", xapiConfig["_activityID"])
	assert.Equal(t, true, xapiConfig["_isEnabled"])

	// 4. The learner-facing globals are spliced into the course.
	globals := tree.Course["_globals"].(map[string]any)["_extensions"].(map[string]any)["_xapi"].(map[string]any)
	assert.Equal(t, "OK", globals["confirm"])
	assert.Equal(t, "LRS not available", globals["lrsConnectionErrorTitle"])
	assert.Contains(t, globals["lrsConnectionErrorMessage"], "Learning Record Store")
}

func TestTracker_RoundTrip(t *testing.T) {
	tracker := publish.NewTracker(&stubRegistry{descriptors: trackingDescriptors()})
	tree := scormTree()

	// 1. SCORM → xAPI → SCORM.
	require.NoError(t, tracker.Apply(context.Background(), tree, publish.TrackingXAPI))
	require.NoError(t, tracker.Apply(context.Background(), tree, publish.TrackingSCORM))

	// 2. The spoor extension is back and xAPI is fully gone.
	enabled := tree.Config["_enabledExtensions"].(map[string]any)
	assert.Contains(t, enabled, "spoor")
	assert.NotContains(t, enabled, "xapi")
	assert.NotContains(t, tree.Config, "_xapi")
	assert.Contains(t, tree.Config, "_spoor")

	extensions := tree.Course["_globals"].(map[string]any)["_extensions"].(map[string]any)
	assert.NotContains(t, extensions, "_xapi")

	// 3. Exactly one tracking plugin remains in build.includes.
	includes := tree.Config["build"].(map[string]any)["includes"].([]any)
	tracking := 0
	for _, include := range includes {
		if include == "adapt-contrib-spoor" || include == "adapt-contrib-xapi" {
			tracking++
		}
	}
	assert.Equal(t, 1, tracking)
	assert.Contains(t, includes, "adapt-contrib-spoor")
}

func TestTracker_NoopWhenAlreadyEnabled(t *testing.T) {
	tracker := publish.NewTracker(&stubRegistry{descriptors: trackingDescriptors()})
	tree := scormTree()

	require.NoError(t, tracker.Apply(context.Background(), tree, publish.TrackingSCORM))

	enabled := tree.Config["_enabledExtensions"].(map[string]any)
	assert.Contains(t, enabled, "spoor")
	assert.Contains(t, tree.Config, "_spoor")
}

func TestTracker_MissingTargetExtension(t *testing.T) {
	// Registry only knows spoor; the xAPI swap cannot be satisfied.
	tracker := publish.NewTracker(&stubRegistry{descriptors: trackingDescriptors()[:1]})
	tree := scormTree()

	err := tracker.Apply(context.Background(), tree, publish.TrackingXAPI)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adapt-contrib-xapi")
}

// # Plugin Materializer

func TestMaterializer_ApplyTheme_MissingIsFatal(t *testing.T) {
	layout := publish.Layout{Root: t.TempDir()}
	materializer := publish.NewMaterializer(&stubRegistry{}, layout, testLogger())

	tree := &publish.CourseJSON{Course: content.Document{}, Config: content.Document{"_theme": "adapt-theme-custom"}}
	_, err := materializer.ApplyTheme(context.Background(), tree, "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adapt-theme-custom")
}

func TestMaterializer_ApplyTheme_StagesCustomizations(t *testing.T) {
	layout := publish.Layout{Root: t.TempDir()}
	themeSource := layout.PluginSourceDir("theme", "adapt-contrib-vanilla")
	require.NoError(t, os.MkdirAll(filepath.Join(themeSource, "less"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(themeSource, "less", "theme.less"), []byte("// theme"), 0o644))

	registry := &stubRegistry{descriptors: []*plugintype.Descriptor{{
		ID: "plugin-vanilla", Kind: plugintype.KindTheme, Name: "adapt-contrib-vanilla",
		TargetAttribute: "_vanilla",
		Properties:      content.Document{"_brandColor": map[string]any{"type": "string", "default": "#000"}},
	}}}
	materializer := publish.NewMaterializer(registry, layout, testLogger())

	tree := &publish.CourseJSON{
		Course: content.Document{"customStyle": ".title { color: red; }"},
		Config: content.Document{},
	}

	// 1. The customized course builds against the user's scratch theme.
	effective, err := materializer.ApplyTheme(context.Background(), tree, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", effective)
	assert.Equal(t, "user-1", tree.Config["_theme"])

	// 2. The theme source is copied and the custom style lands in less/.
	scratch := layout.ThemeScratchDir("user-1")
	assert.FileExists(t, filepath.Join(scratch, "less", "theme.less"))
	style, err := os.ReadFile(filepath.Join(scratch, "less", "custom.less"))
	require.NoError(t, err)
	assert.Equal(t, ".title { color: red; }", string(style))

	// 3. Declared theme defaults are merged at the target attribute.
	vanilla := tree.Course["_vanilla"].(map[string]any)
	assert.Equal(t, "#000", vanilla["_brandColor"])
}

func TestMaterializer_ApplyMenu_DegradesToDefault(t *testing.T) {
	layout := publish.Layout{Root: t.TempDir()}
	materializer := publish.NewMaterializer(&stubRegistry{}, layout, testLogger())

	tree := &publish.CourseJSON{Course: content.Document{}, Config: content.Document{"_menu": "adapt-menu-missing"}}
	effective, err := materializer.ApplyMenu(context.Background(), tree, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "adapt-contrib-boxMenu", effective)
	assert.Equal(t, "adapt-contrib-boxMenu", tree.Config["_menu"])
}

func TestMaterializer_ApplyMenu_MergesLocationDefaults(t *testing.T) {
	registry := &stubRegistry{descriptors: []*plugintype.Descriptor{{
		ID: "plugin-boxmenu", Kind: plugintype.KindMenu, Name: "adapt-contrib-boxMenu",
		PluginLocations: content.Document{
			"properties": map[string]any{
				"contentobject": map[string]any{
					"properties": map[string]any{
						"_boxMenu": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"_renderType": map[string]any{"type": "string", "default": "box"},
							},
						},
					},
				},
			},
		},
	}}}
	materializer := publish.NewMaterializer(registry, publish.Layout{Root: t.TempDir()}, testLogger())

	tree := &publish.CourseJSON{
		Course: content.Document{},
		Config: content.Document{},
		ContentObjects: []content.Document{
			{"_id": "co-1"},
			{"_id": "co-2", "_boxMenu": map[string]any{"_renderType": "list"}},
		},
	}

	effective, err := materializer.ApplyMenu(context.Background(), tree, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "adapt-contrib-boxMenu", effective)

	// Generated defaults fill gaps without overwriting authored settings.
	generated := tree.ContentObjects[0]["_boxMenu"].(map[string]any)
	assert.Equal(t, "box", generated["_renderType"])
	authored := tree.ContentObjects[1]["_boxMenu"].(map[string]any)
	assert.Equal(t, "list", authored["_renderType"])
}

// # Asset Externalizer

func TestExternalizer_WriteCourseAssets(t *testing.T) {
	assets := &stubAssetRepo{
		assets: map[string]*asset.Asset{
			"asset-1": {
				ID: "asset-1", TenantID: "tenant-1", Title: "Logo",
				Filename: "My Logo.png", Path: "tenant-1/asset-1.png", Size: 4,
				Tags: []string{"brand"},
			},
		},
		joins: []*asset.CourseAsset{
			{ID: "join-1", CourseID: "course-1", AssetID: "asset-1", ContentID: "component-1"},
			{ID: "join-2", CourseID: "course-1", AssetID: "asset-1", ContentID: "component-2"},
		},
	}
	storage := &stubStorage{files: map[string][]byte{"tenant-1/asset-1.png": []byte("png!")}}
	externalizer := publish.NewExternalizer(assets, storage, testLogger())

	tree := &publish.CourseJSON{
		Course: content.Document{"heroImage": "course/assets/My Logo.png"},
		Config: content.Document{"_defaultLanguage": "en"},
		Components: []content.Document{
			{"_graphic": map[string]any{"src": "course/assets/My Logo.png"}},
		},
	}

	jsonDir := t.TempDir()
	assetsDir := filepath.Join(jsonDir, "assets")
	require.NoError(t, externalizer.WriteCourseAssets(context.Background(), "course-1", jsonDir, assetsDir, tree))

	// 1. Every reference is rewritten to the escaped package-relative path.
	serialized, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.NotContains(t, string(serialized), "course/assets/")
	assert.Contains(t, string(serialized), "course/en/assets/My%20Logo.png")

	// 2. The duplicate join collapses to a single copied binary.
	copied, err := os.ReadFile(filepath.Join(assetsDir, "My Logo.png"))
	require.NoError(t, err)
	assert.Equal(t, "png!", string(copied))

	// 3. The manifest describes the copy for the builder.
	manifestData, err := os.ReadFile(filepath.Join(jsonDir, "assets.json"))
	require.NoError(t, err)
	manifest := map[string]map[string]any{}
	require.NoError(t, json.Unmarshal(manifestData, &manifest))
	require.Contains(t, manifest, "My Logo.png")
	assert.Equal(t, "Logo", manifest["My Logo.png"]["title"])
}

// # Build Invocation

func TestInvoker_RebuildRequired(t *testing.T) {
	layout := publish.Layout{Root: t.TempDir()}
	invoker := publish.NewInvoker(layout, &stubRunner{}, testLogger())

	// 1. Export and publish always rebuild, marker or not.
	assert.True(t, invoker.RebuildRequired("tenant-1", "course-1", publish.ModeExport, false))
	assert.True(t, invoker.RebuildRequired("tenant-1", "course-1", publish.ModePublish, false))

	// 2. Preview rebuilds only when forced or flagged.
	assert.False(t, invoker.RebuildRequired("tenant-1", "course-1", publish.ModePreview, false))
	assert.True(t, invoker.RebuildRequired("tenant-1", "course-1", publish.ModePreview, true))

	require.NoError(t, invoker.RequestRebuild(context.Background(), "tenant-1", "course-1"))
	assert.True(t, invoker.RebuildRequired("tenant-1", "course-1", publish.ModePreview, false))
}

func TestInvoker_EnsureBuilt_SkipsExistingOutput(t *testing.T) {
	layout := publish.Layout{Root: t.TempDir()}
	runner := &stubRunner{}
	invoker := publish.NewInvoker(layout, runner, testLogger())

	require.NoError(t, os.MkdirAll(layout.BuildDir("tenant-1", "course-1"), 0o755))
	require.NoError(t, os.WriteFile(layout.MainFile("tenant-1", "course-1"), []byte("<html>"), 0o644))

	tree := &publish.CourseJSON{Course: content.Document{}, Config: content.Document{}}
	ran, err := invoker.EnsureBuilt(context.Background(), "tenant-1", "course-1", tree, "", "", publish.ModePreview, false)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Empty(t, runner.calls)
}

func TestInvoker_EnsureBuilt_UsesDocumentedDefaults(t *testing.T) {
	layout := publish.Layout{Root: t.TempDir()}
	runner := &stubRunner{}
	invoker := publish.NewInvoker(layout, runner, testLogger())

	require.NoError(t, invoker.RequestRebuild(context.Background(), "tenant-1", "course-1"))

	// A course with no theme or menu configured builds with the defaults.
	tree := &publish.CourseJSON{Course: content.Document{}, Config: content.Document{}}
	ran, err := invoker.EnsureBuilt(context.Background(), "tenant-1", "course-1", tree, "", "", publish.ModeBuild, false)
	require.NoError(t, err)
	assert.True(t, ran)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, "prod", call.flavor)
	assert.Equal(t, "adapt-contrib-vanilla", call.theme)
	assert.Equal(t, "adapt-contrib-boxMenu", call.menu)
	assert.Equal(t, filepath.Join("courses", "tenant-1", "course-1", "build"), call.outputDir)

	// The rebuild marker is cleared after a successful build.
	_, err = os.Stat(layout.RebuildMarker("tenant-1", "course-1"))
	assert.True(t, os.IsNotExist(err))
}

func TestInvoker_EnsureBuilt_SourcemapSelectsDevFlavor(t *testing.T) {
	layout := publish.Layout{Root: t.TempDir()}
	runner := &stubRunner{}
	invoker := publish.NewInvoker(layout, runner, testLogger())

	tree := &publish.CourseJSON{Course: content.Document{}, Config: content.Document{"_generateSourcemap": true}}
	_, err := invoker.EnsureBuilt(context.Background(), "tenant-1", "course-1", tree, "my-theme", "my-menu", publish.ModePublish, false)
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "dev", runner.calls[0].flavor)
	assert.Equal(t, "my-theme", runner.calls[0].theme)
	assert.Equal(t, "my-menu", runner.calls[0].menu)
}

func TestInvoker_EnsureBuilt_StderrIsFatal(t *testing.T) {
	layout := publish.Layout{Root: t.TempDir()}
	runner := &stubRunner{result: publish.ExitResult{Stderr: "Warning: task failed"}}
	invoker := publish.NewInvoker(layout, runner, testLogger())

	tree := &publish.CourseJSON{Course: content.Document{}, Config: content.Document{}}
	_, err := invoker.EnsureBuilt(context.Background(), "tenant-1", "course-1", tree, "", "", publish.ModePublish, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task failed")
}

func TestInvoker_EnsureBuilt_EnrichesProcessFailure(t *testing.T) {
	layout := publish.Layout{Root: t.TempDir()}
	runner := &stubRunner{result: publish.ExitResult{
		Stdout: "Running task\nFatal error: unable to read course.json\n\nExecution Time (2026-01-01)",
		Err:    os.ErrPermission,
	}}
	invoker := publish.NewInvoker(layout, runner, testLogger())

	tree := &publish.CourseJSON{Course: content.Document{}, Config: content.Document{}}
	_, err := invoker.EnsureBuilt(context.Background(), "tenant-1", "course-1", tree, "", "", publish.ModePublish, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to read course.json")
}

func TestInvoker_EnsureBuilt_NotifiesOnlyWithOutput(t *testing.T) {
	layout := publish.Layout{Root: t.TempDir()}
	tree := &publish.CourseJSON{Course: content.Document{}, Config: content.Document{}}

	// 1. A silent run succeeds but announces nothing.
	var quiet bytes.Buffer
	invoker := publish.NewInvoker(layout, &stubRunner{}, slog.New(slog.NewJSONHandler(&quiet, nil)))
	_, err := invoker.EnsureBuilt(context.Background(), "tenant-1", "course-1", tree, "", "", publish.ModePreview, true)
	require.NoError(t, err)
	assert.NotContains(t, quiet.String(), "preview_created")

	// 2. A run with builder output announces the preview.
	var noisy bytes.Buffer
	runner := &stubRunner{result: publish.ExitResult{Stdout: "Done, without errors."}}
	invoker = publish.NewInvoker(layout, runner, slog.New(slog.NewJSONHandler(&noisy, nil)))
	_, err = invoker.EnsureBuilt(context.Background(), "tenant-1", "course-1", tree, "", "", publish.ModePreview, true)
	require.NoError(t, err)
	assert.Contains(t, noisy.String(), "preview_created")
}

func TestLayout_ExportFileUnderOutputDir(t *testing.T) {
	layout := publish.Layout{Root: "/framework"}

	// The export lands inside the folder handed to the builder via
	// --outputdir, per language.
	outputDir := filepath.Join(layout.Root, layout.BuilderOutputDir("tenant-1", "course-1"))
	want := filepath.Join(outputDir, "fr", "export.json")
	assert.Equal(t, want, layout.ExportFile("tenant-1", "course-1", "fr"))
	assert.Equal(t, filepath.Join(layout.BuildDir("tenant-1", "course-1"), "fr", "export.json"),
		layout.ExportFile("tenant-1", "course-1", "fr"))
}

func TestExtractFatalError(t *testing.T) {
	stdout := "Running build\nFatal error: theme not found\n\nExecution Time (2026-01-01)\n"
	assert.Equal(t, "Fatal error: theme not found", publish.ExtractFatalError(stdout))
	assert.Equal(t, "", publish.ExtractFatalError("all good"))
}

// # Packager

func TestZipName(t *testing.T) {
	assert.Equal(t, "my-first-course", publish.ZipName("My First Course"))
	assert.Equal(t, "course", publish.ZipName(""))
}

func TestPackager_Package(t *testing.T) {
	buildDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(buildDir, "course", "en"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(buildDir, "index.html"), []byte("<html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(buildDir, "course", "en", "course.json"), []byte("{}"), 0o644))

	archivePath := filepath.Join(t.TempDir(), "download.zip")
	packager := publish.NewPackager(testLogger())
	require.NoError(t, packager.Package(buildDir, archivePath))

	reader, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer reader.Close()

	var names []string
	for _, file := range reader.File {
		names = append(names, file.Name)
	}
	assert.ElementsMatch(t, []string{"index.html", "course/en/course.json"}, names)
}

// # Tree Rewrites

func TestCourseJSON_RewriteAll(t *testing.T) {
	tree := &publish.CourseJSON{
		Course: content.Document{"heroImage": "course/assets/a.png"},
		Config: content.Document{},
		Blocks: []content.Document{
			{"body": "see course/assets/a.png and course/assets/a.png again"},
		},
	}

	require.NoError(t, tree.RewriteAll("course/assets/a.png", "course/en/assets/a.png"))

	serialized, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(serialized), "course/en/assets/a.png"))
}
