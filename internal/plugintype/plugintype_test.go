// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package plugintype_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kurso/internal/content"
	"github.com/taibuivan/kurso/internal/platform/apperr"
	"github.com/taibuivan/kurso/internal/plugintype"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// # Test Doubles

type memoryRegistry struct {
	descriptors []*plugintype.Descriptor
}

func (registry *memoryRegistry) FindByID(_ context.Context, id string) (*plugintype.Descriptor, error) {
	for _, descriptor := range registry.descriptors {
		if descriptor.ID == id {
			return descriptor, nil
		}
	}
	return nil, apperr.NotFound("Plugin")
}

func (registry *memoryRegistry) FindByName(_ context.Context, kind plugintype.Kind, name string) (*plugintype.Descriptor, error) {
	for _, descriptor := range registry.descriptors {
		if descriptor.Kind == kind && descriptor.Name == name {
			return descriptor, nil
		}
	}
	return nil, apperr.NotFound("Plugin")
}

func (registry *memoryRegistry) ListByKind(_ context.Context, kind plugintype.Kind) ([]*plugintype.Descriptor, error) {
	var matches []*plugintype.Descriptor
	for _, descriptor := range registry.descriptors {
		if descriptor.Kind == kind {
			matches = append(matches, descriptor)
		}
	}
	return matches, nil
}

type configOnlyRepo struct {
	content.Repository
	configs []*content.Record
	merged  map[string]content.Document
}

func (repo *configOnlyRepo) ListByCourse(_ context.Context, tenantID, courseID string, kind content.Kind) ([]*content.Record, error) {
	if kind == content.KindConfig {
		return repo.configs, nil
	}
	return nil, nil
}

func (repo *configOnlyRepo) MergeProps(_ context.Context, id string, merge content.Document) error {
	if repo.merged == nil {
		repo.merged = map[string]content.Document{}
	}
	repo.merged[id] = merge
	return nil
}

type recordingRebuilder struct {
	requested []string
	rebuilt   []string
	rebuiltBy []string
}

func (rebuilder *recordingRebuilder) RequestRebuild(_ context.Context, tenantID, courseID string) error {
	rebuilder.requested = append(rebuilder.requested, courseID)
	return nil
}

func (rebuilder *recordingRebuilder) RebuildCourse(_ context.Context, tenantID, courseID, userID string) error {
	rebuilder.rebuilt = append(rebuilder.rebuilt, courseID)
	rebuilder.rebuiltBy = append(rebuilder.rebuiltBy, userID)
	return nil
}

// # Schema Defaults Tests

/*
TestSchemaToObject verifies default-value generation across the supported
schema types.
*/
func TestSchemaToObject(t *testing.T) {
	schema := content.Document{
		"_isEnabled":   map[string]any{"type": "boolean", "default": true},
		"title":        map[string]any{"type": "string"},
		"_graphic":     map[string]any{"type": "object", "properties": map[string]any{"src": map[string]any{"type": "string"}}},
		"_items":       map[string]any{"type": "array"},
		"_duration":    map[string]any{"type": "number"},
		"undocumented": map[string]any{},
	}

	generated := plugintype.SchemaToObject(schema)

	assert.Equal(t, true, generated["_isEnabled"])
	assert.Equal(t, "", generated["title"])
	assert.Equal(t, map[string]any{"src": ""}, generated["_graphic"])
	assert.Equal(t, []any{}, generated["_items"])
	assert.Equal(t, float64(0), generated["_duration"])
	assert.NotContains(t, generated, "undocumented")
}

func boxMenuDescriptor() *plugintype.Descriptor {
	return &plugintype.Descriptor{
		ID:              "menu-row-1",
		Kind:            plugintype.KindMenu,
		Name:            "adapt-contrib-boxMenu",
		TargetAttribute: "_boxMenu",
		PluginLocations: content.Document{
			"properties": map[string]any{
				"contentobject": map[string]any{
					"properties": map[string]any{
						"_boxMenu": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"_isEnabled": map[string]any{"type": "boolean", "default": true},
							},
						},
					},
				},
			},
		},
	}
}

/*
TestService_MenuSettings verifies settings derivation from the enabled
menu's pluginLocations schema.
*/
func TestService_MenuSettings(t *testing.T) {
	registry := &memoryRegistry{descriptors: []*plugintype.Descriptor{boxMenuDescriptor()}}
	contentRepo := &configOnlyRepo{configs: []*content.Record{
		{ID: "config-1", Props: content.Document{"_menu": "adapt-contrib-boxMenu"}},
	}}
	service := plugintype.NewService(registry, contentRepo, nil, discardLogger())

	settings, err := service.MenuSettings(context.Background(), "tenant-1", "course-1", content.KindContentObject)

	require.NoError(t, err)
	boxMenu, ok := settings["_boxMenu"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, boxMenu["_isEnabled"])
}

/*
TestService_MenuSettings_NoLocation verifies kinds the menu does not
decorate yield an empty settings object.
*/
func TestService_MenuSettings_NoLocation(t *testing.T) {
	registry := &memoryRegistry{descriptors: []*plugintype.Descriptor{boxMenuDescriptor()}}
	contentRepo := &configOnlyRepo{configs: []*content.Record{
		{ID: "config-1", Props: content.Document{"_menu": "adapt-contrib-boxMenu"}},
	}}
	service := plugintype.NewService(registry, contentRepo, nil, discardLogger())

	settings, err := service.MenuSettings(context.Background(), "tenant-1", "course-1", content.KindBlock)

	require.NoError(t, err)
	assert.Empty(t, settings)
}

// # Menu Activation Tests

/*
TestService_ActivateMenu verifies a valid activation updates the course
config, flags a rebuild and starts one in the background.
*/
func TestService_ActivateMenu(t *testing.T) {
	registry := &memoryRegistry{descriptors: []*plugintype.Descriptor{boxMenuDescriptor()}}
	contentRepo := &configOnlyRepo{configs: []*content.Record{
		{ID: "config-1", Props: content.Document{"_menu": "old-menu"}},
	}}
	rebuilder := &recordingRebuilder{}
	service := plugintype.NewService(registry, contentRepo, rebuilder, discardLogger())

	err := service.ActivateMenu(context.Background(), "tenant-1", "course-1", "menu-row-1", "user-1")

	require.NoError(t, err)
	assert.Equal(t, content.Document{"_menu": "adapt-contrib-boxMenu"}, contentRepo.merged["config-1"])
	assert.Equal(t, []string{"course-1"}, rebuilder.requested)

	// Activation does not wait for the next download to rebuild
	assert.Equal(t, []string{"course-1"}, rebuilder.rebuilt)
	assert.Equal(t, []string{"user-1"}, rebuilder.rebuiltBy)
}

/*
TestService_ActivateMenu_UnknownMenu verifies unknown menu identifiers
produce a NotFound error and change nothing.
*/
func TestService_ActivateMenu_UnknownMenu(t *testing.T) {
	registry := &memoryRegistry{}
	contentRepo := &configOnlyRepo{}
	rebuilder := &recordingRebuilder{}
	service := plugintype.NewService(registry, contentRepo, rebuilder, discardLogger())

	err := service.ActivateMenu(context.Background(), "tenant-1", "course-1", "no-such-menu", "user-1")

	require.Error(t, err)
	assert.Empty(t, contentRepo.merged)
	assert.Empty(t, rebuilder.requested)
	assert.Empty(t, rebuilder.rebuilt)
}
