// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/taibuivan/kurso/internal/content"
	"github.com/taibuivan/kurso/internal/platform/apperr"
	"github.com/taibuivan/kurso/internal/platform/constants"
	"github.com/taibuivan/kurso/internal/plugintype"
)

// # Plugin Materializer

// Materializer resolves the course's theme and menu plugins, prepares their
// scratch folders and injects plugin settings into the tree.
//
// Scratch folders are keyed by the requesting user's identifier, so
// concurrent publishes by different users never clobber each other. The
// same user publishing the same course concurrently is serialized upstream
// by the per-course lock.
type Materializer struct {
	registry plugintype.Repository
	layout   Layout
	logger   *slog.Logger
}

// NewMaterializer constructs a [Materializer].
func NewMaterializer(registry plugintype.Repository, layout Layout, logger *slog.Logger) *Materializer {
	return &Materializer{registry: registry, layout: layout, logger: logger}
}

/*
ApplyTheme resolves the course theme and prepares it for the builder.

Description: Looks up the config's _theme in the installed theme registry; a
theme that cannot be resolved is fatal (PluginResolution). When the course
carries theme customizations (variables or a custom style), the theme's
source folder is copied into the user's scratch folder and that folder name
becomes the effective theme; otherwise the plain theme name is used
unmodified. Declared theme defaults are merged into the course at the
descriptor's target attribute, keeping any authored values.

Parameters:
  - ctx: context.Context
  - tree: *CourseJSON (mutated in place; config._theme is rewritten)
  - userID: string (scratch namespace)

Returns:
  - string: The effective theme name to pass to the builder
  - error: PluginResolution when the theme is missing or cannot be staged
*/
func (materializer *Materializer) ApplyTheme(ctx context.Context, tree *CourseJSON, userID string) (string, error) {
	themeName, _ := tree.Config["_theme"].(string)
	if themeName == "" {
		themeName = constants.DefaultTheme
	}

	descriptor, err := materializer.registry.FindByName(ctx, plugintype.KindTheme, themeName)
	if err != nil {
		return "", apperr.PluginResolution("theme " + themeName + " is not installed")
	}

	if descriptor.TargetAttribute != "" && len(descriptor.Properties) > 0 {
		mergeDefaults(tree.Course, descriptor.TargetAttribute, plugintype.SchemaToObject(descriptor.Properties))
	}

	effective := themeName
	if materializer.hasThemeCustomizations(tree) {
		scratch := materializer.layout.ThemeScratchDir(userID)
		source := materializer.layout.PluginSourceDir(constants.FolderTheme, themeName)
		if err := copyDir(source, scratch); err != nil {
			return "", apperr.PluginResolution("could not stage theme " + themeName + ": " + err.Error())
		}
		if err := materializer.writeCustomStyle(tree, scratch); err != nil {
			return "", err
		}
		effective = userID
	}

	tree.Config["_theme"] = effective
	return effective, nil
}

func (materializer *Materializer) hasThemeCustomizations(tree *CourseJSON) bool {
	if style, ok := tree.Course["customStyle"].(string); ok && style != "" {
		return true
	}
	if variables, ok := tree.Course["themeVariables"].(map[string]any); ok && len(variables) > 0 {
		return true
	}
	return false
}

// writeCustomStyle emits the course's custom LESS into the staged theme so
// the builder compiles it with the theme's own styles.
func (materializer *Materializer) writeCustomStyle(tree *CourseJSON, themeFolder string) error {
	style, _ := tree.Course["customStyle"].(string)
	if style == "" {
		return nil
	}

	target := filepath.Join(themeFolder, "less", constants.FilenameStyle)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("publish: failed to prepare style folder: %w", err)
	}
	if err := os.WriteFile(target, []byte(style), 0o644); err != nil {
		return fmt.Errorf("publish: failed to write custom style: %w", err)
	}
	return nil
}

/*
ApplyMenu resolves the course menu and injects its declared defaults.

Description: Looks up the config's _menu in the installed menu registry.
Unlike themes, menu resolution degrades gracefully: an unresolvable menu is
logged and the documented default menu is used instead. For every content
kind the menu's pluginLocations schema declares settings for, generated
defaults are merged into each document's existing bag without overwriting
authored keys.

Parameters:
  - ctx: context.Context
  - tree: *CourseJSON (mutated in place)
  - userID: string (scratch namespace, reserved for menu customizations)

Returns:
  - string: The effective menu name to pass to the builder
  - error: Only on scratch staging failures for customized menus
*/
func (materializer *Materializer) ApplyMenu(ctx context.Context, tree *CourseJSON, userID string) (string, error) {
	menuName, _ := tree.Config["_menu"].(string)
	if menuName == "" {
		menuName = constants.DefaultMenu
	}

	descriptor, err := materializer.registry.FindByName(ctx, plugintype.KindMenu, menuName)
	if err != nil {
		materializer.logger.Error("could not resolve menu, using default",
			slog.String("menu", menuName),
			slog.String("error", err.Error()),
		)
		tree.Config["_menu"] = constants.DefaultMenu
		return constants.DefaultMenu, nil
	}

	sections := map[content.Kind][]content.Document{
		content.KindCourse:        {tree.Course},
		content.KindConfig:        {tree.Config},
		content.KindContentObject: tree.ContentObjects,
		content.KindArticle:       tree.Articles,
		content.KindBlock:         tree.Blocks,
		content.KindComponent:     tree.Components,
	}
	for kind, docs := range sections {
		schema := descriptor.LocationSchema(kind)
		if schema == nil {
			continue
		}
		generated := plugintype.SchemaToObject(schema)
		for _, doc := range docs {
			for key, value := range generated {
				if _, authored := doc[key]; !authored {
					doc[key] = value
				}
			}
		}
	}

	tree.Config["_menu"] = menuName
	return menuName, nil
}

// mergeDefaults merges generated defaults into doc[attribute] without
// overwriting authored keys.
func mergeDefaults(doc content.Document, attribute string, generated content.Document) {
	existing, ok := doc[attribute].(map[string]any)
	if !ok {
		existing = map[string]any{}
		doc[attribute] = existing
	}
	for key, value := range generated {
		if _, authored := existing[key]; !authored {
			existing[key] = value
		}
	}
}

// copyDir recursively copies src into dst, replacing dst entirely.
func copyDir(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("publish: %s is not a directory", src)
	}

	if err := os.RemoveAll(dst); err != nil {
		return err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	return filepath.WalkDir(src, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, relative)

		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
