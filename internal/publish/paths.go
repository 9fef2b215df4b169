// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish

import (
	"path/filepath"

	"github.com/taibuivan/kurso/internal/platform/constants"
)

// # Framework Layout

// Layout resolves the framework's fixed folder convention. The external
// builder treats these paths as a stable contract:
//
//	<root>/src/theme/<user>          scratch theme folder
//	<root>/src/menu/<user>           scratch menu folder
//	<root>/courses/<tenant>/<course> per-course output root
//	<root>/courses/<tenant>/<course>/build
type Layout struct {
	Root string
}

// SourceDir is the framework source folder.
func (layout Layout) SourceDir() string {
	return filepath.Join(layout.Root, constants.FolderSource)
}

// ThemeScratchDir is the per-user scratch theme folder.
func (layout Layout) ThemeScratchDir(userID string) string {
	return filepath.Join(layout.SourceDir(), constants.FolderTheme, userID)
}

// MenuScratchDir is the per-user scratch menu folder.
func (layout Layout) MenuScratchDir(userID string) string {
	return filepath.Join(layout.SourceDir(), constants.FolderMenu, userID)
}

// PluginSourceDir is the installed source folder of a theme or menu plugin.
func (layout Layout) PluginSourceDir(folder, pluginName string) string {
	return filepath.Join(layout.SourceDir(), folder, pluginName)
}

// CourseDir is the per-course output root.
func (layout Layout) CourseDir(tenantID, courseID string) string {
	return filepath.Join(layout.Root, constants.FolderAllCourses, tenantID, courseID)
}

// BuildDir is where the builder writes its output for one course.
func (layout Layout) BuildDir(tenantID, courseID string) string {
	return filepath.Join(layout.CourseDir(tenantID, courseID), constants.FolderBuild)
}

// CourseJSONDir is the folder the tree is serialized into before a build.
func (layout Layout) CourseJSONDir(tenantID, courseID string) string {
	return filepath.Join(layout.BuildDir(tenantID, courseID), constants.FolderCourse)
}

// LanguageDir holds the language-specific course files inside the build.
func (layout Layout) LanguageDir(tenantID, courseID, lang string) string {
	return filepath.Join(layout.CourseJSONDir(tenantID, courseID), lang)
}

// AssetsDir holds the copied binary assets for one language.
func (layout Layout) AssetsDir(tenantID, courseID, lang string) string {
	return filepath.Join(layout.LanguageDir(tenantID, courseID, lang), constants.FolderAssets)
}

// RebuildMarker is the flag file forcing the next build to run.
func (layout Layout) RebuildMarker(tenantID, courseID string) string {
	return filepath.Join(layout.BuildDir(tenantID, courseID), constants.FilenameRebuild)
}

// MainFile is the built entry point whose presence means output exists.
func (layout Layout) MainFile(tenantID, courseID string) string {
	return filepath.Join(layout.BuildDir(tenantID, courseID), constants.FilenameMain)
}

// DownloadFile is the deterministic zip archive path for one course.
func (layout Layout) DownloadFile(tenantID, courseID string) string {
	return filepath.Join(layout.CourseDir(tenantID, courseID), constants.FilenameDownload)
}

// ExportFile is where the builder's language extraction writes its units:
// <outputdir>/<lang>/export.json.
func (layout Layout) ExportFile(tenantID, courseID, lang string) string {
	return filepath.Join(layout.BuildDir(tenantID, courseID), lang, constants.FilenameExport)
}

// BuilderOutputDir is the --outputdir argument: the course folder relative
// to the framework root, with the build folder appended.
func (layout Layout) BuilderOutputDir(tenantID, courseID string) string {
	return filepath.Join(constants.FolderAllCourses, tenantID, courseID, constants.FolderBuild)
}
