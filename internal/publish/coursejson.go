// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package publish implements the course build pipeline.

A publish run assembles the course's normalized records into one denormalized
JSON tree, applies theme, menu and tracking transformations, externalizes
assets, writes the tree to the framework's source layout, invokes the
external builder and finally zips the output for download. Stages run
strictly sequentially; each stage's output is the next stage's input.

Architecture:

  - Assembler: storage → [CourseJSON] tree.
  - Sanitizer + tracking substitution: mode-dependent tree transforms.
  - Materializer: theme/menu resolution, scratch folders, settings injection.
  - Externalizer: asset copies + global path rewrite.
  - ToolRunner: the external builder behind a narrow, fakeable interface.
  - Packager: zip archive of the build folder.
  - Service: the orchestrator, with redis-backed progress and locking.
*/
package publish

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/taibuivan/kurso/internal/content"
)

// # Publish Modes

// Mode selects what a publish run produces.
type Mode string

const (
	ModePreview Mode = "preview"
	ModeBuild   Mode = "build"
	ModeExport  Mode = "export"
	ModePublish Mode = "publish"
)

// Valid reports whether the mode is one of the four supported values.
func (mode Mode) Valid() bool {
	switch mode {
	case ModePreview, ModeBuild, ModeExport, ModePublish:
		return true
	}
	return false
}

// # The Denormalized Tree

// Section names match the file names the framework expects on disk.
const (
	SectionCourse         = "course"
	SectionConfig         = "config"
	SectionContentObjects = "contentObjects"
	SectionArticles       = "articles"
	SectionBlocks         = "blocks"
	SectionComponents     = "components"
)

// CourseJSON is the single denormalized tree a publish run operates on.
// Course and Config are singletons; the remaining sections hold the full
// record sets of their kind for the course.
type CourseJSON struct {
	Course         content.Document   `json:"course"`
	Config         content.Document   `json:"config"`
	ContentObjects []content.Document `json:"contentObjects"`
	Articles       []content.Document `json:"articles"`
	Blocks         []content.Document `json:"blocks"`
	Components     []content.Document `json:"components"`
}

// Clone returns a deep copy of the tree.
func (tree *CourseJSON) Clone() *CourseJSON {
	cloned := &CourseJSON{
		Course: tree.Course.Clone(),
		Config: tree.Config.Clone(),
	}
	cloneSection := func(section []content.Document) []content.Document {
		if section == nil {
			return nil
		}
		out := make([]content.Document, len(section))
		for i, doc := range section {
			out[i] = doc.Clone()
		}
		return out
	}
	cloned.ContentObjects = cloneSection(tree.ContentObjects)
	cloned.Articles = cloneSection(tree.Articles)
	cloned.Blocks = cloneSection(tree.Blocks)
	cloned.Components = cloneSection(tree.Components)
	return cloned
}

// DefaultLanguage returns the config's default language, falling back to "en".
func (tree *CourseJSON) DefaultLanguage() string {
	if lang, ok := tree.Config["_defaultLanguage"].(string); ok && lang != "" {
		return lang
	}
	return "en"
}

// CourseTitle returns the course title.
func (tree *CourseJSON) CourseTitle() string {
	title, _ := tree.Course["title"].(string)
	return title
}

// RewriteAll applies a textual find/replace across every section of the
// tree, operating on the JSON serialization so references inside nested
// bags are caught regardless of depth.
func (tree *CourseJSON) RewriteAll(old, new string) error {
	rewrite := func(target any) error {
		serialized, err := json.Marshal(target)
		if err != nil {
			return fmt.Errorf("publish: failed to serialize section: %w", err)
		}
		replaced := replaceAllBytes(serialized, old, new)
		return json.Unmarshal(replaced, target)
	}

	if err := rewrite(&tree.Course); err != nil {
		return err
	}
	if err := rewrite(&tree.Config); err != nil {
		return err
	}
	for _, section := range []*[]content.Document{&tree.ContentObjects, &tree.Articles, &tree.Blocks, &tree.Components} {
		if err := rewrite(section); err != nil {
			return err
		}
	}
	return nil
}

func replaceAllBytes(data []byte, old, new string) []byte {
	if old == "" || old == new {
		return data
	}
	return []byte(strings.ReplaceAll(string(data), old, new))
}
