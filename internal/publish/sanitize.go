// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish

import (
	"github.com/taibuivan/kurso/internal/content"
)

// # Sanitizer

// authoringOnlyKeys are editor-state fields meaningless to the built
// output. Stripping them is idempotent.
var authoringOnlyKeys = []string{
	"_isSelected",
	"_isExpanded",
	"_editing",
	"_lockedBy",
	"_hasPreview",
}

// Sanitize strips authoring-only fields from every section of the tree.
// The mode is accepted for parity with the transform contract; all current
// modes strip the same set. Sanitizing an already-sanitized tree is a no-op.
func Sanitize(tree *CourseJSON, mode Mode) *CourseJSON {
	stripDoc(tree.Course)
	stripDoc(tree.Config)
	for _, section := range [][]content.Document{tree.ContentObjects, tree.Articles, tree.Blocks, tree.Components} {
		for _, doc := range section {
			stripDoc(doc)
		}
	}
	return tree
}

func stripDoc(doc content.Document) {
	for _, key := range authoringOnlyKeys {
		delete(doc, key)
	}
}
