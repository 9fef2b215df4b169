// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package content models the authored course graph.

A course is a tree of schemaless documents: the course root, one config
singleton, content objects (menus and pages), and the article → block →
component hierarchy nested beneath them. Each record's shape is defined by
the installed plugin descriptors, so the property bag is carried as an opaque
[Document] and only structural fields (identity, parentage, ordering) are
lifted into typed columns.

Architecture:

  - Record: one persisted document row, any kind.
  - Repository: storage access, PostgreSQL-backed (JSONB props column).
  - Creator: the content-type creation interface used by duplication and
    translation to rebuild whole graphs under a fresh identifier space.
*/
package content

import (
	"time"
)

// # Record Kinds

// Kind discriminates the document types that make up a course graph.
type Kind string

const (
	KindCourse        Kind = "course"
	KindConfig        Kind = "config"
	KindContentObject Kind = "contentobject"
	KindArticle       Kind = "article"
	KindBlock         Kind = "block"
	KindComponent     Kind = "component"
)

// ChildKinds lists the kinds owned by a course, in the order duplication
// and translation must recreate them (parents before dependants).
var ChildKinds = []Kind{KindConfig, KindContentObject, KindArticle, KindBlock, KindComponent}

// # Documents

// Document is the schemaless property bag persisted in the props JSONB
// column. Keys follow the framework's underscore convention (_theme,
// _enabledExtensions, ...).
type Document map[string]any

// Clone returns a deep copy of the document. Nested maps and slices are
// copied; scalar values are shared.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return deepCopyMap(d)
}

func deepCopyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = deepCopyValue(value)
	}
	return out
}

func deepCopyValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return deepCopyMap(typed)
	case Document:
		return deepCopyMap(typed)
	case []any:
		copied := make([]any, len(typed))
		for i, element := range typed {
			copied[i] = deepCopyValue(element)
		}
		return copied
	default:
		return value
	}
}

// # Records

// Record is one persisted course document of any [Kind].
type Record struct {
	ID        string    `json:"_id"`
	TenantID  string    `json:"_tenantId"`
	CourseID  string    `json:"_courseId"`
	Kind      Kind      `json:"_type"`
	ParentID  string    `json:"_parentId,omitempty"`
	SortOrder int       `json:"_sortOrder"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Props is the plugin-defined property bag. Structural fields above are
	// authoritative; duplicates inside Props are overwritten by Doc().
	Props Document `json:"properties"`
}

// Doc flattens the record into a single JSON document in the persisted
// representation consumed by the build pipeline: the property bag plus the
// structural identity fields under their underscore keys.
func (r *Record) Doc() Document {
	doc := r.Props.Clone()
	if doc == nil {
		doc = Document{}
	}
	doc["_id"] = r.ID
	doc["_type"] = string(r.Kind)
	doc["_courseId"] = r.CourseID
	if r.ParentID != "" {
		doc["_parentId"] = r.ParentID
	}
	doc["_sortOrder"] = r.SortOrder
	return doc
}

// Title returns the record's title property, if any.
func (r *Record) Title() string {
	title, _ := r.Props["title"].(string)
	return title
}
