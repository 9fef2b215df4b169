// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package content

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/taibuivan/kurso/pkg/uuid"
)

// # Content Creation

// MenuSettingsProvider generates the default menu settings object for a new
// record, derived from the pluginLocations schema of the menu enabled on the
// course. Implemented by the plugin type registry.
type MenuSettingsProvider interface {
	MenuSettings(ctx context.Context, tenantID, courseID string, kind Kind) (Document, error)
}

// Creator is the single entry point for persisting new course documents.
// Graph rebuilds (duplication, translation) and plain authoring both go
// through it so that creation-time enrichment stays uniform.
type Creator struct {
	repo   Repository
	menus  MenuSettingsProvider
	logger *slog.Logger
}

// NewCreator constructs a [Creator]. menus may be nil; menu settings
// enrichment is then skipped entirely.
func NewCreator(repo Repository, menus MenuSettingsProvider, logger *slog.Logger) *Creator {
	return &Creator{repo: repo, menus: menus, logger: logger}
}

// WithRepository returns a Creator bound to a different repository, typically
// a transaction-scoped one during a graph rebuild.
func (creator *Creator) WithRepository(repo Repository) *Creator {
	return &Creator{repo: repo, menus: creator.menus, logger: creator.logger}
}

/*
Create persists a new course document.

Description: Assigns a UUID v7 identity when the record carries none, and for
content objects merges the menu-derived default settings into the property
bag before writing. A menu lookup failure does not block creation; the record
is stored without menu settings and the failure is logged.

Parameters:
  - ctx: context.Context
  - record: *Record (the document to persist; ID may be empty)

Returns:
  - error: Persistence errors
*/
func (creator *Creator) Create(ctx context.Context, record *Record) error {
	if record.ID == "" {
		record.ID = uuid.New()
	}
	if record.Kind == KindCourse && record.CourseID == "" {
		// Course roots are keyed on themselves so subtree queries stay uniform.
		record.CourseID = record.ID
	}
	if record.Props == nil {
		record.Props = Document{}
	}

	if record.Kind == KindContentObject && creator.menus != nil && record.CourseID != "" {
		settings, err := creator.menus.MenuSettings(ctx, record.TenantID, record.CourseID, record.Kind)
		if err != nil {
			// Permit content creation to continue without menu defaults.
			creator.logger.Error("could not load menu settings",
				slog.String("course_id", record.CourseID),
				slog.String("error", err.Error()),
			)
		} else if len(settings) > 0 {
			merged := Document{}
			if existing, ok := record.Props["menuSettings"].(map[string]any); ok {
				merged = deepCopyMap(existing)
			}
			for key, value := range settings {
				if _, taken := merged[key]; !taken {
					merged[key] = value
				}
			}
			record.Props["menuSettings"] = merged
		}
	}

	if err := creator.repo.Create(ctx, record); err != nil {
		return fmt.Errorf("content: failed to create %s: %w", record.Kind, err)
	}
	return nil
}

// # Creation Ordering

/*
SortForCreation orders content objects so every parent precedes its children.

Description: Content objects form a menu/page tree rooted at the course.
Recreating them under a fresh identifier space requires parents to exist
before their children are written, so the flat slice is rebuilt into a tree
and emitted depth-first. Records whose parent is absent from the slice are
treated as roots. Sibling order follows SortOrder, then identifier, keeping
the output deterministic.

Parameters:
  - records: []*Record (content objects in any order)

Returns:
  - []*Record: The same records in creation-safe order
*/
func SortForCreation(records []*Record) []*Record {
	byID := make(map[string]*Record, len(records))
	children := make(map[string][]*Record, len(records))
	for _, record := range records {
		byID[record.ID] = record
	}

	var roots []*Record
	for _, record := range records {
		if _, has := byID[record.ParentID]; has {
			children[record.ParentID] = append(children[record.ParentID], record)
		} else {
			roots = append(roots, record)
		}
	}

	orderSiblings := func(siblings []*Record) {
		sort.SliceStable(siblings, func(i, j int) bool {
			if siblings[i].SortOrder != siblings[j].SortOrder {
				return siblings[i].SortOrder < siblings[j].SortOrder
			}
			return siblings[i].ID < siblings[j].ID
		})
	}
	orderSiblings(roots)
	for _, siblings := range children {
		orderSiblings(siblings)
	}

	ordered := make([]*Record, 0, len(records))
	var walk func(record *Record)
	walk = func(record *Record) {
		ordered = append(ordered, record)
		for _, child := range children[record.ID] {
			walk(child)
		}
	}
	for _, root := range roots {
		walk(root)
	}

	return ordered
}
