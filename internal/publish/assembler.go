// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish

import (
	"context"

	"github.com/taibuivan/kurso/internal/content"
)

// # Content Graph Assembler

// Assembler reads a course's normalized records and produces the single
// denormalized tree the rest of the pipeline operates on. It never writes.
type Assembler struct {
	repo content.Repository
}

// NewAssembler constructs an [Assembler].
func NewAssembler(repo content.Repository) *Assembler {
	return &Assembler{repo: repo}
}

/*
Assemble builds the [CourseJSON] tree for one course.

Description: Loads the course root (NotFound if absent), its config
singleton, and the full content object, article, block and component sets.
Records are flattened through Doc() so structural identity travels with the
property bags. No ordering is imposed here; consumers walk the tree by
parent references.

Parameters:
  - ctx: context.Context
  - tenantID: string
  - courseID: string

Returns:
  - *CourseJSON: The assembled tree
  - error: NotFound when the course does not exist
*/
func (assembler *Assembler) Assemble(ctx context.Context, tenantID, courseID string) (*CourseJSON, error) {
	course, err := assembler.repo.FindCourse(ctx, tenantID, courseID)
	if err != nil {
		return nil, err
	}

	tree := &CourseJSON{Course: course.Doc()}

	sections := []struct {
		kind   content.Kind
		target *[]content.Document
	}{
		{content.KindContentObject, &tree.ContentObjects},
		{content.KindArticle, &tree.Articles},
		{content.KindBlock, &tree.Blocks},
		{content.KindComponent, &tree.Components},
	}

	configs, err := assembler.repo.ListByCourse(ctx, tenantID, courseID, content.KindConfig)
	if err != nil {
		return nil, err
	}
	if len(configs) > 0 {
		tree.Config = configs[0].Doc()
	} else {
		tree.Config = content.Document{}
	}

	for _, section := range sections {
		records, err := assembler.repo.ListByCourse(ctx, tenantID, courseID, section.kind)
		if err != nil {
			return nil, err
		}
		docs := make([]content.Document, 0, len(records))
		for _, record := range records {
			docs = append(docs, record.Doc())
		}
		*section.target = docs
	}

	return tree, nil
}
