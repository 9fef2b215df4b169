// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package content

import (
	"context"
)

// # Repository Contract

// Repository defines storage access for course documents.
//
// Implementations must be safe for concurrent use. InTx returns a
// Repository bound to a single transaction; graph rebuilds (duplication,
// translation) run entirely inside one so a mid-pipeline failure leaves no
// partially constructed course behind.
type Repository interface {
	// FindCourse returns the course root record, or a NotFound error.
	FindCourse(ctx context.Context, tenantID, courseID string) (*Record, error)

	// ListCourses returns a page of course roots for a tenant plus the
	// total course count.
	ListCourses(ctx context.Context, tenantID string, limit, offset int) ([]*Record, int, error)

	// ListByCourse returns every record of one kind belonging to a course.
	// No ordering is guaranteed; callers impose their own.
	ListByCourse(ctx context.Context, tenantID, courseID string, kind Kind) ([]*Record, error)

	// Exists reports whether a content record is still present on a course.
	Exists(ctx context.Context, courseID, id string) (bool, error)

	// Create persists a new record. The caller provides the identifier.
	Create(ctx context.Context, record *Record) error

	// MergeProps shallow-merges the given keys into a record's property bag.
	MergeProps(ctx context.Context, id string, merge Document) error

	// InTx runs fn against a transaction-scoped Repository, committing on
	// nil return and rolling back otherwise.
	InTx(ctx context.Context, fn func(Repository) error) error
}
