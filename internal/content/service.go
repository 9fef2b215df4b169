// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package content

import (
	"context"
	"log/slog"
)

// # Service Layer

// Service exposes the course graph to the HTTP layer: dashboard listings,
// single-course lookups and full-graph reads for the build pipeline.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a new [Service].
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

/*
ListCourses retrieves a paginated page of a tenant's courses.

Parameters:
  - ctx: context.Context
  - tenantID: string
  - limit: int (max records to return)
  - offset: int (pagination cursor)

Returns:
  - []*Record: Course root records, most recently updated first
  - int: Total course count for pagination metadata
  - error: Repository errors
*/
func (service *Service) ListCourses(ctx context.Context, tenantID string, limit, offset int) ([]*Record, int, error) {
	return service.repo.ListCourses(ctx, tenantID, limit, offset)
}

/*
GetCourse fetches a single course root record.

Parameters:
  - ctx: context.Context
  - tenantID: string
  - courseID: string

Returns:
  - *Record: The course root
  - error: NotFound if no such course exists in the tenant
*/
func (service *Service) GetCourse(ctx context.Context, tenantID, courseID string) (*Record, error) {
	return service.repo.FindCourse(ctx, tenantID, courseID)
}
