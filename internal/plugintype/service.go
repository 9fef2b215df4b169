// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package plugintype

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/kurso/internal/content"
	"github.com/taibuivan/kurso/internal/platform/apperr"
	"github.com/taibuivan/kurso/internal/platform/constants"
)

// # Service Layer

// Rebuilder flags a course so its next preview or download is rebuilt from
// scratch, and launches that rebuild in the background. Implemented by the
// publish pipeline.
type Rebuilder interface {
	RequestRebuild(ctx context.Context, tenantID, courseID string) error
	RebuildCourse(ctx context.Context, tenantID, courseID, userID string) error
}

// Service exposes the plugin registry and menu activation.
type Service struct {
	repo        Repository
	contentRepo content.Repository
	rebuilder   Rebuilder
	logger      *slog.Logger
}

// NewService constructs a new [Service]. rebuilder may be nil in contexts
// that never activate menus (e.g. read-only tooling).
func NewService(repo Repository, contentRepo content.Repository, rebuilder Rebuilder, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		contentRepo: contentRepo,
		rebuilder:   rebuilder,
		logger:      logger,
	}
}

// GetByName returns one installed plugin descriptor.
func (service *Service) GetByName(ctx context.Context, kind Kind, name string) (*Descriptor, error) {
	return service.repo.FindByName(ctx, kind, name)
}

// ListByKind returns every installed descriptor of one kind.
func (service *Service) ListByKind(ctx context.Context, kind Kind) ([]*Descriptor, error) {
	return service.repo.ListByKind(ctx, kind)
}

// # Menu Settings Derivation

/*
MenuSettings generates the default settings object the enabled menu declares
for new records of the given kind.

Description: Resolves the course config's _menu attribute (falling back to
the platform default menu), loads that menu's descriptor and generates
defaults from its pluginLocations schema for the kind. Satisfies
[content.MenuSettingsProvider].

Parameters:
  - ctx: context.Context
  - tenantID: string
  - courseID: string
  - kind: content.Kind

Returns:
  - content.Document: Generated defaults, possibly empty
  - error: Config lookup or registry errors
*/
func (service *Service) MenuSettings(ctx context.Context, tenantID, courseID string, kind content.Kind) (content.Document, error) {
	menuName, err := service.enabledMenu(ctx, tenantID, courseID)
	if err != nil {
		return nil, err
	}

	menu, err := service.repo.FindByName(ctx, KindMenu, menuName)
	if err != nil {
		return nil, fmt.Errorf("plugintype: could not load menu %s: %w", menuName, err)
	}

	schema := menu.LocationSchema(kind)
	if schema == nil {
		return content.Document{}, nil
	}
	return SchemaToObject(schema), nil
}

func (service *Service) enabledMenu(ctx context.Context, tenantID, courseID string) (string, error) {
	configs, err := service.contentRepo.ListByCourse(ctx, tenantID, courseID, content.KindConfig)
	if err != nil {
		return "", err
	}
	if len(configs) == 0 {
		service.logger.Info("could not retrieve config for course", slog.String("course_id", courseID))
		return constants.DefaultMenu, nil
	}
	if menuName, ok := configs[0].Props["_menu"].(string); ok && menuName != "" {
		return menuName, nil
	}
	return constants.DefaultMenu, nil
}

// # Menu Activation

/*
ActivateMenu switches a course onto a different menu plugin.

Description: Validates the menu exists in the registry (NotFound otherwise),
writes its package name into the course config's _menu attribute, flags the
course for a forced rebuild so stale menu output is never served, and kicks
off a background preview rebuild so the switch is visible immediately. A
rebuild failure is logged but does not fail the activation; the config
change is already durable and the flag guarantees the next build runs.

Parameters:
  - ctx: context.Context
  - tenantID: string
  - courseID: string
  - menuID: string (registry identifier of the menu plugin)
  - userID: string (requesting user, keys the rebuild's scratch folders)

Returns:
  - error: NotFound for unknown menus or missing course config
*/
func (service *Service) ActivateMenu(ctx context.Context, tenantID, courseID, menuID, userID string) error {
	menu, err := service.repo.FindByID(ctx, menuID)
	if err != nil {
		return err
	}
	if menu.Kind != KindMenu {
		return apperr.NotFound("Menu")
	}

	configs, err := service.contentRepo.ListByCourse(ctx, tenantID, courseID, content.KindConfig)
	if err != nil {
		return err
	}
	if len(configs) == 0 {
		return apperr.NotFound("Course config")
	}

	if err := service.contentRepo.MergeProps(ctx, configs[0].ID, content.Document{"_menu": menu.Name}); err != nil {
		return err
	}

	if service.rebuilder != nil {
		if err := service.rebuilder.RequestRebuild(ctx, tenantID, courseID); err != nil {
			service.logger.Error("failed to flag course for rebuild",
				slog.String("course_id", courseID),
				slog.String("error", err.Error()),
			)
		}
		if err := service.rebuilder.RebuildCourse(ctx, tenantID, courseID, userID); err != nil {
			service.logger.Error("failed to start course rebuild",
				slog.String("course_id", courseID),
				slog.String("error", err.Error()),
			)
		}
	}

	service.logger.Info("menu activated",
		slog.String("course_id", courseID),
		slog.String("menu", menu.Name),
	)
	return nil
}
