// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package plugintype

import (
	"context"
)

// # Repository Contract

// Repository defines storage access for the plugin registry.
type Repository interface {
	// FindByID returns a descriptor by identifier, or a NotFound error.
	FindByID(ctx context.Context, id string) (*Descriptor, error)

	// FindByName returns the descriptor of one kind with the given package
	// name, or a NotFound error.
	FindByName(ctx context.Context, kind Kind, name string) (*Descriptor, error)

	// ListByKind returns every installed descriptor of one kind.
	ListByKind(ctx context.Context, kind Kind) ([]*Descriptor, error)
}
