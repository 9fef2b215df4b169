// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package plugintype

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/kurso/internal/platform/database/schema"
	"github.com/taibuivan/kurso/internal/platform/dberr"
)

// # PostgreSQL Repository

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Postgres implementation of the plugin registry.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func selectDescriptorQuery(where string) string {
	return fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s
	`,
		schema.CorePluginType.ID,
		schema.CorePluginType.Kind,
		schema.CorePluginType.Name,
		schema.CorePluginType.DisplayName,
		schema.CorePluginType.Version,
		schema.CorePluginType.TargetAttribute,
		schema.CorePluginType.Globals,
		schema.CorePluginType.PluginLocations,
		schema.CorePluginType.Properties,
		schema.CorePluginType.CreatedAt,
		schema.CorePluginType.UpdatedAt,
		schema.CorePluginType.Table,
		where,
	)
}

func scanDescriptor(row pgx.Row) (*Descriptor, error) {
	descriptor := &Descriptor{}
	err := row.Scan(
		&descriptor.ID, &descriptor.Kind, &descriptor.Name,
		&descriptor.DisplayName, &descriptor.Version, &descriptor.TargetAttribute,
		&descriptor.Globals, &descriptor.PluginLocations, &descriptor.Properties,
		&descriptor.CreatedAt, &descriptor.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return descriptor, nil
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Descriptor, error) {
	query := selectDescriptorQuery(fmt.Sprintf("%s = $1", schema.CorePluginType.ID))

	descriptor, err := scanDescriptor(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "find plugin by id")
	}
	return descriptor, nil
}

func (repository *PostgresRepository) FindByName(ctx context.Context, kind Kind, name string) (*Descriptor, error) {
	query := selectDescriptorQuery(fmt.Sprintf("%s = $1 AND %s = $2",
		schema.CorePluginType.Kind, schema.CorePluginType.Name))

	descriptor, err := scanDescriptor(repository.pool.QueryRow(ctx, query, kind, name))
	if err != nil {
		return nil, dberr.Wrap(err, "find plugin by name")
	}
	return descriptor, nil
}

func (repository *PostgresRepository) ListByKind(ctx context.Context, kind Kind) ([]*Descriptor, error) {
	query := selectDescriptorQuery(fmt.Sprintf("%s = $1", schema.CorePluginType.Kind)) +
		fmt.Sprintf(" ORDER BY %s", schema.CorePluginType.Name)

	rows, err := repository.pool.Query(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list %s plugins: %w", kind, err)
	}
	defer rows.Close()

	var descriptors []*Descriptor
	for rows.Next() {
		descriptor, err := scanDescriptor(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan %s plugin: %w", kind, err)
		}
		descriptors = append(descriptors, descriptor)
	}

	return descriptors, nil
}
