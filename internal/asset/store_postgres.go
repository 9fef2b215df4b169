// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package asset

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

// NewRepository creates a new Postgres implementation of the asset store.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func selectAssetQuery(where string) string {
	return fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s
	`,
		schema.CoreAsset.ID,
		schema.CoreAsset.TenantID,
		schema.CoreAsset.Title,
		schema.CoreAsset.Description,
		schema.CoreAsset.Filename,
		schema.CoreAsset.Path,
		schema.CoreAsset.MimeType,
		schema.CoreAsset.Size,
		schema.CoreAsset.Repository,
		schema.CoreAsset.Tags,
		schema.CoreAsset.IsDeleted,
		schema.CoreAsset.CreatedBy,
		schema.CoreAsset.CreatedAt,
		schema.CoreAsset.UpdatedAt,
		schema.CoreAsset.Table,
		where,
	)
}

func scanAsset(row pgx.Row) (*Asset, error) {
	asset := &Asset{}
	err := row.Scan(
		&asset.ID, &asset.TenantID, &asset.Title, &asset.Description,
		&asset.Filename, &asset.Path, &asset.MimeType, &asset.Size,
		&asset.Repository, &asset.Tags, &asset.IsDeleted,
		&asset.CreatedBy, &asset.CreatedAt, &asset.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return asset, nil
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Asset, error) {
	query := selectAssetQuery(fmt.Sprintf("%s = $1 AND %s = false",
		schema.CoreAsset.ID, schema.CoreAsset.IsDeleted))

	asset, err := scanAsset(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "find asset by id")
	}
	return asset, nil
}

func (repository *PostgresRepository) FindByTitleAndSize(ctx context.Context, tenantID, title string, size int64) (*Asset, error) {
	query := selectAssetQuery(fmt.Sprintf("%s = $1 AND %s = $2 AND %s = $3 AND %s = false",
		schema.CoreAsset.TenantID, schema.CoreAsset.Title, schema.CoreAsset.Size, schema.CoreAsset.IsDeleted)) +
		" LIMIT 1"

	asset, err := scanAsset(repository.pool.QueryRow(ctx, query, tenantID, title, size))
	if err != nil {
		return nil, dberr.Wrap(err, "find asset by title and size")
	}
	return asset, nil
}

func (repository *PostgresRepository) Create(ctx context.Context, asset *Asset) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false, $11, now(), now())
	`,
		schema.CoreAsset.Table,
		schema.CoreAsset.ID,
		schema.CoreAsset.TenantID,
		schema.CoreAsset.Title,
		schema.CoreAsset.Description,
		schema.CoreAsset.Filename,
		schema.CoreAsset.Path,
		schema.CoreAsset.MimeType,
		schema.CoreAsset.Size,
		schema.CoreAsset.Repository,
		schema.CoreAsset.Tags,
		schema.CoreAsset.IsDeleted,
		schema.CoreAsset.CreatedBy,
		schema.CoreAsset.CreatedAt,
		schema.CoreAsset.UpdatedAt,
	)

	_, err := repository.pool.Exec(ctx, query,
		asset.ID, asset.TenantID, asset.Title, asset.Description,
		asset.Filename, asset.Path, asset.MimeType, asset.Size,
		asset.Repository, asset.Tags, asset.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to create asset: %w", err)
	}
	return nil
}

func (repository *PostgresRepository) ListCourseAssets(ctx context.Context, courseID string) ([]*CourseAsset, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
	`,
		schema.CoreCourseAsset.ID,
		schema.CoreCourseAsset.CourseID,
		schema.CoreCourseAsset.AssetID,
		schema.CoreCourseAsset.ContentType,
		schema.CoreCourseAsset.ContentID,
		schema.CoreCourseAsset.ContentParentID,
		schema.CoreCourseAsset.CreatedBy,
		schema.CoreCourseAsset.CreatedAt,
		schema.CoreCourseAsset.Table,
		schema.CoreCourseAsset.CourseID,
	)

	rows, err := repository.pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list course assets: %w", err)
	}
	defer rows.Close()

	var courseAssets []*CourseAsset
	for rows.Next() {
		courseAsset := &CourseAsset{}
		err := rows.Scan(
			&courseAsset.ID, &courseAsset.CourseID, &courseAsset.AssetID,
			&courseAsset.ContentType, &courseAsset.ContentID, &courseAsset.ContentParentID,
			&courseAsset.CreatedBy, &courseAsset.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan course asset: %w", err)
		}
		courseAssets = append(courseAssets, courseAsset)
	}

	return courseAssets, nil
}

func (repository *PostgresRepository) ListDistinctAssetIDs(ctx context.Context, courseID string) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM %s WHERE %s = $1`,
		schema.CoreCourseAsset.AssetID,
		schema.CoreCourseAsset.Table,
		schema.CoreCourseAsset.CourseID,
	)

	rows, err := repository.pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list distinct asset ids: %w", err)
	}
	defer rows.Close()

	var assetIDs []string
	for rows.Next() {
		var assetID string
		if err := rows.Scan(&assetID); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan asset id: %w", err)
		}
		assetIDs = append(assetIDs, assetID)
	}

	return assetIDs, nil
}

func (repository *PostgresRepository) CreateCourseAsset(ctx context.Context, courseAsset *CourseAsset) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`,
		schema.CoreCourseAsset.Table,
		schema.CoreCourseAsset.ID,
		schema.CoreCourseAsset.CourseID,
		schema.CoreCourseAsset.AssetID,
		schema.CoreCourseAsset.ContentType,
		schema.CoreCourseAsset.ContentID,
		schema.CoreCourseAsset.ContentParentID,
		schema.CoreCourseAsset.CreatedBy,
		schema.CoreCourseAsset.CreatedAt,
	)

	_, err := repository.pool.Exec(ctx, query,
		courseAsset.ID, courseAsset.CourseID, courseAsset.AssetID,
		courseAsset.ContentType, courseAsset.ContentID, courseAsset.ContentParentID,
		courseAsset.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to create course asset: %w", err)
	}
	return nil
}

func (repository *PostgresRepository) DeleteCourseAsset(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.CoreCourseAsset.Table,
		schema.CoreCourseAsset.ID,
	)

	if _, err := repository.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("postgres: failed to delete course asset: %w", err)
	}
	return nil
}
