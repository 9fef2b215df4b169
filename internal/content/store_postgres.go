// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package content — PostgreSQL repository implementation.

Course documents live in a single 'core.content' table: structural fields
(identity, parentage, ordering) in typed columns, the plugin-defined property
bag in a JSONB column. This keeps the document-store semantics of the
authoring data model while letting queries filter on structure without
touching the bags.
*/
package content

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/kurso/internal/platform/database/schema"
	"github.com/taibuivan/kurso/internal/platform/dberr"
)

// # PostgreSQL Repository

// contentRepository serves both pooled and transaction-scoped access; a
// non-nil tx takes precedence over the pool.
type contentRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

// NewRepository constructs a PostgreSQL backed content store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &contentRepository{pool: pool}
}

func (repository *contentRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if repository.tx != nil {
		return repository.tx.Query(ctx, sql, args...)
	}
	return repository.pool.Query(ctx, sql, args...)
}

func (repository *contentRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if repository.tx != nil {
		return repository.tx.QueryRow(ctx, sql, args...)
	}
	return repository.pool.QueryRow(ctx, sql, args...)
}

func (repository *contentRepository) exec(ctx context.Context, sql string, args ...any) error {
	var err error
	if repository.tx != nil {
		_, err = repository.tx.Exec(ctx, sql, args...)
	} else {
		_, err = repository.pool.Exec(ctx, sql, args...)
	}
	return err
}

// # Queries

func (repository *contentRepository) FindCourse(ctx context.Context, tenantID, courseID string) (*Record, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = $2 AND %s = $3
	`,
		schema.CoreContent.ID,
		schema.CoreContent.TenantID,
		schema.CoreContent.CourseID,
		schema.CoreContent.Kind,
		schema.CoreContent.ParentID,
		schema.CoreContent.SortOrder,
		schema.CoreContent.CreatedBy,
		schema.CoreContent.CreatedAt,
		schema.CoreContent.UpdatedAt,
		schema.CoreContent.Props,
		schema.CoreContent.Table,
		schema.CoreContent.TenantID,
		schema.CoreContent.CourseID,
		schema.CoreContent.Kind,
	)

	record, err := scanRecord(repository.queryRow(ctx, query, tenantID, courseID, KindCourse))
	if err != nil {
		return nil, dberr.Wrap(err, "find course")
	}
	return record, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	record := &Record{}
	var parentID *string
	err := row.Scan(
		&record.ID, &record.TenantID, &record.CourseID, &record.Kind,
		&parentID, &record.SortOrder, &record.CreatedBy,
		&record.CreatedAt, &record.UpdatedAt, &record.Props,
	)
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		record.ParentID = *parentID
	}
	return record, nil
}

func (repository *contentRepository) ListCourses(ctx context.Context, tenantID string, limit, offset int) ([]*Record, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s,
			COUNT(*) OVER() AS total_count
		FROM %s
		WHERE %s = $1 AND %s = $2
		ORDER BY %s DESC
		LIMIT $3 OFFSET $4
	`,
		schema.CoreContent.ID,
		schema.CoreContent.TenantID,
		schema.CoreContent.CourseID,
		schema.CoreContent.Kind,
		schema.CoreContent.ParentID,
		schema.CoreContent.SortOrder,
		schema.CoreContent.CreatedBy,
		schema.CoreContent.CreatedAt,
		schema.CoreContent.UpdatedAt,
		schema.CoreContent.Props,
		schema.CoreContent.Table,
		schema.CoreContent.TenantID,
		schema.CoreContent.Kind,
		schema.CoreContent.UpdatedAt,
	)

	rows, err := repository.query(ctx, query, tenantID, KindCourse, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list courses: %w", err)
	}
	defer rows.Close()

	var records []*Record
	var totalCount int

	for rows.Next() {
		record := &Record{}
		var parentID *string
		err := rows.Scan(
			&record.ID, &record.TenantID, &record.CourseID, &record.Kind,
			&parentID, &record.SortOrder, &record.CreatedBy,
			&record.CreatedAt, &record.UpdatedAt, &record.Props,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan course: %w", err)
		}
		if parentID != nil {
			record.ParentID = *parentID
		}
		records = append(records, record)
	}

	return records, totalCount, nil
}

func (repository *contentRepository) ListByCourse(ctx context.Context, tenantID, courseID string, kind Kind) ([]*Record, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = $2 AND %s = $3
	`,
		schema.CoreContent.ID,
		schema.CoreContent.TenantID,
		schema.CoreContent.CourseID,
		schema.CoreContent.Kind,
		schema.CoreContent.ParentID,
		schema.CoreContent.SortOrder,
		schema.CoreContent.CreatedBy,
		schema.CoreContent.CreatedAt,
		schema.CoreContent.UpdatedAt,
		schema.CoreContent.Props,
		schema.CoreContent.Table,
		schema.CoreContent.TenantID,
		schema.CoreContent.CourseID,
		schema.CoreContent.Kind,
	)

	rows, err := repository.query(ctx, query, tenantID, courseID, kind)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list %s records: %w", kind, err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record := &Record{}
		var parentID *string
		err := rows.Scan(
			&record.ID, &record.TenantID, &record.CourseID, &record.Kind,
			&parentID, &record.SortOrder, &record.CreatedBy,
			&record.CreatedAt, &record.UpdatedAt, &record.Props,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan %s record: %w", kind, err)
		}
		if parentID != nil {
			record.ParentID = *parentID
		}
		records = append(records, record)
	}

	return records, nil
}

func (repository *contentRepository) Exists(ctx context.Context, courseID, id string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s = $2)`,
		schema.CoreContent.Table,
		schema.CoreContent.CourseID,
		schema.CoreContent.ID,
	)

	var exists bool
	if err := repository.queryRow(ctx, query, courseID, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres: failed to check content existence: %w", err)
	}
	return exists, nil
}

// # Mutations

func (repository *contentRepository) Create(ctx context.Context, record *Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now(), $8)
	`,
		schema.CoreContent.Table,
		schema.CoreContent.ID,
		schema.CoreContent.TenantID,
		schema.CoreContent.CourseID,
		schema.CoreContent.Kind,
		schema.CoreContent.ParentID,
		schema.CoreContent.SortOrder,
		schema.CoreContent.CreatedBy,
		schema.CoreContent.CreatedAt,
		schema.CoreContent.UpdatedAt,
		schema.CoreContent.Props,
	)

	var parentID *string
	if record.ParentID != "" {
		parentID = &record.ParentID
	}

	err := repository.exec(ctx, query,
		record.ID, record.TenantID, record.CourseID, record.Kind,
		parentID, record.SortOrder, record.CreatedBy, record.Props,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to create %s record: %w", record.Kind, err)
	}
	return nil
}

func (repository *contentRepository) MergeProps(ctx context.Context, id string, merge Document) error {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = %s || $2, %s = now() WHERE %s = $1
	`,
		schema.CoreContent.Table,
		schema.CoreContent.Props,
		schema.CoreContent.Props,
		schema.CoreContent.UpdatedAt,
		schema.CoreContent.ID,
	)

	if err := repository.exec(ctx, query, id, merge); err != nil {
		return fmt.Errorf("postgres: failed to merge props: %w", err)
	}
	return nil
}

// # Transactions

func (repository *contentRepository) InTx(ctx context.Context, fn func(Repository) error) error {
	if repository.tx != nil {
		// Already inside a transaction; reuse it.
		return fn(repository)
	}

	return pgx.BeginFunc(ctx, repository.pool, func(tx pgx.Tx) error {
		return fn(&contentRepository{pool: repository.pool, tx: tx})
	})
}
