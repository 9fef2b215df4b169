// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/taibuivan/kurso/internal/asset"
	"github.com/taibuivan/kurso/internal/platform/constants"
)

// # Asset Externalizer

// Externalizer copies course assets into the build package and rewrites
// every in-tree reference to their new package-relative paths.
type Externalizer struct {
	assets  asset.Repository
	storage asset.Storage
	logger  *slog.Logger
}

// NewExternalizer constructs an [Externalizer].
func NewExternalizer(assets asset.Repository, storage asset.Storage, logger *slog.Logger) *Externalizer {
	return &Externalizer{assets: assets, storage: storage, logger: logger}
}

// manifestEntry is one assets.json record describing a copied asset.
type manifestEntry struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

/*
WriteCourseAssets externalizes every asset a course references.

Description: Computes the distinct asset set from the course's join rows
(duplicates collapse to one copy), then for each asset sequentially rewrites
every textual occurrence of its internal reference path across all tree
sections and stream-copies the binary into the destination folder under its
original filename. Copies are strictly one at a time so the storage backend
is never flooded. The first failing asset aborts the whole externalization;
partially written folders are the caller's responsibility, matching the
empty-build-folder precondition. An assets.json manifest (filename to
title/description/tags) is written alongside the copies for the builder.

Parameters:
  - ctx: context.Context
  - courseID: string
  - jsonDir: string (folder receiving assets.json)
  - assetsDir: string (folder receiving the binaries; recreated empty)
  - tree: *CourseJSON (mutated in place with rewritten paths)

Returns:
  - error: The first asset lookup, rewrite or copy failure
*/
func (externalizer *Externalizer) WriteCourseAssets(ctx context.Context, courseID, jsonDir, assetsDir string, tree *CourseJSON) error {
	if err := os.RemoveAll(assetsDir); err != nil {
		return fmt.Errorf("publish: failed to clear assets folder: %w", err)
	}
	if err := os.MkdirAll(assetsDir, 0o755); err != nil {
		return fmt.Errorf("publish: failed to create assets folder: %w", err)
	}

	assetIDs, err := externalizer.assets.ListDistinctAssetIDs(ctx, courseID)
	if err != nil {
		return err
	}

	lang := tree.DefaultLanguage()
	manifest := map[string]manifestEntry{}

	for _, assetID := range assetIDs {
		record, err := externalizer.assets.FindByID(ctx, assetID)
		if err != nil {
			return err
		}

		manifest[record.Filename] = manifestEntry{
			Title:       record.Title,
			Description: record.Description,
			Tags:        record.Tags,
		}

		oldPath := "course/assets/" + record.Filename
		newPath := "course/" + lang + "/assets/" + url.PathEscape(record.Filename)
		if err := tree.RewriteAll(oldPath, newPath); err != nil {
			return err
		}

		if err := externalizer.copyAsset(ctx, record, filepath.Join(assetsDir, record.Filename)); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("publish: failed to serialize asset manifest: %w", err)
	}
	if err := os.MkdirAll(jsonDir, 0o755); err != nil {
		return fmt.Errorf("publish: failed to create manifest folder: %w", err)
	}
	if err := os.WriteFile(filepath.Join(jsonDir, constants.FilenameAssets), data, 0o644); err != nil {
		return fmt.Errorf("publish: failed to write asset manifest: %w", err)
	}

	externalizer.logger.Debug("course assets externalized",
		slog.String("course_id", courseID),
		slog.Int("count", len(assetIDs)),
	)
	return nil
}

func (externalizer *Externalizer) copyAsset(ctx context.Context, record *asset.Asset, target string) error {
	reader, err := externalizer.storage.Open(ctx, record.Path)
	if err != nil {
		return fmt.Errorf("publish: failed to open asset %s: %w", record.ID, err)
	}
	defer reader.Close()

	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("publish: failed to create %s: %w", target, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("publish: failed to copy asset %s: %w", record.ID, err)
	}
	return file.Close()
}
