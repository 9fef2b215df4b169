// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/taibuivan/kurso/pkg/slug"
)

// # Packager

// Packager zips a build folder into the downloadable course archive.
type Packager struct {
	logger *slog.Logger
}

// NewPackager constructs a [Packager].
func NewPackager(logger *slog.Logger) *Packager {
	return &Packager{logger: logger}
}

// ZipName derives the suggested download name from the course title.
func ZipName(courseTitle string) string {
	name := slug.From(courseTitle)
	if name == "" {
		name = "course"
	}
	return name
}

/*
Package streams every file under the build folder into a zip archive.

Description: Walks the build folder and writes each regular file into the
archive under its folder-relative, slash-separated path. The archive lands
at the deterministic per-course download path; callers emit the zip_created
notification after this returns.

Parameters:
  - buildDir: string (the completed build output)
  - archivePath: string (destination zip file)

Returns:
  - error: Walk, read or write failures
*/
func (packager *Packager) Package(buildDir, archivePath string) error {
	output, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("publish: failed to create archive: %w", err)
	}
	defer output.Close()

	archive := zip.NewWriter(output)

	err = filepath.WalkDir(buildDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		relative, err := filepath.Rel(buildDir, path)
		if err != nil {
			return err
		}

		writer, err := archive.Create(filepath.ToSlash(relative))
		if err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		_, err = io.Copy(writer, file)
		return err
	})
	if err != nil {
		return fmt.Errorf("publish: failed to package build: %w", err)
	}

	if err := archive.Close(); err != nil {
		return fmt.Errorf("publish: failed to finalize archive: %w", err)
	}
	if err := output.Close(); err != nil {
		return fmt.Errorf("publish: failed to flush archive: %w", err)
	}

	packager.logger.Debug("build packaged", slog.String("archive", archivePath))
	return nil
}
