// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/taibuivan/kurso/internal/platform/apperr"
	"github.com/taibuivan/kurso/internal/platform/constants"
)

// # Build Tool Invocation

// ExitResult captures one builder invocation's observable outcome.
type ExitResult struct {
	Stdout string
	Stderr string
	Err    error
}

// ToolRunner is the external static-site builder behind a narrow interface,
// so the pipeline stays testable with a substituted fake tool.
type ToolRunner interface {
	// RunBuild compiles a course. flavor is "dev" or "prod".
	RunBuild(ctx context.Context, flavor, outputDir, theme, menu string) ExitResult

	// RunExport extracts the course's translatable strings for one language.
	RunExport(ctx context.Context, outputDir, targetLang string) ExitResult

	// RunImport splices translated strings back into a language tree.
	RunImport(ctx context.Context, outputDir, targetLang string) ExitResult
}

// ExecToolRunner runs the builder as a subprocess from the framework root.
type ExecToolRunner struct {
	command string
	root    string
	logger  *slog.Logger
}

// NewExecToolRunner constructs an [ExecToolRunner]. command is the builder
// binary (typically "grunt"); root is the framework working directory.
func NewExecToolRunner(command, root string, logger *slog.Logger) *ExecToolRunner {
	return &ExecToolRunner{command: command, root: root, logger: logger}
}

func (runner *ExecToolRunner) run(ctx context.Context, args ...string) ExitResult {
	runner.logger.Info("invoking builder",
		slog.String("command", runner.command),
		slog.String("args", strings.Join(args, " ")),
	)

	cmd := exec.CommandContext(ctx, runner.command, args...)
	cmd.Dir = runner.root

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return ExitResult{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

func (runner *ExecToolRunner) RunBuild(ctx context.Context, flavor, outputDir, theme, menu string) ExitResult {
	return runner.run(ctx,
		"server-build:"+flavor,
		"--outputdir="+outputDir,
		"--theme="+theme,
		"--menu="+menu,
	)
}

func (runner *ExecToolRunner) RunExport(ctx context.Context, outputDir, targetLang string) ExitResult {
	return runner.run(ctx,
		"translate:export",
		"--outputdir="+outputDir,
		"--targetLang="+targetLang,
	)
}

func (runner *ExecToolRunner) RunImport(ctx context.Context, outputDir, targetLang string) ExitResult {
	return runner.run(ctx,
		"translate:import",
		"--outputdir="+outputDir,
		"--targetLang="+targetLang,
	)
}

// # Build Decision

// Invoker decides whether a build must run and interprets the builder's
// stdout/stderr/exit contract.
type Invoker struct {
	layout Layout
	runner ToolRunner
	logger *slog.Logger
}

// NewInvoker constructs an [Invoker].
func NewInvoker(layout Layout, runner ToolRunner, logger *slog.Logger) *Invoker {
	return &Invoker{layout: layout, runner: runner, logger: logger}
}

// RebuildRequired reports whether the course must be rebuilt for the given
// mode. Export and publish always rebuild; preview and build rebuild when
// the marker file exists or the caller forces it.
func (invoker *Invoker) RebuildRequired(tenantID, courseID string, mode Mode, force bool) bool {
	if mode == ModeExport || mode == ModePublish {
		return true
	}
	if force {
		return true
	}
	_, err := os.Stat(invoker.layout.RebuildMarker(tenantID, courseID))
	return err == nil
}

/*
EnsureBuilt runs the builder unless existing output can be reused.

Description: When no rebuild is required and built output already exists,
the invocation is skipped entirely. Otherwise the builder runs with the
course's output directory, effective theme and menu (falling back to the
documented defaults), and the dev flavor when the config requests source
maps. A process error or any stderr output is fatal; process errors are
enriched with the fatal-error text scraped from stdout. On success the
rebuild marker is cleared and, when the builder produced output on stdout,
a preview_created event is logged.

Parameters:
  - ctx: context.Context
  - tenantID, courseID: string
  - tree: *CourseJSON (read for _generateSourcemap)
  - themeName, menuName: string (effective names from the materializer)
  - mode: Mode
  - force: bool (caller-requested forced rebuild)

Returns:
  - bool: Whether the builder actually ran
  - error: BuildTool on any builder failure
*/
func (invoker *Invoker) EnsureBuilt(ctx context.Context, tenantID, courseID string, tree *CourseJSON, themeName, menuName string, mode Mode, force bool) (bool, error) {
	rebuildRequired := invoker.RebuildRequired(tenantID, courseID, mode, force)

	if !rebuildRequired {
		if _, err := os.Stat(invoker.layout.MainFile(tenantID, courseID)); err == nil {
			invoker.logger.Info("framework already built, nothing to do",
				slog.String("course_id", courseID),
			)
			return false, nil
		}
	}

	if themeName == "" {
		themeName = constants.DefaultTheme
	}
	if menuName == "" {
		menuName = constants.DefaultMenu
	}

	flavor := "prod"
	if sourcemap, ok := tree.Config["_generateSourcemap"].(bool); ok && sourcemap {
		flavor = "dev"
	}

	result := invoker.runner.RunBuild(ctx, flavor, invoker.layout.BuilderOutputDir(tenantID, courseID), themeName, menuName)
	if result.Err != nil {
		message := "builder process failed"
		if fatal := ExtractFatalError(result.Stdout); fatal != "" {
			message += ": " + fatal
		}
		return true, apperr.BuildTool(message, result.Err)
	}
	if result.Stderr != "" {
		return true, apperr.BuildTool("builder reported errors: "+result.Stderr, nil)
	}

	if err := os.Remove(invoker.layout.RebuildMarker(tenantID, courseID)); err != nil && !os.IsNotExist(err) {
		invoker.logger.Error("failed to clear rebuild marker", slog.String("error", err.Error()))
	}

	// Non-empty stdout is part of the builder's success signal; a silent
	// run produced nothing worth announcing.
	if result.Stdout != "" {
		invoker.logger.Info("preview_created",
			slog.String("tenant_id", tenantID),
			slog.String("course_id", courseID),
			slog.String("output_dir", invoker.layout.BuildDir(tenantID, courseID)),
		)
	}
	return true, nil
}

// RequestRebuild drops the marker file forcing the next build to run.
func (invoker *Invoker) RequestRebuild(ctx context.Context, tenantID, courseID string) error {
	marker := invoker.layout.RebuildMarker(tenantID, courseID)
	if err := os.MkdirAll(invoker.layout.BuildDir(tenantID, courseID), 0o755); err != nil {
		return fmt.Errorf("publish: failed to prepare build folder: %w", err)
	}
	if err := os.WriteFile(marker, nil, 0o644); err != nil {
		return fmt.Errorf("publish: failed to write rebuild marker: %w", err)
	}
	return nil
}

// # Diagnostics

const (
	fatalErrorMarker    = "\nFatal error: "
	executionTimeMarker = "\n\nExecution Time"
)

// ExtractFatalError scrapes the builder's own diagnostic out of its stdout:
// the text from the fatal-error marker up to the execution-time footer.
func ExtractFatalError(stdout string) string {
	start := strings.Index(stdout, fatalErrorMarker)
	if start == -1 {
		return ""
	}
	fragment := stdout[start:]
	if end := strings.Index(fragment, executionTimeMarker); end != -1 {
		fragment = fragment[:end]
	}
	return strings.TrimSpace(fragment)
}
