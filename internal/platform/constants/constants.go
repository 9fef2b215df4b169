// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Build Pipeline: Folder conventions, plugin defaults and publish modes.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "kurso-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of
	// the response. Sized for the slowest synchronous endpoint, whole-course
	// translation; per-route deadlines guard everything else.
	DefaultWriteTimeout = 10 * time.Minute

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	// Publish runs outlive it; they continue on a background goroutine and
	// report through the poll endpoint. Whole-course translation is exempted
	// at the router level because it answers synchronously.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "kurso.app"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldSuccess = "success"
)

// # Build Pipeline Folders
//
// The external builder relies on a fixed folder convention rooted at the
// framework checkout. These names are a stable file-format boundary.

const (
	FolderSource     = "src"
	FolderAllCourses = "courses"
	FolderBuild      = "build"
	FolderCourse     = "course"
	FolderAssets     = "assets"
	FolderTheme      = "theme"
	FolderMenu       = "menu"
)

// # Build Pipeline Filenames

const (
	FilenameMain     = "index.html"
	FilenameRebuild  = ".rebuild"
	FilenameDownload = "download.zip"
	FilenameAssets   = "assets.json"
	FilenameExport   = "export.json"
	FilenameStyle    = "custom.less"
)

// # Plugin Defaults

const (
	// DefaultTheme is used when a course has no resolvable theme configured.
	DefaultTheme = "adapt-contrib-vanilla"

	// DefaultMenu is used when menu resolution degrades gracefully.
	DefaultMenu = "adapt-contrib-boxMenu"

	// Tracking extension plugin names. SCORM (spoor) and xAPI are mutually
	// exclusive on a built course.
	TrackingPluginSpoor = "adapt-contrib-spoor"
	TrackingPluginXAPI  = "adapt-contrib-xapi"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixPublishJob   = "publish:job:"
	RedisPrefixPublishLock  = "publish:lock:"
	RedisPrefixTranslateJob = "translate:job:"
	RedisPrefixLanguages    = "translate:languages"
)

// # Poll Protocol

const (
	// ProgressDone is the progress value a poll client treats as completion.
	ProgressDone = 100

	// PublishJobTTL bounds how long finished job records stay visible.
	PublishJobTTL = 30 * time.Minute

	// PublishLockTTL caps a per-(tenant,course) build lock so an abandoned
	// run cannot wedge a course forever.
	PublishLockTTL = 15 * time.Minute
)
