// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish

import (
	"context"

	"github.com/taibuivan/kurso/internal/content"
	"github.com/taibuivan/kurso/internal/platform/apperr"
	"github.com/taibuivan/kurso/internal/platform/constants"
	"github.com/taibuivan/kurso/internal/plugintype"
	"github.com/taibuivan/kurso/pkg/slice"
	"github.com/taibuivan/kurso/pkg/slug"
)

// # Tracking Substitution

// Tracking identifies the learner-progress reporting technology of a build.
// SCORM (spoor) and xAPI are mutually exclusive per built course.
type Tracking string

const (
	TrackingSCORM Tracking = "scorm"
	TrackingXAPI  Tracking = "xapi"
)

// activityIDBase prefixes the xAPI activity identifier derived from the
// course title.
const activityIDBase = "https://kurso.app/xapi/"

// xapiConfigDefaults is the tracking config block spliced in when a SCORM
// course is published for xAPI.
var xapiConfigDefaults = content.Document{
	"_isEnabled":          true,
	"_specification":      "xAPI",
	"_endpoint":           "",
	"_user":               "",
	"_password":           "",
	"_lang":               "en-US",
	"_generateIds":        false,
	"_shouldTrackState":   true,
	"_componentBlacklist": "blank,graphic",
	"_coreEvents": map[string]any{
		"Adapt": map[string]any{
			"router:menu":                    false,
			"router:page":                    false,
			"questionView:recordInteraction": true,
			"assessments:complete":           true,
		},
		"contentObjects": map[string]any{"change:_isComplete": true},
		"articles":       map[string]any{"change:_isComplete": false},
		"blocks":         map[string]any{"change:_isComplete": false},
		"components":     map[string]any{"change:_isComplete": false},
	},
	"_lrsFailureBehaviour": "show",
}

// xapiGlobals are the learner-facing strings for the xAPI extension UI.
var xapiGlobals = content.Document{
	"confirm":                   "OK",
	"lrsConnectionErrorTitle":   "LRS not available",
	"lrsConnectionErrorMessage": "We were unable to connect to your Learning Record Store (LRS). This means that your progress cannot be recorded.",
}

// spoorConfigDefaults is the tracking config block spliced in when an xAPI
// course is published for SCORM.
var spoorConfigDefaults = content.Document{
	"_isEnabled": true,
	"_tracking": map[string]any{
		"_requireCourseCompleted":  true,
		"_requireAssessmentPassed": false,
		"_shouldSubmitScore":       false,
	},
	"_reporting": map[string]any{
		"_onTrackingCriteriaMet": "completed",
		"_onAssessmentFailure":   "incomplete",
	},
}

// Tracker swaps the tracking extension of an assembled tree.
type Tracker struct {
	registry plugintype.Repository
}

// NewTracker constructs a [Tracker] over the plugin registry.
func NewTracker(registry plugintype.Repository) *Tracker {
	return &Tracker{registry: registry}
}

/*
Apply substitutes the tree's tracking extension for the requested technology.

Description: When the requested technology is already the enabled one (or no
tracking extension is enabled at all) the tree passes through untouched.
Otherwise the currently enabled entry is removed from _enabledExtensions and
build.includes, its config block is deleted, and the target technology's
descriptor (from the installed extension registry), config defaults and
global strings are spliced in. Publishing for xAPI additionally derives a
stable activity identifier from the slugified course title. A missing target
descriptor in the registry is a ConfigurationError and fatal to the publish.

Parameters:
  - ctx: context.Context
  - tree: *CourseJSON (mutated in place)
  - target: Tracking

Returns:
  - error: ConfigurationError when the registry lacks the target extension
*/
func (tracker *Tracker) Apply(ctx context.Context, tree *CourseJSON, target Tracking) error {
	switch target {
	case TrackingXAPI:
		return tracker.substitute(ctx, tree, substitution{
			fromKey:    "spoor",
			fromPlugin: constants.TrackingPluginSpoor,
			fromConfig: "_spoor",
			toKey:      "xapi",
			toPlugin:   constants.TrackingPluginXAPI,
			toConfig:   "_xapi",
		})
	case TrackingSCORM:
		return tracker.substitute(ctx, tree, substitution{
			fromKey:    "xapi",
			fromPlugin: constants.TrackingPluginXAPI,
			fromConfig: "_xapi",
			toKey:      "spoor",
			toPlugin:   constants.TrackingPluginSpoor,
			toConfig:   "_spoor",
		})
	default:
		return nil
	}
}

type substitution struct {
	fromKey, fromPlugin, fromConfig string
	toKey, toPlugin, toConfig       string
}

func (tracker *Tracker) substitute(ctx context.Context, tree *CourseJSON, sub substitution) error {
	enabled, ok := tree.Config["_enabledExtensions"].(map[string]any)
	if !ok {
		return nil
	}
	if _, has := enabled[sub.toKey]; has {
		// Requested tracking is already enabled; nothing to swap.
		return nil
	}
	if _, has := enabled[sub.fromKey]; !has {
		// No opposing tracking extension to replace.
		return nil
	}

	descriptor, err := tracker.registry.FindByName(ctx, plugintype.KindExtension, sub.toPlugin)
	if err != nil {
		return apperr.Configuration("tracking extension " + sub.toPlugin + " is not installed")
	}

	enabled[sub.toKey] = map[string]any{
		"_id":             descriptor.ID,
		"name":            descriptor.Name,
		"version":         descriptor.Version,
		"targetAttribute": descriptor.TargetAttribute,
	}
	delete(enabled, sub.fromKey)

	swapBuildInclude(tree.Config, sub.fromPlugin, sub.toPlugin)

	delete(tree.Config, sub.fromConfig)
	switch sub.toConfig {
	case "_xapi":
		config := xapiConfigDefaults.Clone()
		config["_activityID"] = activityIDBase + slug.From(tree.CourseTitle())
		tree.Config["_xapi"] = map[string]any(config)
		setGlobalExtension(tree.Course, "_xapi", xapiGlobals.Clone())
	case "_spoor":
		tree.Config["_spoor"] = map[string]any(spoorConfigDefaults.Clone())
		removeGlobalExtension(tree.Course, "_xapi")
	}

	return nil
}

// swapBuildInclude removes the outgoing plugin from build.includes and
// appends the incoming one.
func swapBuildInclude(config content.Document, remove, add string) {
	build, ok := config["build"].(map[string]any)
	if !ok {
		build = map[string]any{}
		config["build"] = build
	}
	includes, _ := build["includes"].([]any)

	filtered := slice.Filter(includes, func(include any) bool {
		return include != remove && include != add
	})
	build["includes"] = append(filtered, add)
}

func setGlobalExtension(course content.Document, key string, value content.Document) {
	globals, ok := course["_globals"].(map[string]any)
	if !ok {
		globals = map[string]any{}
		course["_globals"] = globals
	}
	extensions, ok := globals["_extensions"].(map[string]any)
	if !ok {
		extensions = map[string]any{}
		globals["_extensions"] = extensions
	}
	extensions[key] = map[string]any(value)
}

func removeGlobalExtension(course content.Document, key string) {
	globals, ok := course["_globals"].(map[string]any)
	if !ok {
		return
	}
	extensions, ok := globals["_extensions"].(map[string]any)
	if !ok {
		return
	}
	delete(extensions, key)
}
