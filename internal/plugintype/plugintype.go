// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package plugintype is the registry of installed framework plugins.

Every component, extension, theme and menu available to course authors has a
descriptor row here: its package name, version, the attribute it attaches to
on content (targetAttribute), its global language strings, and the
pluginLocations schema describing which content kinds it decorates and with
what default settings.

The build pipeline resolves themes and menus through this registry, and
content creation derives default menu settings from it.
*/
package plugintype

import (
	"time"

	"github.com/taibuivan/kurso/internal/content"
)

// # Plugin Kinds

// Kind discriminates the four installable plugin families.
type Kind string

const (
	KindComponent Kind = "component"
	KindExtension Kind = "extension"
	KindTheme     Kind = "theme"
	KindMenu      Kind = "menu"
)

// # Descriptors

// Descriptor is one installed plugin's registry row.
type Descriptor struct {
	ID              string           `json:"id"`
	Kind            Kind             `json:"kind"`
	Name            string           `json:"name"`
	DisplayName     string           `json:"displayName"`
	Version         string           `json:"version"`
	TargetAttribute string           `json:"targetAttribute"`
	Globals         content.Document `json:"globals,omitempty"`
	PluginLocations content.Document `json:"pluginLocations,omitempty"`
	Properties      content.Document `json:"properties,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// LocationSchema returns the property schema this plugin declares for the
// given content kind, or nil when the plugin does not decorate that kind.
//
// pluginLocations follows the JSON schema layout:
//
//	{"properties": {"contentobject": {"properties": {"_boxMenu": {...}}}}}
func (descriptor *Descriptor) LocationSchema(kind content.Kind) content.Document {
	locations, ok := descriptor.PluginLocations["properties"].(map[string]any)
	if !ok {
		return nil
	}
	location, ok := locations[string(kind)].(map[string]any)
	if !ok {
		return nil
	}
	properties, ok := location["properties"].(map[string]any)
	if !ok {
		return nil
	}
	return content.Document(properties)
}

// # Schema Defaults

/*
SchemaToObject generates a default-valued settings object from a property
schema.

Description: Walks a JSON-schema properties map and produces the object an
author would get before touching anything: declared defaults where present,
type-appropriate zero values otherwise, and nested objects recursed through
their own properties. Schemas without a recognisable type contribute nothing.

Parameters:
  - schema: content.Document (a JSON schema "properties" map)

Returns:
  - content.Document: The generated default object
*/
func SchemaToObject(schema content.Document) content.Document {
	generated := content.Document{}
	for name, raw := range schema {
		property, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if value, has := defaultForProperty(property); has {
			generated[name] = value
		}
	}
	return generated
}

func defaultForProperty(property map[string]any) (any, bool) {
	if value, has := property["default"]; has {
		return value, true
	}

	propertyType, _ := property["type"].(string)
	switch propertyType {
	case "string":
		return "", true
	case "number", "integer":
		return float64(0), true
	case "boolean":
		return false, true
	case "array":
		return []any{}, true
	case "object":
		nested, ok := property["properties"].(map[string]any)
		if !ok {
			return map[string]any{}, true
		}
		return map[string]any(SchemaToObject(content.Document(nested))), true
	default:
		return nil, false
	}
}
