package schema

// CorePluginTypeTable represents the 'core.plugintype' table.
//
// One row per installed plugin descriptor: component, extension, theme and
// menu types. The pluginlocations column holds the declarative schema that
// describes where the plugin's settings attach on other content types.
type CorePluginTypeTable struct {
	Table           string
	ID              string
	Kind            string
	Name            string
	DisplayName     string
	Version         string
	TargetAttribute string
	Globals         string
	PluginLocations string
	Properties      string
	CreatedAt       string
	UpdatedAt       string
}

// CorePluginType is the schema definition for core.plugintype
var CorePluginType = CorePluginTypeTable{
	Table:           "core.plugintype",
	ID:              "id",
	Kind:            "kind",
	Name:            "name",
	DisplayName:     "displayname",
	Version:         "version",
	TargetAttribute: "targetattribute",
	Globals:         "globals",
	PluginLocations: "pluginlocations",
	Properties:      "properties",
	CreatedAt:       "createdat",
	UpdatedAt:       "updatedat",
}

func (t CorePluginTypeTable) Columns() []string {
	return []string{
		t.ID, t.Kind, t.Name, t.DisplayName, t.Version, t.TargetAttribute,
		t.Globals, t.PluginLocations, t.Properties, t.CreatedAt, t.UpdatedAt,
	}
}
