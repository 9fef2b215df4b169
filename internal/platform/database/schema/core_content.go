package schema

// CoreContentTable represents the 'core.content' table.
//
// Every course document — the course itself, its config singleton, content
// objects (menus/pages), articles, blocks and components — is stored as one
// row with its plugin-defined property bag in the 'props' JSONB column.
type CoreContentTable struct {
	Table     string
	ID        string
	TenantID  string
	CourseID  string
	Kind      string
	ParentID  string
	SortOrder string
	CreatedBy string
	CreatedAt string
	UpdatedAt string
	Props     string
}

// CoreContent is the schema definition for core.content
var CoreContent = CoreContentTable{
	Table:     "core.content",
	ID:        "id",
	TenantID:  "tenantid",
	CourseID:  "courseid",
	Kind:      "kind",
	ParentID:  "parentid",
	SortOrder: "sortorder",
	CreatedBy: "createdby",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
	Props:     "props",
}

func (t CoreContentTable) Columns() []string {
	return []string{
		t.ID, t.TenantID, t.CourseID, t.Kind, t.ParentID, t.SortOrder,
		t.CreatedBy, t.CreatedAt, t.UpdatedAt, t.Props,
	}
}
