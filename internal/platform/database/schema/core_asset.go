package schema

// CoreAssetTable represents the 'core.asset' table.
type CoreAssetTable struct {
	Table       string
	ID          string
	TenantID    string
	Title       string
	Description string
	Filename    string
	Path        string
	MimeType    string
	Size        string
	Repository  string
	Tags        string
	IsDeleted   string
	CreatedBy   string
	CreatedAt   string
	UpdatedAt   string
}

// CoreAsset is the schema definition for core.asset
var CoreAsset = CoreAssetTable{
	Table:       "core.asset",
	ID:          "id",
	TenantID:    "tenantid",
	Title:       "title",
	Description: "description",
	Filename:    "filename",
	Path:        "path",
	MimeType:    "mimetype",
	Size:        "size",
	Repository:  "repository",
	Tags:        "tags",
	IsDeleted:   "isdeleted",
	CreatedBy:   "createdby",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

func (t CoreAssetTable) Columns() []string {
	return []string{
		t.ID, t.TenantID, t.Title, t.Description, t.Filename, t.Path,
		t.MimeType, t.Size, t.Repository, t.Tags, t.IsDeleted,
		t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	}
}
