package schema

// CoreCourseAssetTable represents the 'core.courseasset' join table.
//
// A row exists only while the asset is actually embedded in the owning
// content item's properties; orphan rows are eligible for cleanup.
type CoreCourseAssetTable struct {
	Table           string
	ID              string
	CourseID        string
	AssetID         string
	ContentType     string
	ContentID       string
	ContentParentID string
	CreatedBy       string
	CreatedAt       string
}

// CoreCourseAsset is the schema definition for core.courseasset
var CoreCourseAsset = CoreCourseAssetTable{
	Table:           "core.courseasset",
	ID:              "id",
	CourseID:        "courseid",
	AssetID:         "assetid",
	ContentType:     "contenttype",
	ContentID:       "contentid",
	ContentParentID: "contentparentid",
	CreatedBy:       "createdby",
	CreatedAt:       "createdat",
}

func (t CoreCourseAssetTable) Columns() []string {
	return []string{
		t.ID, t.CourseID, t.AssetID, t.ContentType, t.ContentID,
		t.ContentParentID, t.CreatedBy, t.CreatedAt,
	}
}
