// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package asset manages binary assets and their links to course content.

An [Asset] is the tenant-owned binary (image, video, audio) stored through a
[Storage] backend. A [CourseAsset] is the join row recording that a piece of
content embeds the asset; join rows whose owning content no longer exists are
orphans and get removed by the cleanup service.
*/
package asset

import (
	"time"
)

// # Entities

// Asset is one tenant-owned binary file.
type Asset struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenantId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Filename    string    `json:"filename"`
	Path        string    `json:"path"`
	MimeType    string    `json:"mimeType"`
	Size        int64     `json:"size"`
	Repository  string    `json:"repository"`
	Tags        []string  `json:"tags,omitempty"`
	IsDeleted   bool      `json:"isDeleted"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CourseAsset links an asset to the content item embedding it.
type CourseAsset struct {
	ID              string    `json:"id"`
	CourseID        string    `json:"courseId"`
	AssetID         string    `json:"assetId"`
	ContentType     string    `json:"contentType"`
	ContentID       string    `json:"contentId"`
	ContentParentID string    `json:"contentParentId"`
	CreatedBy       string    `json:"createdBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// RepositoryLocalFS is the default storage repository label.
const RepositoryLocalFS = "localfs"
