package confluence

// GetPageByIDQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v2/api-group-page/#api-pages-id-get
type GetPageByIDQuery struct {
	ID int `url:"-"` // ID of the page; required

	// The content format to be returned in the body field of the response.  Valid values:
	// storage, atlas_doc_format, view, export_view, anonymous_export_view
	BodyFormat string `url:"body-format,omitempty"`
	GetDraft   bool   `url:"get-draft,omitempty"`
	Version    int    `url:"version,omitempty"` // retrieve a previously published version
}

// GetChildrenQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v2/api-group-children/#api-pages-id-children-get
type GetChildrenQuery struct {
	ID int `url:"-"` // ID of the parent page; required

	Sort string `url:"sort,omitempty"` // id, -id, created-date, -created-date, child-position...

	// 'Cursor' is used for pagination; this opaque cursor will be returned in the
	// '_links.next' URL of the previous response.
	Cursor string `url:"cursor,omitempty"`
	Limit  int    `url:"limit,omitempty"` // page limit; default 25, range 1-250
}

// GetAttachmentsQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v2/api-group-attachment/#api-pages-id-attachments-get
type GetAttachmentsQuery struct {
	ID int `url:"-"` // ID of the owning page; required

	Status    []string `url:"status,omitempty,comma"` // current, archived, trashed
	MediaType string   `url:"mediaType,omitempty"`
	Filename  string   `url:"filename,omitempty"`

	Cursor string `url:"cursor,omitempty"`
	Limit  int    `url:"limit,omitempty"`
}

// RenderPreviewQuery names a diagram macro whose rendered PNG preview we want.
type RenderPreviewQuery struct {
	PageID      int    `url:"pageId"`
	DiagramName string `url:"diagramName"`
}
