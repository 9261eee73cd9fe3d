package confluence

// See https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-users/#api-wiki-rest-api-user-get
type User struct {
	Type        string `json:"type"`
	Username    string `json:"username"`
	UserKey     string `json:"userKey"`
	AccountID   string `json:"accountId"`
	AccountType string `json:"accountType"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// See https://developer.atlassian.com/cloud/confluence/rest/v2/api-group-page/#api-pages-id-get.
// We only keep the fields the export pipeline actually consumes.
type Page struct {
	ID         string `json:"id,omitempty"`
	Status     string `json:"status,omitempty"` // current, archived, deleted, trashed
	Title      string `json:"title,omitempty"`
	SpaceID    string `json:"spaceId,omitempty"`
	ParentID   string `json:"parentId,omitempty"`
	ParentType string `json:"parentType,omitempty"`
	Position   int    `json:"position,omitempty"`
	AuthorID   string `json:"authorId,omitempty"`

	CreatedAt string   `json:"createdAt,omitempty"`
	Version   *Version `json:"version,omitempty"`

	Body Body `json:"body"`

	Links struct {
		WebUI  string `json:"webui"`
		EditUI string `json:"editui"`
		TinyUI string `json:"tinyui"`
	} `json:"_links"`
}

// Attachment describes one file hanging off a page.  See
// https://developer.atlassian.com/cloud/confluence/rest/v2/api-group-attachment/#api-pages-id-attachments-get
type Attachment struct {
	ID        string `json:"id,omitempty"`
	Status    string `json:"status,omitempty"`
	Title     string `json:"title,omitempty"` // this is the filename
	PageID    string `json:"pageId,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
	FileSize  int64  `json:"fileSize,omitempty"`

	// Relative to the /wiki base, e.g. /download/attachments/123/foo.png?...
	DownloadLink string `json:"downloadLink,omitempty"`

	WebuiLink string `json:"webuiLink,omitempty"`
}

// Version defines the content version number
type Version struct {
	CreatedAt string `json:"createdAt"`
	Message   string `json:"message,omitempty"`
	Number    int    `json:"number"`
	MinorEdit bool   `json:"minorEdit"`
	AuthorID  string `json:"authorId,omitempty"`
}

// Body holds the page body in whichever representations were requested
type Body struct {
	Storage        Storage  `json:"storage"`
	AtlasDocFormat *Storage `json:"atlas_doc_format,omitempty"`
	View           *Storage `json:"view,omitempty"`
}

// Storage defines one body representation
type Storage struct {
	Representation string `json:"representation"`
	Value          string `json:"value"`
}
