package export

import (
	"github.com/toothbrush/confluence-export/confluence"
)

// ContentID is a Confluence object ID.
type ContentID string

// RelativePath is a path relative to the export root.
type RelativePath string

// Format selects what the primary output file looks like.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

func (f Format) Filename() string {
	switch f {
	case FormatHTML:
		return "page.html"
	case FormatJSON:
		return "page.json"
	default:
		return "page.md"
	}
}

// Options is the configuration surface the CLI hands to the exporter.  Pure parameters,
// no prompting.
type Options struct {
	OutputRoot     string
	Recursive      bool
	Format         Format
	IncludeImages  bool
	AllAttachments bool
	Debug          bool

	// Workers bounds concurrent attachment downloads within one page.  1 means fully
	// sequential, which is the canonical mode.
	Workers int

	// Progress draws an mpb progress bar on the terminal.  Off in tests.
	Progress bool
}

// MediaKind tags what sort of thing a media reference points at.
type MediaKind int

const (
	MediaImage MediaKind = iota
	MediaFile
	MediaDiagram
)

func (k MediaKind) String() string {
	switch k {
	case MediaFile:
		return "file"
	case MediaDiagram:
		return "diagram"
	default:
		return "image"
	}
}

// MediaReference is one in-body pointer discovered during conversion: an inline image, an
// attachment link, or a diagram macro that needs a rendered preview.  The Token appears
// exactly once in each converted rendition and is substituted after resolution.
type MediaReference struct {
	Kind MediaKind

	// Filename as it appears in the markup (ri:filename), or "<name>.png" for diagrams.
	Filename string

	// DiagramName is set for MediaDiagram refs only.
	DiagramName string

	// AltText from the markup, used when rewriting image constructs.
	AltText string

	// Token is the unique placeholder the converter embedded in its output.
	Token string

	// Outcome is filled in by the resolver.
	Outcome Resolution
}

// ResolutionState is the tri-state result of attempting to materialize a reference.
type ResolutionState int

const (
	Unresolved ResolutionState = iota
	Resolved
	NotFound
	FetchFailed
)

func (s ResolutionState) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case NotFound:
		return "not-found"
	case FetchFailed:
		return "fetch-error"
	default:
		return "unresolved"
	}
}

// Resolution records how a media reference resolution went.
type Resolution struct {
	State ResolutionState

	// LocalPath is relative to the page's output folder; only set when State == Resolved.
	LocalPath string

	// Err holds the failure detail for FetchFailed.
	Err error
}

// ExportNode is the per-page result record.  The tree of nodes mirrors the page tree and
// is what Walk hands back to the caller.
type ExportNode struct {
	ID    ContentID
	Title string

	// Folder is the node's directory relative to the export root; empty for skipped or
	// failed nodes.
	Folder RelativePath

	// Files written for this page (primary output plus any debug side output).
	Files []RelativePath

	Media []MediaReference

	// ConversionWarnings records constructs that degraded to plain text.
	ConversionWarnings []string

	Skipped bool

	// FetchErr is set when the page itself couldn't be fetched; the subtree below it was
	// not explored.
	FetchErr error

	// ChildrenErr is set when the page exported fine but its children couldn't be
	// listed, so the subtree below it is incomplete.
	ChildrenErr error

	Children []*ExportNode
}

// pageContext carries what the converter and resolver need to know about the page being
// worked on.
type pageContext struct {
	Page *confluence.Page

	// Folder of this page relative to the export root.
	Folder RelativePath

	// AncestorTitles from the export root down to (excluding) this page.
	AncestorTitles []string
}

// ExportDocument is the JSON-format output payload.  It keeps enough structure for
// round-trip use.
type ExportDocument struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Ancestry []string `json:"ancestry,omitempty"`
	Version  int      `json:"version,omitempty"`
	Body     string   `json:"body"`

	Attachments []DocumentAttachment `json:"attachments,omitempty"`
}

type DocumentAttachment struct {
	Filename  string `json:"filename"`
	Kind      string `json:"kind"`
	LocalPath string `json:"localPath,omitempty"`
	State     string `json:"state"`
}
