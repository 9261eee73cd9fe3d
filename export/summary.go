package export

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// BrokenLink records one media reference that didn't resolve.
type BrokenLink struct {
	PageID   ContentID
	Filename string
	Detail   string
}

// SubtreeFailure records a page whose fetch (or child listing) failed.
type SubtreeFailure struct {
	PageID ContentID
	Err    error
}

// Summary is what the run reports when it's done, so a partial export is never silently
// presented as complete.
type Summary struct {
	Exported int
	Skipped  []ContentID

	BrokenLinks []BrokenLink
	Failures    []SubtreeFailure
}

// Complete reports whether the export finished without losing anything.
func (s *Summary) Complete() bool {
	return len(s.BrokenLinks) == 0 && len(s.Failures) == 0
}

// Summarize collects the run outcome from a finished export tree.
func Summarize(root *ExportNode) *Summary {
	s := &Summary{}
	s.visit(root)
	return s
}

func (s *Summary) visit(node *ExportNode) {
	if node == nil {
		return
	}

	switch {
	case node.FetchErr != nil:
		s.Failures = append(s.Failures, SubtreeFailure{PageID: node.ID, Err: node.FetchErr})
	case node.Skipped:
		s.Skipped = append(s.Skipped, node.ID)
	default:
		s.Exported++
	}

	if node.ChildrenErr != nil {
		s.Failures = append(s.Failures, SubtreeFailure{
			PageID: node.ID,
			Err:    fmt.Errorf("export: couldn't list children: %w", node.ChildrenErr),
		})
	}

	for _, ref := range node.Media {
		switch ref.Outcome.State {
		case NotFound:
			s.BrokenLinks = append(s.BrokenLinks, BrokenLink{
				PageID:   node.ID,
				Filename: ref.Filename,
				Detail:   "not found",
			})
		case FetchFailed:
			detail := "fetch error"
			if ref.Outcome.Err != nil {
				detail = ref.Outcome.Err.Error()
			}
			s.BrokenLinks = append(s.BrokenLinks, BrokenLink{
				PageID:   node.ID,
				Filename: ref.Filename,
				Detail:   detail,
			})
		}
	}

	for _, child := range node.Children {
		s.visit(child)
	}
}

// Log writes the post-run report.
func (s *Summary) Log(logger *log.Logger) {
	logger.Info("export finished",
		"exported", s.Exported,
		"skipped", len(s.Skipped),
		"broken_links", len(s.BrokenLinks),
		"failed_subtrees", len(s.Failures))

	for _, id := range s.Skipped {
		logger.Info("skipped empty page", "id", id)
	}
	for _, link := range s.BrokenLinks {
		logger.Warn("broken link in output", "page", link.PageID, "filename", link.Filename, "detail", link.Detail)
	}
	for _, failure := range s.Failures {
		logger.Error("subtree failed", "page", failure.PageID, "err", failure.Err)
	}

	if !s.Complete() {
		logger.Warn("export is PARTIAL; see failures above")
	}
}
