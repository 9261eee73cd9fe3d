package export

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/toothbrush/confluence-export/confluence"
)

// Walker drives the export of a whole page tree.  Traversal is sequential, depth-first,
// children in the order the API reports them; the shared pool is threaded through every
// page so siblings and cousins reuse each other's downloads.
type Walker struct {
	API     *confluence.API
	Options Options
	Logger  *log.Logger

	pool     *Pool
	exporter *Exporter

	progress *mpb.Progress
	bar      *mpb.Bar
	total    int64
}

func NewWalker(api *confluence.API, opts Options, logger *log.Logger) *Walker {
	pool := NewPool()
	return &Walker{
		API:     api,
		Options: opts,
		Logger:  logger,
		pool:    pool,
		exporter: &Exporter{
			API:     api,
			Pool:    pool,
			Options: opts,
			Logger:  logger,
		},
	}
}

// Walk exports the tree rooted at rootPageID and returns the resulting node tree plus a
// summary of what happened.  Only filesystem failures abort the run; everything else is
// recorded on the tree and the walk carries on.
func (w *Walker) Walk(ctx context.Context, rootPageID string) (*ExportNode, *Summary, error) {
	if w.Options.Progress {
		w.progress = mpb.New(mpb.WithWidth(64))
		w.bar = w.progress.AddBar(0,
			mpb.PrependDecorators(
				decor.Name("pages:", decor.WC{C: decor.DindentRight | decor.DextraSpace}),
			),
			mpb.AppendDecorators(
				decor.CountersNoUnit("(%d/%d) "),
				decor.NewPercentage("%d"),
			),
		)
	}
	w.addWork(1)

	root, err := w.walkPage(ctx, rootPageID, "", nil)
	if err != nil {
		return nil, nil, fmt.Errorf("export: walk failed: %w", err)
	}

	if w.progress != nil {
		w.bar.SetTotal(w.total, true)
		w.progress.Wait()
	}

	return root, Summarize(root), nil
}

func (w *Walker) walkPage(ctx context.Context, pageID string, parentFolder RelativePath, ancestorTitles []string) (*ExportNode, error) {
	page, err := w.API.RetrievePage(ctx, pageID)
	if err != nil {
		// fatal for this subtree only; siblings carry on.
		w.Logger.Error("couldn't fetch page, pruning its subtree", "id", pageID, "err", err)
		w.pageDone()
		return &ExportNode{
			ID:       ContentID(pageID),
			FetchErr: err,
		}, nil
	}

	w.Logger.Info("exporting", "id", page.ID, "title", page.Title)

	node, err := w.exporter.ExportPage(ctx, page, parentFolder, ancestorTitles)
	if err != nil {
		// filesystem trouble: abort the whole run.
		return nil, err
	}
	w.pageDone()

	if !w.Options.Recursive || node.FetchErr != nil {
		return node, nil
	}

	children, err := w.API.ListChildren(ctx, pageID)
	if err != nil {
		w.Logger.Error("couldn't list children, subtree incomplete", "id", pageID, "err", err)
		node.ChildrenErr = err
		return node, nil
	}
	w.addWork(int64(len(children)))

	// a skipped page creates no folder; its children slot in under the grandparent.
	childParent := node.Folder
	if node.Skipped {
		childParent = parentFolder
	}
	childAncestors := append(append([]string{}, ancestorTitles...), page.Title)

	for _, child := range children {
		childNode, err := w.walkPage(ctx, child.ID, childParent, childAncestors)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, childNode)
	}

	return node, nil
}

func (w *Walker) addWork(n int64) {
	w.total += n
	if w.bar != nil {
		w.bar.SetTotal(w.total, false)
	}
}

func (w *Walker) pageDone() {
	if w.bar != nil {
		w.bar.Increment()
	}
}
