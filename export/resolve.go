package export

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/toothbrush/confluence-export/confluence"
)

// Resolver materializes media references to local files, going through the shared pool so
// an asset seen on several pages is fetched from the wiki exactly once.
type Resolver struct {
	API        *confluence.API
	Pool       *Pool
	OutputRoot string
	Logger     *log.Logger
}

// Resolve works through the ordered lookup chain for one reference:
//
//  1. the current page's attachment listing (download on match, pool-deduplicated),
//  2. for diagrams, the macro preview rendering endpoint,
//  3. the cross-page pool, by filename,
//  4. give up with NotFound.
//
// Download failures downgrade to FetchFailed; they never abort the page.  The returned
// LocalPath is relative to the page's output folder.
func (r *Resolver) Resolve(ctx context.Context, ref MediaReference, pc pageContext, listing map[string]confluence.Attachment) Resolution {
	att, inListing := listing[ref.Filename]

	var fetchErr error

	if inListing || ref.Kind == MediaDiagram {
		fetch := func() (RelativePath, error) {
			var data []byte
			var err error

			if inListing {
				data, err = r.API.DownloadAttachment(ctx, att.DownloadLink)
			}
			if ref.Kind == MediaDiagram && (!inListing || err != nil) {
				// no stored preview attachment, or the stored one let us down: ask the
				// rendering endpoint before giving up on the diagram.
				if err != nil {
					r.Logger.Warn("stored preview download failed, rendering instead",
						"diagram", ref.DiagramName, "page", pc.Page.ID, "err", err)
				}
				data, err = r.renderDiagram(ctx, ref, pc)
			}
			if err != nil {
				return "", err
			}

			// identical bytes may already be on disk under another filename; point at
			// those instead of writing a duplicate copy.
			if rel, ok := r.Pool.Get(HashKey(data)); ok {
				return rel, nil
			}

			rel := RelativePath(path.Join(string(pc.Folder), "images", sanitizeFilename(ref.Filename)))
			if err := writeFileInto(r.OutputRoot, rel, data); err != nil {
				return "", err
			}

			r.Pool.Put(HashKey(data), rel)
			return rel, nil
		}

		rel, hit, err := r.Pool.Materialize(FilenameKey(ref.Filename), fetch)
		if err == nil {
			if hit {
				r.Logger.Debug("pool hit", "filename", ref.Filename, "page", pc.Page.ID)
			}
			local, lerr := relativeTo(pc.Folder, rel)
			if lerr != nil {
				return Resolution{State: FetchFailed, Err: lerr}
			}
			return Resolution{State: Resolved, LocalPath: local}
		}

		fetchErr = err
		r.Logger.Warn("couldn't fetch media, trying pool fallback",
			"filename", ref.Filename, "page", pc.Page.ID, "err", err)
	}

	// Cross-page fallback: the same asset may have been materialized while exporting an
	// earlier page, even though this page's own listing let us down.
	if rel, ok := r.Pool.Get(FilenameKey(ref.Filename)); ok {
		local, lerr := relativeTo(pc.Folder, rel)
		if lerr == nil {
			return Resolution{State: Resolved, LocalPath: local}
		}
	}

	if fetchErr != nil {
		return Resolution{State: FetchFailed, Err: fetchErr}
	}
	return Resolution{State: NotFound}
}

func (r *Resolver) renderDiagram(ctx context.Context, ref MediaReference, pc pageContext) ([]byte, error) {
	id, err := strconv.Atoi(pc.Page.ID)
	if err != nil {
		return nil, fmt.Errorf("export: page id %q was not an int: %w", pc.Page.ID, err)
	}

	data, err := r.API.RenderMacroPreview(ctx, confluence.RenderPreviewQuery{
		PageID:      id,
		DiagramName: ref.DiagramName,
	})
	if err != nil {
		return nil, fmt.Errorf("export: diagram preview failed: %w", err)
	}

	return data, nil
}

// ResolveAll materializes every attachment in a page's listing, referenced or not.  This
// backs the all-attachments mode; workers bounds the fetch concurrency (the pool keeps
// per-key fetches single-flight regardless).
func (r *Resolver) ResolveAll(ctx context.Context, pc pageContext, listing map[string]confluence.Attachment, skip map[string]bool, workers int) []MediaReference {
	if workers < 1 {
		workers = 1
	}

	filenames := make([]string, 0, len(listing))
	for filename := range listing {
		if skip[filename] {
			continue
		}
		filenames = append(filenames, filename)
	}
	// map order is no order; sort so runs are reproducible
	slices.Sort(filenames)

	extra := make([]MediaReference, 0, len(filenames))
	for _, filename := range filenames {
		extra = append(extra, MediaReference{
			Kind:     MediaFile,
			Filename: filename,
		})
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)

	for i := range extra {
		i := i
		grp.Go(func() error {
			extra[i].Outcome = r.Resolve(gctx, extra[i], pc, listing)
			// failures are recorded on the reference, never returned: one broken
			// attachment shouldn't sink its siblings.
			return nil
		})
	}

	// workers only report nil
	_ = grp.Wait()

	return extra
}

// relativeTo rewrites a root-relative path so it can be referenced from inside folder.
func relativeTo(folder RelativePath, target RelativePath) (string, error) {
	rel, err := filepath.Rel(string(folder), string(target))
	if err != nil {
		return "", fmt.Errorf("export: couldn't relativize %s against %s: %w", target, folder, err)
	}
	return filepath.ToSlash(rel), nil
}
