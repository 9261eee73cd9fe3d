package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"path"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/toothbrush/confluence-export/confluence"
)

// Exporter turns one fetched page into files on disk.  All exporters of a run share the
// same Pool; everything else here is read-only during the run.
type Exporter struct {
	API     *confluence.API
	Pool    *Pool
	Options Options
	Logger  *log.Logger
}

// markdownHeader is the YAML front matter prepended to Markdown output.
type markdownHeader struct {
	Title         string   `yaml:"title"`
	ObjectID      string   `yaml:"object_id"`
	Version       int      `yaml:"version,omitempty"`
	URI           string   `yaml:"uri,omitempty"`
	AncestorNames []string `yaml:"ancestor_names,omitempty"`
}

// ExportPage exports a single page into its own folder beneath parentFolder.  Attachment
// trouble degrades to warnings on the returned node; only filesystem failures come back
// as an error, because those mean the run can't continue.
func (e *Exporter) ExportPage(ctx context.Context, page *confluence.Page, parentFolder RelativePath, ancestorTitles []string) (*ExportNode, error) {
	node := &ExportNode{
		ID:    ContentID(page.ID),
		Title: page.Title,
	}

	body := page.Body.Storage.Value

	if IsBodyEmpty(body) {
		e.Logger.Info("skipping empty page", "id", page.ID, "title", page.Title)
		node.Skipped = true
		return node, nil
	}

	folder := RelativePath(path.Join(string(parentFolder), folderName(page.Title, node.ID)))
	node.Folder = folder

	pc := pageContext{
		Page:           page,
		Folder:         folder,
		AncestorTitles: ancestorTitles,
	}

	conv, err := Convert(body, pc)
	if err != nil {
		// conversion blowing up entirely is page-fatal, like a failed fetch.
		node.FetchErr = err
		return node, nil
	}
	node.ConversionWarnings = conv.Warnings

	listing := e.fetchListing(ctx, page, node)

	resolver := &Resolver{
		API:        e.API,
		Pool:       e.Pool,
		OutputRoot: e.Options.OutputRoot,
		Logger:     e.Logger,
	}

	for i := range conv.Media {
		ref := &conv.Media[i]
		if !e.Options.IncludeImages && (ref.Kind == MediaImage || ref.Kind == MediaDiagram) {
			// leave the reference broken-but-visible, don't count it against the run.
			continue
		}
		ref.Outcome = resolver.Resolve(ctx, *ref, pc, listing)
	}
	node.Media = conv.Media

	if e.Options.AllAttachments {
		referenced := make(map[string]bool, len(conv.Media))
		for _, ref := range conv.Media {
			referenced[ref.Filename] = true
		}
		extra := resolver.ResolveAll(ctx, pc, listing, referenced, e.Options.Workers)
		node.Media = append(node.Media, extra...)
	}

	output, err := e.renderOutput(page, conv, ancestorTitles)
	if err != nil {
		node.FetchErr = err
		return node, nil
	}

	primary := RelativePath(path.Join(string(folder), e.Options.Format.Filename()))
	if err := writeFileInto(e.Options.OutputRoot, primary, output); err != nil {
		return nil, err
	}
	node.Files = append(node.Files, primary)

	if e.Options.Debug {
		raw := RelativePath(path.Join(string(folder), "raw_body.xml"))
		if err := writeFileInto(e.Options.OutputRoot, raw, []byte(body)); err != nil {
			return nil, err
		}
		node.Files = append(node.Files, raw)
	}

	return node, nil
}

// fetchListing grabs the page's attachment listing, keyed by filename.  A missing or
// forbidden listing downgrades to an empty one; the pool fallback may still save us.
func (e *Exporter) fetchListing(ctx context.Context, page *confluence.Page, node *ExportNode) map[string]confluence.Attachment {
	if !e.Options.IncludeImages && !e.Options.AllAttachments {
		return map[string]confluence.Attachment{}
	}

	attachments, err := e.API.ListAttachments(ctx, page.ID)
	if err != nil {
		if errors.Is(err, confluence.ErrNotFound) {
			e.Logger.Warn("couldn't list attachments", "page", page.ID, "err", err)
		} else {
			e.Logger.Warn("attachment listing failed, continuing without", "page", page.ID, "err", err)
		}
		return map[string]confluence.Attachment{}
	}

	listing := make(map[string]confluence.Attachment, len(attachments))
	for _, att := range attachments {
		listing[att.Title] = att
	}
	return listing
}

// renderOutput produces the primary output file contents, with all media tokens
// substituted according to their resolution outcome.
func (e *Exporter) renderOutput(page *confluence.Page, conv *Conversion, ancestorTitles []string) ([]byte, error) {
	switch e.Options.Format {
	case FormatHTML:
		rendered := substituteTokens(conv.HTML, conv.Media, FormatHTML)
		doc := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body>
<h1>%s</h1>
%s
</body>
</html>
`, html.EscapeString(page.Title), html.EscapeString(page.Title), rendered)
		return []byte(doc), nil

	case FormatJSON:
		doc := ExportDocument{
			ID:       page.ID,
			Title:    page.Title,
			Ancestry: ancestorTitles,
			Body:     substituteTokens(conv.Markdown, conv.Media, FormatJSON),
		}
		if page.Version != nil {
			doc.Version = page.Version.Number
		}
		for _, ref := range conv.Media {
			doc.Attachments = append(doc.Attachments, DocumentAttachment{
				Filename:  ref.Filename,
				Kind:      ref.Kind.String(),
				LocalPath: ref.Outcome.LocalPath,
				State:     ref.Outcome.State.String(),
			})
		}
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("export: couldn't marshal JSON output for page %s: %w", page.ID, err)
		}
		return append(out, '\n'), nil

	default:
		header := markdownHeader{
			Title:         page.Title,
			ObjectID:      page.ID,
			AncestorNames: ancestorTitles,
		}
		if page.Version != nil {
			header.Version = page.Version.Number
		}
		if page.Links.WebUI != "" {
			header.URI = e.API.BaseURI.String() + page.Links.WebUI
		}

		yamlHeader, err := yaml.Marshal(header)
		if err != nil {
			return nil, fmt.Errorf("export: couldn't marshal header YAML: %w", err)
		}

		rendered := substituteTokens(conv.Markdown, conv.Media, FormatMarkdown)
		body := fmt.Sprintf("---\n%s\n---\n# %s\n\n%s\n",
			strings.TrimSpace(string(yamlHeader)),
			page.Title,
			strings.TrimSpace(rendered))
		return []byte(body), nil
	}
}

// substituteTokens rewrites every media token exactly once.  Resolved references get
// their local path; unresolved ones keep the original filename so the link stays visible;
// a diagram that couldn't be rendered is replaced by a textual placeholder rather than a
// broken image tag.
func substituteTokens(text string, media []MediaReference, format Format) string {
	for _, ref := range media {
		if ref.Token == "" {
			continue
		}

		switch {
		case ref.Outcome.State == Resolved:
			text = strings.Replace(text, ref.Token, ref.Outcome.LocalPath, 1)

		case ref.Kind == MediaDiagram && ref.Outcome.State == FetchFailed:
			placeholder := fmt.Sprintf("(diagram %q could not be rendered)", ref.DiagramName)
			if format == FormatHTML {
				text = replaceImageConstruct(text, ref.Token, "<em>"+html.EscapeString(placeholder)+"</em>")
			} else {
				text = replaceImageConstruct(text, ref.Token, "*"+placeholder+"*")
			}

		default:
			text = strings.Replace(text, ref.Token, ref.Filename, 1)
		}
	}
	return text
}

// replaceImageConstruct swaps out the whole image expression containing a token, in
// either Markdown or HTML syntax, falling back to bare-token replacement.
func replaceImageConstruct(text, token, replacement string) string {
	mdImage := regexp.MustCompile(`!\[[^\]]*\]\(` + regexp.QuoteMeta(token) + `\)`)
	if mdImage.MatchString(text) {
		return mdImage.ReplaceAllLiteralString(text, replacement)
	}

	htmlImage := regexp.MustCompile(`<img[^>]*` + regexp.QuoteMeta(token) + `[^>]*/?>`)
	if htmlImage.MatchString(text) {
		return htmlImage.ReplaceAllLiteralString(text, replacement)
	}

	return strings.Replace(text, token, replacement, 1)
}
