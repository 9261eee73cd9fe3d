package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	mdplugin "github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
)

// Conversion is the outcome of converting one page body.  Both renditions still contain
// the media tokens; the exporter substitutes resolved paths once resolution is done.
type Conversion struct {
	// Markdown rendition, GitHub flavoured.
	Markdown string

	// HTML rendition: the storage markup with every macro rewritten to plain HTML.
	HTML string

	Media []MediaReference

	// Warnings lists constructs that degraded to plain text instead of converting.
	Warnings []string
}

// Convert transforms a page's storage-format body.  Macros it knows about (code, drawio)
// convert to their structural equivalent; inline images and attachment links become
// media references carrying a placeholder token; anything else it doesn't recognise
// degrades to its text rendition.  A malformed construct never fails the page.
func Convert(body string, pc pageContext) (*Conversion, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(unwrapCDATA(body)))
	if err != nil {
		return nil, fmt.Errorf("export: couldn't parse storage body of page %s: %w", pc.Page.ID, err)
	}

	conv := &Conversion{}
	refs := newRefAllocator(pc)

	rewriteMacros(doc, refs, conv)
	rewriteImages(doc, refs, conv)
	rewriteLinks(doc, refs, conv)
	stripLeftoverMarkup(doc, conv)

	rewritten, err := doc.Find("body").Html()
	if err != nil {
		return nil, fmt.Errorf("export: couldn't serialize rewritten body of page %s: %w", pc.Page.ID, err)
	}
	conv.HTML = rewritten

	converter := md.NewConverter("", true, nil)
	// Github flavoured Markdown knows about tables 👍
	converter.Use(mdplugin.GitHubFlavored())

	markdown, err := converter.ConvertString(rewritten)
	if err != nil {
		return nil, fmt.Errorf("export: failed to convert page %s to Markdown: %w", pc.Page.ID, err)
	}
	conv.Markdown = markdown
	conv.Media = refs.refs

	return conv, nil
}

// IsBodyEmpty reports whether a storage body is blank once insignificant whitespace and
// markup are stripped.  A body that carries media or macros is never empty, even if it
// has no text.
func IsBodyEmpty(body string) bool {
	if strings.TrimSpace(body) == "" {
		return true
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(unwrapCDATA(body)))
	if err != nil {
		// unparseable isn't the same as empty; let conversion have a go at it.
		return false
	}

	if doc.Find(`ac\:image, ri\:attachment, ac\:structured-macro`).Length() > 0 {
		return false
	}

	text := strings.Map(func(r rune) rune {
		if r == '\u00a0' {
			return ' '
		}
		return r
	}, doc.Text())

	return strings.TrimSpace(text) == ""
}

// refAllocator hands out media references with tokens unique within the page.
type refAllocator struct {
	pageID string
	refs   []MediaReference
}

func newRefAllocator(pc pageContext) *refAllocator {
	return &refAllocator{pageID: pc.Page.ID}
}

func (a *refAllocator) add(kind MediaKind, filename, diagramName, alt string) *MediaReference {
	token := fmt.Sprintf("confluence-media-%s-%d", a.pageID, len(a.refs))
	a.refs = append(a.refs, MediaReference{
		Kind:        kind,
		Filename:    filename,
		DiagramName: diagramName,
		AltText:     alt,
		Token:       token,
	})
	return &a.refs[len(a.refs)-1]
}

// rewriteMacros dispatches on ac:structured-macro's ac:name.  Known macros convert
// structurally; everything else falls into the render-as-plain-text arm.
func rewriteMacros(doc *goquery.Document, refs *refAllocator, conv *Conversion) {
	doc.Find(`ac\:structured-macro`).Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("ac:name")

		switch name {
		case "code":
			rewriteCodeMacro(s)

		case "drawio", "inc-drawio":
			diagramName := macroParameter(s, "diagramName")
			if diagramName == "" {
				conv.Warnings = append(conv.Warnings, "drawio macro without diagramName degraded to text")
				s.ReplaceWithHtml(escapedText(s))
				return
			}
			ref := refs.add(MediaDiagram, diagramName+".png", diagramName, diagramName)
			s.ReplaceWithHtml(fmt.Sprintf(`<img src="%s" alt="%s"/>`, ref.Token, html.EscapeString(diagramName)))

		default:
			// unknown macro: degrade to its rich-text body if it has one, else to its
			// bare text.
			if rich := s.Find(`ac\:rich-text-body`); rich.Length() > 0 {
				inner, err := rich.Html()
				if err == nil {
					s.ReplaceWithHtml(inner)
					conv.Warnings = append(conv.Warnings, fmt.Sprintf("macro %q degraded to its body text", name))
					return
				}
			}
			conv.Warnings = append(conv.Warnings, fmt.Sprintf("macro %q degraded to plain text", name))
			s.ReplaceWithHtml(escapedText(s))
		}
	})
}

func rewriteCodeMacro(s *goquery.Selection) {
	language := macroParameter(s, "language")
	code := s.Find(`ac\:plain-text-body`).Text()
	if code == "" {
		code = s.Text()
	}

	class := ""
	if language != "" {
		class = fmt.Sprintf(` class="language-%s"`, html.EscapeString(language))
	}

	s.ReplaceWithHtml(fmt.Sprintf("<pre><code%s>%s</code></pre>", class, html.EscapeString(code)))
}

// rewriteImages turns ac:image elements into plain <img> tags.  Attachment-backed images
// get a media reference token for later resolution; external ri:url images stay remote.
func rewriteImages(doc *goquery.Document, refs *refAllocator, conv *Conversion) {
	doc.Find(`ac\:image`).Each(func(_ int, s *goquery.Selection) {
		alt, _ := s.Attr("ac:alt")

		if att := s.Find(`ri\:attachment`); att.Length() > 0 {
			filename, _ := att.Attr("ri:filename")
			if filename == "" {
				conv.Warnings = append(conv.Warnings, "image attachment without filename dropped")
				s.Remove()
				return
			}
			ref := refs.add(MediaImage, filename, "", alt)
			s.ReplaceWithHtml(fmt.Sprintf(`<img src="%s" alt="%s"/>`, ref.Token, html.EscapeString(alt)))
			return
		}

		if ext := s.Find(`ri\:url`); ext.Length() > 0 {
			if value, ok := ext.Attr("ri:value"); ok && value != "" {
				s.ReplaceWithHtml(fmt.Sprintf(`<img src="%s" alt="%s"/>`, html.EscapeString(value), html.EscapeString(alt)))
				return
			}
		}

		conv.Warnings = append(conv.Warnings, "image without resource identifier dropped")
		s.Remove()
	})
}

// rewriteLinks turns ac:link elements into plain anchors.  Attachment links become media
// references; page links keep their label as text (the target lives on the remote wiki).
func rewriteLinks(doc *goquery.Document, refs *refAllocator, conv *Conversion) {
	doc.Find(`ac\:link`).Each(func(_ int, s *goquery.Selection) {
		label := strings.TrimSpace(s.Find(`ac\:plain-text-link-body`).Text())
		if label == "" {
			label = strings.TrimSpace(s.Find(`ac\:link-body`).Text())
		}

		if att := s.Find(`ri\:attachment`); att.Length() > 0 {
			filename, _ := att.Attr("ri:filename")
			if filename == "" {
				s.ReplaceWithHtml(html.EscapeString(label))
				return
			}
			if label == "" {
				label = filename
			}
			ref := refs.add(MediaFile, filename, "", label)
			s.ReplaceWithHtml(fmt.Sprintf(`<a href="%s">%s</a>`, ref.Token, html.EscapeString(label)))
			return
		}

		if page := s.Find(`ri\:page`); page.Length() > 0 {
			if label == "" {
				label, _ = page.Attr("ri:content-title")
			}
			// page links point back into the wiki; the export is self-contained, so keep
			// just the label.
			s.ReplaceWithHtml(html.EscapeString(label))
			return
		}

		s.ReplaceWithHtml(html.EscapeString(label))
	})
}

// stripLeftoverMarkup degrades any remaining ac:/ri: element to its text content, so no
// macro syntax survives into the output.
func stripLeftoverMarkup(doc *goquery.Document, conv *Conversion) {
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		if strings.HasPrefix(name, "ac:") || strings.HasPrefix(name, "ri:") {
			conv.Warnings = append(conv.Warnings, fmt.Sprintf("unsupported element %q degraded to plain text", name))
			s.ReplaceWithHtml(escapedText(s))
		}
	})
}

func macroParameter(s *goquery.Selection, name string) string {
	value := ""
	s.Find(`ac\:parameter`).EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if n, _ := p.Attr("ac:name"); n == name {
			value = strings.TrimSpace(p.Text())
			return false
		}
		return true
	})
	return value
}

func escapedText(s *goquery.Selection) string {
	return html.EscapeString(strings.TrimSpace(s.Text()))
}

var cdataRe = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)

// unwrapCDATA replaces CDATA sections with escaped text before parsing.  The HTML parser
// would otherwise treat them as comments and their content would vanish.
func unwrapCDATA(body string) string {
	return cdataRe.ReplaceAllStringFunc(body, func(m string) string {
		inner := cdataRe.FindStringSubmatch(m)[1]
		return html.EscapeString(inner)
	})
}
