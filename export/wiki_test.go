package export

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/toothbrush/confluence-export/confluence"
)

// fakePage is one page served by the fake wiki.
type fakePage struct {
	Title    string
	Body     string
	Children []string
}

// fakeWiki is an httptest-backed stand-in for a Confluence instance.
type fakeWiki struct {
	pages       map[string]fakePage
	attachments map[string][]confluence.Attachment
	files       map[string][]byte // downloadLink -> bytes

	missingPages    map[string]bool
	children404     map[string]bool
	attachments404  map[string]bool
	renderFails     bool
	renderPNG       []byte
	fileDownloads   int32
	renderDownloads int32

	server *httptest.Server
}

func newFakeWiki() *fakeWiki {
	w := &fakeWiki{
		pages:          map[string]fakePage{},
		attachments:    map[string][]confluence.Attachment{},
		files:          map[string][]byte{},
		missingPages:   map[string]bool{},
		children404:    map[string]bool{},
		attachments404: map[string]bool{},
		renderPNG:      []byte("png-bytes"),
	}
	w.server = httptest.NewServer(w)
	return w
}

func (w *fakeWiki) Close() { w.server.Close() }

func (w *fakeWiki) downloads() int {
	return int(atomic.LoadInt32(&w.fileDownloads))
}

func (w *fakeWiki) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/wiki/rest/api/user/current":
		writeJSON(rw, confluence.User{DisplayName: "Test User"})

	case strings.HasPrefix(path, "/wiki/api/v2/pages/"):
		rest := strings.TrimPrefix(path, "/wiki/api/v2/pages/")
		parts := strings.Split(rest, "/")
		id := parts[0]

		if w.missingPages[id] {
			http.NotFound(rw, r)
			return
		}
		page, ok := w.pages[id]
		if !ok && !(len(parts) == 2 && parts[1] == "attachments") {
			http.NotFound(rw, r)
			return
		}

		if len(parts) == 1 {
			writeJSON(rw, map[string]any{
				"id":    id,
				"title": page.Title,
				"body": map[string]any{
					"storage": map[string]any{
						"representation": "storage",
						"value":          page.Body,
					},
				},
				"version": map[string]any{"number": 1},
			})
			return
		}

		switch parts[1] {
		case "children":
			if w.children404[id] {
				http.NotFound(rw, r)
				return
			}
			results := []map[string]any{}
			for _, childID := range page.Children {
				results = append(results, map[string]any{
					"id":    childID,
					"title": w.pages[childID].Title,
				})
			}
			writeJSON(rw, map[string]any{"results": results, "_links": map[string]any{}})

		case "attachments":
			if w.attachments404[id] {
				http.NotFound(rw, r)
				return
			}
			writeJSON(rw, map[string]any{"results": w.attachments[id], "_links": map[string]any{}})

		default:
			http.NotFound(rw, r)
		}

	case strings.HasPrefix(path, "/wiki/download/"):
		link := strings.TrimPrefix(path, "/wiki")
		data, ok := w.files[link]
		if !ok {
			http.NotFound(rw, r)
			return
		}
		atomic.AddInt32(&w.fileDownloads, 1)
		rw.Write(data)

	case path == "/wiki/plugins/drawio/previewImage.action":
		atomic.AddInt32(&w.renderDownloads, 1)
		if w.renderFails {
			http.Error(rw, "render broke", http.StatusInternalServerError)
			return
		}
		rw.Write(w.renderPNG)

	default:
		http.NotFound(rw, r)
	}
}

func writeJSON(rw http.ResponseWriter, v any) {
	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(v)
}

func (w *fakeWiki) api(t *testing.T) *confluence.API {
	t.Helper()
	base, err := url.Parse(w.server.URL + "/wiki")
	if err != nil {
		t.Fatalf("couldn't parse fake wiki URL: %v", err)
	}
	return &confluence.API{
		BaseURI: base,
		Client:  w.server.Client(),
	}
}

// addAttachment registers an attachment with backing bytes on a page.
func (w *fakeWiki) addAttachment(pageID, filename string, data []byte) {
	link := fmt.Sprintf("/download/attachments/%s/%s", pageID, filename)
	w.attachments[pageID] = append(w.attachments[pageID], confluence.Attachment{
		ID:           fmt.Sprintf("att-%s-%s", pageID, filename),
		Title:        filename,
		PageID:       pageID,
		MediaType:    "image/png",
		DownloadLink: link,
	})
	w.files[link] = data
}

func testLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{Level: log.ErrorLevel})
}

func testOptions(root string) Options {
	return Options{
		OutputRoot:    root,
		Format:        FormatMarkdown,
		IncludeImages: true,
		Workers:       1,
	}
}

func testPageContext(id, title string, folder RelativePath) pageContext {
	return pageContext{
		Page:   &confluence.Page{ID: id, Title: title},
		Folder: folder,
	}
}
