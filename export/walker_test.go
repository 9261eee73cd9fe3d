package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWalkExportsWholeTree(t *testing.T) {
	wiki := newFakeWiki()
	defer wiki.Close()

	wiki.pages["1"] = fakePage{
		Title:    "Root",
		Body:     `<p>welcome</p>`,
		Children: []string{"2", "3"},
	}
	wiki.pages["2"] = fakePage{
		Title: "Child A",
		Body:  `<p><ac:image><ri:attachment ri:filename="shared.png"/></ac:image></p>`,
	}
	wiki.pages["3"] = fakePage{
		Title: "Child B",
		Body:  `<p>also <ac:image><ri:attachment ri:filename="shared.png"/></ac:image></p>`,
	}
	wiki.addAttachment("2", "shared.png", []byte("image-bytes"))
	wiki.addAttachment("3", "shared.png", []byte("image-bytes"))

	opts := testOptions(t.TempDir())
	opts.Recursive = true
	w := NewWalker(wiki.api(t), opts, testLogger())

	root, summary, err := w.Walk(context.Background(), "1")
	if err != nil {
		t.Fatalf("Walk errored: %v", err)
	}

	if root.Title != "Root" || len(root.Children) != 2 {
		t.Fatalf("unexpected tree shape: %+v", root)
	}
	if summary.Exported != 3 {
		t.Errorf("expected 3 exported pages, got %d", summary.Exported)
	}
	if !summary.Complete() {
		t.Errorf("expected a complete export: %+v", summary)
	}

	// nesting mirrors the page tree
	for _, rel := range []string{
		"Root_1/page.md",
		"Root_1/Child A_2/page.md",
		"Root_1/Child A_2/images/shared.png",
		"Root_1/Child B_3/page.md",
	} {
		if _, err := os.Stat(filepath.Join(opts.OutputRoot, rel)); err != nil {
			t.Errorf("expected %s to exist: %v", rel, err)
		}
	}

	// the shared image was fetched once and Child B links across to it
	if wiki.downloads() != 1 {
		t.Errorf("expected 1 download for the shared image, got %d", wiki.downloads())
	}
	data, err := os.ReadFile(filepath.Join(opts.OutputRoot, "Root_1", "Child B_3", "page.md"))
	if err != nil {
		t.Fatalf("Child B page.md missing: %v", err)
	}
	if !strings.Contains(string(data), "../Child A_2/images/shared.png") {
		t.Errorf("Child B should link into Child A's images folder:\n%s", data)
	}
}

func TestWalkNonRecursive(t *testing.T) {
	wiki := newFakeWiki()
	defer wiki.Close()

	wiki.pages["1"] = fakePage{Title: "Root", Body: `<p>just me</p>`, Children: []string{"2"}}
	wiki.pages["2"] = fakePage{Title: "Child", Body: `<p>not me</p>`}

	opts := testOptions(t.TempDir())
	opts.Recursive = false
	w := NewWalker(wiki.api(t), opts, testLogger())

	root, summary, err := w.Walk(context.Background(), "1")
	if err != nil {
		t.Fatalf("Walk errored: %v", err)
	}
	if len(root.Children) != 0 {
		t.Errorf("non-recursive walk should not descend")
	}
	if summary.Exported != 1 {
		t.Errorf("expected 1 exported page, got %d", summary.Exported)
	}
	if _, err := os.Stat(filepath.Join(opts.OutputRoot, "Child_2")); !os.IsNotExist(err) {
		t.Errorf("child folder should not exist")
	}
}

func TestWalkPrunesFailedSubtreeOnly(t *testing.T) {
	wiki := newFakeWiki()
	defer wiki.Close()

	wiki.pages["1"] = fakePage{Title: "Root", Body: `<p>root</p>`, Children: []string{"2", "3"}}
	wiki.pages["2"] = fakePage{Title: "Gone", Body: `<p>gone</p>`, Children: []string{"4"}}
	wiki.pages["3"] = fakePage{Title: "Fine", Body: `<p>fine</p>`}
	wiki.pages["4"] = fakePage{Title: "Orphan", Body: `<p>unreachable</p>`}
	wiki.missingPages["2"] = true

	opts := testOptions(t.TempDir())
	opts.Recursive = true
	w := NewWalker(wiki.api(t), opts, testLogger())

	root, summary, err := w.Walk(context.Background(), "1")
	if err != nil {
		t.Fatalf("Walk errored: %v", err)
	}

	if len(root.Children) != 2 {
		t.Fatalf("both children should appear in the tree, got %d", len(root.Children))
	}
	if root.Children[0].FetchErr == nil {
		t.Errorf("failed child should carry its error")
	}
	if len(root.Children[0].Children) != 0 {
		t.Errorf("failed subtree should not have been explored")
	}

	if summary.Exported != 2 {
		t.Errorf("expected root and the healthy sibling, got %d", summary.Exported)
	}
	if len(summary.Failures) != 1 || summary.Failures[0].PageID != "2" {
		t.Errorf("unexpected failures: %+v", summary.Failures)
	}
	if summary.Complete() {
		t.Errorf("a pruned subtree must not look complete")
	}

	if _, err := os.Stat(filepath.Join(opts.OutputRoot, "Root_1", "Fine_3", "page.md")); err != nil {
		t.Errorf("healthy sibling should still be exported: %v", err)
	}
}

func TestWalkSkippedPageChildrenNestUnderGrandparent(t *testing.T) {
	wiki := newFakeWiki()
	defer wiki.Close()

	wiki.pages["1"] = fakePage{Title: "Root", Body: `<p>root</p>`, Children: []string{"2"}}
	wiki.pages["2"] = fakePage{Title: "Placeholder", Body: `<p> </p>`, Children: []string{"3"}}
	wiki.pages["3"] = fakePage{Title: "Grandchild", Body: `<p>content</p>`}

	opts := testOptions(t.TempDir())
	opts.Recursive = true
	w := NewWalker(wiki.api(t), opts, testLogger())

	_, summary, err := w.Walk(context.Background(), "1")
	if err != nil {
		t.Fatalf("Walk errored: %v", err)
	}

	if len(summary.Skipped) != 1 || summary.Skipped[0] != "2" {
		t.Errorf("expected page 2 to be skipped: %+v", summary.Skipped)
	}
	if summary.Exported != 2 {
		t.Errorf("expected 2 exported pages, got %d", summary.Exported)
	}

	// no folder for the skipped page; the grandchild lands directly under the root page
	if _, err := os.Stat(filepath.Join(opts.OutputRoot, "Root_1", "Placeholder_2")); !os.IsNotExist(err) {
		t.Errorf("skipped page should not have a folder")
	}
	if _, err := os.Stat(filepath.Join(opts.OutputRoot, "Root_1", "Grandchild_3", "page.md")); err != nil {
		t.Errorf("grandchild should nest under the root page: %v", err)
	}
}

func TestWalkRecordsChildListingFailure(t *testing.T) {
	wiki := newFakeWiki()
	defer wiki.Close()

	// the page itself is fine, only its children endpoint is broken
	wiki.pages["1"] = fakePage{Title: "Root", Body: `<p>root</p>`, Children: []string{"2"}}
	wiki.children404["1"] = true

	opts := testOptions(t.TempDir())
	opts.Recursive = true
	w := NewWalker(wiki.api(t), opts, testLogger())

	root, summary, err := w.Walk(context.Background(), "1")
	if err != nil {
		t.Fatalf("Walk errored: %v", err)
	}
	if root.FetchErr != nil {
		t.Fatalf("root itself should export fine")
	}
	if root.ChildrenErr == nil {
		t.Errorf("expected the listing failure to be recorded on the node")
	}
	if summary.Exported != 1 {
		t.Errorf("root should still count as exported, got %d", summary.Exported)
	}
	if len(summary.Failures) != 1 || summary.Failures[0].PageID != "1" {
		t.Errorf("expected one recorded failure for the root, got %+v", summary.Failures)
	}
}
