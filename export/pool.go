package export

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// Pool is the run-scoped registry of already-materialized media.  Every page exporter in
// a run shares one Pool, so an asset referenced from several pages is downloaded once.
// Never persisted; never shared across runs.
//
// Entries are keyed two ways: by content hash (collision-resistant, preferred) and by
// bare filename.  The filename alias is what makes cross-page fallback possible when we
// have no bytes in hand -- the cost is that two unrelated pages using the same filename
// for different images will dedupe to one asset.  That's a deliberate tradeoff, not an
// accident; see DESIGN.md.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*poolEntry
}

type poolEntry struct {
	ready chan struct{} // closed once path/ok are final

	path RelativePath
	ok   bool
}

func NewPool() *Pool {
	return &Pool{
		entries: make(map[string]*poolEntry),
	}
}

// HashKey derives a stable content-based pool key.
func HashKey(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// FilenameKey derives the filename alias key.
func FilenameKey(filename string) string {
	return "name:" + filename
}

// Get returns the materialized path for a key, if any.  Only fully-written entries are
// visible; an in-flight Materialize for the same key doesn't count as a hit.
func (p *Pool) Get(key string) (RelativePath, bool) {
	p.mu.Lock()
	entry, ok := p.entries[key]
	p.mu.Unlock()

	if !ok {
		return "", false
	}

	select {
	case <-entry.ready:
		return entry.path, entry.ok
	default:
		// still being fetched by someone else
		return "", false
	}
}

// Put records an already-materialized path under a key, first writer wins.
func (p *Pool) Put(key string, path RelativePath) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.entries[key]; exists {
		return
	}

	entry := &poolEntry{ready: make(chan struct{}), path: path, ok: true}
	close(entry.ready)
	p.entries[key] = entry
}

// Materialize is the atomic check-then-insert: the first caller for a key runs fetch and
// publishes its result; concurrent callers for the same key block until that result is
// visible, then reuse it.  A failed fetch vacates the slot so a later caller may retry.
// The bool reports whether this was a pool hit (no fetch performed by us).
func (p *Pool) Materialize(key string, fetch func() (RelativePath, error)) (RelativePath, bool, error) {
	for {
		p.mu.Lock()
		if entry, ok := p.entries[key]; ok {
			p.mu.Unlock()
			<-entry.ready
			if entry.ok {
				return entry.path, true, nil
			}
			// the fetch that created this entry failed; loop and race to become the
			// new leader.
			p.mu.Lock()
			if p.entries[key] == entry {
				delete(p.entries, key)
			}
			p.mu.Unlock()
			continue
		}

		entry := &poolEntry{ready: make(chan struct{})}
		p.entries[key] = entry
		p.mu.Unlock()

		path, err := fetch()
		if err != nil {
			p.mu.Lock()
			delete(p.entries, key)
			p.mu.Unlock()
			close(entry.ready)
			return "", false, fmt.Errorf("export: couldn't materialize %s: %w", key, err)
		}

		entry.path = path
		entry.ok = true
		close(entry.ready)
		return path, false, nil
	}
}
