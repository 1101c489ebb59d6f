package store

import (
	"log/slog"
	"sync"
	"time"
)

// KnowledgeEntry is a curated pattern/reply pair added through the teach
// operation. Entries are immutable once created; re-teaching the same
// pattern overwrites the entry in place.
type KnowledgeEntry struct {
	Pattern   string    `json:"pattern"`
	Reply     string    `json:"reply"`
	CreatedAt time.Time `json:"created_at"`
}

// KnowledgeStore holds curated knowledge entries in insertion order.
// Iteration order matters: the matcher's tie-break contract is "first entry
// reaching the maximum wins", so entries live in a slice and the document
// is an ordered array.
type KnowledgeStore struct {
	mu      sync.RWMutex
	path    string
	entries []*KnowledgeEntry
	index   map[string]int // pattern -> position in entries
}

// NewKnowledgeStore creates the store and loads its document. A failed load
// is logged and degrades to an empty store.
func NewKnowledgeStore(path string) *KnowledgeStore {
	s := &KnowledgeStore{
		path:  path,
		index: make(map[string]int),
	}
	var entries []*KnowledgeEntry
	if _, err := loadDocument(path, &entries); err != nil {
		slog.Error("failed to load knowledge document", "path", path, "error", err)
		return s
	}
	for _, e := range entries {
		if e == nil || e.Pattern == "" {
			continue
		}
		if i, ok := s.index[e.Pattern]; ok {
			s.entries[i] = e
			continue
		}
		s.index[e.Pattern] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	return s
}

// Upsert adds a new entry or overwrites the entry with the same pattern,
// preserving its original position, then persists the document.
func (s *KnowledgeStore) Upsert(entry *KnowledgeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[entry.Pattern]; ok {
		s.entries[i] = entry
	} else {
		s.index[entry.Pattern] = len(s.entries)
		s.entries = append(s.entries, entry)
	}
	return saveDocument(s.path, s.entries)
}

// Entries returns the entries in insertion order. The returned slice is a
// copy; the entries themselves are shared and must not be mutated.
func (s *KnowledgeStore) Entries() []*KnowledgeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*KnowledgeEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of curated entries.
func (s *KnowledgeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
