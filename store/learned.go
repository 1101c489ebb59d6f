package store

import (
	"log/slog"
	"sync"
)

// LearnedReply is a candidate answer for a learned pattern. Score grows by
// +1 on positive feedback and shrinks by 0.5 on negative feedback, with no
// floor or ceiling.
type LearnedReply struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// LearnedPattern groups the candidate replies observed for one normalized
// question. Within a pattern each distinct reply text appears at most once;
// feedback merges scores in place.
type LearnedPattern struct {
	Pattern    string          `json:"pattern"`
	Candidates []*LearnedReply `json:"candidates"`
}

// LearnedStore holds learned patterns in insertion order. The matcher scans
// patterns in storage order and stops at the first substring match, so
// order is part of the contract here too.
type LearnedStore struct {
	mu       sync.RWMutex
	path     string
	patterns []*LearnedPattern
	index    map[string]int // normalized pattern -> position
}

// NewLearnedStore creates the store and loads its document. A failed load
// is logged and degrades to an empty store.
func NewLearnedStore(path string) *LearnedStore {
	s := &LearnedStore{
		path:  path,
		index: make(map[string]int),
	}
	var patterns []*LearnedPattern
	if _, err := loadDocument(path, &patterns); err != nil {
		slog.Error("failed to load learned responses document", "path", path, "error", err)
		return s
	}
	for _, p := range patterns {
		if p == nil || p.Pattern == "" {
			continue
		}
		if _, ok := s.index[p.Pattern]; ok {
			continue
		}
		s.index[p.Pattern] = len(s.patterns)
		s.patterns = append(s.patterns, p)
	}
	return s
}

// Reinforce adjusts the score of (pattern, text) by delta, creating the
// pattern and the candidate when absent, then persists the document.
// A new candidate starts at delta, not at zero plus delta, matching the
// feedback rule for first observations.
func (s *LearnedStore) Reinforce(pattern, text string, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[pattern]
	if !ok {
		i = len(s.patterns)
		s.index[pattern] = i
		s.patterns = append(s.patterns, &LearnedPattern{Pattern: pattern})
	}

	p := s.patterns[i]
	found := false
	for _, c := range p.Candidates {
		if c.Text == text {
			c.Score += delta
			found = true
			break
		}
	}
	if !found {
		p.Candidates = append(p.Candidates, &LearnedReply{Text: text, Score: delta})
	}

	return saveDocument(s.path, s.patterns)
}

// Patterns returns the learned patterns in storage order. The returned
// slice is a copy; patterns and candidates are shared and must not be
// mutated by callers.
func (s *LearnedStore) Patterns() []*LearnedPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*LearnedPattern, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// Get returns the pattern with the given normalized key, or nil.
func (s *LearnedStore) Get(pattern string) *LearnedPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i, ok := s.index[pattern]; ok {
		return s.patterns[i]
	}
	return nil
}

// Len returns the number of learned patterns.
func (s *LearnedStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.patterns)
}
