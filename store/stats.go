package store

import (
	"log/slog"
	"sync"
	"time"
)

// Statistics is the process-wide interaction and feedback counters
// singleton. It is mutated on every processed message and every feedback
// event.
type Statistics struct {
	Interactions     int64     `json:"interactions"`
	PositiveFeedback int64     `json:"positive_feedback"`
	NegativeFeedback int64     `json:"negative_feedback"`
	LastUpdated      time.Time `json:"last_updated"`
}

// StatsStore owns the statistics document.
type StatsStore struct {
	mu    sync.RWMutex
	path  string
	stats Statistics
}

// NewStatsStore creates the store and loads its document. A failed load is
// logged and degrades to zeroed counters.
func NewStatsStore(path string) *StatsStore {
	s := &StatsStore{path: path}
	if _, err := loadDocument(path, &s.stats); err != nil {
		slog.Error("failed to load statistics document", "path", path, "error", err)
		s.stats = Statistics{}
	}
	return s
}

// RecordInteraction bumps the interaction counter, stamps the update time
// and persists the document.
func (s *StatsStore) RecordInteraction(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Interactions++
	s.stats.LastUpdated = now
	return saveDocument(s.path, &s.stats)
}

// RecordFeedback bumps the counter for the given polarity, stamps the
// update time and persists the document.
func (s *StatsStore) RecordFeedback(polarity Polarity, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if polarity == PolarityPositive {
		s.stats.PositiveFeedback++
	} else {
		s.stats.NegativeFeedback++
	}
	s.stats.LastUpdated = now
	return saveDocument(s.path, &s.stats)
}

// Snapshot returns a copy of the current counters.
func (s *StatsStore) Snapshot() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
