package store

import (
	"log/slog"
	"sync"
	"time"
)

// Polarity is the direction of a feedback event. The wire values match the
// original callback payloads.
type Polarity string

const (
	PolarityPositive Polarity = "positivo"
	PolarityNegative Polarity = "negativo"
)

// IsValid checks if the polarity is one of the known values.
func (p Polarity) IsValid() bool {
	return p == PolarityPositive || p == PolarityNegative
}

// Delta returns the score adjustment for this polarity: +1 for positive,
// -0.5 for negative.
func (p Polarity) Delta() float64 {
	if p == PolarityPositive {
		return 1
	}
	return -0.5
}

// FeedbackEvent records one thumbs-up or thumbs-down. Events are
// append-only and never mutated.
type FeedbackEvent struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	Polarity  Polarity  `json:"polarity"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackStore is the append-only feedback event document.
type FeedbackStore struct {
	mu     sync.RWMutex
	path   string
	events []*FeedbackEvent
}

// NewFeedbackStore creates the store and loads its document. A failed load
// is logged and degrades to an empty store.
func NewFeedbackStore(path string) *FeedbackStore {
	s := &FeedbackStore{path: path}
	if _, err := loadDocument(path, &s.events); err != nil {
		slog.Error("failed to load feedback document", "path", path, "error", err)
		s.events = nil
	}
	return s
}

// Append adds an event and persists the document.
func (s *FeedbackStore) Append(ev *FeedbackEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, ev)
	return saveDocument(s.path, s.events)
}

// Len returns the number of recorded events.
func (s *FeedbackStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
