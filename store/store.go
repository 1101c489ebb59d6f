// Package store provides persistence for the responder's knowledge base,
// learned responses, feedback events, statistics and conversation log.
//
// Each logical store is backed by its own JSON document (or directory, for
// the conversation log) under the data directory, loaded once at
// construction and rewritten on mutation. Persistence failures are reported
// to the caller and logged, never fatal: the in-memory state stays
// authoritative and the next successful save wins.
package store

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/sabia-bot/sabia/internal/profile"
)

// Document file names, kept from the original data layout so existing data
// directories remain readable.
const (
	knowledgeFile     = "conhecimento.json"
	learnedFile       = "respostas_aprendidas.json"
	feedbackFile      = "feedback.json"
	statisticsFile    = "estatisticas.json"
	conversationsDir  = "conversas"
	conversationGlob  = ".json"
	conversationIDFmt = "conversa_%s_%s"
)

// Store provides access to all persistent state.
type Store struct {
	profile *profile.Profile
	driver  Driver // optional database mirror, may be nil

	Knowledge     *KnowledgeStore
	Learned       *LearnedStore
	Feedback      *FeedbackStore
	Stats         *StatsStore
	Conversations *ConversationLog
}

// New creates a Store rooted at the profile's data directory and loads every
// document. A corrupt or unreadable document degrades to its zero value, it
// does not block the other stores.
func New(driver Driver, profile *profile.Profile) (*Store, error) {
	conversations, err := NewConversationLog(filepath.Join(profile.Data, conversationsDir))
	if err != nil {
		return nil, err
	}

	s := &Store{
		profile:       profile,
		driver:        driver,
		Knowledge:     NewKnowledgeStore(filepath.Join(profile.Data, knowledgeFile)),
		Learned:       NewLearnedStore(filepath.Join(profile.Data, learnedFile)),
		Feedback:      NewFeedbackStore(filepath.Join(profile.Data, feedbackFile)),
		Stats:         NewStatsStore(filepath.Join(profile.Data, statisticsFile)),
		Conversations: conversations,
	}
	return s, nil
}

// GetDriver returns the database mirror driver, or nil when running without
// a database.
func (s *Store) GetDriver() Driver {
	return s.driver
}

// Migrate prepares the database mirror schema. A nil driver is a no-op.
func (s *Store) Migrate(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Migrate(ctx)
}

// MirrorFeedbackEvent writes a feedback event into the database mirror,
// best-effort.
func (s *Store) MirrorFeedbackEvent(ctx context.Context, ev *FeedbackEvent) {
	if s.driver == nil {
		return
	}
	if err := s.driver.CreateFeedbackEvent(ctx, ev); err != nil {
		slog.Error("failed to mirror feedback event", "message_id", ev.MessageID, "error", err)
	}
}

// MirrorStatistics writes the current statistics snapshot into the database
// mirror, best-effort.
func (s *Store) MirrorStatistics(ctx context.Context) {
	if s.driver == nil {
		return
	}
	snapshot := s.Stats.Snapshot()
	if err := s.driver.UpsertStatistics(ctx, &snapshot); err != nil {
		slog.Error("failed to mirror statistics", "error", err)
	}
}

func (s *Store) Close() error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Close()
}
