// Package engine implements the response-selection and incremental-learning
// core. Given free text it selects a best-effort reply from curated
// knowledge, learned responses, an external summary lookup or a canned
// default pool, logs the conversation, and adjusts learned-response scores
// from user feedback.
//
// The engine itself is transport-agnostic; adapters (Telegram, HTTP) must
// serialize their calls into it per conversation, and every persistence
// failure inside the pipeline degrades to a log line, never to a missing
// reply.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sabia-bot/sabia/engine/metrics"
	"github.com/sabia-bot/sabia/store"
)

// ErrTeachFormat reports malformed teach input (missing the "pergunta |
// resposta" separator). It is the only engine error surfaced to users.
var ErrTeachFormat = errors.New("teach input must be in the form: pergunta | resposta")

// Stage identifies which pipeline stage produced a reply.
type Stage string

const (
	StageKnowledge Stage = "knowledge"
	StageLearned   Stage = "learned"
	StageWikipedia Stage = "wikipedia"
	StageDefault   Stage = "default"
)

// Reply is the outcome of processing one message.
type Reply struct {
	Text  string
	Stage Stage
}

// Summarizer is the external fallback collaborator. Implementations must
// bound their own network time; the engine treats every error as a miss.
type Summarizer interface {
	Lookup(ctx context.Context, topic string) (string, error)
}

// Engine orchestrates matching, fallback, logging and feedback learning.
type Engine struct {
	store     *store.Store
	fallback  Summarizer
	collector *metrics.Collector
	defaults  []string
	rng       *rand.Rand
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithFallback sets the external lookup collaborator. Without one, the
// fallback stage always misses.
func WithFallback(s Summarizer) Option {
	return func(e *Engine) { e.fallback = s }
}

// WithMetrics attaches a Prometheus collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.collector = c }
}

// WithDefaultReplies replaces the canned fallback pool.
func WithDefaultReplies(replies []string) Option {
	return func(e *Engine) {
		if len(replies) > 0 {
			e.defaults = replies
		}
	}
}

// WithRand injects a deterministic random source for tests.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine over the given store.
func New(st *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		defaults: DefaultReplies,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Respond runs the selection pipeline for one incoming message. It always
// produces a reply: no stage error escapes this boundary.
func (e *Engine) Respond(ctx context.Context, text, userID string) Reply {
	started := e.now()
	normalized := Normalize(text)

	if err := e.store.Stats.RecordInteraction(started); err != nil {
		e.persistFailure("statistics", err)
	}
	e.store.MirrorStatistics(ctx)

	reply := e.selectReply(ctx, normalized, text)

	record := &store.ConversationRecord{
		ID:        store.NewRecordID(userID, started),
		UserID:    userID,
		Timestamp: started,
		Question:  text,
		Answer:    reply.Text,
	}
	if err := e.store.Conversations.Append(record); err != nil {
		e.persistFailure("conversation", err)
	}

	slog.Info("processed message", "user_id", userID, "stage", reply.Stage)
	e.collector.ObserveRespond(string(reply.Stage), e.now().Sub(started))
	return reply
}

func (e *Engine) selectReply(ctx context.Context, normalized, original string) Reply {
	if text, ok := e.matchKnowledge(normalized); ok {
		return Reply{Text: text, Stage: StageKnowledge}
	}
	if text, ok := e.matchLearned(normalized); ok {
		return Reply{Text: text, Stage: StageLearned}
	}
	if e.fallback != nil {
		// The lookup keeps the original casing; article titles are
		// case-sensitive on the first letter.
		if text, err := e.fallback.Lookup(ctx, original); err == nil {
			return Reply{Text: text, Stage: StageWikipedia}
		} else {
			slog.Warn("fallback lookup missed", "error", err)
		}
	}
	return Reply{Text: e.defaultReply(), Stage: StageDefault}
}

// Teach upserts a curated knowledge entry. The pattern is stored verbatim;
// normalization happens at match time.
func (e *Engine) Teach(pattern, reply string) {
	entry := &store.KnowledgeEntry{
		Pattern:   pattern,
		Reply:     reply,
		CreatedAt: e.now(),
	}
	if err := e.store.Knowledge.Upsert(entry); err != nil {
		e.persistFailure("knowledge", err)
	}
}

// ParseTeachInput splits raw teach input on the first "|" separator.
// Returns ErrTeachFormat when the separator is missing or either side is
// empty; no state changes on malformed input.
func ParseTeachInput(input string) (pattern, reply string, err error) {
	before, after, found := strings.Cut(input, "|")
	if !found {
		return "", "", ErrTeachFormat
	}
	pattern = strings.TrimSpace(before)
	reply = strings.TrimSpace(after)
	if pattern == "" || reply == "" {
		return "", "", ErrTeachFormat
	}
	return pattern, reply, nil
}

// RecordFeedback appends a feedback event and bumps the statistics
// counters. It does not adjust learned scores; that is LearnFromFeedback.
func (e *Engine) RecordFeedback(ctx context.Context, messageID, userID string, polarity store.Polarity) {
	now := e.now()
	ev := &store.FeedbackEvent{
		ID:        uuid.NewString(),
		MessageID: messageID,
		UserID:    userID,
		Polarity:  polarity,
		CreatedAt: now,
	}
	if err := e.store.Feedback.Append(ev); err != nil {
		e.persistFailure("feedback", err)
	}
	e.store.MirrorFeedbackEvent(ctx, ev)

	if err := e.store.Stats.RecordFeedback(polarity, now); err != nil {
		e.persistFailure("statistics", err)
	}
	e.store.MirrorStatistics(ctx)

	e.collector.CountFeedback(string(polarity))
}

// LearnFromFeedback locates the logged conversation whose identifier
// contains messageID and reinforces the learned score for its
// (question, answer) pair: +1 on positive feedback, -0.5 on negative.
// An unlocatable or unreadable conversation is a silent no-op.
func (e *Engine) LearnFromFeedback(messageID string, polarity store.Polarity) {
	record, ok, err := e.store.Conversations.Find(messageID)
	if err != nil {
		slog.Error("failed to read conversation log", "message_id", messageID, "error", err)
		return
	}
	if !ok {
		slog.Debug("no conversation found for feedback", "message_id", messageID)
		return
	}

	pattern := Normalize(record.Question)
	if err := e.store.Learned.Reinforce(pattern, record.Answer, polarity.Delta()); err != nil {
		e.persistFailure("learned", err)
	}
}

// StatsReport is the statistics snapshot plus derived store counts.
type StatsReport struct {
	store.Statistics

	KnowledgeEntries int
	LearnedPatterns  int
	Conversations    int
}

// Stats returns the current counters and derived counts.
func (e *Engine) Stats() StatsReport {
	return StatsReport{
		Statistics:       e.store.Stats.Snapshot(),
		KnowledgeEntries: e.store.Knowledge.Len(),
		LearnedPatterns:  e.store.Learned.Len(),
		Conversations:    e.store.Conversations.Len(),
	}
}

func (e *Engine) persistFailure(storeName string, err error) {
	slog.Error("persistence failure, in-memory state stays authoritative", "store", storeName, "error", err)
	e.collector.CountPersistFailure(storeName)
}
