package engine

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabia-bot/sabia/internal/profile"
	"github.com/sabia-bot/sabia/store"
)

// stubSummarizer is a canned external fallback.
type stubSummarizer struct {
	extract string
	err     error
}

func (s *stubSummarizer) Lookup(_ context.Context, _ string) (string, error) {
	return s.extract, s.err
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *store.Store) {
	t.Helper()

	st, err := store.New(nil, &profile.Profile{Data: t.TempDir()})
	require.NoError(t, err)

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	base := []Option{
		WithRand(rand.New(rand.NewSource(1))),
		WithClock(func() time.Time { return fixed }),
		WithFallback(&stubSummarizer{err: errors.New("unreachable")}),
	}
	return New(st, append(base, opts...)...), st
}

func TestRespondCuratedRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Teach("qual sua linguagem", "Sou feita em código")

	reply := e.Respond(context.Background(), "qual é a sua linguagem favorita", "7")

	assert.Equal(t, "Sou feita em código", reply.Text)
	assert.Equal(t, StageKnowledge, reply.Stage)
}

func TestRespondKnowledgeTieBreakIsInsertionOrder(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Teach("bom dia", "Bom dia!")
	e.Teach("boa dia", "Errada")

	// Both patterns share two tokens with the input; the first taught
	// entry must win.
	reply := e.Respond(context.Background(), "bom dia boa", "7")

	assert.Equal(t, "Bom dia!", reply.Text)
}

func TestRespondLearnedMaxScoreSelection(t *testing.T) {
	e, st := newTestEngine(t)
	require.NoError(t, st.Learned.Reinforce("oi", "ola", 2))
	require.NoError(t, st.Learned.Reinforce("oi", "oi tudo bem", 5))

	reply := e.Respond(context.Background(), "oi", "7")

	assert.Equal(t, "oi tudo bem", reply.Text)
	assert.Equal(t, StageLearned, reply.Stage)
}

func TestRespondLearnedSubstringContainment(t *testing.T) {
	e, st := newTestEngine(t)
	require.NoError(t, st.Learned.Reinforce("tudo bem", "Tudo ótimo!", 1))

	t.Run("pattern inside input", func(t *testing.T) {
		reply := e.Respond(context.Background(), "oi, tudo bem com você?", "7")
		assert.Equal(t, "Tudo ótimo!", reply.Text)
	})

	t.Run("input inside pattern", func(t *testing.T) {
		reply := e.Respond(context.Background(), "tudo", "7")
		assert.Equal(t, "Tudo ótimo!", reply.Text)
	})
}

func TestRespondFallbackHit(t *testing.T) {
	e, _ := newTestEngine(t, WithFallback(&stubSummarizer{extract: "O sabiá é uma ave."}))

	reply := e.Respond(context.Background(), "sabiá", "7")

	assert.Equal(t, "O sabiá é uma ave.", reply.Text)
	assert.Equal(t, StageWikipedia, reply.Stage)
}

func TestRespondDefaultPoolMembership(t *testing.T) {
	e, _ := newTestEngine(t)

	// No curated knowledge, no learned patterns, failing fallback: the
	// reply must come from the default pool.
	for i := 0; i < 10; i++ {
		reply := e.Respond(context.Background(), "assunto totalmente desconhecido", "7")
		assert.Contains(t, DefaultReplies, reply.Text)
		assert.Equal(t, StageDefault, reply.Stage)
	}
}

func TestRespondZeroOverlapNeverMatchesKnowledge(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Teach("qual sua linguagem", "Sou feita em código")
	e.Teach("quem te criou", "Um desenvolvedor curioso")

	reply := e.Respond(context.Background(), "futebol", "7")

	assert.Equal(t, StageDefault, reply.Stage)
}

func TestRespondLogsConversation(t *testing.T) {
	e, st := newTestEngine(t)

	e.Respond(context.Background(), "primeira pergunta", "42")

	rec, ok, err := st.Conversations.Find("42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "primeira pergunta", rec.Question)
	assert.Equal(t, "42", rec.UserID)
	assert.NotEmpty(t, rec.Answer)
}

func TestRespondBumpsStatistics(t *testing.T) {
	e, _ := newTestEngine(t)

	e.Respond(context.Background(), "uma", "7")
	e.Respond(context.Background(), "outra", "7")

	report := e.Stats()
	assert.Equal(t, int64(2), report.Interactions)
	assert.False(t, report.LastUpdated.IsZero())
}

func TestLearnFromFeedback(t *testing.T) {
	e, st := newTestEngine(t)

	e.Respond(context.Background(), "qual o sentido da vida", "42")
	rec, ok, err := st.Conversations.Find("42")
	require.NoError(t, err)
	require.True(t, ok)

	e.LearnFromFeedback("42", store.PolarityPositive)

	pattern := st.Learned.Get(Normalize(rec.Question))
	require.NotNil(t, pattern)
	require.Len(t, pattern.Candidates, 1)
	assert.Equal(t, rec.Answer, pattern.Candidates[0].Text)
	assert.Equal(t, float64(1), pattern.Candidates[0].Score)
}

func TestLearnFromFeedbackIsStructurallyIdempotent(t *testing.T) {
	e, st := newTestEngine(t)

	e.Respond(context.Background(), "qual o sentido da vida", "42")
	rec, _, err := st.Conversations.Find("42")
	require.NoError(t, err)

	// Repeated positive feedback grows the score monotonically and never
	// duplicates the candidate.
	for i := 1; i <= 3; i++ {
		e.LearnFromFeedback("42", store.PolarityPositive)

		pattern := st.Learned.Get(Normalize(rec.Question))
		require.NotNil(t, pattern)
		require.Len(t, pattern.Candidates, 1)
		assert.Equal(t, float64(i), pattern.Candidates[0].Score)
	}
}

func TestLearnFromFeedbackNegativeDelta(t *testing.T) {
	e, st := newTestEngine(t)

	e.Respond(context.Background(), "pergunta difícil", "42")
	rec, _, err := st.Conversations.Find("42")
	require.NoError(t, err)

	e.LearnFromFeedback("42", store.PolarityPositive)
	e.LearnFromFeedback("42", store.PolarityNegative)

	// +1 then -0.5, no clamping.
	pattern := st.Learned.Get(Normalize(rec.Question))
	require.NotNil(t, pattern)
	assert.Equal(t, 0.5, pattern.Candidates[0].Score)
}

func TestLearnFromFeedbackUnknownMessageIDIsNoop(t *testing.T) {
	e, st := newTestEngine(t)

	e.Respond(context.Background(), "alguma pergunta", "42")
	e.LearnFromFeedback("nao-existe", store.PolarityPositive)

	assert.Equal(t, 0, st.Learned.Len())
}

func TestRecordFeedback(t *testing.T) {
	e, st := newTestEngine(t)

	e.RecordFeedback(context.Background(), "123", "42", store.PolarityPositive)
	e.RecordFeedback(context.Background(), "124", "42", store.PolarityNegative)

	assert.Equal(t, 2, st.Feedback.Len())

	report := e.Stats()
	assert.Equal(t, int64(1), report.PositiveFeedback)
	assert.Equal(t, int64(1), report.NegativeFeedback)
}

func TestTeachOverwritesSamePattern(t *testing.T) {
	e, st := newTestEngine(t)

	e.Teach("qual sua linguagem", "Primeira resposta")
	e.Teach("qual sua linguagem", "Sou feita em código")

	assert.Equal(t, 1, st.Knowledge.Len())
	reply := e.Respond(context.Background(), "qual sua linguagem", "7")
	assert.Equal(t, "Sou feita em código", reply.Text)
}

func TestParseTeachInput(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantPattern string
		wantReply   string
		wantErr     bool
	}{
		{"valid input", "qual sua linguagem | Sou feita em código", "qual sua linguagem", "Sou feita em código", false},
		{"extra pipes stay in the reply", "a | b | c", "a", "b | c", false},
		{"missing separator", "qual sua linguagem", "", "", true},
		{"empty pattern", "| resposta", "", "", true},
		{"empty reply", "pergunta |", "", "", true},
		{"empty input", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pattern, reply, err := ParseTeachInput(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTeachFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPattern, pattern)
			assert.Equal(t, tt.wantReply, reply)
		})
	}
}

func TestStatsReportDerivedCounts(t *testing.T) {
	e, st := newTestEngine(t)

	e.Teach("um", "1")
	e.Teach("dois", "2")
	require.NoError(t, st.Learned.Reinforce("oi", "ola", 1))
	e.Respond(context.Background(), "qualquer coisa", "7")

	report := e.Stats()
	assert.Equal(t, 2, report.KnowledgeEntries)
	assert.Equal(t, 1, report.LearnedPatterns)
	assert.Equal(t, 1, report.Conversations)
}
