package sqlite

import (
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sabia-bot/sabia/store"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeedbackEvent(row rowScanner) (*store.FeedbackEvent, error) {
	var ev store.FeedbackEvent
	var polarity string
	var createdTs int64
	if err := row.Scan(&ev.ID, &ev.MessageID, &ev.UserID, &polarity, &createdTs); err != nil {
		return nil, errors.Wrap(err, "failed to scan feedback event")
	}
	ev.Polarity = store.Polarity(polarity)
	ev.CreatedAt = time.Unix(createdTs, 0)
	return &ev, nil
}

func scanStatistics(row *sql.Row) (*store.Statistics, error) {
	var stats store.Statistics
	var lastUpdatedTs int64
	if err := row.Scan(&stats.Interactions, &stats.PositiveFeedback, &stats.NegativeFeedback, &lastUpdatedTs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to scan statistics")
	}
	stats.LastUpdated = time.Unix(lastUpdatedTs, 0)
	return &stats, nil
}

func joinAnd(conds []string) string {
	return strings.Join(conds, " AND ")
}
