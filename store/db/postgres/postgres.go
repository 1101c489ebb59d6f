// Package postgres implements the feedback/statistics mirror on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/sabia-bot/sabia/internal/profile"
	"github.com/sabia-bot/sabia/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL connection with the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	pgDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}
	if err := pgDB.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping db")
	}

	driver := DB{db: pgDB, profile: profile}
	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS feedback (
	id TEXT PRIMARY KEY,
	message_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	polarity TEXT NOT NULL,
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feedback_message_id ON feedback (message_id);
CREATE TABLE IF NOT EXISTS statistics (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	interactions BIGINT NOT NULL,
	positive_feedback BIGINT NOT NULL,
	negative_feedback BIGINT NOT NULL,
	last_updated_ts BIGINT NOT NULL
);`
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to migrate postgres schema")
	}
	return nil
}

func (d *DB) CreateFeedbackEvent(ctx context.Context, ev *store.FeedbackEvent) error {
	stmt := `
		INSERT INTO feedback (id, message_id, user_id, polarity, created_ts)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := d.db.ExecContext(ctx, stmt, ev.ID, ev.MessageID, ev.UserID, string(ev.Polarity), ev.CreatedAt.Unix()); err != nil {
		return errors.Wrap(err, "failed to insert feedback event")
	}
	return nil
}

func (d *DB) ListFeedbackEvents(ctx context.Context, find *store.FindFeedbackEvent) ([]*store.FeedbackEvent, error) {
	where, args := []string{"TRUE"}, []any{}
	if v := find.MessageID; v != nil {
		args = append(args, *v)
		where = append(where, fmt.Sprintf("message_id = $%d", len(args)))
	}
	if v := find.UserID; v != nil {
		args = append(args, *v)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if v := find.Polarity; v != nil {
		args = append(args, string(*v))
		where = append(where, fmt.Sprintf("polarity = $%d", len(args)))
	}

	query := "SELECT id, message_id, user_id, polarity, created_ts FROM feedback WHERE " +
		strings.Join(where, " AND ") + " ORDER BY created_ts ASC"
	if v := find.Limit; v != nil {
		args = append(args, *v)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list feedback events")
	}
	defer rows.Close()

	list := []*store.FeedbackEvent{}
	for rows.Next() {
		var ev store.FeedbackEvent
		var polarity string
		var createdTs int64
		if err := rows.Scan(&ev.ID, &ev.MessageID, &ev.UserID, &polarity, &createdTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan feedback event")
		}
		ev.Polarity = store.Polarity(polarity)
		ev.CreatedAt = time.Unix(createdTs, 0)
		list = append(list, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate feedback events")
	}
	return list, nil
}

func (d *DB) UpsertStatistics(ctx context.Context, stats *store.Statistics) error {
	stmt := `
		INSERT INTO statistics (id, interactions, positive_feedback, negative_feedback, last_updated_ts)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			interactions = EXCLUDED.interactions,
			positive_feedback = EXCLUDED.positive_feedback,
			negative_feedback = EXCLUDED.negative_feedback,
			last_updated_ts = EXCLUDED.last_updated_ts`
	if _, err := d.db.ExecContext(ctx, stmt, stats.Interactions, stats.PositiveFeedback, stats.NegativeFeedback, stats.LastUpdated.Unix()); err != nil {
		return errors.Wrap(err, "failed to upsert statistics")
	}
	return nil
}

func (d *DB) GetStatistics(ctx context.Context) (*store.Statistics, error) {
	var stats store.Statistics
	var lastUpdatedTs int64
	err := d.db.QueryRowContext(ctx,
		"SELECT interactions, positive_feedback, negative_feedback, last_updated_ts FROM statistics WHERE id = 1").
		Scan(&stats.Interactions, &stats.PositiveFeedback, &stats.NegativeFeedback, &lastUpdatedTs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to scan statistics")
	}
	stats.LastUpdated = time.Unix(lastUpdatedTs, 0)
	return &stats, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
