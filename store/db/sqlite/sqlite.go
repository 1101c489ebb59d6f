// Package sqlite implements the feedback/statistics mirror on SQLite.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/sabia-bot/sabia/internal/profile"
	"github.com/sabia-bot/sabia/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database at the profile DSN.
//
// Notes on the pragmas:
// - busy_timeout avoids spurious SQLITE_BUSY under the WAL writer.
// - WAL journal mode is the recommended mode and prevents locking issues.
// - When using the `modernc.org/sqlite` driver, each pragma must be
//   prefixed with `_pragma=`.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// SQLite: a single connection is optimal with WAL for this workload.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	driver := DB{db: sqliteDB, profile: profile}
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
		return errors.Wrap(err, "failed to migrate sqlite schema")
	}
	return nil
}

func (d *DB) CreateFeedbackEvent(ctx context.Context, ev *store.FeedbackEvent) error {
	stmt := `
		INSERT INTO feedback (id, message_id, user_id, polarity, created_ts)
		VALUES (?, ?, ?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, stmt, ev.ID, ev.MessageID, ev.UserID, string(ev.Polarity), ev.CreatedAt.Unix()); err != nil {
		return errors.Wrap(err, "failed to insert feedback event")
	}
	return nil
}

func (d *DB) ListFeedbackEvents(ctx context.Context, find *store.FindFeedbackEvent) ([]*store.FeedbackEvent, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.MessageID; v != nil {
		where, args = append(where, "message_id = ?"), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = ?"), append(args, *v)
	}
	if v := find.Polarity; v != nil {
		where, args = append(where, "polarity = ?"), append(args, string(*v))
	}

	query := "SELECT id, message_id, user_id, polarity, created_ts FROM feedback WHERE " +
		joinAnd(where) + " ORDER BY created_ts ASC"
	if v := find.Limit; v != nil {
		query += " LIMIT ?"
		args = append(args, *v)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list feedback events")
	}
	defer rows.Close()

	list := []*store.FeedbackEvent{}
	for rows.Next() {
		ev, err := scanFeedbackEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate feedback events")
	}
	return list, nil
}

func (d *DB) UpsertStatistics(ctx context.Context, stats *store.Statistics) error {
	stmt := `
		INSERT INTO statistics (id, interactions, positive_feedback, negative_feedback, last_updated_ts)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			interactions = excluded.interactions,
			positive_feedback = excluded.positive_feedback,
			negative_feedback = excluded.negative_feedback,
			last_updated_ts = excluded.last_updated_ts`
	if _, err := d.db.ExecContext(ctx, stmt, stats.Interactions, stats.PositiveFeedback, stats.NegativeFeedback, stats.LastUpdated.Unix()); err != nil {
		return errors.Wrap(err, "failed to upsert statistics")
	}
	return nil
}

func (d *DB) GetStatistics(ctx context.Context) (*store.Statistics, error) {
	return scanStatistics(d.db.QueryRowContext(ctx,
		"SELECT interactions, positive_feedback, negative_feedback, last_updated_ts FROM statistics WHERE id = 1"))
}

func (d *DB) Close() error {
	return d.db.Close()
}
