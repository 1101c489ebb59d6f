package store

import (
	"context"
	"database/sql"
)

// Driver is the database mirror for append-only feedback events and the
// statistics singleton. Document stores remain the source of truth; the
// mirror exists for querying feedback history with SQL, matching the
// original deployment.
type Driver interface {
	GetDB() *sql.DB

	// Migrate creates the schema if it does not exist.
	Migrate(ctx context.Context) error

	// CreateFeedbackEvent appends a feedback event. Events are never
	// updated or deleted.
	CreateFeedbackEvent(ctx context.Context, ev *FeedbackEvent) error

	// ListFeedbackEvents returns events matching the find filter, oldest
	// first.
	ListFeedbackEvents(ctx context.Context, find *FindFeedbackEvent) ([]*FeedbackEvent, error)

	// UpsertStatistics replaces the statistics singleton row.
	UpsertStatistics(ctx context.Context, stats *Statistics) error

	// GetStatistics returns the statistics singleton row, or nil when the
	// row has never been written.
	GetStatistics(ctx context.Context) (*Statistics, error)

	Close() error
}

// FindFeedbackEvent filters feedback event listings.
type FindFeedbackEvent struct {
	MessageID *string
	UserID    *string
	Polarity  *Polarity
	Limit     *int
}
