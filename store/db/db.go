// Package db provides the database driver factory.
package db

import (
	"github.com/pkg/errors"

	"github.com/sabia-bot/sabia/internal/profile"
	"github.com/sabia-bot/sabia/store"
	"github.com/sabia-bot/sabia/store/db/postgres"
	"github.com/sabia-bot/sabia/store/db/sqlite"
)

// NewDBDriver creates a database driver based on the profile. The "none"
// driver returns nil: the store then keeps feedback events and statistics
// in documents only.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	case "none":
		return nil, nil
	default:
		return nil, errors.Errorf("unknown db driver %q", profile.Driver)
	}
}
