package database

import (
	"context"
	"database/sql"
)

type SongStore interface {
	CreateDatabase() (*sql.DB, error)
	DoesDatabaseExist() bool
	Close() error

	// InsertSongs appends all given songs in a single transaction; the
	// batch fails as a unit if the backend rejects it. No partial-insert
	// recovery is attempted.
	InsertSongs(ctx context.Context, songs []*Song) error
	// ListSongs returns every song ordered by band name ascending, ties
	// broken by natural row order.
	ListSongs(ctx context.Context) ([]*Song, error)
	CountSongs(ctx context.Context) (int, error)
}
