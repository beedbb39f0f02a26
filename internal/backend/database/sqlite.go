package database

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteDatabase(connectionString string) (SongStore, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase() (*sql.DB, error) {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS songs (
		id TEXT PRIMARY KEY,
		song_name TEXT NOT NULL,
		band_name TEXT NOT NULL,
		year INTEGER,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, err
	}

	return s.db, nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteDatabase) InsertSongs(ctx context.Context, songs []*Song) error {
	if len(songs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after a successful commit
	}()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO songs (id, song_name, band_name, year, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer func() {
		_ = stmt.Close()
	}()

	now := time.Now().UTC()
	for _, song := range songs {
		id, err := generateID()
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, id, song.SongName, song.BandName, song.Year, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteDatabase) ListSongs(ctx context.Context) ([]*Song, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, song_name, band_name, year, created_at FROM songs ORDER BY band_name ASC")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	var songs []*Song
	for rows.Next() {
		var song Song
		if err := rows.Scan(&song.ID, &song.SongName, &song.BandName, &song.Year, &song.CreatedAt); err != nil {
			return nil, err
		}
		songs = append(songs, &song)
	}
	return songs, rows.Err()
}

func (s *SQLiteDatabase) CountSongs(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM songs").Scan(&count)
	return count, err
}
