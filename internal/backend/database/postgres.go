package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresDatabase targets a managed Postgres instance (e.g. Supabase).
// The DSN carries the endpoint and access credentials.
type PostgresDatabase struct {
	db *sql.DB
}

func NewPostgresDatabase(dsn string) (SongStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &PostgresDatabase{db: db}, nil
}

func (p *PostgresDatabase) CreateDatabase() (*sql.DB, error) {
	_, err := p.db.Exec(`CREATE TABLE IF NOT EXISTS songs (
		id TEXT PRIMARY KEY,
		song_name TEXT NOT NULL,
		band_name TEXT NOT NULL,
		year INTEGER,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	if err != nil {
		return nil, err
	}

	return p.db, nil
}

func (p *PostgresDatabase) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *PostgresDatabase) DoesDatabaseExist() bool {
	return p.db.Ping() == nil
}

func (p *PostgresDatabase) InsertSongs(ctx context.Context, songs []*Song) error {
	if len(songs) == 0 {
		return nil
	}

	// Single multi-row INSERT so the batch succeeds or fails as a unit.
	valueStrings := make([]string, 0, len(songs))
	valueArgs := make([]any, 0, len(songs)*5)
	now := time.Now().UTC()
	paramIndex := 1

	for _, song := range songs {
		id, err := generateID()
		if err != nil {
			return err
		}
		valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
			paramIndex, paramIndex+1, paramIndex+2, paramIndex+3, paramIndex+4))
		valueArgs = append(valueArgs, id, song.SongName, song.BandName, song.Year, now)
		paramIndex += 5
	}

	query := fmt.Sprintf(
		"INSERT INTO songs (id, song_name, band_name, year, created_at) VALUES %s",
		strings.Join(valueStrings, ","))

	_, err := p.db.ExecContext(ctx, query, valueArgs...)
	return err
}

func (p *PostgresDatabase) ListSongs(ctx context.Context) ([]*Song, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT id, song_name, band_name, year, created_at FROM songs ORDER BY band_name ASC")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
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

func (p *PostgresDatabase) CountSongs(ctx context.Context) (int, error) {
	var count int
	err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM songs").Scan(&count)
	return count, err
}
