package database

import "time"

type Song struct {
	ID        string    `db:"id" json:"id"`
	SongName  string    `db:"song_name" json:"song_name"`
	BandName  string    `db:"band_name" json:"band_name"`
	Year      int       `db:"year" json:"year"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
