package database

import (
	"context"
	"testing"
)

func newTestStore(t *testing.T) SongStore {
	t.Helper()

	store, err := NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteDatabase error: %v", err)
	}
	_, err = store.CreateDatabase()
	if err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLite_DoesDatabaseExist(t *testing.T) {
	store := newTestStore(t)
	if !store.DoesDatabaseExist() {
		t.Fatalf("expected DoesDatabaseExist to return true")
	}
}

func TestSQLite_InsertAndList_OrderedByBand(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.InsertSongs(ctx, []*Song{
		{SongName: "hey jude", BandName: "the beatles", Year: 1968},
		{SongName: "bohemian rhapsody", BandName: "queen", Year: 1975},
	})
	if err != nil {
		t.Fatalf("InsertSongs error: %v", err)
	}

	songs, err := store.ListSongs(ctx)
	if err != nil {
		t.Fatalf("ListSongs error: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("expected 2 songs, got %d", len(songs))
	}
	// "queen" sorts before "the beatles"
	if songs[0].BandName != "queen" {
		t.Errorf("expected first band %q, got %q", "queen", songs[0].BandName)
	}
	if songs[1].BandName != "the beatles" {
		t.Errorf("expected second band %q, got %q", "the beatles", songs[1].BandName)
	}
	for i, song := range songs {
		if song.ID == "" {
			t.Errorf("song[%d].ID is empty; expected store-assigned ID", i)
		}
		if song.CreatedAt.IsZero() {
			t.Errorf("song[%d].CreatedAt is zero; expected store-assigned timestamp", i)
		}
	}
}

func TestSQLite_InsertSongs_EmptyBatchIsNoop(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.InsertSongs(ctx, nil); err != nil {
		t.Fatalf("InsertSongs(nil) error: %v", err)
	}
	count, err := store.CountSongs(ctx)
	if err != nil {
		t.Fatalf("CountSongs error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 songs, got %d", count)
	}
}

func TestSQLite_DuplicatesAllowed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch := []*Song{{SongName: "waterloo", BandName: "abba", Year: 1974}}
	if err := store.InsertSongs(ctx, batch); err != nil {
		t.Fatalf("InsertSongs #1 error: %v", err)
	}
	if err := store.InsertSongs(ctx, batch); err != nil {
		t.Fatalf("InsertSongs #2 error: %v", err)
	}

	count, err := store.CountSongs(ctx)
	if err != nil {
		t.Fatalf("CountSongs error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected duplicate rows to both persist, got count %d", count)
	}
}

func TestSQLite_ListSongs_EmptyStore(t *testing.T) {
	store := newTestStore(t)

	songs, err := store.ListSongs(context.Background())
	if err != nil {
		t.Fatalf("ListSongs error: %v", err)
	}
	if len(songs) != 0 {
		t.Fatalf("expected no songs, got %d", len(songs))
	}
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase("mongodb", "")
	if err == nil {
		t.Fatalf("expected error for unsupported driver, got nil")
	}
}

func TestNewDatabase_SQLite(t *testing.T) {
	store, err := NewDatabase("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("NewDatabase error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if !store.DoesDatabaseExist() {
		t.Fatalf("expected schema to be created")
	}
}
