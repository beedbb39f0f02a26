package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jo-hoe/songshelf/internal/backend/cache"
	"github.com/jo-hoe/songshelf/internal/backend/database"
	"github.com/jo-hoe/songshelf/internal/ingest"
)

// CoreService owns the ingest -> insert -> invalidate pipeline and the
// cache-first listing read.
type CoreService struct {
	config       *ServiceConfig
	songStore    database.SongStore
	listingCache cache.ListingCache
}

func NewCoreService(config *ServiceConfig) *CoreService {
	songStore, err := getSongStore(config)
	if err != nil {
		slog.Error("failed to initialize database service", "error", err)
		panic(err)
	}
	return &CoreService{
		config:       config,
		songStore:    songStore,
		listingCache: cache.NewListingCache(config.Cache.RedisAddress, config.CacheTTL()),
	}
}

// NewCoreServiceWith wires explicit dependencies, used by tests.
func NewCoreServiceWith(config *ServiceConfig, store database.SongStore, listingCache cache.ListingCache) *CoreService {
	return &CoreService{
		config:       config,
		songStore:    store,
		listingCache: listingCache,
	}
}

// ImportCSV parses raw CSV text, inserts the accepted songs as one
// batch and invalidates the cached listing. It returns the number of
// inserted songs. ingest.ErrNoValidSongs passes through unwrapped so
// callers can map it to a client error.
func (service *CoreService) ImportCSV(ctx context.Context, content string) (int, error) {
	result, err := ingest.ParseCSV(content)
	if err != nil {
		return 0, err
	}

	songs := make([]*database.Song, 0, len(result.Songs))
	for _, song := range result.Songs {
		songs = append(songs, &database.Song{
			SongName: song.SongName,
			BandName: song.BandName,
			Year:     song.Year,
		})
	}

	if err := service.songStore.InsertSongs(ctx, songs); err != nil {
		return 0, fmt.Errorf("failed to insert songs: %w", err)
	}

	if err := service.listingCache.Invalidate(ctx); err != nil {
		// A stale cache entry expires on its own TTL; the insert succeeded.
		slog.Warn("failed to invalidate listing cache", "error", err)
	}

	slog.Info("imported songs", "inserted", len(songs), "rows_examined", result.RowsExamined)
	return len(songs), nil
}

// ListSongs returns the full listing ordered by band name, serving from
// the cache when possible.
func (service *CoreService) ListSongs(ctx context.Context) ([]*database.Song, error) {
	songs, err := service.listingCache.Get(ctx)
	if err == nil {
		return songs, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("listing cache read failed, falling back to store", "error", err)
	}

	songs, err = service.songStore.ListSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}

	if err := service.listingCache.Set(ctx, songs); err != nil {
		slog.Warn("failed to populate listing cache", "error", err)
	}
	return songs, nil
}

func (service *CoreService) CountSongs(ctx context.Context) (int, error) {
	return service.songStore.CountSongs(ctx)
}

func (service *CoreService) Close() error {
	if err := service.listingCache.Close(); err != nil {
		slog.Warn("failed to close listing cache", "error", err)
	}
	return service.songStore.Close()
}

func getSongStore(config *ServiceConfig) (database.SongStore, error) {
	songStore, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return songStore, nil
}
