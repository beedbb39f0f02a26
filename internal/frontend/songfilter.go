package frontend

import (
	"sort"
	"strings"

	"github.com/jo-hoe/songshelf/internal/backend/database"
)

// Sortable fields of the listing view.
const (
	SortBySong = "song"
	SortByBand = "band"
	SortByYear = "year"
)

// FilterSongs applies a case-insensitive substring search over song and
// band name plus a multi-select year filter. An empty year set shows
// every record. The input slice is not modified.
func FilterSongs(songs []*database.Song, query string, years []int) []*database.Song {
	query = strings.ToLower(strings.TrimSpace(query))
	yearSet := make(map[int]struct{}, len(years))
	for _, year := range years {
		yearSet[year] = struct{}{}
	}

	filtered := make([]*database.Song, 0, len(songs))
	for _, song := range songs {
		if query != "" &&
			!strings.Contains(song.SongName, query) &&
			!strings.Contains(song.BandName, query) {
			continue
		}
		if len(yearSet) > 0 {
			if _, ok := yearSet[song.Year]; !ok {
				continue
			}
		}
		filtered = append(filtered, song)
	}
	return filtered
}

// SortSongs orders a copy of the given songs by the requested field.
// Unknown fields fall back to band name, matching the server's fixed
// listing order.
func SortSongs(songs []*database.Song, field string, descending bool) []*database.Song {
	sorted := make([]*database.Song, len(songs))
	copy(sorted, songs)

	less := func(a, b *database.Song) bool {
		switch field {
		case SortBySong:
			return a.SongName < b.SongName
		case SortByYear:
			return a.Year < b.Year
		default:
			return a.BandName < b.BandName
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if descending {
			return less(sorted[j], sorted[i])
		}
		return less(sorted[i], sorted[j])
	})
	return sorted
}

// DistinctYears returns the sorted set of years present in the listing,
// used to populate the year filter.
func DistinctYears(songs []*database.Song) []int {
	seen := make(map[int]struct{}, len(songs))
	var years []int
	for _, song := range songs {
		if _, ok := seen[song.Year]; ok {
			continue
		}
		seen[song.Year] = struct{}{}
		years = append(years, song.Year)
	}
	sort.Ints(years)
	return years
}
