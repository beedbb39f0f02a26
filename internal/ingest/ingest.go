package ingest

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrNoValidSongs is returned when a CSV contains no usable data rows.
// A header-only file or a file of malformed rows is an error, not an
// empty success.
var ErrNoValidSongs = errors.New("no valid songs found in file")

// Song is an ingested record before it is handed to the store.
type Song struct {
	SongName string
	BandName string
	Year     int
}

// Result carries the accepted songs plus the number of data rows that
// were examined, including the ones that were dropped.
type Result struct {
	Songs        []Song
	RowsExamined int
}

// ParseCSV turns raw CSV text into song records.
//
// The first line is treated as a header and is otherwise ignored;
// columns are positional: band name, song name, year. If the header
// line contains a semicolon the whole file is split on semicolons,
// otherwise on commas. Fields are trimmed and stripped of surrounding
// straight double quotes, then lowercased. A row is kept only when it
// has at least three fields and both band and song are non-empty after
// normalization; malformed rows are dropped silently. A missing or
// non-numeric year falls back to the current calendar year.
func ParseCSV(content string) (*Result, error) {
	content = strings.TrimPrefix(content, "\uFEFF")

	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, ErrNoValidSongs
	}

	delimiter := ","
	if strings.Contains(lines[0], ";") {
		delimiter = ";"
	}

	result := &Result{}
	currentYear := time.Now().Year()

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		result.RowsExamined++

		fields := strings.Split(line, delimiter)
		if len(fields) < 3 {
			continue
		}

		band := normalizeField(fields[0])
		song := normalizeField(fields[1])
		if band == "" || song == "" {
			continue
		}

		year, err := strconv.Atoi(normalizeField(fields[2]))
		if err != nil {
			year = currentYear
		}

		result.Songs = append(result.Songs, Song{
			SongName: song,
			BandName: band,
			Year:     year,
		})
	}

	if len(result.Songs) == 0 {
		return nil, ErrNoValidSongs
	}
	return result, nil
}

// normalizeField strips surrounding whitespace and straight double
// quotes and lowercases the remainder.
func normalizeField(field string) string {
	field = strings.TrimSpace(field)
	field = strings.Trim(field, `"`)
	return strings.ToLower(strings.TrimSpace(field))
}
