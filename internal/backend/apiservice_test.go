package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"

	"github.com/jo-hoe/songshelf/internal/backend/cache"
	"github.com/jo-hoe/songshelf/internal/backend/database"
	"github.com/jo-hoe/songshelf/internal/core"
)

func newTestAPI(t *testing.T) (*echo.Echo, *core.CoreService) {
	t.Helper()

	store, err := database.NewDatabase("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("NewDatabase error: %v", err)
	}
	server := miniredis.RunT(t)
	listingCache := cache.NewRedisListingCache(server.Addr(), time.Minute)

	config := &core.ServiceConfig{Port: 8080}
	coreService := core.NewCoreServiceWith(config, store, listingCache)
	t.Cleanup(func() { _ = coreService.Close() })

	e := echo.New()
	NewAPIService(config, coreService).SetRoutes(e)
	return e, coreService
}

// buildMultipart creates a multipart body with a single "file" part
// carrying the given declared media type.
func buildMultipart(t *testing.T, filename, mediaType, content string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", mediaType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart error: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("part write error: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer close error: %v", err)
	}
	return body, writer.FormDataContentType()
}

func postUpload(t *testing.T, e *echo.Echo, filename, mediaType, content string) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := buildMultipart(t, filename, mediaType, content)
	req := httptest.NewRequest(http.MethodPost, "/songs/upload-csv", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	e, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var health HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("expected status %q, got %q", "ok", health.Status)
	}
	if health.Timestamp == "" || health.Uptime == "" {
		t.Errorf("expected timestamp and uptime to be set: %+v", health)
	}
}

func TestListSongs_EmptyReturnsEmptyArray(t *testing.T) {
	e, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/songs", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := bytes.TrimSpace(rec.Body.Bytes()); string(got) != "[]" {
		t.Errorf("expected empty JSON array, got %s", got)
	}
}

func TestUploadCSV_Success(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := postUpload(t, e, "songs.csv", "text/csv", "band,song,year\nThe Beatles,Hey Jude,1968")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message == "" {
		t.Errorf("expected a human-readable success message")
	}

	// The stored record is lowercased with the band-first mapping applied.
	listReq := httptest.NewRequest(http.MethodGet, "/songs", nil)
	listRec := httptest.NewRecorder()
	e.ServeHTTP(listRec, listReq)

	var songs []database.Song
	if err := json.Unmarshal(listRec.Body.Bytes(), &songs); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if len(songs) != 1 {
		t.Fatalf("expected 1 song, got %d", len(songs))
	}
	if songs[0].SongName != "hey jude" || songs[0].BandName != "the beatles" || songs[0].Year != 1968 {
		t.Errorf("unexpected stored song: %+v", songs[0])
	}
}

func TestUploadCSV_MissingFile(t *testing.T) {
	e, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/songs/upload-csv", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestUploadCSV_RejectsNonCSVMediaType(t *testing.T) {
	e, coreService := newTestAPI(t)

	rec := postUpload(t, e, "songs.pdf", "application/pdf", "band,song,year\nQueen,Innuendo,1991")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	// Rejection happens before parsing; nothing reaches the store.
	count, err := coreService.CountSongs(context.Background())
	if err != nil {
		t.Fatalf("CountSongs error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no inserts after media-type rejection, got %d", count)
	}
}

func TestUploadCSV_PlainTextWithCSVExtensionAccepted(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := postUpload(t, e, "songs.csv", "text/plain", "band,song,year\nABBA,Waterloo,1974")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUploadCSV_HeaderOnlyFails(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := postUpload(t, e, "songs.csv", "text/csv", "band,song,year\n")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	var resp MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "no valid songs found in file" {
		t.Errorf("expected no-valid-songs message, got %q", resp.Message)
	}
}

func TestUploadCSV_DuplicateUploadsCreateDuplicateRows(t *testing.T) {
	e, coreService := newTestAPI(t)

	content := "band,song,year\nQueen,Bohemian Rhapsody,1975"
	for i := 0; i < 2; i++ {
		rec := postUpload(t, e, "songs.csv", "text/csv", content)
		if rec.Code != http.StatusOK {
			t.Fatalf("upload #%d: expected status 200, got %d", i+1, rec.Code)
		}
	}

	count, err := coreService.CountSongs(context.Background())
	if err != nil {
		t.Fatalf("CountSongs error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 duplicate rows, got %d", count)
	}
}

func TestListSongs_OrderedByBandName(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := postUpload(t, e, "songs.csv", "text/csv",
		"band,song,year\nThe Beatles,Hey Jude,1968\nQueen,Bohemian Rhapsody,1975")
	if rec.Code != http.StatusOK {
		t.Fatalf("upload failed: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/songs", nil)
	listRec := httptest.NewRecorder()
	e.ServeHTTP(listRec, req)

	var songs []database.Song
	if err := json.Unmarshal(listRec.Body.Bytes(), &songs); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("expected 2 songs, got %d", len(songs))
	}
	if songs[0].BandName != "queen" || songs[1].BandName != "the beatles" {
		t.Errorf("expected ascending band-name order, got %q then %q",
			songs[0].BandName, songs[1].BandName)
	}
}

func TestImportSample(t *testing.T) {
	e, coreService := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/songs/import", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	count, err := coreService.CountSongs(context.Background())
	if err != nil {
		t.Fatalf("CountSongs error: %v", err)
	}
	if count == 0 {
		t.Errorf("expected bundled sample to insert songs")
	}
}
