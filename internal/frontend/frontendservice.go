package frontend

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jo-hoe/songshelf/internal/backend/database"
	"github.com/jo-hoe/songshelf/internal/core"
	"github.com/jo-hoe/songshelf/internal/ingest"
	"github.com/jo-hoe/songshelf/internal/settings"
)

const (
	MainPageName = "index.html"
	viewsPattern = "views/*.html"
)

//go:embed views/*.html
var templateFS embed.FS

type Template struct {
	templates *template.Template
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

type FrontendService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
	settings    *settings.Service
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService, settingsService *settings.Service) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
		settings:    settingsService,
	}
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	// Create template renderer
	e.Renderer = &Template{
		templates: template.Must(template.New("").ParseFS(templateFS, viewsPattern)),
	}

	e.GET("/"+MainPageName, service.indexHandler)
	e.GET("/htmx/songs", service.htmxListSongsHandler)
	e.POST("/htmx/songs/upload", service.htmxUploadHandler)
	e.POST("/htmx/songs/import-sample", service.htmxImportSampleHandler)
	e.POST("/htmx/settings/view", service.htmxSetViewModeHandler)
	e.POST("/htmx/settings/theme", service.htmxSetThemeHandler)
}

type indexData struct {
	Theme    string
	ViewMode string
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	current := service.settings.Current()
	return ctx.Render(http.StatusOK, MainPageName, indexData{
		Theme:    current.Theme,
		ViewMode: current.ViewMode,
	})
}

// listQuery captures the view parameters coming from the page controls.
type listQuery struct {
	Search     string
	SortField  string
	Descending bool
	Years      []int
	ViewMode   string
}

func (service *FrontendService) parseListQuery(ctx echo.Context) listQuery {
	query := listQuery{
		Search:     ctx.QueryParam("q"),
		SortField:  ctx.QueryParam("sort"),
		Descending: ctx.QueryParam("dir") == "desc",
		ViewMode:   ctx.QueryParam("view"),
	}
	if query.ViewMode == "" {
		query.ViewMode = service.settings.Current().ViewMode
	}
	for _, raw := range ctx.QueryParams()["years"] {
		if year, err := strconv.Atoi(raw); err == nil {
			query.Years = append(query.Years, year)
		}
	}
	return query
}

func (service *FrontendService) htmxListSongsHandler(ctx echo.Context) error {
	listHTML, err := service.buildSongListHTML(ctx, service.parseListQuery(ctx))
	if err != nil {
		slog.Error("htmxListSongsHandler: failed to list songs",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to list songs")
	}

	// Prevent caching so the latest songs are always shown
	service.setNoCache(ctx)

	return ctx.HTML(http.StatusOK, listHTML)
}

func (service *FrontendService) htmxUploadHandler(ctx echo.Context) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		slog.Warn("htmxUploadHandler: failed to get uploaded file",
			"status", http.StatusBadRequest, "error", err)
		return ctx.HTML(http.StatusBadRequest, statusBanner("error", "No file was uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("htmxUploadHandler: failed to open uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.HTML(http.StatusInternalServerError, statusBanner("error", "Failed to open uploaded file"))
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("htmxUploadHandler: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	content, err := io.ReadAll(src)
	if err != nil {
		slog.Error("htmxUploadHandler: failed to read uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.HTML(http.StatusInternalServerError, statusBanner("error", "Failed to read uploaded file"))
	}

	inserted, err := service.coreService.ImportCSV(ctx.Request().Context(), string(content))
	if errors.Is(err, ingest.ErrNoValidSongs) {
		slog.Warn("htmxUploadHandler: no valid songs in file",
			"status", http.StatusBadRequest, "filename", file.Filename)
		return ctx.HTML(http.StatusBadRequest, statusBanner("error", "No valid songs found in file"))
	}
	if err != nil {
		slog.Error("htmxUploadHandler: import failed",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.HTML(http.StatusInternalServerError, statusBanner("error", "Failed to import songs"))
	}

	return service.respondWithRefreshedList(ctx,
		fmt.Sprintf("Imported %d songs from %s", inserted, template.HTMLEscapeString(file.Filename)))
}

func (service *FrontendService) htmxImportSampleHandler(ctx echo.Context) error {
	inserted, err := service.coreService.ImportSample(ctx.Request().Context())
	if err != nil {
		slog.Error("htmxImportSampleHandler: sample import failed",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.HTML(http.StatusInternalServerError, statusBanner("error", "Failed to import sample songs"))
	}
	return service.respondWithRefreshedList(ctx, fmt.Sprintf("Imported %d sample songs", inserted))
}

func (service *FrontendService) htmxSetViewModeHandler(ctx echo.Context) error {
	viewMode := ctx.FormValue("view")
	if err := service.settings.SetViewMode(viewMode); err != nil {
		slog.Warn("htmxSetViewModeHandler: invalid view mode", "view", viewMode, "error", err)
		return ctx.String(http.StatusBadRequest, "Invalid view mode")
	}

	query := service.parseListQuery(ctx)
	query.ViewMode = viewMode
	listHTML, err := service.buildSongListHTML(ctx, query)
	if err != nil {
		slog.Error("htmxSetViewModeHandler: failed to rebuild song list", "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to list songs")
	}
	service.setNoCache(ctx)
	return ctx.HTML(http.StatusOK, listHTML)
}

func (service *FrontendService) htmxSetThemeHandler(ctx echo.Context) error {
	theme := ctx.FormValue("theme")
	if err := service.settings.SetTheme(theme); err != nil {
		slog.Warn("htmxSetThemeHandler: invalid theme", "theme", theme, "error", err)
		return ctx.String(http.StatusBadRequest, "Invalid theme")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// respondWithRefreshedList returns a status banner plus an out-of-band
// swap of the song list after a successful mutation.
func (service *FrontendService) respondWithRefreshedList(ctx echo.Context, message string) error {
	listHTML, err := service.buildSongListHTML(ctx, service.parseListQuery(ctx))
	if err != nil {
		slog.Error("respondWithRefreshedList: failed to list songs for OOB update",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.HTML(http.StatusOK, statusBanner("success", message))
	}

	songListOOB := fmt.Sprintf(`<div id="song-list" hx-swap-oob="true">%s</div>`, listHTML)
	service.setNoCache(ctx)
	return ctx.HTML(http.StatusOK, statusBanner("success", message)+songListOOB)
}

func (service *FrontendService) buildSongListHTML(ctx echo.Context, query listQuery) (string, error) {
	songs, err := service.coreService.ListSongs(ctx.Request().Context())
	if err != nil {
		return "", err
	}

	allYears := DistinctYears(songs)
	songs = FilterSongs(songs, query.Search, query.Years)
	songs = SortSongs(songs, query.SortField, query.Descending)

	var b strings.Builder
	b.WriteString(buildYearFilterHTML(allYears, query.Years))
	if len(songs) == 0 {
		b.WriteString(`<p>No songs found.</p>`)
		return b.String(), nil
	}

	if query.ViewMode == settings.ViewGrid {
		b.WriteString(buildGridHTML(songs))
	} else {
		b.WriteString(buildTableHTML(songs, query))
	}
	return b.String(), nil
}

func buildYearFilterHTML(allYears, selected []int) string {
	selectedSet := make(map[int]struct{}, len(selected))
	for _, year := range selected {
		selectedSet[year] = struct{}{}
	}

	var b strings.Builder
	b.WriteString(`<fieldset id="year-filter" class="year-filter"><legend>Years</legend>`)
	for _, year := range allYears {
		checked := ""
		if _, ok := selectedSet[year]; ok {
			checked = " checked"
		}
		b.WriteString(fmt.Sprintf(
			`<label><input type="checkbox" name="years" value="%d"%s hx-get="/htmx/songs" hx-target="#song-list" hx-include=".list-controls">%d</label>`,
			year, checked, year))
	}
	b.WriteString(`</fieldset>`)
	return b.String()
}

func buildTableHTML(songs []*database.Song, query listQuery) string {
	var b strings.Builder
	b.WriteString(`<table class="song-table"><thead><tr>`)
	for _, column := range []struct{ field, label string }{
		{SortByBand, "Band"},
		{SortBySong, "Song"},
		{SortByYear, "Year"},
	} {
		// Clicking the active ascending column flips it to descending.
		dir := "asc"
		if column.field == query.SortField && !query.Descending {
			dir = "desc"
		}
		b.WriteString(fmt.Sprintf(
			`<th><a href="#" hx-get="/htmx/songs?sort=%s&dir=%s" hx-target="#song-list" hx-include=".list-controls">%s</a></th>`,
			column.field, dir, column.label))
	}
	b.WriteString(`</tr></thead><tbody>`)
	for _, song := range songs {
		b.WriteString(fmt.Sprintf(`<tr><td>%s</td><td>%s</td><td>%d</td></tr>`,
			template.HTMLEscapeString(song.BandName),
			template.HTMLEscapeString(song.SongName),
			song.Year))
	}
	b.WriteString(`</tbody></table>`)
	return b.String()
}

func buildGridHTML(songs []*database.Song) string {
	var b strings.Builder
	b.WriteString(`<div class="song-grid">`)
	for _, song := range songs {
		b.WriteString(fmt.Sprintf(
			`<article class="song-card"><h3>%s</h3><p>%s</p><small>%d</small></article>`,
			template.HTMLEscapeString(song.SongName),
			template.HTMLEscapeString(song.BandName),
			song.Year))
	}
	b.WriteString(`</div>`)
	return b.String()
}

func statusBanner(kind, message string) string {
	return fmt.Sprintf(`<div id="upload-result" class="banner banner-%s">%s</div>`, kind, message)
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}
