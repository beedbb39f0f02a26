package backend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jo-hoe/songshelf/internal/backend/database"
	"github.com/jo-hoe/songshelf/internal/core"
	"github.com/jo-hoe/songshelf/internal/ingest"
)

type APIService struct {
	config      *core.ServiceConfig
	coreService *core.CoreService
	startedAt   time.Time
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		config:      config,
		coreService: coreService,
		startedAt:   time.Now(),
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/", s.healthHandler)
	e.GET("/songs", s.listSongsHandler)
	e.POST("/songs/upload-csv", s.uploadCSVHandler)
	e.POST("/songs/import", s.importSampleHandler)
}

func (s *APIService) healthHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *APIService) listSongsHandler(ctx echo.Context) error {
	songs, err := s.coreService.ListSongs(ctx.Request().Context())
	if err != nil {
		slog.Error("listSongsHandler: failed to list songs",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, MessageResponse{Message: err.Error()})
	}
	if songs == nil {
		// An empty listing serializes as [] rather than null.
		songs = []*database.Song{}
	}
	return ctx.JSON(http.StatusOK, songs)
}

func (s *APIService) uploadCSVHandler(ctx echo.Context) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		slog.Warn("uploadCSVHandler: no file supplied",
			"status", http.StatusBadRequest, "error", err)
		return ctx.JSON(http.StatusBadRequest, MessageResponse{Message: "no file was uploaded"})
	}

	if !isCSVMediaType(file) {
		slog.Warn("uploadCSVHandler: rejected non-CSV media type",
			"status", http.StatusBadRequest,
			"filename", file.Filename,
			"content_type", file.Header.Get(echo.HeaderContentType))
		return ctx.JSON(http.StatusBadRequest, MessageResponse{Message: "uploaded file must be a CSV"})
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("uploadCSVHandler: failed to open uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.JSON(http.StatusInternalServerError, MessageResponse{Message: "failed to open uploaded file"})
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("uploadCSVHandler: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	content, err := io.ReadAll(src)
	if err != nil {
		slog.Error("uploadCSVHandler: failed to read uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.JSON(http.StatusInternalServerError, MessageResponse{Message: "failed to read uploaded file"})
	}

	return s.importContent(ctx, string(content), file.Filename)
}

func (s *APIService) importSampleHandler(ctx echo.Context) error {
	inserted, err := s.coreService.ImportSample(ctx.Request().Context())
	if err != nil {
		slog.Error("importSampleHandler: sample import failed",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, MessageResponse{Message: err.Error()})
	}
	return ctx.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("successfully imported %d songs", inserted),
	})
}

func (s *APIService) importContent(ctx echo.Context, content, source string) error {
	inserted, err := s.coreService.ImportCSV(ctx.Request().Context(), content)
	if errors.Is(err, ingest.ErrNoValidSongs) {
		slog.Warn("importContent: no valid songs in file",
			"status", http.StatusBadRequest, "source", source)
		return ctx.JSON(http.StatusBadRequest, MessageResponse{Message: "no valid songs found in file"})
	}
	if err != nil {
		slog.Error("importContent: import failed",
			"status", http.StatusInternalServerError, "error", err, "source", source)
		return ctx.JSON(http.StatusInternalServerError, MessageResponse{Message: err.Error()})
	}

	return ctx.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("successfully imported %d songs", inserted),
	})
}

// isCSVMediaType checks the declared media type of the upload; parsing
// never starts for a non-CSV declaration. Browsers disagree on the type
// they attach to .csv files, so a few aliases are accepted.
func isCSVMediaType(file *multipart.FileHeader) bool {
	mediaType := strings.ToLower(file.Header.Get(echo.HeaderContentType))
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	switch mediaType {
	case "text/csv", "application/csv", "application/vnd.ms-excel":
		return true
	case "text/plain":
		return strings.HasSuffix(strings.ToLower(file.Filename), ".csv")
	}
	return false
}
