package core

import (
	"context"
	"embed"
)

//go:embed samples/songs.csv
var sampleFS embed.FS

const sampleCSVPath = "samples/songs.csv"

// ImportSample runs the import pipeline over the bundled sample CSV.
// The file is trusted by construction, so there is no media-type check.
func (service *CoreService) ImportSample(ctx context.Context) (int, error) {
	content, err := sampleFS.ReadFile(sampleCSVPath)
	if err != nil {
		return 0, err
	}
	return service.ImportCSV(ctx, string(content))
}
