package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fakturka/invoice-scan/internal/invoice"
)

// extractFiles runs the extraction on each file in turn and returns how many failed
func extractFiles(ctx context.Context, service *invoice.Service, sink invoice.Sink, files []string) int {
	failed := 0
	for _, path := range files {
		if ctx.Err() != nil {
			return failed + 1
		}

		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("Failed to read file", "path", path, "error", err)
			failed++
			continue
		}

		report, err := service.ProcessImage(ctx, filepath.Base(path), data, http.DetectContentType(data))
		if report == nil {
			slog.Error("Extraction cancelled", "path", path, "error", err)
			return failed + 1
		}
		if err != nil {
			failed++
		}
		if err := sink.Emit(report); err != nil {
			slog.Error("Failed to write result", "error", err)
			return failed + 1
		}
	}
	return failed
}
